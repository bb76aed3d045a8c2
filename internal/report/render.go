package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/wonny/alphaselector/internal/contracts"
	"github.com/wonny/alphaselector/internal/strategy"
)

// EmptyMessage is printed when a run selected nothing
const EmptyMessage = "未选出符合条件的股票"

var (
	primaryColor = lipgloss.Color("#0077cc")
	hotColor     = lipgloss.Color("#cc3300")
	mutedColor   = lipgloss.Color("#999999")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	mutedStyle  = lipgloss.NewStyle().Foreground(mutedColor)
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	hotStyle    = cellStyle.Foreground(hotColor).Bold(true)
)

// Render writes a human-readable report: header, results grouped by
// strategy and the per-strategy summary
func Render(w io.Writer, r *contracts.Report) error {
	var b strings.Builder

	b.WriteString(titleStyle.Render("AlphaSelector 选股报告"))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("run %s | 区间 %s ~ %s | 股票池 %d 只, 已评估 %d, 跳过 %d",
		r.RunID, r.StartDate, r.EndDate, r.UniverseSize, r.Evaluated, r.Skipped)))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("热点板块: %s\n\n", hotLine(r.HotSectors)))

	if r.Empty() {
		b.WriteString(EmptyMessage)
		b.WriteString("\n")
	} else {
		b.WriteString(resultsTable(r).Render())
		b.WriteString("\n")
	}

	if len(r.Summaries) > 0 {
		b.WriteString("\n")
		b.WriteString(titleStyle.Render("策略对比"))
		b.WriteString("\n")
		b.WriteString(summaryTable(r.Summaries).Render())
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func hotLine(hot []string) string {
	var names []string
	for _, h := range hot {
		if h != "" {
			names = append(names, h)
		}
	}
	if len(names) == 0 {
		return "无"
	}
	return strings.Join(names, ", ")
}

func resultsTable(r *contracts.Report) *table.Table {
	rows := make([][]string, 0, len(r.Results))
	hotRows := make(map[int]bool)
	for _, res := range r.Results {
		if res.Hot {
			hotRows[len(rows)] = true
		}
		rows = append(rows, []string{
			res.Code,
			res.Name,
			res.Industry,
			strategy.Title(res.Strategy),
			strconv.FormatFloat(res.Score, 'f', 3, 64),
			strconv.FormatFloat(res.Price, 'f', 2, 64),
			yesNo(res.Hot),
		})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("代码", "名称", "行业", "策略", "评分", "股价", "热点").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case hotRows[row] && col == 6:
				return hotStyle
			default:
				return cellStyle
			}
		})
}

func summaryTable(summaries []contracts.StrategySummary) *table.Table {
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			strategy.Title(s.Strategy),
			strconv.Itoa(s.Count),
			strconv.FormatFloat(s.MeanScore, 'f', 3, 64),
		})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("策略", "选出数量", "平均评分").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func yesNo(b bool) string {
	if b {
		return "是"
	}
	return "否"
}
