package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/wonny/alphaselector/internal/contracts"
	"github.com/wonny/alphaselector/pkg/config"
)

// undefinedCell marks a factor that has no value yet
const undefinedCell = "-"

// RenderFactors writes one row per bar with the derived factor columns
func RenderFactors(w io.Writer, code string, fs contracts.FactorSeries) error {
	rows := make([][]string, 0, len(fs))
	for _, f := range fs {
		rows = append(rows, []string{
			f.Date.Format(config.DateLayout),
			num(f.Close, 2),
			num(f.Volume, 0),
			num(f.MA5, 2),
			num(f.MA10, 2),
			num(f.RSI, 2),
			num(f.MACD, 4),
			num(f.MACDSignal, 4),
			num(f.MACDHist, 4),
			num(f.High5D, 2),
			num(f.VolumeRatio, 2),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(mutedStyle).
		Headers("日期", "收盘", "成交量", "MA5", "MA10", "RSI", "MACD", "信号线", "柱", "5日高", "量比").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s 因子 (%d 行)", code, len(fs))))
	b.WriteString("\n")
	b.WriteString(t.Render())
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func num(v float64, prec int) string {
	if !contracts.Defined(v) {
		return undefinedCell
	}
	return strconv.FormatFloat(v, 'f', prec, 64)
}
