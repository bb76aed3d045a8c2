package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/alphaselector/internal/report"
	"github.com/wonny/alphaselector/internal/selection"
)

// selectCmd runs one selection and prints the report
var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "运行选股",
	Long: `股票池内每只股票计算因子并运行所选策略, 输出选股报告.

报告内容:
- 选出的股票 (代码/名称/行业/策略/评分/股价/热点), 按策略分组
- 热点板块
- 各策略选出数量与平均评分

Example:
  go run ./cmd/selector select
  go run ./cmd/selector select --strategies trend_breakout,ma_golden_cross
  go run ./cmd/selector select --start 20250101 --end 20250630 --limit 200 --json`,
	RunE: runSelect,
}

var (
	selectStrategies []string
	selectStart      string
	selectEnd        string
	selectLimit      int
	selectJSON       bool
)

func init() {
	rootCmd.AddCommand(selectCmd)

	selectCmd.Flags().StringSliceVar(&selectStrategies, "strategies", nil, "策略名, 逗号分隔 (默认全部)")
	selectCmd.Flags().StringVar(&selectStart, "start", "", "开始日期 YYYYMMDD (默认 SELECT_START_DATE)")
	selectCmd.Flags().StringVar(&selectEnd, "end", "", "结束日期 YYYYMMDD (默认 SELECT_END_DATE)")
	selectCmd.Flags().IntVar(&selectLimit, "limit", 0, "股票池上限 (默认 SELECT_UNIVERSE_LIMIT)")
	selectCmd.Flags().BoolVar(&selectJSON, "json", false, "输出 JSON")
}

func runSelect(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	opts := selection.RunOptions{Strategies: selectStrategies, Limit: selectLimit}
	if opts.Start, err = parseDateFlag("start", selectStart, a.cfg.Selection.Start()); err != nil {
		return err
	}
	if opts.End, err = parseDateFlag("end", selectEnd, a.cfg.Selection.End()); err != nil {
		return err
	}

	rep, runErr := a.service().Run(ctx, opts)
	if rep == nil {
		return runErr
	}

	if selectJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			return err
		}
	} else if err := report.Render(os.Stdout, rep); err != nil {
		return err
	}

	if runErr != nil {
		return fmt.Errorf("selection incomplete: %w", runErr)
	}
	return nil
}
