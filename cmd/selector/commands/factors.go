package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/wonny/alphaselector/internal/factor"
	"github.com/wonny/alphaselector/internal/report"
)

// factorsCmd prints the factor table for one stock
var factorsCmd = &cobra.Command{
	Use:   "factors CODE",
	Short: "查看个股因子",
	Long: `拉取个股日线并计算 MA5/MA10/RSI/MACD/5日高/量比.

未定义的值显示为 "-" (JSON 中为 null).

Example:
  go run ./cmd/selector factors 600519
  go run ./cmd/selector factors 000001 --tail 20 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runFactors,
}

var (
	factorsStart string
	factorsEnd   string
	factorsTail  int
	factorsJSON  bool

	stockCode = regexp.MustCompile(`^\d{6}$`)
)

func init() {
	rootCmd.AddCommand(factorsCmd)

	factorsCmd.Flags().StringVar(&factorsStart, "start", "", "开始日期 YYYYMMDD")
	factorsCmd.Flags().StringVar(&factorsEnd, "end", "", "结束日期 YYYYMMDD")
	factorsCmd.Flags().IntVar(&factorsTail, "tail", 10, "只显示最后 N 行 (0 = 全部)")
	factorsCmd.Flags().BoolVar(&factorsJSON, "json", false, "输出 JSON")
}

func runFactors(cmd *cobra.Command, args []string) error {
	code := args[0]
	if !stockCode.MatchString(code) {
		return fmt.Errorf("invalid stock code %q (expected 6 digits)", code)
	}
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	start, err := parseDateFlag("start", factorsStart, a.cfg.Selection.Start())
	if err != nil {
		return err
	}
	end, err := parseDateFlag("end", factorsEnd, a.cfg.Selection.End())
	if err != nil {
		return err
	}

	series, err := a.bars.FetchDailyBars(ctx, code, start, end)
	if err != nil {
		return fmt.Errorf("fetch bars: %w", err)
	}
	if len(series) == 0 {
		PrintWarning(fmt.Sprintf("%s 在区间内没有日线", code))
		return nil
	}

	fs := factor.NewEngine(a.log).ComputeFactors(series)
	if factorsTail > 0 {
		fs = fs.Tail(factorsTail)
	}

	if factorsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(fs)
	}
	return report.RenderFactors(os.Stdout, code, fs)
}
