package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/alphaselector/pkg/config"
	"github.com/wonny/alphaselector/pkg/database"
)

// collectCmd syncs daily bars into PostgreSQL
var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "同步日线到数据库",
	Long: `从东方财富增量拉取股票池日线并写入 data.daily_bars.

已有数据的股票只拉取最新交易日之后的部分. 需要 DATABASE_URL.

Example:
  go run ./cmd/selector collect
  go run ./cmd/selector collect --limit 0 --workers 4`,
	RunE: runCollect,
}

var (
	collectStart   string
	collectLimit   int
	collectWorkers int
)

func init() {
	rootCmd.AddCommand(collectCmd)

	collectCmd.Flags().StringVar(&collectStart, "start", "", "首次拉取的开始日期 YYYYMMDD")
	collectCmd.Flags().IntVar(&collectLimit, "limit", -1, "股票池上限 (0 = 全部, 默认 SELECT_UNIVERSE_LIMIT)")
	collectCmd.Flags().IntVar(&collectWorkers, "workers", 0, "并发数 (默认 SELECT_CONCURRENCY)")
}

func runCollect(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	col, err := a.collector()
	if errors.Is(err, database.ErrDisabled) {
		return fmt.Errorf("collect requires DATABASE_URL: %w", err)
	}

	cc := a.collectConfig()
	cc.End = time.Now()
	if cc.Start, err = parseDateFlag("start", collectStart, cc.Start); err != nil {
		return err
	}
	if collectLimit >= 0 {
		cc.Limit = collectLimit
	}
	if collectWorkers > 0 {
		cc.Workers = collectWorkers
	}

	PrintDoubleSeparator()
	fmt.Println("  日线同步")
	PrintSeparator()
	PrintKeyValue("区间", fmt.Sprintf("%s ~ %s", cc.Start.Format(config.DateLayout), cc.End.Format(config.DateLayout)), 6)
	PrintKeyValue("上限", limitLabel(cc.Limit), 6)
	PrintSeparator()

	begin := time.Now()
	sum, err := col.Collect(ctx, cc)
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}

	PrintKeyValue("股票", fmt.Sprintf("%d", sum.Stocks), 6)
	PrintKeyValue("更新", fmt.Sprintf("%d (%d 条日线)", sum.Updated, sum.Bars), 6)
	PrintKeyValue("已最新", fmt.Sprintf("%d", sum.UpToDate), 6)
	PrintKeyValue("失败", fmt.Sprintf("%d", sum.Failed), 6)
	fmt.Println()
	PrintSuccess(fmt.Sprintf("完成, 用时 %.1fs", time.Since(begin).Seconds()))
	return nil
}

func limitLabel(n int) string {
	if n == 0 {
		return "全部"
	}
	return fmt.Sprintf("%d", n)
}
