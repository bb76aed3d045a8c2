package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/alphaselector/pkg/config"
)

// statusCmd checks config and connectivity
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "检查配置与连接",
	Long: `显示当前选股配置, 并检查 PostgreSQL / Redis / 东方财富 的连通性.

Example:
  go run ./cmd/selector status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sc := a.cfg.Selection

	PrintDoubleSeparator()
	fmt.Println("  AlphaSelector status")
	PrintDoubleSeparator()
	PrintKeyValue("Env", a.cfg.Env, 10)
	PrintKeyValue("区间", fmt.Sprintf("%s ~ %s", sc.StartDate, sc.EndDate), 10)
	PrintKeyValue("板块", strings.Join(sc.BoardPrefixes, ","), 10)
	PrintKeyValue("最小流通市值", fmt.Sprintf("%.0f", sc.MinMarketValue), 10)
	PrintKeyValue("股票池上限", limitLabel(sc.UniverseLimit), 10)
	PrintKeyValue("并发", fmt.Sprintf("%d", sc.Concurrency), 10)
	PrintKeyValue("热点来源", fmt.Sprintf("%s (top %d)", sc.HotSectorSource, sc.HotSectorTopK), 10)
	PrintKeyValue("策略", strings.Join(a.registry.List(), ","), 10)
	PrintKeyValue("Config", shortHash(a.configHash), 10)
	PrintSeparator()

	// PostgreSQL
	if a.db == nil {
		PrintWarning("PostgreSQL: disabled (DATABASE_URL not set)")
	} else if health, err := a.db.HealthCheck(ctx); err != nil {
		PrintError("PostgreSQL: " + health.Error)
	} else {
		PrintSuccess(fmt.Sprintf("PostgreSQL: ok (%s)", health.ResponseTime.Round(time.Millisecond)))
		if cov, err := a.prices.Coverage(ctx, time.Time{}); err != nil {
			PrintError("Coverage: " + err.Error())
		} else if cov.Stocks > 0 {
			PrintKeyValue("日线", fmt.Sprintf("%d 条, %d 只股票", cov.Bars, cov.Stocks), 10)
			PrintKeyValue("最新交易日", fmt.Sprintf("%s, 覆盖 %d/%d (%.1f%%)",
				cov.Date.Format(config.DateLayout), cov.Covered, cov.Stocks, cov.Ratio()*100), 10)
		}
	}

	// Redis
	switch {
	case !a.redis.Enabled():
		PrintWarning("Redis: disabled")
	case a.redis.Ping(ctx) != nil:
		PrintError("Redis: ping failed")
	default:
		PrintSuccess("Redis: ok")
	}

	// Eastmoney
	if _, err := a.eastmoney.FetchDailyBars(ctx, "000001", time.Now().AddDate(0, 0, -10), time.Now()); err != nil {
		PrintError("Eastmoney: " + err.Error())
	} else {
		PrintSuccess("Eastmoney: ok")
	}

	return nil
}
