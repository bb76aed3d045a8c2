package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/alphaselector/internal/api"
	"github.com/wonny/alphaselector/internal/api/handlers"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "启动 API 服务",
	Long: `启动 REST / WebSocket API 服务.

Endpoints:
  GET  /health               - Health check
  GET  /api/strategies       - 策略列表
  GET  /api/reports/latest   - 最新选股报告
  POST /api/reports          - 立即运行选股
  GET  /api/factors/{code}   - 个股因子
  GET  /api/jobs             - 定时任务状态 (--scheduler)
  POST /api/jobs/{name}/run  - 立即运行任务 (--scheduler)
  GET  /ws/reports           - 推送新报告

Example:
  go run ./cmd/selector api
  go run ./cmd/selector api --port 8080 --scheduler`,
	RunE: runAPIServer,
}

var (
	apiPort      string
	apiScheduler bool
)

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API 端口 (默认 PORT)")
	apiCmd.Flags().BoolVar(&apiScheduler, "scheduler", false, "同时启动调度器")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}
	log := a.log
	svc := a.service()

	h := api.Handlers{
		Selection: handlers.NewSelectionHandler(svc, log),
		Factors:   handlers.NewFactorHandler(a.bars, a.cfg.Selection.Start(), a.cfg.Selection.End(), log),
		Stream:    handlers.NewReportStream(svc.Store(), log),
	}

	if apiScheduler {
		sched, err := initScheduler(a, svc)
		if err != nil {
			return fmt.Errorf("init scheduler: %w", err)
		}
		sched.Start()
		defer sched.Stop()
		h.Jobs = handlers.NewJobsHandler(sched)
	}

	server := api.New(a.cfg, log, api.NewRouter(h, log))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
