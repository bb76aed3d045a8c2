package commands

import (
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/alphaselector/internal/scheduler"
	"github.com/wonny/alphaselector/internal/scheduler/jobs"
	"github.com/wonny/alphaselector/internal/selection"
)

// selectionLookback is the window screened by the scheduled selection
const selectionLookback = 180 * 24 * time.Hour

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "定时任务",
	Long: `定时任务管理.

Subcommands:
  start   - 启动调度器
  list    - 已注册任务与下次运行时间
  run     - 立即运行某个任务并等待结果

Example:
  go run ./cmd/selector scheduler start
  go run ./cmd/selector scheduler run daily_selection`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "启动调度器",
		Long: `启动调度器, Ctrl+C 退出.

注册的任务:
- daily_selection: SCHEDULE_SELECTION (默认工作日 15:30)
- bar_collection:  SCHEDULE_COLLECT (默认工作日 16:00, 需要 DATABASE_URL)`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "已注册任务",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "立即运行任务",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(a, a.service())
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()
	defer sched.Stop()

	PrintSuccess("Scheduler started")
	printJobs(sched)
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(a, a.service())
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	printJobs(sched)
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := initScheduler(a, a.service())
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer sched.Stop()

	fmt.Printf("Running job: %s\n", jobName)
	res, err := sched.RunJobNow(jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	PrintKeyValue("Attempts", fmt.Sprintf("%d", res.Attempts), 9)
	PrintKeyValue("Duration", res.Duration.Round(time.Millisecond).String(), 9)
	if !res.Success {
		PrintError(res.Error)
		return fmt.Errorf("job %s failed", jobName)
	}
	PrintSuccess("Job completed")
	return nil
}

// initScheduler registers the selection job and, with a database, the collection job
func initScheduler(a *app, svc *selection.Service) (*scheduler.Scheduler, error) {
	sched := scheduler.NewFromConfig(a.cfg.Scheduler, a.log)

	sel := jobs.NewSelectionJob(svc, a.cfg.Scheduler.SelectionSpec, nil, a.log).
		WithLookback(selectionLookback)
	if err := sched.AddJob(sel); err != nil {
		return nil, err
	}

	if col, err := a.collector(); err == nil && a.cfg.Scheduler.CollectSpec != "" {
		base := a.collectConfig()
		if err := sched.AddJob(jobs.NewCollectJob(col, a.cfg.Scheduler.CollectSpec, base, a.log)); err != nil {
			return nil, err
		}
	}

	return sched, nil
}

func printJobs(sched *scheduler.Scheduler) {
	stats := sched.GetJobStats()
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nRegistered jobs:")
	for _, name := range names {
		next := "-"
		if t, ok := sched.NextRun(name); ok && !t.IsZero() {
			next = t.Format("2006-01-02 15:04:05")
		}
		fmt.Printf("  - %-16s %-18s next %s\n", name, stats[name].Schedule, next)
	}
}
