package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/momentum/internal/scheduler"
	"github.com/wonny/momentum/internal/scheduler/jobs"
	"github.com/wonny/momentum/pkg/config"
	"github.com/wonny/momentum/pkg/logger"
)

// scheduleCmd represents the schedule command
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "정기 리포트 스케줄러 시작",
	Long: `SCHEDULE_CRON 에 맞춰 SCHEDULE_PERIODS 의 리포트를 생성합니다.
실패한 실행은 재시도하지 않고 다음 스케줄을 기다립니다.
종료 시 실행 통계를 출력합니다.

Example:
  go run ./cmd/momentum schedule
  go run ./cmd/momentum schedule --now`,
	RunE: runSchedule,
}

var (
	scheduleNow     bool
	scheduleTimeout time.Duration
)

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().BoolVar(&scheduleNow, "now", false, "run the report job once and exit")
	scheduleCmd.Flags().DurationVar(&scheduleTimeout, "timeout", 30*time.Minute, "upper bound for one run")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	runner, err := a.runner()
	if err != nil {
		return err
	}

	s, job, err := newReportScheduler(cfg, log, runner, scheduleTimeout)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if scheduleNow {
		err := s.RunJob(job.Name())
		PrintJobStats(out, s.Stats())
		if err != nil {
			return err
		}
		PrintSuccess(out, "Report job completed")
		return nil
	}

	s.Start()

	if next, err := s.NextRun(job.Name()); err == nil {
		fmt.Fprintf(out, "\n✅ Scheduler running, next run at %s\n", next.Format(time.RFC3339))
	}
	fmt.Fprintln(out, "Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)
	<-quit

	s.Stop()
	PrintJobStats(out, s.Stats())
	return nil
}

// newReportScheduler registers the report job on a scheduler evaluated in Taipei time
func newReportScheduler(cfg *config.Config, log *logger.Logger, runner jobs.ReportRunner, timeout time.Duration) (*scheduler.Scheduler, *jobs.ReportJob, error) {
	job, err := jobs.NewReportJob(runner, cfg.Schedule.Cron, cfg.Schedule.Periods, log)
	if err != nil {
		return nil, nil, err
	}

	loc, err := time.LoadLocation("Asia/Taipei")
	if err != nil {
		loc = time.FixedZone("CST", 8*60*60)
	}

	s := scheduler.New(log, loc, timeout)
	if err := s.AddJob(job); err != nil {
		return nil, nil, err
	}
	return s, job, nil
}
