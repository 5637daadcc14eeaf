package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/momentum/internal/contracts"
	"github.com/wonny/momentum/pkg/logger"
)

// ReportRunner produces one reconciled report
type ReportRunner interface {
	Run(ctx context.Context, period contracts.Period) (*contracts.Report, error)
}

// ReportJob runs the reconciliation pipeline for each configured period after the close
// ⭐ SSOT: 정기 리포트 스케줄은 이 Job에서만
type ReportJob struct {
	runner   ReportRunner
	periods  []contracts.Period
	schedule string
	logger   *logger.Logger
}

// NewReportJob creates a report job. Unknown period names are rejected.
func NewReportJob(runner ReportRunner, schedule string, periods []string, log *logger.Logger) (*ReportJob, error) {
	if len(periods) == 0 {
		return nil, fmt.Errorf("report job needs at least one period: %w", contracts.ErrInvalidArgument)
	}

	parsed := make([]contracts.Period, 0, len(periods))
	for _, name := range periods {
		period, err := contracts.ParsePeriod(name)
		if err != nil {
			return nil, err
		}
		parsed = append(parsed, period)
	}

	return &ReportJob{
		runner:   runner,
		periods:  parsed,
		schedule: schedule,
		logger:   log.Module("report_job"),
	}, nil
}

// Name returns the job name
func (j *ReportJob) Name() string {
	return "momentum_report"
}

// Schedule returns the cron schedule (weekdays after the close by default)
func (j *ReportJob) Schedule() string {
	return j.schedule
}

// Run executes one report per period. A failed period does not stop the
// others; all failures are returned together.
func (j *ReportJob) Run(ctx context.Context) error {
	var errs []error

	for _, period := range j.periods {
		report, err := j.runner.Run(ctx, period)
		if err != nil {
			j.logger.WithError(err).WithField("period", period).Error("Scheduled report failed")
			errs = append(errs, fmt.Errorf("period %s: %w", period, err))
			continue
		}

		j.logger.WithFields(map[string]interface{}{
			"period":       period,
			"trading_date": report.TradingDate,
		}).Info("Scheduled report completed")
	}

	return errors.Join(errs...)
}
