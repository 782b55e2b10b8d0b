package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/Eroleice/Quant-Cat/internal/pipeline"
)

// ReportRunner is the part of pipeline.Runner used by DailyReportJob.
type ReportRunner interface {
	Run(ctx context.Context, opts pipeline.Options) (*pipeline.Result, error)
}

// DailyReportJob produces the report for the current exchange-local day.
type DailyReportJob struct {
	runner  ReportRunner
	dev     bool
	timeout time.Duration
	now     func() time.Time
	log     zerolog.Logger
}

// NewDailyReportJob creates a new DailyReportJob. A zero timeout means
// the run is not bounded.
func NewDailyReportJob(runner ReportRunner, dev bool, timeout time.Duration, log zerolog.Logger) *DailyReportJob {
	return &DailyReportJob{
		runner:  runner,
		dev:     dev,
		timeout: timeout,
		now:     time.Now,
		log:     log.With().Str("job", "daily_report").Logger(),
	}
}

// Name returns the job name
func (j *DailyReportJob) Name() string {
	return "daily_report"
}

// Run executes one report run. A run already in progress is not an error.
func (j *DailyReportJob) Run() error {
	date, err := pipeline.ResolveDate("", j.now())
	if err != nil {
		return err
	}

	ctx := context.Background()
	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	res, err := j.runner.Run(ctx, pipeline.Options{Date: date, Dev: j.dev})
	if errors.Is(err, pipeline.ErrRunInProgress) {
		j.log.Warn().Msg("Previous report run still in progress, skipping")
		return nil
	}
	if err != nil {
		return err
	}

	j.log.Info().
		Str("run_id", res.RunID).
		Strs("files", res.Files).
		Msg("Scheduled report produced")
	return nil
}
