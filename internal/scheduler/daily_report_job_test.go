package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Eroleice/Quant-Cat/internal/pipeline"
)

type stubRunner struct {
	opts []pipeline.Options
	err  error
}

func (r *stubRunner) Run(ctx context.Context, opts pipeline.Options) (*pipeline.Result, error) {
	r.opts = append(r.opts, opts)
	if r.err != nil {
		return nil, r.err
	}
	return &pipeline.Result{RunID: "run-1", Files: []string{"a.pdf"}}, nil
}

func TestDailyReportJob_RunsForExchangeDay(t *testing.T) {
	runner := &stubRunner{}
	job := NewDailyReportJob(runner, true, time.Minute, zerolog.Nop())
	// 17:30 Shanghai on 2022-11-09
	job.now = func() time.Time { return time.Date(2022, 11, 9, 9, 30, 0, 0, time.UTC) }

	require.NoError(t, job.Run())
	require.Len(t, runner.opts, 1)
	assert.Equal(t, "2022-11-09", runner.opts[0].Date.Format("2006-01-02"))
	assert.True(t, runner.opts[0].Dev)
	assert.Equal(t, "daily_report", job.Name())
}

func TestDailyReportJob_RunInProgressIsNotAnError(t *testing.T) {
	job := NewDailyReportJob(&stubRunner{err: pipeline.ErrRunInProgress}, false, 0, zerolog.Nop())
	assert.NoError(t, job.Run())
}

func TestDailyReportJob_PropagatesFailure(t *testing.T) {
	job := NewDailyReportJob(&stubRunner{err: errors.New("stage sample failed")}, false, 0, zerolog.Nop())
	assert.Error(t, job.Run())
}
