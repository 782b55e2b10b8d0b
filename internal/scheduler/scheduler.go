// Package scheduler runs the report and cache maintenance jobs on cron
// schedules.
package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/Eroleice/Quant-Cat/internal/events"
)

// Job represents a scheduled job
type Job interface {
	Run() error
	Name() string
}

// Scheduler manages background jobs
type Scheduler struct {
	cron *cron.Cron
	bus  *events.Bus
	log  zerolog.Logger
}

// New creates a new scheduler. Schedules take six fields, seconds first,
// and are interpreted in loc (time.Local when nil). bus may be nil.
func New(loc *time.Location, bus *events.Bus, log zerolog.Logger) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		cron: cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		bus:  bus,
		log:  log.With().Str("component", "scheduler").Logger(),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("Scheduler started")
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("Scheduler stopped")
}

// AddJob registers a new job with cron schedule
// Schedule examples:
//   - "0 30 17 * * 1-5"    - 17:30 on weekdays
//   - "0 0 3 * * *"        - 03:00 every day
//   - "@every 30s"         - Every 30 seconds
func (s *Scheduler) AddJob(schedule string, job Job) error {
	_, err := s.cron.AddFunc(schedule, func() {
		_ = s.execute(job)
	})
	if err != nil {
		return err
	}

	s.log.Info().
		Str("schedule", schedule).
		Str("job", job.Name()).
		Msg("Job registered")

	return nil
}

// Entries returns the number of registered jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// RunNow executes a job immediately (outside schedule)
func (s *Scheduler) RunNow(job Job) error {
	s.log.Info().Str("job", job.Name()).Msg("Running job immediately")
	return s.execute(job)
}

func (s *Scheduler) execute(job Job) error {
	start := time.Now()
	s.log.Debug().Str("job", job.Name()).Msg("Running job")
	s.emit(&events.JobStatusData{JobName: job.Name(), Status: "started", Timestamp: start})

	err := job.Run()
	elapsed := time.Since(start)

	if err != nil {
		s.log.Error().
			Err(err).
			Str("job", job.Name()).
			Dur("elapsed", elapsed).
			Msg("Job failed")
		s.emit(&events.JobStatusData{
			JobName: job.Name(), Status: "failed", Error: err.Error(),
			Duration: elapsed.Seconds(), Timestamp: time.Now(),
		})
		return err
	}

	s.log.Debug().Str("job", job.Name()).Dur("elapsed", elapsed).Msg("Job completed")
	s.emit(&events.JobStatusData{
		JobName: job.Name(), Status: "completed",
		Duration: elapsed.Seconds(), Timestamp: time.Now(),
	})
	return nil
}

func (s *Scheduler) emit(data events.EventData) {
	if s.bus != nil {
		s.bus.Emit("scheduler", data)
	}
}
