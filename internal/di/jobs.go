package di

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Eroleice/Quant-Cat/internal/config"
	"github.com/Eroleice/Quant-Cat/internal/scheduler"
)

// Maintenance schedules, seconds first, in exchange time.
const (
	CacheCleanupSchedule       = "0 0 3 * * *"
	CheckCacheDatabaseSchedule = "0 15 3 * * 0"
)

// RegisterJobs creates the scheduled jobs and registers them with sched.
// Cache jobs are only registered when the provider cache is enabled.
func RegisterJobs(container *Container, cfg *config.Config, sched *scheduler.Scheduler, log zerolog.Logger) (*JobInstances, error) {
	if container == nil {
		return nil, fmt.Errorf("container cannot be nil")
	}

	instances := &JobInstances{}

	instances.DailyReport = scheduler.NewDailyReportJob(container.Runner, cfg.DevMode, 0, log)
	if err := sched.AddJob(cfg.ReportSchedule, instances.DailyReport); err != nil {
		return nil, fmt.Errorf("failed to register daily report job: %w", err)
	}

	if container.ClientDataDB == nil {
		return instances, nil
	}

	instances.CacheCleanup = scheduler.NewCacheCleanupJob(container.ClientDataRepo, container.ClientDataDB, log)
	if err := sched.AddJob(CacheCleanupSchedule, instances.CacheCleanup); err != nil {
		return nil, fmt.Errorf("failed to register cache cleanup job: %w", err)
	}

	instances.CheckCacheDatabase = scheduler.NewCheckCacheDatabaseJob(container.ClientDataDB, log)
	if err := sched.AddJob(CheckCacheDatabaseSchedule, instances.CheckCacheDatabase); err != nil {
		return nil, fmt.Errorf("failed to register cache check job: %w", err)
	}

	log.Info().Msg("Scheduled jobs registered")
	return instances, nil
}
