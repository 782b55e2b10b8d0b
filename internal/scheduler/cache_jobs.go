package scheduler

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Eroleice/Quant-Cat/internal/clientdata"
	"github.com/Eroleice/Quant-Cat/internal/database"
)

// walWarnFrames is the WAL size, in frames, above which a warning is logged.
const walWarnFrames = 1000

// CacheCleanupJob deletes expired provider responses and truncates the
// cache database WAL. Stale entries are kept until they expire so the
// provider can fall back to them while Tushare is unreachable.
type CacheCleanupJob struct {
	repo *clientdata.Repository
	db   *database.DB
	log  zerolog.Logger
}

// NewCacheCleanupJob creates a new CacheCleanupJob. db may be nil, in
// which case the WAL is left alone.
func NewCacheCleanupJob(repo *clientdata.Repository, db *database.DB, log zerolog.Logger) *CacheCleanupJob {
	return &CacheCleanupJob{
		repo: repo,
		db:   db,
		log:  log.With().Str("job", "cache_cleanup").Logger(),
	}
}

// Name returns the job name
func (j *CacheCleanupJob) Name() string {
	return "cache_cleanup"
}

// Run executes the cache cleanup job
func (j *CacheCleanupJob) Run() error {
	deleted, err := j.repo.DeleteAllExpired()
	if err != nil {
		return fmt.Errorf("failed to evict expired responses: %w", err)
	}

	var total int64
	for _, table := range clientdata.AllTables {
		if n := deleted[table]; n > 0 {
			j.log.Debug().Str("endpoint", table).Int64("evicted", n).Msg("Evicted expired responses")
			total += n
		}
	}
	j.log.Info().Int64("evicted", total).Msg("Provider cache cleaned")

	if j.db == nil {
		return nil
	}
	if err := j.db.WALCheckpoint("TRUNCATE"); err != nil {
		j.log.Warn().Err(err).Msg("WAL checkpoint after cleanup failed")
	}
	return nil
}

// CheckCacheDatabaseJob verifies integrity of the cache database and
// reports WAL growth.
type CheckCacheDatabaseJob struct {
	db  *database.DB
	log zerolog.Logger
}

// NewCheckCacheDatabaseJob creates a new CheckCacheDatabaseJob
func NewCheckCacheDatabaseJob(db *database.DB, log zerolog.Logger) *CheckCacheDatabaseJob {
	return &CheckCacheDatabaseJob{
		db:  db,
		log: log.With().Str("job", "check_cache_database").Logger(),
	}
}

// Name returns the job name
func (j *CheckCacheDatabaseJob) Name() string {
	return "check_cache_database"
}

// Run executes the check cache database job
func (j *CheckCacheDatabaseJob) Run() error {
	if j.db == nil {
		j.log.Warn().Msg("Database not initialized, skipping")
		return nil
	}

	var result string
	if err := j.db.Conn().QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database %s is corrupted: %s", j.db.Name(), result)
	}

	// PRAGMA wal_checkpoint returns: busy, log, checkpointed
	var busy, frames, checkpointed int
	if err := j.db.Conn().QueryRow("PRAGMA wal_checkpoint(PASSIVE)").Scan(&busy, &frames, &checkpointed); err != nil {
		j.log.Warn().Err(err).Msg("Failed to check WAL checkpoint")
		return nil
	}

	if frames > walWarnFrames {
		j.log.Warn().
			Int("wal_frames", frames).
			Int("checkpointed", checkpointed).
			Msg("WAL file is large, checkpoint may be needed")
	} else {
		j.log.Debug().Int("wal_frames", frames).Msg("WAL checkpoint status OK")
	}
	return nil
}
