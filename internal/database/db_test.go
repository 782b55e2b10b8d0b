package database

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CreatesAndMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "client_data.db")

	db, err := New(Config{Path: path, Profile: ProfileCache, Name: "client_data"})
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, "client_data", db.Name())
	assert.Equal(t, path, db.Path())
	assert.FileExists(t, path)

	require.NoError(t, db.Migrate())
	require.NoError(t, db.Migrate(), "schema must be idempotent")

	var count int
	err = db.Conn().QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name LIKE 'tushare_%'`).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	stats, err := db.GetStats()
	require.NoError(t, err)
	assert.Greater(t, stats.PageSize, int64(0))
}

func TestMigrate_UnknownNameIsNoop(t *testing.T) {
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "other.db"), Name: "other"})
	require.NoError(t, err)
	defer db.Close()

	assert.NoError(t, db.Migrate())
}

func TestBuildConnectionString(t *testing.T) {
	cache := buildConnectionString("/tmp/a.db", ProfileCache)
	assert.Contains(t, cache, "/tmp/a.db?_pragma=journal_mode(WAL)")
	assert.Contains(t, cache, "synchronous(OFF)")

	standard := buildConnectionString("file:mem?mode=memory", ProfileStandard)
	assert.Contains(t, standard, "file:mem?mode=memory&_pragma=journal_mode(WAL)")
	assert.Contains(t, standard, "synchronous(NORMAL)")
}

func TestWithTransaction_RollsBack(t *testing.T) {
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "tx.db"), Name: "client_data"})
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate())

	err = WithTransaction(db.Conn(), func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO tushare_daily (request_key, data, expires_at) VALUES ('k', x'00', 1)`)
		require.NoError(t, err)
		return assert.AnError
	})
	require.Error(t, err)

	var count int
	require.NoError(t, db.Conn().QueryRow(`SELECT COUNT(*) FROM tushare_daily`).Scan(&count))
	assert.Equal(t, 0, count)

	assert.Error(t, WithTransaction(nil, func(*sql.Tx) error { return nil }))
}
