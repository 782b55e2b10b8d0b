package clientdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounts(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	require.NoError(t, repo.Store(TableDaily, "expired", 1, -time.Hour))
	require.NoError(t, repo.Store(TableDaily, "fresh", 1, time.Hour))
	require.NoError(t, repo.Store(TableStockBasic, "fresh", 1, time.Hour))

	counts, err := repo.Counts()
	require.NoError(t, err)
	assert.Len(t, counts, len(AllTables))
	assert.Equal(t, TableCount{Entries: 2, Expired: 1}, counts[TableDaily])
	assert.Equal(t, TableCount{Entries: 1}, counts[TableStockBasic])
	assert.Equal(t, TableCount{}, counts[TableMonthly])
}

func TestCounts_ClosedDB(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db)
	db.Close()

	_, err := repo.Counts()
	assert.Error(t, err)
}
