// Package testing provides testing utilities and helpers for the report pipeline.
package testing

import (
	"path/filepath"
	"testing"

	"github.com/Eroleice/Quant-Cat/internal/database"
)

// NewTestDB creates a file-backed SQLite database in a per-test temp dir
// with the schema registered for name applied.
// The cleanup function is idempotent and can be called multiple times safely.
func NewTestDB(t *testing.T, name string) (*database.DB, func()) {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), name+".db"),
		Profile: database.ProfileCache,
		Name:    name,
	})
	if err != nil {
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		t.Fatalf("Failed to migrate test database %s: %v", name, err)
	}

	closed := false
	return db, func() {
		if closed {
			return
		}
		closed = true
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database %s: %v", name, err)
		}
	}
}
