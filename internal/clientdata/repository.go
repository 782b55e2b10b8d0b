// Package clientdata provides persistent caching for provider responses.
// Payloads are stored as msgpack blobs with expiration timestamps for
// cache-first behavior with stale fallback.
package clientdata

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// Cached provider endpoints.
const (
	TableDaily       = "tushare_daily"
	TableMonthly     = "tushare_monthly"
	TableIndexDaily  = "tushare_index_daily"
	TableIndexWeight = "tushare_index_weight"
	TableStockBasic  = "tushare_stock_basic"
)

// AllTables lists all tables in client_data.db for cleanup operations.
var AllTables = []string{
	TableDaily,
	TableMonthly,
	TableIndexDaily,
	TableIndexWeight,
	TableStockBasic,
}

// validTables is a set for O(1) table name validation.
var validTables = func() map[string]bool {
	m := make(map[string]bool, len(AllTables))
	for _, t := range AllTables {
		m[t] = true
	}
	return m
}()

// Repository provides cache operations for client data.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository creates a new client data repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// validateTable ensures the table name is in our allowed list.
// This prevents SQL injection through table names.
func validateTable(table string) error {
	if !validTables[table] {
		return fmt.Errorf("invalid table name: %s", table)
	}
	return nil
}

// Store encodes data with msgpack and saves it with expiration = now + ttl.
func (r *Repository) Store(table, key string, data interface{}, ttl time.Duration) error {
	if err := validateTable(table); err != nil {
		return err
	}

	blob, err := msgpack.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	expiresAt := r.now().Add(ttl).Unix()

	query := fmt.Sprintf(
		"INSERT OR REPLACE INTO %s (request_key, data, expires_at) VALUES (?, ?, ?)",
		table,
	)

	if _, err := r.db.Exec(query, key, blob, expiresAt); err != nil {
		return fmt.Errorf("failed to store data in %s: %w", table, err)
	}

	return nil
}

// GetIfFresh returns the raw blob only if expires_at > now.
// Returns nil, nil if the key doesn't exist or data is expired.
func (r *Repository) GetIfFresh(table, key string) ([]byte, error) {
	if err := validateTable(table); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		"SELECT data FROM %s WHERE request_key = ? AND expires_at > ?",
		table,
	)
	return r.scanBlob(table, query, key, r.now().Unix())
}

// Get returns the raw blob regardless of expiration status.
// Use this as a fallback when provider calls fail.
// Returns nil, nil if the key doesn't exist.
func (r *Repository) Get(table, key string) ([]byte, error) {
	if err := validateTable(table); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT data FROM %s WHERE request_key = ?", table)
	return r.scanBlob(table, query, key)
}

func (r *Repository) scanBlob(table, query string, args ...interface{}) ([]byte, error) {
	var data []byte
	err := r.db.QueryRow(query, args...).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get data from %s: %w", table, err)
	}
	return data, nil
}

// LoadIfFresh decodes a fresh entry into v. Reports whether one was found.
func (r *Repository) LoadIfFresh(table, key string, v interface{}) (bool, error) {
	blob, err := r.GetIfFresh(table, key)
	if err != nil || blob == nil {
		return false, err
	}
	return true, decode(blob, v)
}

// Load decodes an entry into v ignoring expiry. Reports whether one was found.
func (r *Repository) Load(table, key string, v interface{}) (bool, error) {
	blob, err := r.Get(table, key)
	if err != nil || blob == nil {
		return false, err
	}
	return true, decode(blob, v)
}

func decode(blob []byte, v interface{}) error {
	if err := msgpack.Unmarshal(blob, v); err != nil {
		return fmt.Errorf("failed to unmarshal cached data: %w", err)
	}
	return nil
}

// Delete removes a specific entry.
func (r *Repository) Delete(table, key string) error {
	if err := validateTable(table); err != nil {
		return err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE request_key = ?", table)
	if _, err := r.db.Exec(query, key); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}

	return nil
}

// DeleteExpired removes all rows where expires_at < now.
// Returns the number of rows deleted.
func (r *Repository) DeleteExpired(table string) (int64, error) {
	if err := validateTable(table); err != nil {
		return 0, err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE expires_at < ?", table)

	result, err := r.db.Exec(query, r.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired from %s: %w", table, err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected for %s: %w", table, err)
	}

	return deleted, nil
}

// DeleteAllExpired removes all expired entries from all tables.
// Returns a map of table name to number of rows deleted.
func (r *Repository) DeleteAllExpired() (map[string]int64, error) {
	results := make(map[string]int64)

	for _, table := range AllTables {
		deleted, err := r.DeleteExpired(table)
		if err != nil {
			return results, err
		}
		results[table] = deleted
	}

	return results, nil
}
