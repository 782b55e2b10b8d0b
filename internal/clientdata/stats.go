package clientdata

import "fmt"

// TableCount is the number of cached responses of one endpoint.
type TableCount struct {
	Entries int64 `json:"entries"`
	Expired int64 `json:"expired"`
}

// Counts returns the cached and expired response counts per endpoint table.
func (r *Repository) Counts() (map[string]TableCount, error) {
	now := r.now().Unix()
	counts := make(map[string]TableCount, len(AllTables))

	for _, table := range AllTables {
		var c TableCount
		query := fmt.Sprintf("SELECT COUNT(*), COALESCE(SUM(expires_at < ?), 0) FROM %s", table)
		if err := r.db.QueryRow(query, now).Scan(&c.Entries, &c.Expired); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = c
	}

	return counts, nil
}
