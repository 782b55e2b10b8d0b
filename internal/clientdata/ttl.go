package clientdata

import "time"

// TTL constants per cached provider endpoint.
// These are added to time.Now() when storing to calculate expires_at.
const (
	// Reference data (changes with index rebalances and listings)
	TTLIndexWeight = 7 * 24 * time.Hour // 7 days - index_weight snapshots are published monthly
	TTLStockBasic  = 7 * 24 * time.Hour // 7 days - names and listing info

	// Latest index_weight lookup (limit 1); a new snapshot date must show up
	// on the next run
	TTLIndexWeightLatest = time.Hour

	// Monthly bars (only the current month moves)
	TTLMonthly = 24 * time.Hour

	// Daily bars (a trade date can still be amended the same evening)
	TTLDaily      = 12 * time.Hour
	TTLIndexDaily = 12 * time.Hour
)
