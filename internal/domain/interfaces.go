package domain

import (
	"context"
	"time"
)

// DataProvider is the typed market-data capability set consumed by the
// analytics modules. Zero rows is a normal outcome; implementations only
// return an error when the query itself failed.
type DataProvider interface {
	// MonthlyReturns returns up to limit most recent monthly returns for a security.
	MonthlyReturns(ctx context.Context, code string, limit int) ([]MonthlyReturn, error)

	// DailyReturns returns every security's session for one trading day.
	DailyReturns(ctx context.Context, tradeDate time.Time) ([]SecurityReturn, error)

	// IndexConstituents returns the constituent-weight snapshot of an index.
	// A zero tradeDate asks for the most recent snapshot only.
	IndexConstituents(ctx context.Context, indexCode string, tradeDate time.Time) ([]IndexWeight, error)

	// IndexDailyReturn returns an index's session for one trading day.
	IndexDailyReturn(ctx context.Context, indexCode string, tradeDate time.Time) ([]IndexReturn, error)

	// SecurityProfile returns descriptive data for a security.
	SecurityProfile(ctx context.Context, code string) ([]SecurityProfile, error)
}
