package testing

import (
	"math"
	"time"

	"github.com/Eroleice/Quant-Cat/internal/domain"
)

// FixtureDate is the trade date used across fixtures.
var FixtureDate = time.Date(2022, 11, 9, 0, 0, 0, 0, domain.Shanghai)

// NewDailyReturnFixtures returns a small cross-section covering main-board,
// non-main-board, missing and boundary returns.
func NewDailyReturnFixtures() []domain.SecurityReturn {
	row := func(code string, pct float64) domain.SecurityReturn {
		return domain.SecurityReturn{Code: code, TradeDate: FixtureDate, PctChange: pct, Volume: 1000, Amount: 5000}
	}
	return []domain.SecurityReturn{
		row("600000.SH", 1.2),
		row("600001.SH", -3.4),
		row("000001.SZ", 0),
		row("300750.SZ", 10),
		row("002594.SZ", -10),
		row("688981.SH", 4.0),  // STAR market, excluded
		row("830799.BJ", 2.0),  // Beijing exchange, excluded
		row("601318.SH", math.NaN()),
	}
}

// NewConstituentFixtures returns index_weight rows for two snapshots of one index.
func NewConstituentFixtures(indexCode string) []domain.IndexWeight {
	older := time.Date(2022, 10, 31, 0, 0, 0, 0, domain.Shanghai)
	latest := time.Date(2022, 11, 1, 0, 0, 0, 0, domain.Shanghai)
	return []domain.IndexWeight{
		{IndexCode: indexCode, ConstituentCode: "600000.SH", TradeDate: older, Weight: 1.1},
		{IndexCode: indexCode, ConstituentCode: "600519.SH", TradeDate: latest, Weight: 5.3},
		{IndexCode: indexCode, ConstituentCode: "000858.SZ", TradeDate: latest, Weight: 2.4},
		{IndexCode: indexCode, ConstituentCode: "300750.SZ", TradeDate: latest, Weight: 3.0},
	}
}

// NewMonthlyReturnFixtures returns n monthly bars ending 2022-12, newest first.
func NewMonthlyReturnFixtures(n int, pct func(i int) float64) []domain.MonthlyReturn {
	out := make([]domain.MonthlyReturn, 0, n)
	month := time.Date(2022, 12, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		m := month.AddDate(0, -i, 0)
		out = append(out, domain.MonthlyReturn{
			TradeMonth: m.Year()*100 + int(m.Month()),
			PctChange:  pct(i),
		})
	}
	return out
}
