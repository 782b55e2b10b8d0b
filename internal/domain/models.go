// Package domain provides the core market-data models shared by the
// analytics modules, the data provider clients and the report pipeline.
package domain

import (
	"math"
	"strconv"
	"time"
)

// TradeDateLayout is the provider's compact date format (YYYYMMDD).
const TradeDateLayout = "20060102"

// SecurityReturn is one security's session on one trading day.
// PctChange is in percent; NaN marks a missing return.
type SecurityReturn struct {
	Code      string    `json:"code"`
	TradeDate time.Time `json:"trade_date"`
	PctChange float64   `json:"pct_change"`
	Volume    float64   `json:"volume"`
	Amount    float64   `json:"amount"`
}

// HasReturn reports whether the row carries a defined return.
func (r SecurityReturn) HasReturn() bool {
	return !math.IsNaN(r.PctChange)
}

// IndexReturn is one benchmark index's session on one trading day.
type IndexReturn struct {
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	TradeDate time.Time `json:"trade_date"`
	Close     float64   `json:"close"`
	PctChange float64   `json:"pct_change"`
	Volume    float64   `json:"volume"`
	Amount    float64   `json:"amount"`
}

// IndexWeight is one row of an index constituent-weight snapshot.
type IndexWeight struct {
	IndexCode       string    `json:"index_code"`
	ConstituentCode string    `json:"con_code"`
	TradeDate       time.Time `json:"trade_date"`
	Weight          float64   `json:"weight"`
}

// MonthlyReturn is a security's return over one trading month.
type MonthlyReturn struct {
	TradeMonth int     `json:"trade_month"` // YYYYMM
	PctChange  float64 `json:"pct_change"`
}

// SecurityProfile holds the descriptive fields of a listed security.
type SecurityProfile struct {
	Code     string `json:"ts_code"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Area     string `json:"area"`
	Industry string `json:"industry"`
	Market   string `json:"market"`
	ListDate string `json:"list_date"`
}

// FactorRow is one month of benchmark factor returns.
type FactorRow struct {
	TradeMonth   int     `json:"trade_month"` // YYYYMM
	MarketExcess float64 `json:"mkt_rf"`
	Size         float64 `json:"smb"`
	Value        float64 `json:"hml"`
	RiskFree     float64 `json:"rf"`
}

// SampledSecurity is the security picked for single-stock attribution.
type SampledSecurity struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// ShortCode returns the six-digit exchange code without the market suffix
// ("600000.SH" -> "600000").
func (s SampledSecurity) ShortCode() string {
	return ShortCode(s.Code)
}

// ShortCode strips the market suffix from a provider security code.
func ShortCode(code string) string {
	for i := 0; i < len(code); i++ {
		if code[i] == '.' {
			return code[:i]
		}
	}
	return code
}

// FormatTradeDate renders a date in the provider's YYYYMMDD layout.
func FormatTradeDate(t time.Time) string {
	return t.Format(TradeDateLayout)
}

// ParseTradeDate parses a YYYYMMDD provider date.
func ParseTradeDate(s string) (time.Time, error) {
	return time.ParseInLocation(TradeDateLayout, s, Shanghai)
}

// TradeMonthOf converts a YYYYMMDD provider date string into its YYYYMM
// month key.
func TradeMonthOf(tradeDate string) (int, error) {
	if len(tradeDate) < 6 {
		return 0, strconv.ErrSyntax
	}
	return strconv.Atoi(tradeDate[:6])
}

// Shanghai is the exchange time zone; trade dates are interpreted in it.
var Shanghai = func() *time.Location {
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		return time.FixedZone("CST", 8*60*60)
	}
	return loc
}()
