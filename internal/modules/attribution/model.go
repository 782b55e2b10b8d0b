// Package attribution fits the Fama-French three-factor model to a
// security's recent monthly returns.
package attribution

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/Eroleice/Quant-Cat/internal/domain"
	"github.com/Eroleice/Quant-Cat/internal/modules/factors"
)

// DefaultMonths is the trailing window of monthly returns.
const DefaultMonths = 12

// MinObservations is the smallest sample that determines three loadings
// plus an intercept.
const MinObservations = 4

// Row is one month of the joined return and factor table.
type Row struct {
	TradeMonth   int     `json:"trade_month"`
	Return       float64 `json:"return"`
	MarketExcess float64 `json:"mkt_rf"`
	Size         float64 `json:"smb"`
	Value        float64 `json:"hml"`
	RiskFree     float64 `json:"rf"`
	Excess       float64 `json:"excess"`
}

// Result holds the factor loadings of one security and the monthly table
// they were fitted on, oldest month first.
type Result struct {
	Security      domain.SampledSecurity `json:"security"`
	MarketLoading float64                `json:"market_loading"`
	SizeLoading   float64                `json:"size_loading"`
	ValueLoading  float64                `json:"value_loading"`
	Alpha         float64                `json:"alpha"`
	RSquared      float64                `json:"r_squared"`
	Rows          []Row                  `json:"rows"`
}

// Formula renders the fitted model as a single line.
func (r *Result) Formula() string {
	return fmt.Sprintf("r = rf + %.4f(rm - rf) + %.4f(SMB) + %.4f(HML) + e",
		r.MarketLoading, r.SizeLoading, r.ValueLoading)
}

// Model attributes security returns to the market, size and value factors.
type Model struct {
	provider domain.DataProvider
	factors  *factors.Dataset
	months   int
	log      zerolog.Logger
}

// NewModel creates a new factor model over the given dataset.
func NewModel(provider domain.DataProvider, dataset *factors.Dataset, log zerolog.Logger) *Model {
	return &Model{
		provider: provider,
		factors:  dataset,
		months:   DefaultMonths,
		log:      log.With().Str("service", "attribution").Logger(),
	}
}

// Attribute fetches the security's trailing monthly returns, joins them
// with the factor table and regresses excess returns on the factors.
func (m *Model) Attribute(ctx context.Context, security domain.SampledSecurity) (*Result, error) {
	returns, err := m.provider.MonthlyReturns(ctx, security.Code, m.months)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch monthly returns of %s: %w", security.Code, err)
	}
	if len(returns) == 0 {
		return nil, fmt.Errorf("%w: no monthly returns for %s", domain.ErrDataUnavailable, security.Code)
	}

	rows, err := Join(returns, m.factors)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", security.Code, err)
	}

	result, err := Regress(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", security.Code, err)
	}
	result.Security = security

	m.log.Info().
		Str("code", security.Code).
		Int("months", len(rows)).
		Float64("market", result.MarketLoading).
		Float64("size", result.SizeLoading).
		Float64("value", result.ValueLoading).
		Float64("r_squared", result.RSquared).
		Msg("Factor loadings fitted")

	return result, nil
}

// Join left-joins monthly returns onto the factor table. Months without a
// defined return are dropped; a month without factor data fails the join.
// The result is ordered oldest month first.
func Join(returns []domain.MonthlyReturn, dataset *factors.Dataset) ([]Row, error) {
	rows := make([]Row, 0, len(returns))
	for _, r := range returns {
		if math.IsNaN(r.PctChange) {
			continue
		}
		f, ok := dataset.Lookup(r.TradeMonth)
		if !ok {
			return nil, fmt.Errorf("%w: no factor data for month %d", domain.ErrRegressionInputInsufficient, r.TradeMonth)
		}
		if math.IsNaN(f.MarketExcess) || math.IsNaN(f.Size) || math.IsNaN(f.Value) || math.IsNaN(f.RiskFree) {
			return nil, fmt.Errorf("%w: incomplete factor data for month %d", domain.ErrRegressionInputInsufficient, r.TradeMonth)
		}
		rows = append(rows, Row{
			TradeMonth:   r.TradeMonth,
			Return:       r.PctChange,
			MarketExcess: f.MarketExcess,
			Size:         f.Size,
			Value:        f.Value,
			RiskFree:     f.RiskFree,
			Excess:       r.PctChange - f.RiskFree,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].TradeMonth < rows[j].TradeMonth
	})
	return rows, nil
}

// Regress fits excess return on [market, size, value] with intercept.
func Regress(rows []Row) (*Result, error) {
	if len(rows) < MinObservations {
		return nil, fmt.Errorf("%w: %d joined months, need at least %d",
			domain.ErrRegressionInputInsufficient, len(rows), MinObservations)
	}

	features := make([][]float64, len(rows))
	target := make([]float64, len(rows))
	for i, r := range rows {
		features[i] = []float64{r.MarketExcess, r.Size, r.Value}
		target[i] = r.Excess
	}

	fit, err := OLS(features, target)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRegressionInputInsufficient, err)
	}

	return &Result{
		MarketLoading: fit.Coefficients[0],
		SizeLoading:   fit.Coefficients[1],
		ValueLoading:  fit.Coefficients[2],
		Alpha:         fit.Intercept,
		RSquared:      fit.RSquared,
		Rows:          rows,
	}, nil
}
