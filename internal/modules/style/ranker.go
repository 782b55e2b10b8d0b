package style

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/Eroleice/Quant-Cat/internal/domain"
)

// Entry is one row of the style ranking, formatted for the report table.
// The numeric fields keep the rescaled values the strings were built from.
type Entry struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	ChangePct string `json:"change_pct"`
	AmountYi  string `json:"amount_yi"`

	Close     float64 `json:"-"`
	PctChange float64 `json:"-"`
	Volume    float64 `json:"-"` // 亿股
	Amount    float64 `json:"-"` // 亿元
}

// Ranking is the style indices sorted by return, best first.
type Ranking []Entry

// RescaleVolume converts provider volume (lots of 100 shares) into 亿股.
func RescaleVolume(v float64) float64 {
	return v * 100 / 100000000
}

// RescaleAmount converts provider turnover (千元) into 亿元.
func RescaleAmount(a float64) float64 {
	return a / 100000
}

// Ranker fetches and ranks the catalogued indices.
type Ranker struct {
	provider  domain.DataProvider
	catalogue []Index
	log       zerolog.Logger
}

// NewRanker creates a new style ranker over the default catalogue
func NewRanker(provider domain.DataProvider, log zerolog.Logger) *Ranker {
	return &Ranker{
		provider:  provider,
		catalogue: Catalogue,
		log:       log.With().Str("service", "style").Logger(),
	}
}

// Rank fetches every catalogued index's session on targetDate and returns
// them ordered by return, descending. Indices without a row are skipped;
// when none has data the ranking fails with domain.ErrDataUnavailable.
func (r *Ranker) Rank(ctx context.Context, targetDate time.Time) (Ranking, error) {
	start := time.Now()

	var rows []domain.IndexReturn
	for _, idx := range r.catalogue {
		fetched, err := r.provider.IndexDailyReturn(ctx, idx.Code, targetDate)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch index %s: %w", idx.Code, err)
		}
		if len(fetched) == 0 {
			r.log.Warn().
				Str("index", idx.Code).
				Str("date", domain.FormatTradeDate(targetDate)).
				Msg("No index data for date, skipping")
			continue
		}
		for _, row := range fetched {
			if math.IsNaN(row.PctChange) {
				r.log.Warn().
					Str("index", idx.Code).
					Str("date", domain.FormatTradeDate(targetDate)).
					Msg("Index row has no return, skipping")
				continue
			}
			if row.Name == "" {
				row.Name = idx.Name
			}
			rows = append(rows, row)
		}
	}

	ranking, err := RankRows(rows)
	if err != nil {
		return nil, fmt.Errorf("style ranking for %s: %w", domain.FormatTradeDate(targetDate), err)
	}

	r.log.Info().
		Int("indices", len(ranking)).
		Dur("elapsed", time.Since(start)).
		Msg("Style indices ranked")

	return ranking, nil
}

// RankRows rescales, sorts and formats already fetched index rows. Rows
// without a return (NaN) are treated as missing. The sort is stable so
// equal returns keep their input order.
func RankRows(rows []domain.IndexReturn) (Ranking, error) {
	ranking := make(Ranking, 0, len(rows))
	for _, row := range rows {
		if math.IsNaN(row.PctChange) {
			continue
		}
		name := row.Name
		if catalogued, ok := NameOf(row.Code); ok {
			name = catalogued
		}
		amount := RescaleAmount(row.Amount)
		ranking = append(ranking, Entry{
			Code:      row.Code,
			Name:      name,
			Price:     fmt.Sprintf("%.2f", row.Close),
			ChangePct: fmt.Sprintf("%.2f%%", row.PctChange),
			AmountYi:  fmt.Sprintf("%.2f", amount),
			Close:     row.Close,
			PctChange: row.PctChange,
			Volume:    RescaleVolume(row.Volume),
			Amount:    amount,
		})
	}

	if len(ranking) == 0 {
		return nil, fmt.Errorf("no index rows: %w", domain.ErrDataUnavailable)
	}

	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].PctChange > ranking[j].PctChange
	})

	return ranking, nil
}
