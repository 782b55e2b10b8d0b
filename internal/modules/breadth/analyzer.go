// Package breadth builds the cross-sectional return-breadth histogram of
// the main-board equity universe for one trading day.
package breadth

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/Eroleice/Quant-Cat/internal/domain"
)

const (
	// Buckets is the number of return buckets, one per whole percent in
	// [-11, 11] after clamping.
	Buckets = 23
	// declineBuckets is the number of buckets holding negative returns.
	declineBuckets = 11
)

// Histogram is the breadth of one session.
type Histogram struct {
	Decline  [Buckets]int `json:"decline"`
	Advance  [Buckets]int `json:"advance"`
	Increase int          `json:"increase"`
	Decrease int          `json:"decrease"`
	Flat     int          `json:"flat"`
}

// Counts returns the dense per-bucket counts.
func (h Histogram) Counts() [Buckets]int {
	var counts [Buckets]int
	for i := 0; i < Buckets; i++ {
		counts[i] = h.Decline[i] + h.Advance[i]
	}
	return counts
}

// Total is the number of bucketed securities.
func (h Histogram) Total() int {
	total := 0
	for _, c := range h.Counts() {
		total += c
	}
	return total
}

// Bucket maps a percent return onto its bucket index:
// clamp(floor(p), -11, 11) + 11.
func Bucket(pct float64) int {
	b := math.Floor(pct)
	if b < -11 {
		b = -11
	}
	if b > 11 {
		b = 11
	}
	return int(b) + 11
}

// IsMainBoard reports whether a security code belongs to the Shanghai or
// Shenzhen main/growth boards: a six-digit code starting with 0, 3 or 6.
// A market suffix such as ".SH" is ignored.
func IsMainBoard(code string) bool {
	short := domain.ShortCode(code)
	if len(short) != 6 {
		return false
	}
	for i := 0; i < len(short); i++ {
		if short[i] < '0' || short[i] > '9' {
			return false
		}
	}
	switch short[0] {
	case '0', '3', '6':
		return true
	}
	return false
}

// Analyzer computes breadth histograms.
type Analyzer struct {
	log zerolog.Logger
}

// NewAnalyzer creates a new breadth analyzer
func NewAnalyzer(log zerolog.Logger) *Analyzer {
	return &Analyzer{
		log: log.With().Str("service", "breadth").Logger(),
	}
}

// Analyze filters the universe to main-board securities with a defined
// return and aggregates them into the histogram.
//
// Buckets 0..10 are declines and 11..22 flat or advances; Decline carries
// the first eleven counts followed by twelve zeros and Advance eleven zeros
// followed by the last twelve counts.
func (a *Analyzer) Analyze(returns []domain.SecurityReturn) (Histogram, error) {
	if len(returns) == 0 {
		return Histogram{}, fmt.Errorf("no daily returns to analyze: %w", domain.ErrDataUnavailable)
	}

	var counts [Buckets]int
	var h Histogram
	kept := 0

	for _, r := range returns {
		if !IsMainBoard(r.Code) || !r.HasReturn() {
			continue
		}
		kept++
		counts[Bucket(r.PctChange)]++

		switch {
		case r.PctChange > 0:
			h.Increase++
		case r.PctChange < 0:
			h.Decrease++
		default:
			h.Flat++
		}
	}

	for i := 0; i < declineBuckets; i++ {
		h.Decline[i] = counts[i]
	}
	for i := declineBuckets; i < Buckets; i++ {
		h.Advance[i] = counts[i]
	}

	a.log.Info().
		Int("loaded", len(returns)).
		Int("kept", kept).
		Int("increase", h.Increase).
		Int("decrease", h.Decrease).
		Int("flat", h.Flat).
		Msg("Breadth computed")

	return h, nil
}
