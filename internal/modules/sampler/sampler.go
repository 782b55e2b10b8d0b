// Package sampler picks the security featured in the single-stock section.
package sampler

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Eroleice/Quant-Cat/internal/domain"
)

// Exclusion is a set of security codes that must not be sampled. Entries
// match either the full provider code ("600000.SH") or the six-digit code.
type Exclusion map[string]struct{}

// NewExclusion builds an exclusion set, ignoring blank codes.
func NewExclusion(codes ...string) Exclusion {
	ex := make(Exclusion, len(codes))
	for _, code := range codes {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code != "" {
			ex[code] = struct{}{}
		}
	}
	return ex
}

// Contains reports whether code is excluded.
func (e Exclusion) Contains(code string) bool {
	code = strings.ToUpper(code)
	if _, ok := e[code]; ok {
		return true
	}
	_, ok := e[domain.ShortCode(code)]
	return ok
}

// Sampler draws one constituent of an index at random.
type Sampler struct {
	provider domain.DataProvider
	mu       sync.Mutex
	rng      *rand.Rand
	log      zerolog.Logger
}

// NewSampler creates a sampler seeded from the clock.
func NewSampler(provider domain.DataProvider, log zerolog.Logger) *Sampler {
	return NewSamplerWithRand(provider, rand.New(rand.NewSource(time.Now().UnixNano())), log)
}

// NewSamplerWithRand creates a sampler drawing from rng.
func NewSamplerWithRand(provider domain.DataProvider, rng *rand.Rand, log zerolog.Logger) *Sampler {
	return &Sampler{
		provider: provider,
		rng:      rng,
		log:      log.With().Str("service", "sampler").Logger(),
	}
}

// Pick samples a constituent of indexID's most recent weight snapshot that
// is not in excluded, and resolves its display name.
func (s *Sampler) Pick(ctx context.Context, indexID string, excluded Exclusion) (domain.SampledSecurity, error) {
	latest, err := s.provider.IndexConstituents(ctx, indexID, time.Time{})
	if err != nil {
		return domain.SampledSecurity{}, fmt.Errorf("failed to look up latest %s snapshot: %w", indexID, err)
	}
	if len(latest) == 0 {
		return domain.SampledSecurity{}, fmt.Errorf("%w: index %s has no constituent snapshot", domain.ErrDataUnavailable, indexID)
	}

	snapshotDate := latest[0].TradeDate
	for _, w := range latest[1:] {
		if w.TradeDate.After(snapshotDate) {
			snapshotDate = w.TradeDate
		}
	}

	constituents, err := s.provider.IndexConstituents(ctx, indexID, snapshotDate)
	if err != nil {
		return domain.SampledSecurity{}, fmt.Errorf("failed to fetch %s constituents: %w", indexID, err)
	}
	if len(constituents) == 0 {
		return domain.SampledSecurity{}, fmt.Errorf("%w: index %s has no constituents on %s",
			domain.ErrDataUnavailable, indexID, domain.FormatTradeDate(snapshotDate))
	}

	code, err := s.draw(constituents, excluded)
	if err != nil {
		return domain.SampledSecurity{}, fmt.Errorf("index %s: %w", indexID, err)
	}

	profiles, err := s.provider.SecurityProfile(ctx, code)
	if err != nil {
		return domain.SampledSecurity{}, fmt.Errorf("failed to fetch profile of %s: %w", code, err)
	}
	if len(profiles) == 0 || profiles[0].Name == "" {
		return domain.SampledSecurity{}, fmt.Errorf("%w: no profile name for %s", domain.ErrDataUnavailable, code)
	}

	s.log.Info().
		Str("index", indexID).
		Str("snapshot", domain.FormatTradeDate(snapshotDate)).
		Int("constituents", len(constituents)).
		Str("code", code).
		Str("name", profiles[0].Name).
		Msg("Sampled security")

	return domain.SampledSecurity{Code: code, Name: profiles[0].Name}, nil
}

// draw picks uniformly from a working copy of the candidates, dropping
// excluded draws until one is accepted or none remain.
func (s *Sampler) draw(constituents []domain.IndexWeight, excluded Exclusion) (string, error) {
	candidates := make([]string, len(constituents))
	for i, c := range constituents {
		candidates[i] = c.ConstituentCode
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for len(candidates) > 0 {
		i := s.rng.Intn(len(candidates))
		code := candidates[i]
		if !excluded.Contains(code) {
			return code, nil
		}

		s.log.Debug().Str("code", code).Int("remaining", len(candidates)-1).Msg("Excluded draw, redrawing")
		candidates[i] = candidates[len(candidates)-1]
		candidates = candidates[:len(candidates)-1]
	}

	return "", fmt.Errorf("%w: all %d constituents excluded", domain.ErrSampleExhausted, len(constituents))
}
