package sampler

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Eroleice/Quant-Cat/internal/domain"
	testutil "github.com/Eroleice/Quant-Cat/internal/testing"
)

const index = "000300.SH"

func seededProvider() *testutil.FakeProvider {
	p := testutil.NewFakeProvider()
	p.SetWeights(index, testutil.NewConstituentFixtures(index))
	p.SetProfile(domain.SecurityProfile{Code: "600519.SH", Name: "贵州茅台"})
	p.SetProfile(domain.SecurityProfile{Code: "000858.SZ", Name: "五粮液"})
	p.SetProfile(domain.SecurityProfile{Code: "300750.SZ", Name: "宁德时代"})
	return p
}

func newTestSampler(p domain.DataProvider, seed int64) *Sampler {
	return NewSamplerWithRand(p, rand.New(rand.NewSource(seed)), zerolog.New(nil).Level(zerolog.Disabled))
}

func TestPick_UsesLatestSnapshot(t *testing.T) {
	p := seededProvider()
	s := newTestSampler(p, 1)

	for i := 0; i < 50; i++ {
		got, err := s.Pick(context.Background(), index, nil)
		require.NoError(t, err)
		// 600000.SH only exists in the older snapshot
		assert.NotEqual(t, "600000.SH", got.Code)
		assert.NotEmpty(t, got.Name)
	}
}

func TestPick_NeverReturnsExcluded(t *testing.T) {
	p := seededProvider()

	for seed := int64(0); seed < 100; seed++ {
		s := newTestSampler(p, seed)
		got, err := s.Pick(context.Background(), index, NewExclusion("600519.SH", "000858"))
		require.NoError(t, err)
		assert.Equal(t, "300750.SZ", got.Code)
		assert.Equal(t, "宁德时代", got.Name)
	}
}

func TestPick_AllExcluded(t *testing.T) {
	s := newTestSampler(seededProvider(), 7)

	_, err := s.Pick(context.Background(), index, NewExclusion("600519.SH", "000858.SZ", "300750.SZ"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSampleExhausted))
}

func TestPick_UnknownIndex(t *testing.T) {
	s := newTestSampler(seededProvider(), 1)

	_, err := s.Pick(context.Background(), "999999.SH", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDataUnavailable))
}

func TestPick_MissingProfileName(t *testing.T) {
	p := testutil.NewFakeProvider()
	p.SetWeights(index, testutil.NewConstituentFixtures(index))
	s := newTestSampler(p, 1)

	_, err := s.Pick(context.Background(), index, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDataUnavailable))
}

func TestPick_ProviderError(t *testing.T) {
	p := seededProvider()
	p.SetError(errors.New("boom"))
	s := newTestSampler(p, 1)

	_, err := s.Pick(context.Background(), index, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestPick_CoversAllCandidates(t *testing.T) {
	s := newTestSampler(seededProvider(), 42)

	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		got, err := s.Pick(context.Background(), index, nil)
		require.NoError(t, err)
		seen[got.Code] = true
	}
	assert.Len(t, seen, 3)
}

func TestExclusion(t *testing.T) {
	ex := NewExclusion(" 600000.sh ", "", "000001")
	assert.True(t, ex.Contains("600000.SH"))
	assert.True(t, ex.Contains("000001.SZ"))
	assert.False(t, ex.Contains("600001.SH"))
	assert.False(t, Exclusion(nil).Contains("600000.SH"))
}
