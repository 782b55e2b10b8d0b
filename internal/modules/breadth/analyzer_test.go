package breadth

import (
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Eroleice/Quant-Cat/internal/domain"
)

func newTestAnalyzer() *Analyzer {
	return NewAnalyzer(zerolog.New(nil).Level(zerolog.Disabled))
}

func TestBucket_RangeAndMonotonic(t *testing.T) {
	prev := -1
	for p := -100.0; p <= 100.0; p += 0.25 {
		b := Bucket(p)
		require.GreaterOrEqual(t, b, 0, "p=%v", p)
		require.LessOrEqual(t, b, 22, "p=%v", p)
		require.GreaterOrEqual(t, b, prev, "bucket must not decrease at p=%v", p)
		prev = b
	}
}

func TestBucket_Edges(t *testing.T) {
	tests := []struct {
		pct      float64
		expected int
	}{
		{-12, 0},
		{-11, 0},
		{-10.01, 0},
		{-10, 1},
		{-0.01, 10},
		{0, 11},
		{0.99, 11},
		{1, 12},
		{10.5, 21},
		{11, 22},
		{44, 22},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, Bucket(tt.pct), "pct=%v", tt.pct)
	}
}

func TestIsMainBoard(t *testing.T) {
	assert.True(t, IsMainBoard("000001"))
	assert.True(t, IsMainBoard("300750.SZ"))
	assert.True(t, IsMainBoard("600519.SH"))
	assert.True(t, IsMainBoard("688981.SH"))
	assert.False(t, IsMainBoard("830799.BJ"))
	assert.False(t, IsMainBoard("430047.BJ"))
	assert.False(t, IsMainBoard("60051"))
	assert.False(t, IsMainBoard("6005199"))
	assert.False(t, IsMainBoard("60a519.SH"))
	assert.False(t, IsMainBoard(""))
}

func TestAnalyze_Scenario(t *testing.T) {
	returns := []domain.SecurityReturn{
		{Code: "000001", PctChange: -12},
		{Code: "300002", PctChange: -3},
		{Code: "600003", PctChange: 0},
		{Code: "000004", PctChange: 4},
		{Code: "600005", PctChange: 15},
	}

	h, err := newTestAnalyzer().Analyze(returns)
	require.NoError(t, err)

	assert.Equal(t, 2, h.Increase)
	assert.Equal(t, 2, h.Decrease)
	assert.Equal(t, 1, h.Flat)

	counts := h.Counts()
	for _, b := range []int{0, 8, 11, 15, 22} {
		assert.Equal(t, 1, counts[b], "bucket %d", b)
	}
	assert.Equal(t, 5, h.Total())

	assert.Equal(t, 1, h.Decline[0])
	assert.Equal(t, 1, h.Decline[8])
	assert.Equal(t, 1, h.Advance[11])
	assert.Equal(t, 1, h.Advance[15])
	assert.Equal(t, 1, h.Advance[22])
}

func TestAnalyze_SplitPadding(t *testing.T) {
	var returns []domain.SecurityReturn
	for b := -11; b <= 11; b++ {
		returns = append(returns, domain.SecurityReturn{Code: "600000.SH", PctChange: float64(b) + 0.5})
	}

	h, err := newTestAnalyzer().Analyze(returns)
	require.NoError(t, err)

	for i := 0; i < 11; i++ {
		assert.Equal(t, 1, h.Decline[i])
		assert.Equal(t, 0, h.Advance[i])
	}
	for i := 11; i < Buckets; i++ {
		assert.Equal(t, 0, h.Decline[i], "decline has twelve trailing zeros")
		assert.Equal(t, 1, h.Advance[i])
	}
}

func TestAnalyze_FiltersUniverse(t *testing.T) {
	returns := []domain.SecurityReturn{
		{Code: "600000.SH", PctChange: 1},
		{Code: "830799.BJ", PctChange: 30},
		{Code: "000002.SZ", PctChange: math.NaN()},
		{Code: "T00018.SH", PctChange: -5},
	}

	h, err := newTestAnalyzer().Analyze(returns)
	require.NoError(t, err)

	assert.Equal(t, 1, h.Total())
	assert.Equal(t, 1, h.Increase)
	assert.Equal(t, 0, h.Decrease)
	assert.Equal(t, 0, h.Flat)
}

func TestAnalyze_Empty(t *testing.T) {
	_, err := newTestAnalyzer().Analyze(nil)
	assert.ErrorIs(t, err, domain.ErrDataUnavailable)
}

func TestAnalyze_Idempotent(t *testing.T) {
	returns := []domain.SecurityReturn{
		{Code: "600000.SH", PctChange: 2.3},
		{Code: "000001.SZ", PctChange: -0.4},
		{Code: "300001.SZ", PctChange: 0},
	}
	a := newTestAnalyzer()

	first, err := a.Analyze(returns)
	require.NoError(t, err)
	second, err := a.Analyze(returns)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
