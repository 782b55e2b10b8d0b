package domain

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShortCode(t *testing.T) {
	tests := []struct {
		code     string
		expected string
	}{
		{"600000.SH", "600000"},
		{"000001.SZ", "000001"},
		{"300750", "300750"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, ShortCode(tt.code))
		})
	}

	assert.Equal(t, "600519", SampledSecurity{Code: "600519.SH"}.ShortCode())
}

func TestTradeMonthOf(t *testing.T) {
	month, err := TradeMonthOf("20221130")
	require.NoError(t, err)
	assert.Equal(t, 202211, month)

	_, err = TradeMonthOf("2022")
	assert.Error(t, err)

	_, err = TradeMonthOf("2022xx01")
	assert.Error(t, err)
}

func TestTradeDateRoundTrip(t *testing.T) {
	d, err := ParseTradeDate("20221111")
	require.NoError(t, err)
	assert.Equal(t, time.November, d.Month())
	assert.Equal(t, "20221111", FormatTradeDate(d))
}

func TestSecurityReturn_HasReturn(t *testing.T) {
	assert.True(t, SecurityReturn{PctChange: 0}.HasReturn())
	assert.False(t, SecurityReturn{PctChange: math.NaN()}.HasReturn())
}

func TestStageError(t *testing.T) {
	cause := fmt.Errorf("index 000300.SH has no weights: %w", ErrDataUnavailable)
	err := error(&StageError{Stage: "sample", Err: cause})

	assert.Contains(t, err.Error(), "stage sample failed")
	assert.True(t, errors.Is(err, ErrDataUnavailable))
	assert.Equal(t, ErrDataUnavailable, Kind(err))
	assert.Nil(t, Kind(errors.New("other")))

	var stageErr *StageError
	require.True(t, errors.As(err, &stageErr))
	assert.Equal(t, "sample", stageErr.Stage)
}
