package factors

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Eroleice/Quant-Cat/internal/domain"
)

func TestLoadFile(t *testing.T) {
	ds, err := LoadFile("testdata/factors.csv", Options{})
	require.NoError(t, err)

	assert.Equal(t, 3, ds.Len())
	assert.Equal(t, []int{202201, 202202, 202203}, ds.Months())

	row, ok := ds.Lookup(202202)
	require.True(t, ok)
	assert.InDelta(t, 0.0301, row.MarketExcess, 1e-12)
	assert.InDelta(t, 0.0214, row.Size, 1e-12)
	assert.InDelta(t, -0.0052, row.Value, 1e-12)
	assert.InDelta(t, 0.0018, row.RiskFree, 1e-12)

	_, ok = ds.Lookup(202204)
	assert.False(t, ok)
}

func TestLoad_Scale(t *testing.T) {
	ds, err := Load(strings.NewReader("trdmn,mkt_rf,smb,hml,rf\n202211,0.01,0.02,0.03,0.001\n"), Options{Scale: 100})
	require.NoError(t, err)

	row, ok := ds.Lookup(202211)
	require.True(t, ok)
	assert.InDelta(t, 1.0, row.MarketExcess, 1e-12)
	assert.InDelta(t, 0.1, row.RiskFree, 1e-12)
}

func TestLoad_MissingCellsAreNaN(t *testing.T) {
	csv := "trdmn,mkt_rf,smb,hml,rf\n" +
		"202201,0.01,0.02,0.03,0.001\n" +
		"202202,0.01,0.02,0.03,\n" +
		"202203,NaN,null,0.03,0.001\n"

	ds, err := Load(strings.NewReader(csv), Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Len())

	row, ok := ds.Lookup(202202)
	require.True(t, ok)
	assert.True(t, math.IsNaN(row.RiskFree))
	assert.InDelta(t, 0.01, row.MarketExcess, 1e-12)

	row, ok = ds.Lookup(202203)
	require.True(t, ok)
	assert.True(t, math.IsNaN(row.MarketExcess))
	assert.True(t, math.IsNaN(row.Size))

	row, ok = ds.Lookup(202201)
	require.True(t, ok)
	assert.False(t, math.IsNaN(row.RiskFree))
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
		want string
	}{
		{"missing column", "trdmn,mkt_rf,smb,hml\n202201,1,2,3\n", `missing column "rf"`},
		{"duplicate month", "trdmn,mkt_rf,smb,hml,rf\n202201,1,2,3,4\n2022-01,1,2,3,4\n", "duplicate trade month 202201"},
		{"bad month", "trdmn,mkt_rf,smb,hml,rf\n202213,1,2,3,4\n", "invalid trade month"},
		{"bad number", "trdmn,mkt_rf,smb,hml,rf\n202201,x,2,3,4\n", `column "mkt_rf"`},
		{"empty", "", "failed to read header"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tt.csv), Options{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestNew_RejectsDuplicates(t *testing.T) {
	_, err := New([]domain.FactorRow{{TradeMonth: 202201}, {TradeMonth: 202201}})
	assert.Error(t, err)

	ds, err := New([]domain.FactorRow{{TradeMonth: 202202}, {TradeMonth: 202201}})
	require.NoError(t, err)
	assert.Equal(t, []int{202201, 202202}, ds.Months())
}
