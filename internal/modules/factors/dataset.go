// Package factors loads the static table of monthly Fama-French benchmark
// factor returns used by the single-stock attribution.
package factors

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/Eroleice/Quant-Cat/internal/domain"
)

// Column names in the factor CSV export. Other columns are ignored.
const (
	ColumnMonth        = "trdmn"
	ColumnMarketExcess = "mkt_rf"
	ColumnSize         = "smb"
	ColumnValue        = "hml"
	ColumnRiskFree     = "rf"
)

// Dataset is a read-only view of factor rows keyed by trade month.
type Dataset struct {
	rows  map[int]domain.FactorRow
	order []int
}

// Options tune how the CSV is interpreted.
type Options struct {
	// Scale multiplies every factor column; use 100 when the file stores
	// decimal returns and security returns are in percent. Zero means 1.
	Scale float64
}

// LoadFile reads the factor table from a CSV file on disk.
func LoadFile(path string, opts Options) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open factor data %s: %w", path, err)
	}
	defer f.Close()

	ds, err := Load(f, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load factor data %s: %w", path, err)
	}
	return ds, nil
}

// Load reads the factor table from CSV. The header must name the month,
// market-excess, size, value and risk-free columns.
func Load(r io.Reader, opts Options) (*Dataset, error) {
	scale := opts.Scale
	if scale == 0 {
		scale = 1
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, col := range []string{ColumnMonth, ColumnMarketExcess, ColumnSize, ColumnValue, ColumnRiskFree} {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}

	ds := &Dataset{rows: make(map[int]domain.FactorRow)}
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		row, err := parseRow(record, index, scale)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if _, dup := ds.rows[row.TradeMonth]; dup {
			return nil, fmt.Errorf("line %d: duplicate trade month %d", line, row.TradeMonth)
		}
		ds.rows[row.TradeMonth] = row
		ds.order = append(ds.order, row.TradeMonth)
	}

	sort.Ints(ds.order)
	return ds, nil
}

// New builds a dataset from rows already in memory (fixtures, tests).
func New(rows []domain.FactorRow) (*Dataset, error) {
	ds := &Dataset{rows: make(map[int]domain.FactorRow, len(rows))}
	for _, row := range rows {
		if _, dup := ds.rows[row.TradeMonth]; dup {
			return nil, fmt.Errorf("duplicate trade month %d", row.TradeMonth)
		}
		ds.rows[row.TradeMonth] = row
		ds.order = append(ds.order, row.TradeMonth)
	}
	sort.Ints(ds.order)
	return ds, nil
}

// Lookup returns the factor row of a trade month.
func (d *Dataset) Lookup(month int) (domain.FactorRow, bool) {
	row, ok := d.rows[month]
	return row, ok
}

// Len is the number of months in the table.
func (d *Dataset) Len() int {
	return len(d.order)
}

// Months lists the trade months in ascending order.
func (d *Dataset) Months() []int {
	out := make([]int, len(d.order))
	copy(out, d.order)
	return out
}

func parseRow(record []string, index map[string]int, scale float64) (domain.FactorRow, error) {
	field := func(col string) (string, error) {
		i := index[col]
		if i >= len(record) {
			return "", fmt.Errorf("column %q missing", col)
		}
		return strings.TrimSpace(record[i]), nil
	}
	number := func(col string) (float64, error) {
		raw, err := field(col)
		if err != nil {
			return 0, err
		}
		if isMissing(raw) {
			return math.NaN(), nil
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("column %q: %w", col, err)
		}
		return v * scale, nil
	}

	rawMonth, err := field(ColumnMonth)
	if err != nil {
		return domain.FactorRow{}, err
	}
	month, err := parseMonth(rawMonth)
	if err != nil {
		return domain.FactorRow{}, err
	}

	var row domain.FactorRow
	row.TradeMonth = month
	if row.MarketExcess, err = number(ColumnMarketExcess); err != nil {
		return domain.FactorRow{}, err
	}
	if row.Size, err = number(ColumnSize); err != nil {
		return domain.FactorRow{}, err
	}
	if row.Value, err = number(ColumnValue); err != nil {
		return domain.FactorRow{}, err
	}
	if row.RiskFree, err = number(ColumnRiskFree); err != nil {
		return domain.FactorRow{}, err
	}
	return row, nil
}

// isMissing reports blank and null-marker cells. They load as NaN so only a
// regression that joins the month fails.
func isMissing(raw string) bool {
	switch strings.ToLower(raw) {
	case "", "nan", "na", "n/a", "null", "none":
		return true
	}
	return false
}

// parseMonth accepts 202211, 2022-11 and 2022/11.
func parseMonth(raw string) (int, error) {
	cleaned := strings.NewReplacer("-", "", "/", "").Replace(raw)
	month, err := strconv.Atoi(cleaned)
	if err != nil || len(cleaned) != 6 {
		return 0, fmt.Errorf("invalid trade month %q", raw)
	}
	if mm := month % 100; mm < 1 || mm > 12 {
		return 0, fmt.Errorf("invalid trade month %q", raw)
	}
	return month, nil
}
