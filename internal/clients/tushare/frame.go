package tushare

import (
	"math"
	"strconv"
)

// Frame is the tabular payload of a Tushare response: column names plus
// positional row values.
type Frame struct {
	Fields []string        `json:"fields" msgpack:"fields"`
	Items  [][]interface{} `json:"items" msgpack:"items"`
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Items)
}

func (f *Frame) column(name string) int {
	for i, field := range f.Fields {
		if field == name {
			return i
		}
	}
	return -1
}

func (f *Frame) cell(row int, name string) interface{} {
	col := f.column(name)
	if col < 0 || row < 0 || row >= len(f.Items) || col >= len(f.Items[row]) {
		return nil
	}
	return f.Items[row][col]
}

// String returns the cell as text; missing and null cells are "".
func (f *Frame) String(row int, name string) string {
	switch v := f.cell(row, name).(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	default:
		return ""
	}
}

// Float returns the cell as a number; missing, null and non-numeric
// cells are NaN.
func (f *Frame) Float(row int, name string) float64 {
	switch v := f.cell(row, name).(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case uint64:
		return float64(v)
	case int8:
		return float64(v)
	case int16:
		return float64(v)
	case int32:
		return float64(v)
	case uint8:
		return float64(v)
	case uint16:
		return float64(v)
	case uint32:
		return float64(v)
	case string:
		n, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return math.NaN()
		}
		return n
	default:
		return math.NaN()
	}
}
