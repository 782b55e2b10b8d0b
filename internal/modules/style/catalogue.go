// Package style ranks the benchmark style indices by their daily return.
package style

// Index is one catalogued benchmark index.
type Index struct {
	Code string
	Name string
}

// Catalogue is the fixed set of style indices compared in the report, in
// the order they are queried.
var Catalogue = []Index{
	{Code: "000001.SH", Name: "上证综指"},
	{Code: "000016.SH", Name: "上证50"},
	{Code: "000300.SH", Name: "沪深300"},
	{Code: "000905.SH", Name: "中证500"},
	{Code: "000852.SH", Name: "中证1000"},
	{Code: "399006.SZ", Name: "创业板指"},
	{Code: "000688.SH", Name: "科创50"},
}

// NameOf returns the display name of a catalogued index.
func NameOf(code string) (string, bool) {
	for _, idx := range Catalogue {
		if idx.Code == code {
			return idx.Name, true
		}
	}
	return "", false
}
