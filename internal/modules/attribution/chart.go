package attribution

import (
	"strconv"

	"github.com/Eroleice/Quant-Cat/internal/modules/charts"
)

// ChartFilename is the attribution chart image in the run folder.
const ChartFilename = "ffChart.png"

// Series colors.
const (
	ReturnColor   = "rgb(0, 92, 230)"
	MarketColor   = "rgb(0, 153, 77)"
	SizeColor     = "rgb(255, 128, 0)"
	ValueColor    = "rgb(153, 51, 255)"
	RiskFreeColor = "rgb(191, 191, 191)"
)

// ChartSpec plots the security return against the three factors and the
// risk-free rate, one point per joined month.
func ChartSpec(r *Result) charts.Spec {
	n := len(r.Rows)
	labels := make([]string, n)
	ret := make([]float64, n)
	mkt := make([]float64, n)
	smb := make([]float64, n)
	hml := make([]float64, n)
	rf := make([]float64, n)
	for i, row := range r.Rows {
		labels[i] = strconv.Itoa(row.TradeMonth)
		ret[i] = row.Return
		mkt[i] = row.MarketExcess
		smb[i] = row.Size
		hml[i] = row.Value
		rf[i] = row.RiskFree
	}

	stockLabel := r.Security.Name
	if stockLabel == "" {
		stockLabel = r.Security.Code
	}

	return charts.Spec{
		Kind:   charts.KindLine,
		Labels: labels,
		Datasets: []charts.Dataset{
			{Label: stockLabel, Data: ret, Color: ReturnColor},
			{Label: "市场因子", Data: mkt, Color: MarketColor},
			{Label: "规模因子", Data: smb, Color: SizeColor},
			{Label: "PB因子", Data: hml, Color: ValueColor},
			{Label: "无风险收益率", Data: rf, Color: RiskFreeColor},
		},
		Options: charts.Options{ShowLegend: true},
	}
}
