package breadth

import (
	"math"

	"github.com/Eroleice/Quant-Cat/internal/modules/charts"
)

// Labels are the bucket captions of the breadth chart, kept exactly as the
// published report prints them ("10" and "-10" in the second and
// second-to-last positions included).
var Labels = [Buckets]string{
	"<-10", "10", "-9", "-8", "-7", "-6", "-5", "-4", "-3", "-2", "-1", "0",
	"1", "2", "3", "4", "5", "6", "7", "8", "9", "-10", ">10",
}

// Chart colours: declines green, advances red (A-share convention).
const (
	DeclineColor = "rgb(2, 112, 48)"
	AdvanceColor = "rgb(173, 10, 29)"
)

// ChartFilename is the breadth image name inside a run folder.
const ChartFilename = "marketImage.png"

// YAxisMax rounds the tallest bucket up to the next multiple of 200 and
// adds one more step of headroom: (floor(max/200)+2)*200.
func YAxisMax(h Histogram) float64 {
	tallest := 0
	for _, c := range h.Counts() {
		if c > tallest {
			tallest = c
		}
	}
	return (math.Floor(float64(tallest)/200) + 2) * 200
}

// ChartSpec builds the stacked bar chart of the histogram.
func ChartSpec(h Histogram) charts.Spec {
	decline := make([]float64, Buckets)
	advance := make([]float64, Buckets)
	for i := 0; i < Buckets; i++ {
		decline[i] = float64(h.Decline[i])
		advance[i] = float64(h.Advance[i])
	}

	return charts.Spec{
		Kind:   charts.KindBar,
		Labels: Labels[:],
		Datasets: []charts.Dataset{
			{Label: "decline", Data: decline, Color: DeclineColor},
			{Label: "advance", Data: advance, Color: AdvanceColor},
		},
		Options: charts.Options{
			Stacked:    true,
			YMax:       YAxisMax(h),
			YStepSize:  100,
			DataLabels: true,
		},
		Width:  charts.DefaultWidth,
		Height: charts.DefaultHeight,
	}
}
