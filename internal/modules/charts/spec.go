// Package charts defines the typed chart specification handed to the chart
// rendering service, and its Chart.js wire encoding.
package charts

import (
	"encoding/json"
	"fmt"
)

// Kind is the chart type.
type Kind string

const (
	KindBar  Kind = "bar"
	KindLine Kind = "line"
)

// Default canvas size of report images.
const (
	DefaultWidth  = 750
	DefaultHeight = 300
)

// Dataset is one named numeric series, aligned with the spec's labels.
type Dataset struct {
	Label string
	Data  []float64
	Color string // CSS color, e.g. "rgb(2, 112, 48)"
}

// Options are the rendering options the report relies on.
type Options struct {
	Stacked    bool
	YMax       float64 // 0 leaves the axis maximum to the renderer
	YStepSize  float64
	ShowLegend bool
	DataLabels bool // print the value above each bar; zero and negative values stay unlabelled
}

// Spec is a renderer-agnostic chart description. It is serialized to the
// wire format only at the rendering boundary.
type Spec struct {
	Kind     Kind
	Labels   []string
	Datasets []Dataset
	Options  Options
	Width    int
	Height   int
}

// Validate checks the labelling contract: every dataset must provide one
// value per label.
func (s Spec) Validate() error {
	switch s.Kind {
	case KindBar, KindLine:
	default:
		return fmt.Errorf("unsupported chart kind %q", s.Kind)
	}
	if len(s.Labels) == 0 {
		return fmt.Errorf("chart has no labels")
	}
	if len(s.Datasets) == 0 {
		return fmt.Errorf("chart has no datasets")
	}
	for _, ds := range s.Datasets {
		if len(ds.Data) != len(s.Labels) {
			return fmt.Errorf("dataset %q has %d values for %d labels", ds.Label, len(ds.Data), len(s.Labels))
		}
	}
	return nil
}

// Size returns the canvas size, falling back to the report defaults.
func (s Spec) Size() (int, int) {
	w, h := s.Width, s.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	return w, h
}

// Chart.js v2 configuration shapes.
type chartJSConfig struct {
	Type    string         `json:"type"`
	Data    chartJSData    `json:"data"`
	Options chartJSOptions `json:"options"`
}

type chartJSData struct {
	Labels   []string         `json:"labels"`
	Datasets []chartJSDataset `json:"datasets"`
}

type chartJSDataset struct {
	Label           string    `json:"label"`
	Data            []float64 `json:"data"`
	BackgroundColor string    `json:"backgroundColor,omitempty"`
	BorderColor     string    `json:"borderColor,omitempty"`
	PointRadius     *int      `json:"pointRadius,omitempty"`
	Fill            *bool     `json:"fill,omitempty"`

	DataLabels *chartJSDatasetLabels `json:"datalabels,omitempty"`
}

// chartJSDatasetLabels uses the plugin's indexable display option: one
// flag per value.
type chartJSDatasetLabels struct {
	Display []bool `json:"display"`
}

type chartJSOptions struct {
	Title   chartJSToggle   `json:"title"`
	Legend  chartJSToggle   `json:"legend"`
	Scales  *chartJSScales  `json:"scales,omitempty"`
	Plugins *chartJSPlugins `json:"plugins,omitempty"`
}

type chartJSToggle struct {
	Display bool `json:"display"`
}

type chartJSScales struct {
	XAxes []chartJSAxis `json:"xAxes"`
	YAxes []chartJSAxis `json:"yAxes"`
}

type chartJSAxis struct {
	Stacked bool          `json:"stacked"`
	Ticks   *chartJSTicks `json:"ticks,omitempty"`
}

type chartJSTicks struct {
	Max      float64 `json:"max,omitempty"`
	StepSize float64 `json:"stepSize,omitempty"`
}

type chartJSPlugins struct {
	DataLabels chartJSDataLabels `json:"datalabels"`
}

type chartJSDataLabels struct {
	Display bool   `json:"display"`
	Anchor  string `json:"anchor,omitempty"`
	Align   string `json:"align,omitempty"`
}

// MarshalChartJS encodes the spec as a Chart.js v2 configuration object.
func (s Spec) MarshalChartJS() ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	cfg := chartJSConfig{
		Type: string(s.Kind),
		Data: chartJSData{Labels: s.Labels},
		Options: chartJSOptions{
			Legend: chartJSToggle{Display: s.Options.ShowLegend},
		},
	}

	for _, ds := range s.Datasets {
		out := chartJSDataset{Label: ds.Label, Data: ds.Data}
		if s.Kind == KindLine {
			noPoints, noFill := 0, false
			out.BorderColor = ds.Color
			out.PointRadius = &noPoints
			out.Fill = &noFill
		} else {
			out.BackgroundColor = ds.Color
		}
		if s.Options.DataLabels {
			display := make([]bool, len(ds.Data))
			for i, v := range ds.Data {
				display[i] = v > 0
			}
			out.DataLabels = &chartJSDatasetLabels{Display: display}
		}
		cfg.Data.Datasets = append(cfg.Data.Datasets, out)
	}

	if s.Kind == KindBar {
		var ticks *chartJSTicks
		if s.Options.YMax > 0 || s.Options.YStepSize > 0 {
			ticks = &chartJSTicks{Max: s.Options.YMax, StepSize: s.Options.YStepSize}
		}
		cfg.Options.Scales = &chartJSScales{
			XAxes: []chartJSAxis{{Stacked: s.Options.Stacked}},
			YAxes: []chartJSAxis{{Stacked: s.Options.Stacked, Ticks: ticks}},
		}
	}

	if s.Options.DataLabels {
		cfg.Options.Plugins = &chartJSPlugins{
			DataLabels: chartJSDataLabels{Display: true, Anchor: "end", Align: "top"},
		}
	} else {
		cfg.Options.Plugins = &chartJSPlugins{DataLabels: chartJSDataLabels{Display: false}}
	}

	return json.Marshal(cfg)
}
