package charts

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpec_Validate(t *testing.T) {
	ok := Spec{Kind: KindBar, Labels: []string{"a", "b"}, Datasets: []Dataset{{Label: "x", Data: []float64{1, 2}}}}
	assert.NoError(t, ok.Validate())

	tests := []struct {
		name string
		spec Spec
	}{
		{"bad kind", Spec{Kind: "pie", Labels: []string{"a"}, Datasets: []Dataset{{Data: []float64{1}}}}},
		{"no labels", Spec{Kind: KindLine, Datasets: []Dataset{{Data: []float64{}}}}},
		{"no datasets", Spec{Kind: KindLine, Labels: []string{"a"}}},
		{"misaligned", Spec{Kind: KindBar, Labels: []string{"a", "b"}, Datasets: []Dataset{{Label: "x", Data: []float64{1}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.spec.Validate())
		})
	}
}

func TestSpec_Size(t *testing.T) {
	w, h := Spec{}.Size()
	assert.Equal(t, DefaultWidth, w)
	assert.Equal(t, DefaultHeight, h)

	w, h = Spec{Width: 100, Height: 50}.Size()
	assert.Equal(t, 100, w)
	assert.Equal(t, 50, h)
}

func TestMarshalChartJS_StackedBar(t *testing.T) {
	spec := Spec{
		Kind:   KindBar,
		Labels: []string{"a", "b"},
		Datasets: []Dataset{
			{Label: "decline", Data: []float64{1, 0}, Color: "rgb(2, 112, 48)"},
			{Label: "advance", Data: []float64{0, 3}, Color: "rgb(173, 10, 29)"},
		},
		Options: Options{Stacked: true, YMax: 400, YStepSize: 100, DataLabels: true},
	}

	raw, err := spec.MarshalChartJS()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, "bar", decoded["type"])
	data := decoded["data"].(map[string]interface{})
	datasets := data["datasets"].([]interface{})
	require.Len(t, datasets, 2)
	first := datasets[0].(map[string]interface{})
	assert.Equal(t, "decline", first["label"])
	assert.Equal(t, "rgb(2, 112, 48)", first["backgroundColor"])
	labels := first["datalabels"].(map[string]interface{})
	assert.Equal(t, []interface{}{true, false}, labels["display"])
	second := datasets[1].(map[string]interface{})
	assert.Equal(t, []interface{}{false, true}, second["datalabels"].(map[string]interface{})["display"])

	options := decoded["options"].(map[string]interface{})
	scales := options["scales"].(map[string]interface{})
	yAxis := scales["yAxes"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, true, yAxis["stacked"])
	ticks := yAxis["ticks"].(map[string]interface{})
	assert.Equal(t, 400.0, ticks["max"])
	assert.Equal(t, 100.0, ticks["stepSize"])
}

func TestMarshalChartJS_Line(t *testing.T) {
	spec := Spec{
		Kind:     KindLine,
		Labels:   []string{"202201", "202202"},
		Datasets: []Dataset{{Label: "r", Data: []float64{1.5, -2}, Color: "rgb(0, 92, 230)"}},
	}

	raw, err := spec.MarshalChartJS()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	ds := decoded["data"].(map[string]interface{})["datasets"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "rgb(0, 92, 230)", ds["borderColor"])
	assert.Equal(t, 0.0, ds["pointRadius"])
	assert.Equal(t, false, ds["fill"])
	_, hasLabels := ds["datalabels"]
	assert.False(t, hasLabels)
	_, hasScales := decoded["options"].(map[string]interface{})["scales"]
	assert.False(t, hasScales)
}

func TestMarshalChartJS_Invalid(t *testing.T) {
	_, err := Spec{Kind: KindBar}.MarshalChartJS()
	assert.Error(t, err)
}
