package quickchart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Eroleice/Quant-Cat/internal/modules/charts"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\nfake")

func testSpec() charts.Spec {
	return charts.Spec{
		Kind:   charts.KindBar,
		Labels: []string{"a", "b"},
		Datasets: []charts.Dataset{
			{Label: "x", Data: []float64{1, 2}, Color: "rgb(1, 2, 3)"},
		},
	}
}

func newTestClient(url string) *Client {
	c := NewClient(url, time.Second, 2, zerolog.New(nil).Level(zerolog.Disabled))
	c.SetBackoff(time.Millisecond)
	return c
}

func TestRender_WritesPNG(t *testing.T) {
	var got map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chart", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngBytes)
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "chart.png")
	require.NoError(t, newTestClient(server.URL).Render(context.Background(), testSpec(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)

	assert.Equal(t, "2", got["version"])
	assert.Equal(t, float64(charts.DefaultWidth), got["width"])
	assert.Equal(t, float64(charts.DefaultHeight), got["height"])
	assert.Equal(t, "png", got["format"])
	assert.Equal(t, "white", got["backgroundColor"])
	chart, ok := got["chart"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "bar", chart["type"])
}

func TestRender_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "busy", http.StatusBadGateway)
			return
		}
		_, _ = w.Write(pngBytes)
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "chart.png")
	require.NoError(t, newTestClient(server.URL).Render(context.Background(), testSpec(), path))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestRender_FailsAfterRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{"error":"bad chart"}`))
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "chart.png")
	err := newTestClient(server.URL).Render(context.Background(), testSpec(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a PNG")
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.NoFileExists(t, path)
}
