// Package quickchart renders chart specs to PNG through a QuickChart server.
package quickchart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Eroleice/Quant-Cat/internal/modules/charts"
)

const (
	// DefaultBaseURL is the public QuickChart endpoint.
	DefaultBaseURL = "https://quickchart.io"

	// DefaultTimeout bounds a single render attempt.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the number of retries after the first attempt.
	DefaultMaxRetries = 2

	defaultBackoff = time.Second
)

// Client posts Chart.js configs to the /chart endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	maxRetries int
	backoff    time.Duration
	log        zerolog.Logger
}

var _ charts.Renderer = (*Client)(nil)

// NewClient creates a new QuickChart client.
func NewClient(baseURL string, timeout time.Duration, maxRetries int, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		timeout:    timeout,
		maxRetries: maxRetries,
		backoff:    defaultBackoff,
		log:        log.With().Str("client", "quickchart").Logger(),
	}
}

// SetBackoff overrides the base delay between retries.
func (c *Client) SetBackoff(d time.Duration) {
	c.backoff = d
}

type renderRequest struct {
	Version         string          `json:"version"`
	Width           int             `json:"width"`
	Height          int             `json:"height"`
	Format          string          `json:"format"`
	BackgroundColor string          `json:"backgroundColor"`
	Chart           json.RawMessage `json:"chart"`
}

// Render posts the spec and writes the returned PNG to path.
func (c *Client) Render(ctx context.Context, spec charts.Spec, path string) error {
	chart, err := spec.MarshalChartJS()
	if err != nil {
		return fmt.Errorf("failed to encode chart: %w", err)
	}

	width, height := spec.Size()
	body, err := json.Marshal(renderRequest{
		Version:         "2",
		Width:           width,
		Height:          height,
		Format:          "png",
		BackgroundColor: "white",
		Chart:           chart,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	var image []byte
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff * time.Duration(1<<uint(attempt-1))
			c.log.Warn().Err(lastErr).Int("attempt", attempt+1).Dur("delay", delay).Msg("Retrying chart render")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		image, lastErr = c.post(ctx, body)
		if lastErr == nil {
			break
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	if lastErr != nil {
		return lastErr
	}

	if err := os.WriteFile(path, image, 0644); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}

	c.log.Debug().Str("path", path).Int("bytes", len(image)).Msg("Chart written")
	return nil
}

func (c *Client) post(ctx context.Context, body []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chart", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if len(data) > 256 {
			data = data[:256]
		}
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		return nil, fmt.Errorf("response is not a PNG image (content-type %q)", resp.Header.Get("Content-Type"))
	}
	return data, nil
}
