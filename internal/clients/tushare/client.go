// Package tushare implements domain.DataProvider over the Tushare Pro HTTP API.
package tushare

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Eroleice/Quant-Cat/internal/clientdata"
	"github.com/Eroleice/Quant-Cat/internal/domain"
)

const (
	// DefaultBaseURL is the Tushare Pro endpoint.
	DefaultBaseURL = "http://api.tushare.pro"

	// DefaultTimeout bounds a single request attempt.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxRetries is the number of retries after the first attempt.
	DefaultMaxRetries = 2

	// DefaultRatePerMinute matches the entry-level Tushare quota.
	DefaultRatePerMinute = 200

	defaultBackoff = 500 * time.Millisecond
)

// Config holds the connection settings.
type Config struct {
	Token         string
	BaseURL       string
	Timeout       time.Duration
	MaxRetries    int
	RatePerMinute int
}

// Client is a Tushare Pro API client with a persistent response cache.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	timeout    time.Duration
	maxRetries int
	backoff    time.Duration
	cacheRepo  *clientdata.Repository
	log        zerolog.Logger
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithBackoff sets the base delay between retries.
func WithBackoff(d time.Duration) ClientOption {
	return func(c *Client) {
		c.backoff = d
	}
}

// NewClient creates a new Tushare client.
// cacheRepo is optional - if nil, caching is disabled.
func NewClient(cfg Config, cacheRepo *clientdata.Repository, log zerolog.Logger, opts ...ClientOption) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RatePerMinute <= 0 {
		cfg.RatePerMinute = DefaultRatePerMinute
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(rate.Limit(float64(cfg.RatePerMinute)/60), 1),
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		backoff:    defaultBackoff,
		cacheRepo:  cacheRepo,
		log:        log.With().Str("client", "tushare").Logger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError is a non-zero code returned by the Tushare API.
type APIError struct {
	APIName string
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tushare %s error: %s (code %d)", e.APIName, e.Message, e.Code)
}

type request struct {
	APIName string            `json:"api_name"`
	Token   string            `json:"token"`
	Params  map[string]string `json:"params"`
	Fields  string            `json:"fields"`
}

type response struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data *Frame `json:"data"`
}

// query describes one cached API call.
type query struct {
	apiName string
	params  map[string]string
	fields  []string
	table   string
	ttl     time.Duration
}

// cacheKey fingerprints a query by api name, sorted params and fields.
func (q query) cacheKey() string {
	keys := make([]string, 0, len(q.params))
	for k := range q.params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(q.apiName)
	for _, k := range keys {
		b.WriteString("|")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(q.params[k])
	}
	b.WriteString("|")
	b.WriteString(strings.Join(q.fields, ","))
	return b.String()
}

// fetch serves a query from fresh cache, then the API with retries, then
// stale cache. Exhausted attempts surface as domain.ErrDataUnavailable.
func (c *Client) fetch(ctx context.Context, q query) (*Frame, error) {
	key := q.cacheKey()

	if c.cacheRepo != nil {
		var cached Frame
		found, err := c.cacheRepo.LoadIfFresh(q.table, key, &cached)
		if err != nil {
			c.log.Warn().Err(err).Str("api", q.apiName).Msg("Cache read failed")
		} else if found {
			c.log.Debug().Str("api", q.apiName).Str("key", key).Msg("Cache hit")
			return &cached, nil
		}
	}

	frame, err := c.callWithRetry(ctx, q)
	if err != nil {
		if stale, ok := c.getStaleFromCache(q.table, key); ok {
			c.log.Warn().
				Err(err).
				Str("api", q.apiName).
				Int("rows", stale.Len()).
				Msg("API failed, using stale cached data")
			return stale, nil
		}
		return nil, fmt.Errorf("%w: tushare %s: %v", domain.ErrDataUnavailable, q.apiName, err)
	}

	// Empty frames are not cached: a trade date queried before the close
	// fills in later the same day.
	if c.cacheRepo != nil && frame.Len() > 0 {
		if err := c.cacheRepo.Store(q.table, key, frame, q.ttl); err != nil {
			c.log.Warn().Err(err).Str("api", q.apiName).Msg("Failed to cache response")
		}
	}

	return frame, nil
}

func (c *Client) callWithRetry(ctx context.Context, q query) (*Frame, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff * time.Duration(1<<uint(attempt-1))
			c.log.Debug().
				Err(lastErr).
				Str("api", q.apiName).
				Int("attempt", attempt+1).
				Dur("delay", delay).
				Msg("Retrying request")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		frame, err := c.call(ctx, q)
		if err == nil {
			return frame, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

// call performs one rate-limited, time-bounded POST.
func (c *Client) call(ctx context.Context, q query) (*Frame, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(request{
		APIName: q.apiName,
		Token:   c.token,
		Params:  q.params,
		Fields:  strings.Join(q.fields, ","),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var result response
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if result.Code != 0 {
		return nil, &APIError{APIName: q.apiName, Code: result.Code, Message: result.Msg}
	}
	if result.Data == nil {
		return nil, errors.New("response has no data")
	}

	c.log.Debug().
		Str("api", q.apiName).
		Int("rows", result.Data.Len()).
		Dur("elapsed", time.Since(start)).
		Msg("Fetched")

	return result.Data, nil
}

// getStaleFromCache retrieves a cached frame even if expired.
func (c *Client) getStaleFromCache(table, key string) (*Frame, bool) {
	if c.cacheRepo == nil {
		return nil, false
	}

	var cached Frame
	found, err := c.cacheRepo.Load(table, key, &cached)
	if err != nil || !found {
		return nil, false
	}
	return &cached, true
}
