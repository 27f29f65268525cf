// Package profiler provides a client for an external dataset profiling
// service. The service accepts a tabular dataset and returns per-column
// statistics; its internals are opaque to this repository.
package profiler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Client defines the profiling operations the pipeline consumes.
type Client interface {
	// Profile submits a CSV dataset and returns the statistical summary.
	Profile(ctx context.Context, dataset io.Reader, title string) (*Summary, error)
}

// Summary is the structured profiling result.
type Summary struct {
	Title   string          `json:"title"`
	Rows    int64           `json:"rows"`
	Columns []ColumnSummary `json:"columns"`
}

// ColumnSummary holds the per-column statistics.
type ColumnSummary struct {
	Name          string       `json:"name"`
	Type          string       `json:"type"`
	NullCount     int64        `json:"null_count"`
	DistinctCount int64        `json:"distinct_count"`
	Min           string       `json:"min,omitempty"`
	Max           string       `json:"max,omitempty"`
	Top           []ValueCount `json:"top,omitempty"`
}

// ValueCount is one entry of a column's most-frequent-values list.
type ValueCount struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// Option configures the client.
type Option func(*httpClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps profile submissions per second.
func WithRateLimit(perSec float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(perSec), 1)
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a profiling service client.
func NewClient(baseURL string, opts ...Option) Client {
	c := &httpClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Profile submits the dataset. One retry on a 5xx response; profiling is
// best-effort for callers, so failures are just returned.
func (c *httpClient) Profile(ctx context.Context, dataset io.Reader, title string) (*Summary, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "profiler: rate limiter wait")
		}
	}

	// The body may be consumed by a failed first attempt, so buffer it.
	payload, err := io.ReadAll(dataset)
	if err != nil {
		return nil, eris.Wrap(err, "profiler: read dataset")
	}

	summary, retryable, err := c.submit(ctx, payload, title)
	if err != nil && retryable && ctx.Err() == nil {
		summary, _, err = c.submit(ctx, payload, title)
	}
	return summary, err
}

func (c *httpClient) submit(ctx context.Context, payload []byte, title string) (*Summary, bool, error) {
	endpoint := c.baseURL + "/api/v1/profile?title=" + url.QueryEscape(title)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, false, eris.Wrap(err, "profiler: build request")
	}
	req.Header.Set("Content-Type", "text/csv")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, true, eris.Wrap(err, "profiler: submit dataset")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, resp.StatusCode >= 500,
			eris.Errorf("profiler: status %d: %s", resp.StatusCode, string(body))
	}

	var summary Summary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return nil, false, eris.Wrap(err, "profiler: decode summary")
	}
	return &summary, false, nil
}
