package fetch

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	// RatePerSec caps request frequency; 0 disables limiting.
	RatePerSec float64
}

// HTTPFetcher downloads files over HTTP with retry and rate limiting.
type HTTPFetcher struct {
	opts    HTTPOptions
	client  *http.Client
	limiter *rate.Limiter
}

// NewHTTPFetcher creates an HTTPFetcher with the given options.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "recon-cli"
	}
	f := &HTTPFetcher{
		opts:   opts,
		client: &http.Client{Timeout: opts.Timeout},
	}
	if opts.RatePerSec > 0 {
		f.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), 1)
	}
	return f
}

// Download fetches the URL and returns the response body.
func (f *HTTPFetcher) Download(ctx context.Context, url string) (io.ReadCloser, error) {
	var lastErr error

	attempts := f.opts.MaxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return nil, eris.Wrap(err, "http: rate limiter wait")
			}
		}

		body, err := f.download(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
		if attempt < attempts-1 {
			zap.L().Warn("http: retrying download",
				zap.String("url", url),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
			)
			select {
			case <-ctx.Done():
				return nil, eris.Wrap(ctx.Err(), "http: context cancelled")
			case <-time.After(time.Duration(attempt+1) * time.Second):
			}
		}
	}

	return nil, lastErr
}

func (f *HTTPFetcher) download(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrapf(err, "http: build request %s", url)
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "http: GET %s", url)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, eris.Errorf("http: GET %s: status %d", url, resp.StatusCode)
	}
	return resp.Body, nil
}
