// Package httpds implements an HTTP-backed digest source with retry/backoff
// for transient failures. It is used when the server preloads a dataset from
// a URL at startup (e.g., a digest file published in a public repository).
package httpds

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"
)

// Config configures the HTTP source. Zero values get sensible defaults:
// Timeout 30s, MaxRetries 3, InitialBackoff 200ms, MaxBackoff 5s.
type Config struct {
	// Timeout is the per-request timeout applied at the http.Client level.
	Timeout time.Duration

	// MaxRetries is the number of retry attempts after the initial request.
	MaxRetries int

	// InitialBackoff is the base backoff for the first retry; each subsequent
	// retry doubles it up to MaxBackoff.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration

	// Transport is an optional custom RoundTripper, injectable for tests.
	Transport http.RoundTripper
}

// Remote fetches a digest file over HTTP GET.
type Remote struct {
	url    string
	client *http.Client
	cfg    Config
}

// NewRemote returns a Remote source for the given URL, applying Config
// defaults for zero values.
func NewRemote(rawURL string, cfg Config) *Remote {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 200 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}
	return &Remote{
		url: rawURL,
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: cfg.Transport,
		},
		cfg: cfg,
	}
}

// Name derives the declared filename from the URL path's last element, so the
// ingest file-type gate sees "qpn_imaging_digest.csv" rather than a full URL.
func (r *Remote) Name() string {
	u, err := url.Parse(r.url)
	if err != nil {
		return r.url
	}
	return path.Base(u.Path)
}

// Open issues the GET, retrying transient failures (transport errors, 5xx,
// 429) with exponential backoff. The returned body is the caller's to close.
func (r *Remote) Open(ctx context.Context) (io.ReadCloser, error) {
	attempts := r.cfg.MaxRetries + 1
	var lastErr error

	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
		if err != nil {
			return nil, fmt.Errorf("httpds: build request: %w", err)
		}
		resp, err := r.client.Do(req)
		if err != nil {
			lastErr = err
		} else if resp.StatusCode == http.StatusOK {
			return resp.Body, nil
		} else {
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("httpds: status %d from GET %s", resp.StatusCode, r.url)
			if !isRetryableStatus(resp.StatusCode) {
				return nil, lastErr
			}
		}
		if attempt+1 >= attempts {
			break
		}
		if err := sleepWithContext(ctx, backoffDuration(r.cfg.InitialBackoff, attempt, r.cfg.MaxBackoff)); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// isRetryableStatus is intentionally conservative: 5xx and 429 are treated as
// transient; everything else is final.
func isRetryableStatus(code int) bool {
	if code == http.StatusTooManyRequests {
		return true
	}
	return code >= 500 && code <= 599
}

// backoffDuration returns the exponential backoff for the given 0-based retry
// index, clamped to max.
func backoffDuration(initial time.Duration, attempt int, max time.Duration) time.Duration {
	d := initial << attempt
	if d > max || d <= 0 {
		return max
	}
	return d
}

// sleepWithContext waits for d but aborts early if ctx is canceled.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
