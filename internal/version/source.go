package version

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const defaultMaxBytes int64 = 4096

// Source retrieves the target version for an update run.
type Source interface {
	Fetch(ctx context.Context) (string, error)
}

// FetchError describes a failed or malformed target version fetch.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch version from %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch version from %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the failure was transient (server-side).
func (e *FetchError) IsRetryable() bool {
	return e.StatusCode >= http.StatusInternalServerError
}

// HTTPSource fetches a one-line version over HTTP.
type HTTPSource struct {
	url      string
	client   *retryablehttp.Client
	maxBytes int64
}

// SourceOption customizes HTTPSource behavior.
type SourceOption func(*HTTPSource)

// WithMaxRetries sets the retry budget for transient failures.
func WithMaxRetries(retries int) SourceOption {
	return func(s *HTTPSource) {
		s.client.RetryMax = retries
	}
}

// WithRetryDelay sets the wait between retry attempts.
func WithRetryDelay(delay time.Duration) SourceOption {
	return func(s *HTTPSource) {
		s.client.RetryWaitMin = delay
		s.client.RetryWaitMax = delay
	}
}

// NewHTTPSource constructs an HTTPSource with the given URL and timeout.
func NewHTTPSource(url string, timeout time.Duration, opts ...SourceOption) (*HTTPSource, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("version url must not be empty")
	}
	if timeout <= 0 {
		return nil, errors.New("timeout must be greater than zero")
	}

	client := retryablehttp.NewClient()
	client.RetryMax = 0
	client.Logger = nil
	client.HTTPClient = &http.Client{Timeout: timeout}

	source := &HTTPSource{
		url:      url,
		client:   client,
		maxBytes: defaultMaxBytes,
	}
	for _, opt := range opts {
		opt(source)
	}

	return source, nil
}

// Fetch downloads the version line and validates its shape. A body that is
// not a strict MAJOR.MINOR.PATCH version is a fetch failure, never a
// candidate for an update.
func (s *HTTPSource) Fetch(ctx context.Context) (string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, s.url, http.NoBody)
	if err != nil {
		return "", &FetchError{URL: s.url, Err: fmt.Errorf("create request: %w", err)}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", &FetchError{URL: s.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &FetchError{
			URL:        s.url,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status: %s", resp.Status),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return "", &FetchError{URL: s.url, Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(body)) > s.maxBytes {
		return "", &FetchError{URL: s.url, Err: fmt.Errorf("body exceeds %d bytes", s.maxBytes)}
	}

	target := Normalize(string(body))
	if !IsConcrete(target) {
		return "", &FetchError{URL: s.url, Err: fmt.Errorf("malformed version %q", target)}
	}

	return target, nil
}
