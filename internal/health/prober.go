package health

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPProber probes a fixed liveness path. Any response the client can
// fetch with a status below 400 counts as healthy, matching the
// "successful fetch" semantics of the liveness contract (redirects are
// followed, so a login redirect still passes).
type HTTPProber struct {
	url    string
	client *http.Client
}

// NewHTTPProber constructs a prober for the given endpoint.
func NewHTTPProber(url string, timeout time.Duration) (*HTTPProber, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("health url must not be empty")
	}
	if timeout <= 0 {
		return nil, errors.New("timeout must be greater than zero")
	}
	return &HTTPProber{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}, nil
}

// Probe implements Prober.
func (p *HTTPProber) Probe(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("probe %s: %w", p.url, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("probe %s: unhealthy status %s", p.url, resp.Status)
	}
	return nil
}
