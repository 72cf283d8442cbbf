package health

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const metadataBodyLimit int64 = 64 << 10

// Info is the service's self-reported metadata. Used only for operator
// reporting, never for control flow.
type Info struct {
	Version string `json:"version"`
}

// FetchInfo reads the optional service metadata endpoint.
func FetchInfo(ctx context.Context, url string, timeout time.Duration) (Info, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return Info{}, fmt.Errorf("create request: %w", err)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return Info{}, fmt.Errorf("fetch metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Info{}, fmt.Errorf("fetch metadata: unexpected status %s", resp.Status)
	}

	var info Info
	if err := json.NewDecoder(io.LimitReader(resp.Body, metadataBodyLimit)).Decode(&info); err != nil {
		return Info{}, fmt.Errorf("decode metadata: %w", err)
	}
	return info, nil
}
