// Package external acquires raw market data: the published daily
// reference-rate table and per-instrument daily bars, with an optional
// PostgreSQL cache in front of the bar provider.
package external

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// fetchWithRetry GETs url, retrying rate-limited responses with
// exponential backoff. Any other non-200 status fails immediately.
func fetchWithRetry(ctx context.Context, client *http.Client, label, url string, baseDelay time.Duration, maxRetries int) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries+1; attempt++ {
		if attempt > 0 {
			delay := baseDelay
			if delay == 0 {
				delay = 10 * time.Second
			}
			delay *= time.Duration(1 << uint(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("creating %s request: %w", label, err)
		}
		req.Header.Set("User-Agent", "fareport/1.0")

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%s request failed: %w", label, err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading %s response: %w", label, err)
		}

		if resp.StatusCode == http.StatusOK {
			return body, nil
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("%s rate limited (attempt %d/%d)", label, attempt+1, maxRetries+1)
			continue
		}

		return nil, fmt.Errorf("%s HTTP %d: %s", label, resp.StatusCode, string(body))
	}

	return nil, lastErr
}
