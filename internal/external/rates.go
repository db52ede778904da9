package external

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/schedulefa/fareport/internal/domain"
)

// Reference-rate CSV columns we care about. The published file carries
// more columns; the telegraphic-transfer buy rate is the one a bank
// applies when converting inward foreign currency.
const (
	rateDateColumn = "DATE"
	rateBuyColumn  = "TT BUY"
)

// RatesClient fetches the published daily reference-rate table.
type RatesClient struct {
	url        string
	httpClient *http.Client
	delay      time.Duration
	maxRetries int
}

// NewRatesClient creates a client for the reference-rate CSV at url.
func NewRatesClient(url string, delay time.Duration, maxRetries int) *RatesClient {
	return &RatesClient{
		url:        url,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		delay:      delay,
		maxRetries: maxRetries,
	}
}

// FetchSamples downloads and parses the rate table into raw samples.
// Dates keep whatever time suffix the file carries; blank or
// unparseable rate cells become the zero sentinel and are recorded
// rather than dropped, since downstream fallback logic needs to see
// them.
func (c *RatesClient) FetchSamples(ctx context.Context) ([]domain.RateSample, error) {
	body, err := fetchWithRetry(ctx, c.httpClient, "rates", c.url, c.delay, c.maxRetries)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(strings.NewReader(string(body)))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading rates header: %w", err)
	}

	dateIdx, buyIdx := -1, -1
	for i, col := range header {
		switch strings.ToUpper(strings.TrimSpace(col)) {
		case rateDateColumn:
			dateIdx = i
		case rateBuyColumn:
			buyIdx = i
		}
	}
	if dateIdx < 0 || buyIdx < 0 {
		return nil, fmt.Errorf("rates header missing %q or %q columns", rateDateColumn, rateBuyColumn)
	}

	var samples []domain.RateSample
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading rates row: %w", err)
		}
		if dateIdx >= len(row) || buyIdx >= len(row) {
			continue
		}
		samples = append(samples, domain.RateSample{
			Date: row[dateIdx],
			Rate: domain.ParseAmount(row[buyIdx]),
		})
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("rates file at %s contained no samples", c.url)
	}
	return samples, nil
}
