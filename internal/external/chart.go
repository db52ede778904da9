package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/schedulefa/fareport/internal/dates"
	"github.com/schedulefa/fareport/internal/domain"
)

// ChartClient fetches daily OHLC bars from a Yahoo-style v8 chart API.
type ChartClient struct {
	baseURL    string
	httpClient *http.Client
	delay      time.Duration
	maxRetries int
}

// NewChartClient creates a chart API client rooted at baseURL.
func NewChartClient(baseURL string, delay time.Duration, maxRetries int) *ChartClient {
	return &ChartClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		delay:      delay,
		maxRetries: maxRetries,
	}
}

// chartResponse mirrors the v8 chart payload shape.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open  []float64 `json:"open"`
					High  []float64 `json:"high"`
					Close []float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error any `json:"error"`
	} `json:"chart"`
}

// DailyBars fetches one bar per trading day over the inclusive
// [from, to] window. Days the API reports with no usable quote are
// skipped; a day missing entirely is indistinguishable from a
// non-trading day, which is exactly how the series layer treats it.
func (c *ChartClient) DailyBars(ctx context.Context, symbol string, from, to dates.Date) ([]domain.Bar, error) {
	// period2 is exclusive, so push it one day past the window end.
	url := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d",
		c.baseURL, symbol, unixMidnight(from), unixMidnight(to.Add(1)))

	body, err := fetchWithRetry(ctx, c.httpClient, "chart", url, c.delay, c.maxRetries)
	if err != nil {
		return nil, err
	}

	var raw chartResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parsing chart response for %s: %w", symbol, err)
	}
	if len(raw.Chart.Result) == 0 {
		return nil, fmt.Errorf("chart response for %s has no result (error: %v)", symbol, raw.Chart.Error)
	}

	result := raw.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, nil
	}
	quote := result.Indicators.Quote[0]

	var bars []domain.Bar
	for i, ts := range result.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Close) {
			break
		}
		if quote.High[i] == 0 {
			continue
		}
		bars = append(bars, domain.Bar{
			Date:  dates.FromTime(time.Unix(ts, 0)),
			Open:  floatAmount(quote.Open[i]),
			High:  floatAmount(quote.High[i]),
			Close: floatAmount(quote.Close[i]),
		})
	}
	return bars, nil
}

func floatAmount(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func unixMidnight(d dates.Date) int64 {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC).Unix()
}
