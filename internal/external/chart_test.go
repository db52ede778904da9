package external

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/schedulefa/fareport/internal/dates"
)

func chartPayload(days []string, open, high, close []float64) string {
	var ts []string
	for _, d := range days {
		day := dates.MustParse(d)
		ts = append(ts, fmt.Sprintf("%d", time.Date(day.Year(), day.Month(), day.Day(), 14, 30, 0, 0, time.UTC).Unix()))
	}
	nums := func(vals []float64) string {
		parts := make([]string, len(vals))
		for i, v := range vals {
			parts[i] = fmt.Sprintf("%g", v)
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprintf(`{"chart":{"result":[{"timestamp":[%s],"indicators":{"quote":[{"open":[%s],"high":[%s],"close":[%s]}]}}],"error":null}}`,
		strings.Join(ts, ","), nums(open), nums(high), nums(close))
}

func TestDailyBars(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		w.Write([]byte(chartPayload(
			[]string{"2023-06-14", "2023-06-15"},
			[]float64{100.5, 105.25},
			[]float64{110, 120},
			[]float64{105, 118},
		)))
	}))
	defer srv.Close()

	client := NewChartClient(srv.URL, 0, 0)
	bars, err := client.DailyBars(context.Background(), "VTI", dates.MustParse("2023-06-01"), dates.MustParse("2023-06-30"))
	if err != nil {
		t.Fatalf("DailyBars: %v", err)
	}

	if !strings.Contains(gotPath, "/v8/finance/chart/VTI") {
		t.Errorf("path = %q", gotPath)
	}
	if len(bars) != 2 {
		t.Fatalf("bars = %d, want 2", len(bars))
	}
	if bars[0].Date != dates.MustParse("2023-06-14") {
		t.Errorf("bar date = %v, want 2023-06-14", bars[0].Date)
	}
	if !bars[1].High.Equal(decimal.RequireFromString("120")) {
		t.Errorf("high = %v, want 120", bars[1].High)
	}
	if !bars[0].Open.Equal(decimal.RequireFromString("100.5")) {
		t.Errorf("open = %v, want 100.5", bars[0].Open)
	}
}

func TestDailyBarsSkipsZeroQuoteDays(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(chartPayload(
			[]string{"2023-06-14", "2023-06-15"},
			[]float64{100, 0},
			[]float64{110, 0},
			[]float64{105, 0},
		)))
	}))
	defer srv.Close()

	client := NewChartClient(srv.URL, 0, 0)
	bars, err := client.DailyBars(context.Background(), "VTI", dates.MustParse("2023-06-01"), dates.MustParse("2023-06-30"))
	if err != nil {
		t.Fatalf("DailyBars: %v", err)
	}
	if len(bars) != 1 {
		t.Errorf("bars = %d, want 1 after skipping the dead day", len(bars))
	}
}

func TestDailyBarsEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"chart":{"result":[],"error":{"code":"Not Found"}}}`))
	}))
	defer srv.Close()

	client := NewChartClient(srv.URL, 0, 0)
	if _, err := client.DailyBars(context.Background(), "NOPE", dates.MustParse("2023-06-01"), dates.MustParse("2023-06-30")); err == nil {
		t.Error("expected error for empty result")
	}
}

func TestDailyBarsRetriesRateLimit(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(chartPayload([]string{"2023-06-14"}, []float64{100}, []float64{110}, []float64{105})))
	}))
	defer srv.Close()

	client := NewChartClient(srv.URL, time.Millisecond, 2)
	bars, err := client.DailyBars(context.Background(), "VTI", dates.MustParse("2023-06-01"), dates.MustParse("2023-06-30"))
	if err != nil {
		t.Fatalf("DailyBars after retry: %v", err)
	}
	if calls != 2 || len(bars) != 1 {
		t.Errorf("calls = %d, bars = %d", calls, len(bars))
	}
}
