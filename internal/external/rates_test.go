package external

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
)

const ratesCSV = `DATE,PDF FILE,TT BUY,TT SELL
2023-06-14 09:00 AM,rates.pdf,81.90,82.40
2023-06-15 09:00 AM,rates.pdf,82.50,83.00
2023-06-16 09:00 AM,rates.pdf,,83.10
`

func TestFetchSamples(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(ratesCSV))
	}))
	defer srv.Close()

	client := NewRatesClient(srv.URL, 0, 0)
	samples, err := client.FetchSamples(context.Background())
	if err != nil {
		t.Fatalf("FetchSamples: %v", err)
	}

	if len(samples) != 3 {
		t.Fatalf("samples = %d, want 3", len(samples))
	}
	if samples[0].Date != "2023-06-14 09:00 AM" {
		t.Errorf("date kept verbatim? got %q", samples[0].Date)
	}
	if !samples[1].Rate.Equal(decimal.RequireFromString("82.50")) {
		t.Errorf("rate = %v, want 82.50", samples[1].Rate)
	}
	// A blank cell is recorded as the zero sentinel, not dropped.
	if !samples[2].Rate.IsZero() {
		t.Errorf("blank rate = %v, want 0", samples[2].Rate)
	}
}

func TestFetchSamplesMissingColumns(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("WHEN,PRICE\n2023-06-14,81.90\n"))
	}))
	defer srv.Close()

	client := NewRatesClient(srv.URL, 0, 0)
	if _, err := client.FetchSamples(context.Background()); err == nil {
		t.Error("expected error for unrecognized header")
	}
}

func TestFetchSamplesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewRatesClient(srv.URL, 0, 0)
	if _, err := client.FetchSamples(context.Background()); err == nil {
		t.Error("expected error for HTTP 500")
	}
}
