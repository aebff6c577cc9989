package stocks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"spendview/internal/core"
)

func quoteServer(t *testing.T, prices map[string]string, hits *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		if r.URL.Path != "/price" || r.URL.Query().Get("apikey") != "secret" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		symbol := r.URL.Query().Get("symbol")
		p, ok := prices[symbol]
		if !ok {
			fmt.Fprint(w, `{"status":"error","message":"symbol not found"}`)
			return
		}
		fmt.Fprint(w, p)
	}))
}

func TestClientPrices(t *testing.T) {
	var hits int32
	srv := quoteServer(t, map[string]string{
		"AAPL":  `{"price":"189.71"}`,
		"GOOGL": `{"price":135.6}`,
	}, &hits)
	defer srv.Close()

	got, err := New(srv.URL+"/", "secret", time.Second).Prices(context.Background(), []string{"aapl", "GOOGL", "NOPE", " "})
	if err != nil {
		t.Fatalf("Prices: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 prices, got %v", got)
	}
	if !got["AAPL"].Equal(decimal.RequireFromString("189.71")) || !got["GOOGL"].Equal(decimal.RequireFromString("135.6")) {
		t.Fatalf("unexpected prices: %v", got)
	}
	if atomic.LoadInt32(&hits) != 3 {
		t.Fatalf("expected 3 lookups, got %d", hits)
	}
}

func TestClientPricesFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "secret", time.Second).Prices(context.Background(), []string{"AAPL"})
	if !errors.Is(err, core.ErrMarketUnavailable) {
		t.Fatalf("expected ErrMarketUnavailable, got %v", err)
	}
}

func TestClientPricesUnconfigured(t *testing.T) {
	if got, err := New("", "", 0).Prices(context.Background(), nil); err != nil || len(got) != 0 {
		t.Fatalf("no symbols must not need a URL: %v %v", got, err)
	}
	if _, err := New("", "", 0).Prices(context.Background(), []string{"AAPL"}); !errors.Is(err, core.ErrMarketUnavailable) {
		t.Fatalf("expected ErrMarketUnavailable, got %v", err)
	}
}
