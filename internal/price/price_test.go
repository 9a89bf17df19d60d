package price

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"stakingScope/internal/subscan"
)

func newTestPriceClient(t *testing.T, body string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)

	explorer := subscan.NewClient(subscan.Config{
		Network: "testnet",
		APIKey:  "test-key",
		BaseURL: srv.URL,
		Retry:   subscan.RetryPolicy{Delay: time.Millisecond, MaxAttempts: 2},
	}, srv.Client(), nil, nil)
	return NewClient(explorer)
}

func TestUSDPriceStringQuote(t *testing.T) {
	client := newTestPriceClient(t, `{"code":0,"message":"ok","data":{"price":"0.52"}}`)

	got, err := client.USDPrice(context.Background(), "AZERO", "USDT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0.52 {
		t.Fatalf("expected 0.52, got %v", got)
	}
}

func TestUSDPriceNumericQuote(t *testing.T) {
	client := newTestPriceClient(t, `{"code":0,"message":"ok","data":{"price":1.25}}`)

	got, err := client.USDPrice(context.Background(), "AZERO", "USDT")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1.25 {
		t.Fatalf("expected 1.25, got %v", got)
	}
}

func TestUSDPriceMissingQuote(t *testing.T) {
	client := newTestPriceClient(t, `{"code":0,"message":"ok","data":{}}`)

	if _, err := client.USDPrice(context.Background(), "AZERO", "USDT"); err == nil {
		t.Fatalf("expected error for missing price")
	}
}
