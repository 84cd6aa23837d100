package chain

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestClient(baseURL string, retries int) *HTTPClient {
	logger := zap.NewNop()
	mapping := map[string]string{"SPX": "^SPX", "NDX": "^NDX"}
	return NewClient(baseURL, "test-key", mapping, 100, 5*time.Second, 10*time.Millisecond, retries, logger)
}

func TestChain_Success(t *testing.T) {
	oi := 150
	vol := 42
	iv := 0.21

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth != "Bearer test-key" {
			t.Errorf("expected Bearer test-key, got %s", auth)
		}

		// Index symbols hit the provider in caret notation.
		expectedPath := "/v1/options/%5ESPX/chain/2025-06-20"
		if r.URL.EscapedPath() != expectedPath {
			t.Errorf("expected path %s, got %s", expectedPath, r.URL.EscapedPath())
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ChainResponse{
			Symbol:     "^SPX",
			Expiration: "2025-06-20",
			Spot:       5975.25,
			Contracts: []wireContract{
				{Strike: 6000, Type: "call", OI: &oi, Volume: &vol, ImpliedVol: &iv},
				{Strike: 5900, Type: "put"},
				{Strike: 5950, Type: "straddle"},
			},
		})
	}))
	defer server.Close()

	client := newTestClient(server.URL, 0)

	resp, err := client.Chain(context.Background(), "SPX", "2025-06-20")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	contracts := resp.ChainContracts()
	if len(contracts) != 2 {
		t.Fatalf("expected 2 contracts (unknown type dropped), got %d", len(contracts))
	}
	if contracts[0].OpenInterest != 150 || contracts[0].Volume != 42 || contracts[0].ImpliedVol != 0.21 {
		t.Errorf("call contract not decoded: %+v", contracts[0])
	}
	// Null OI/volume/IV become zero, never an error.
	if contracts[1].OpenInterest != 0 || contracts[1].Volume != 0 || contracts[1].ImpliedVol != 0 {
		t.Errorf("null fields should map to zero: %+v", contracts[1])
	}
}

func TestExpirations_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 3)

	_, err := client.Expirations(context.Background(), "ZZZZ")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestQuote_RateLimitedRetries(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 2)

	_, err := client.Quote(context.Background(), "SPY")
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected wrapped ErrRateLimited, got %v", err)
	}

	// Initial attempt plus 2 retries.
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestQuote_ServerErrorThenSuccess(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(QuoteResponse{Symbol: "SPY", Last: 592.43, PrevClose: 590.12})
	}))
	defer server.Close()

	client := newTestClient(server.URL, 3)

	quote, err := client.Quote(context.Background(), "SPY")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.Last != 592.43 {
		t.Errorf("quote.Last = %v, want 592.43", quote.Last)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestProviderSymbolPassthrough(t *testing.T) {
	client := newTestClient("http://unused", 0)

	if got := client.providerSymbol("SPX"); got != "^SPX" {
		t.Errorf("providerSymbol(SPX) = %q, want ^SPX", got)
	}
	if got := client.providerSymbol("SPY"); got != "SPY" {
		t.Errorf("providerSymbol(SPY) = %q, want SPY", got)
	}
}
