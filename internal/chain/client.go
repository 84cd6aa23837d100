package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Provider interface for testability
type Provider interface {
	Expirations(ctx context.Context, symbol string) ([]string, error)
	Chain(ctx context.Context, symbol, date string) (*ChainResponse, error)
	Quote(ctx context.Context, symbol string) (*QuoteResponse, error)
}

// HTTPClient talks to the options-data provider. Index symbols are translated
// to the provider's notation here so the rest of the code only ever sees the
// plain ticker.
type HTTPClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	mapping    map[string]string
	limiter    *rate.Limiter
	retryCount int
	retryDelay time.Duration
	logger     *zap.Logger
}

// ChainResponse is the provider's chain payload for one expiration. OI and
// volume come back null for strikes that never traded, hence the pointers.
type ChainResponse struct {
	Symbol     string         `json:"symbol"`
	Expiration string         `json:"expiration"`
	Spot       float64        `json:"spot"`
	Contracts  []wireContract `json:"contracts"`
}

type wireContract struct {
	Strike     float64  `json:"strike"`
	Type       string   `json:"type"`
	OI         *int     `json:"open_interest"`
	Volume     *int     `json:"volume"`
	ImpliedVol *float64 `json:"implied_volatility"`
}

// QuoteResponse carries the provider's last trade and previous close.
type QuoteResponse struct {
	Symbol    string  `json:"symbol"`
	Last      float64 `json:"last"`
	PrevClose float64 `json:"prev_close"`
}

type expirationsResponse struct {
	Symbol      string   `json:"symbol"`
	Expirations []string `json:"expirations"`
}

func NewClient(baseURL, apiKey string, mapping map[string]string, ratePerSec int, timeout, retryDelay time.Duration, retryCount int, logger *zap.Logger) *HTTPClient {
	transport := &http.Transport{
		MaxIdleConns:       100,
		MaxConnsPerHost:    10,
		IdleConnTimeout:    90 * time.Second,
		DisableCompression: false,
	}

	return &HTTPClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
		baseURL:    baseURL,
		apiKey:     apiKey,
		mapping:    mapping,
		limiter:    rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec*2),
		retryCount: retryCount,
		retryDelay: retryDelay,
		logger:     logger,
	}
}

// providerSymbol maps a configured ticker to the provider's notation
// (SPX -> ^SPX). Unmapped symbols pass through unchanged.
func (c *HTTPClient) providerSymbol(symbol string) string {
	if mapped, ok := c.mapping[symbol]; ok {
		return mapped
	}
	return symbol
}

func (c *HTTPClient) Expirations(ctx context.Context, symbol string) ([]string, error) {
	endpoint := fmt.Sprintf("%s/v1/options/%s/expirations", c.baseURL, url.PathEscape(c.providerSymbol(symbol)))

	var resp expirationsResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	return resp.Expirations, nil
}

func (c *HTTPClient) Chain(ctx context.Context, symbol, date string) (*ChainResponse, error) {
	endpoint := fmt.Sprintf("%s/v1/options/%s/chain/%s", c.baseURL, url.PathEscape(c.providerSymbol(symbol)), date)

	var resp ChainResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Quote(ctx context.Context, symbol string) (*QuoteResponse, error) {
	endpoint := fmt.Sprintf("%s/v1/quote/%s", c.baseURL, url.PathEscape(c.providerSymbol(symbol)))

	var resp QuoteResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, endpoint string, out any) error {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	c.logger.Debug("requesting", zap.String("url", endpoint))

	var lastErr error
	for attempt := 0; attempt <= c.retryCount; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<(attempt-1)) // Exponential backoff
			c.logger.Debug("retrying request", zap.Int("attempt", attempt), zap.Duration("delay", delay))

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		// Read body before closing for error messages
		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		if readErr != nil {
			lastErr = readErr
			continue
		}

		if resp.StatusCode == http.StatusNotFound {
			return ErrNotFound
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = ErrRateLimited
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
		}

		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}

		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

// ChainContracts converts the wire payload into core contracts, mapping null
// OI and volume to zero. Unrecognized contract types are skipped.
func (r *ChainResponse) ChainContracts() []Contract {
	contracts := make([]Contract, 0, len(r.Contracts))
	for _, wc := range r.Contracts {
		c := Contract{Strike: wc.Strike}

		switch wc.Type {
		case "call":
			c.Side = SideCall
		case "put":
			c.Side = SidePut
		default:
			continue
		}

		if wc.OI != nil {
			c.OpenInterest = *wc.OI
		}
		if wc.Volume != nil {
			c.Volume = *wc.Volume
		}
		if wc.ImpliedVol != nil {
			c.ImpliedVol = *wc.ImpliedVol
		}

		contracts = append(contracts, c)
	}
	return contracts
}
