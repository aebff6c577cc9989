// Package stocks fetches instrument prices from an HTTP quote API that
// answers GET <base>/price?symbol=<S>&apikey=<K> with {"price": "<value>"}.
package stocks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"spendview/internal/core"
	"spendview/internal/sources"
)

const maxConcurrentLookups = 4

var _ sources.PriceProvider = (*Client)(nil)

type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type priceResponse struct {
	Price   *decimal.Decimal `json:"price"`
	Status  string           `json:"status"`
	Message string           `json:"message"`
}

// Prices looks symbols up concurrently. A symbol the API has no price for is
// left out; any transport failure fails the whole call.
func (c *Client) Prices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(symbols))
	if len(symbols) == 0 {
		return out, nil
	}
	if c.baseURL == "" {
		return nil, fmt.Errorf("%w: stock API URL not configured", core.ErrMarketUnavailable)
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLookups)
	for _, symbol := range symbols {
		symbol := strings.ToUpper(strings.TrimSpace(symbol))
		if symbol == "" {
			continue
		}
		g.Go(func() error {
			price, ok, err := c.price(ctx, symbol)
			if err != nil {
				return fmt.Errorf("%s: %w", symbol, err)
			}
			if ok {
				mu.Lock()
				out[symbol] = price
				mu.Unlock()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: stocks: %w", core.ErrMarketUnavailable, err)
	}
	return out, nil
}

func (c *Client) price(ctx context.Context, symbol string) (decimal.Decimal, bool, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	if c.apiKey != "" {
		q.Set("apikey", c.apiKey)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/price?"+q.Encode(), nil)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return decimal.Zero, false, nil
	case resp.StatusCode != http.StatusOK:
		return decimal.Zero, false, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var body priceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, false, fmt.Errorf("decode response: %w", err)
	}
	if body.Price == nil || strings.EqualFold(body.Status, "error") {
		return decimal.Zero, false, nil
	}
	return *body.Price, true, nil
}
