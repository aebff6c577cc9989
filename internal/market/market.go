// Package market gathers the currency rates and instrument prices shown next
// to a report.
package market

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"spendview/internal/reports"
	"spendview/internal/sources"
)

// Request names what to look up.
type Request struct {
	Currencies []string
	Stocks     []string
}

// Fetcher runs rate and price lookups concurrently under a deadline.
type Fetcher struct {
	rates   sources.RateProvider
	prices  sources.PriceProvider
	timeout time.Duration
}

// NewFetcher creates a fetcher. Either provider may be nil, in which case the
// matching part of the result stays empty.
func NewFetcher(rates sources.RateProvider, prices sources.PriceProvider, timeout time.Duration) *Fetcher {
	return &Fetcher{rates: rates, prices: prices, timeout: timeout}
}

// Fetch returns the market data for req. Any failure aborts the whole fetch.
func (f *Fetcher) Fetch(ctx context.Context, req Request) (reports.Market, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	out := reports.Market{
		Rates:  map[string]decimal.Decimal{},
		Prices: map[string]decimal.Decimal{},
	}
	g, ctx := errgroup.WithContext(ctx)
	if f.rates != nil && len(req.Currencies) > 0 {
		g.Go(func() error {
			r, err := f.rates.Rates(ctx, req.Currencies)
			if err != nil {
				return fmt.Errorf("currency rates: %w", err)
			}
			out.Rates = r
			return nil
		})
	}
	if f.prices != nil && len(req.Stocks) > 0 {
		g.Go(func() error {
			p, err := f.prices.Prices(ctx, req.Stocks)
			if err != nil {
				return fmt.Errorf("stock prices: %w", err)
			}
			out.Prices = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return reports.Market{}, err
	}
	return out, nil
}
