package backend

import (
	"time"

	"github.com/shopspring/decimal"

	"spendview/internal/cache"
	"spendview/internal/config"
	"spendview/internal/market"
	"spendview/internal/market/cbr"
	"spendview/internal/market/stocks"
	"spendview/internal/sources"
)

const marketCacheSize = 256

// MarketResult is a configured market fetcher plus the manager cleaning its
// caches. Manager is nil when caching is disabled.
type MarketResult struct {
	Fetcher *market.Fetcher
	Manager *cache.Manager
}

// Close stops the cache cleanup loop.
func (r MarketResult) Close() {
	if r.Manager != nil {
		r.Manager.Stop()
	}
}

// NewMarket wires the CBR rate feed and, when STOCK_API_URL is set, the stock
// price API. A positive MarketCacheTTL puts an LRU cache in front of both.
func NewMarket(cfg *config.Config) MarketResult {
	var (
		rates  sources.RateProvider  = cbr.New(cfg.RatesURL, cfg.MarketTimeout)
		prices sources.PriceProvider = nil
	)
	if cfg.StockAPIURL != "" {
		prices = stocks.New(cfg.StockAPIURL, cfg.StockAPIKey, cfg.MarketTimeout)
	}

	var manager *cache.Manager
	if cfg.MarketCacheTTL > 0 {
		manager = cache.NewManager()
		rateCache := cache.NewLRUCache[decimal.Decimal](marketCacheSize, cfg.MarketCacheTTL)
		manager.Register(rateCache)
		rates = market.NewCachedRates(rates, rateCache)
		if prices != nil {
			priceCache := cache.NewLRUCache[decimal.Decimal](marketCacheSize, cfg.MarketCacheTTL)
			manager.Register(priceCache)
			prices = market.NewCachedPrices(prices, priceCache)
		}
		manager.StartCleanup(cleanupInterval(cfg.MarketCacheTTL))
	}

	return MarketResult{
		Fetcher: market.NewFetcher(rates, prices, cfg.MarketTimeout),
		Manager: manager,
	}
}

func cleanupInterval(ttl time.Duration) time.Duration {
	if ttl < time.Minute {
		return time.Minute
	}
	return ttl
}
