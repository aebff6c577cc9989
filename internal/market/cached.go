package market

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"spendview/internal/cache"
	"spendview/internal/sources"
)

type lookupFunc func(ctx context.Context, keys []string) (map[string]decimal.Decimal, error)

// cachedLookup serves known keys from the cache and asks the upstream only
// for the rest. Keys the upstream does not know are not cached.
func cachedLookup(ctx context.Context, c cache.Cache[decimal.Decimal], upstream lookupFunc, keys []string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(keys))
	var missing []string
	for _, k := range keys {
		k = strings.ToUpper(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if v, ok := c.Get(k); ok {
			out[k] = v
			continue
		}
		missing = append(missing, k)
	}
	if len(missing) == 0 {
		return out, nil
	}

	fresh, err := upstream(ctx, missing)
	if err != nil {
		return nil, err
	}
	for k, v := range fresh {
		c.Set(k, v)
		out[k] = v
	}
	return out, nil
}

// CachedRates decorates a RateProvider with a TTL cache.
type CachedRates struct {
	next  sources.RateProvider
	cache cache.Cache[decimal.Decimal]
}

func NewCachedRates(next sources.RateProvider, c cache.Cache[decimal.Decimal]) *CachedRates {
	return &CachedRates{next: next, cache: c}
}

func (r *CachedRates) Rates(ctx context.Context, codes []string) (map[string]decimal.Decimal, error) {
	return cachedLookup(ctx, r.cache, r.next.Rates, codes)
}

// CachedPrices decorates a PriceProvider with a TTL cache.
type CachedPrices struct {
	next  sources.PriceProvider
	cache cache.Cache[decimal.Decimal]
}

func NewCachedPrices(next sources.PriceProvider, c cache.Cache[decimal.Decimal]) *CachedPrices {
	return &CachedPrices{next: next, cache: c}
}

func (p *CachedPrices) Prices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	return cachedLookup(ctx, p.cache, p.next.Prices, symbols)
}
