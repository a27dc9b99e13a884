package valuation

import (
	"context"

	"option_monitor/internal/logger"
	"option_monitor/internal/market"

	"github.com/patrickmn/go-cache"
)

// Cache memoizes underlying spot prices for the duration of one poll.
// A failed lookup is remembered as 0 so the provider is asked at most once
// per underlying. Create a new Cache for every poll.
type Cache struct {
	spots *cache.Cache
}

// NewCache returns an empty per-poll cache.
func NewCache() *Cache {
	return &Cache{spots: cache.New(cache.NoExpiration, 0)}
}

// Spot returns the spot price of symbol, asking the provider on first use.
// 0 means the price is unavailable for this poll.
func (c *Cache) Spot(ctx context.Context, p market.MarketDataProvider, symbol string) float64 {
	if v, ok := c.spots.Get(symbol); ok {
		return v.(float64)
	}
	price, err := p.GetSpotPrice(ctx, symbol)
	if err != nil || price <= 0 {
		if err != nil {
			logger.Warnf("[%s] spot price unavailable: %v", symbol, err)
		}
		price = 0
	}
	c.spots.Set(symbol, price, cache.NoExpiration)
	return price
}

// Len is the number of underlyings looked up so far.
func (c *Cache) Len() int { return c.spots.ItemCount() }
