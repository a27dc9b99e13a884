package market

import (
	"context"
	"errors"

	"option_monitor/internal/models"
)

// ErrNoData is returned when the feed answered but had nothing usable for
// the symbol (no trade, no quote, zero price).
var ErrNoData = errors.New("no market data")

// MarketDataProvider is the read-only market data source the monitor polls.
// Implementations must be safe for use from one goroutine at a time; the
// poller never calls them concurrently.
type MarketDataProvider interface {
	// GetOptionQuote returns price and Greeks for an OCC option symbol.
	GetOptionQuote(ctx context.Context, symbol string) (*models.OptionQuote, error)
	// GetSpotPrice returns the latest trade price of an underlying.
	GetSpotPrice(ctx context.Context, symbol string) (float64, error)
}

// Symbol joins a market prefix and a ticker the way the portfolio file
// stores them ("US.AAPL"). An empty market returns the bare ticker.
func Symbol(mkt, ticker string) string {
	if mkt == "" {
		return ticker
	}
	return mkt + "." + ticker
}
