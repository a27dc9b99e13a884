package alpaca

import (
	"context"
	"fmt"
	"time"

	"option_monitor/internal/market"
	"option_monitor/internal/models"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"golang.org/x/time/rate"
)

// dataClient is the subset of the marketdata client the provider uses.
type dataClient interface {
	GetOptionSnapshot(symbol string, req marketdata.GetOptionSnapshotRequest) (*marketdata.OptionSnapshot, error)
	GetLatestTrade(symbol string, req marketdata.GetLatestTradeRequest) (*marketdata.Trade, error)
}

// Options configures the Alpaca provider. Empty credentials fall back to
// the APCA_API_* environment variables read by the SDK.
type Options struct {
	KeyID         string
	SecretKey     string
	RatePerMinute int
}

// Provider implements market.MarketDataProvider on Alpaca market data.
type Provider struct {
	md      dataClient
	limiter *rate.Limiter
	now     func() time.Time
}

// Ensure Provider implements the interface
var _ market.MarketDataProvider = (*Provider)(nil)

// NewProvider returns a new Alpaca provider.
func NewProvider(opts Options) *Provider {
	client := marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    opts.KeyID,
		APISecret: opts.SecretKey,
	})
	return newProvider(client, opts.RatePerMinute)
}

func newProvider(md dataClient, perMinute int) *Provider {
	if perMinute <= 0 {
		perMinute = 200
	}
	every := time.Minute / time.Duration(perMinute)
	return &Provider{
		md:      md,
		limiter: rate.NewLimiter(rate.Every(every), 5),
		now:     time.Now,
	}
}

// GetOptionQuote fetches the option snapshot: last trade (bid/ask midpoint
// when nothing traded), implied volatility and Greeks. Contract terms come
// from the OCC symbol.
func (p *Provider) GetOptionQuote(ctx context.Context, symbol string) (*models.OptionQuote, error) {
	contract, err := market.ParseOptionSymbol(symbol)
	if err != nil {
		return nil, err
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	snap, err := p.md.GetOptionSnapshot(symbol, marketdata.GetOptionSnapshotRequest{})
	if err != nil {
		return nil, fmt.Errorf("option snapshot %s: %w", symbol, err)
	}
	if snap == nil {
		return nil, fmt.Errorf("%w: no snapshot for %s", market.ErrNoData, symbol)
	}

	q := &models.OptionQuote{
		Symbol:            symbol,
		Strike:            contract.Strike,
		OptionType:        contract.Type,
		Expiry:            contract.Expiry,
		Underlying:        contract.Underlying,
		ImpliedVolatility: snap.ImpliedVolatility,
		Timestamp:         p.now(),
	}

	switch {
	case snap.LatestTrade != nil && snap.LatestTrade.Price > 0:
		q.LastPrice = snap.LatestTrade.Price
		q.Timestamp = snap.LatestTrade.Timestamp
	case snap.LatestQuote != nil && snap.LatestQuote.BidPrice > 0 && snap.LatestQuote.AskPrice > 0:
		q.LastPrice = (snap.LatestQuote.BidPrice + snap.LatestQuote.AskPrice) / 2
		q.Timestamp = snap.LatestQuote.Timestamp
	default:
		return nil, fmt.Errorf("%w: no price for %s", market.ErrNoData, symbol)
	}

	if g := snap.Greeks; g != nil {
		q.Delta = g.Delta
		q.Gamma = g.Gamma
		q.Vega = g.Vega
		q.Theta = g.Theta
		q.Rho = g.Rho
	}
	return q, nil
}

// GetSpotPrice fetches the latest trade price for a ticker.
func (p *Provider) GetSpotPrice(ctx context.Context, symbol string) (float64, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	trade, err := p.md.GetLatestTrade(symbol, marketdata.GetLatestTradeRequest{})
	if err != nil {
		return 0, fmt.Errorf("latest trade %s: %w", symbol, err)
	}
	if trade == nil || trade.Price <= 0 {
		return 0, fmt.Errorf("%w: no trade for %s", market.ErrNoData, symbol)
	}
	return trade.Price, nil
}
