// Package valuation turns portfolio legs into per-poll Greeks snapshots.
package valuation

import (
	"context"
	"fmt"
	"math"
	"time"

	"option_monitor/internal/market"
	"option_monitor/internal/models"
	"option_monitor/internal/pricer"
)

// Service prices single legs against a market data provider.
type Service struct {
	provider market.MarketDataProvider
	rate     float64
	now      func() time.Time
}

// NewService returns a pricing service using riskFreeRate (annual, as a
// fraction) for the theoretical price.
func NewService(provider market.MarketDataProvider, riskFreeRate float64) *Service {
	return &Service{provider: provider, rate: riskFreeRate, now: time.Now}
}

// PriceLeg returns the snapshot of one leg. An error means the leg has no
// data this poll and must be skipped; it never invalidates other legs.
func (s *Service) PriceLeg(ctx context.Context, pos models.Position, c *Cache) (*models.GreeksSnapshot, error) {
	if pos.IsOption() {
		return s.priceOption(ctx, pos, c)
	}
	return s.priceStock(ctx, pos, c)
}

func (s *Service) priceStock(ctx context.Context, pos models.Position, c *Cache) (*models.GreeksSnapshot, error) {
	spot := c.Spot(ctx, s.provider, pos.Underlying)
	if spot <= 0 {
		return nil, fmt.Errorf("leg %d %s: %w", pos.LegNumber, pos.Underlying, market.ErrNoData)
	}
	return &models.GreeksSnapshot{
		Label:           pos.Label(),
		Price:           spot,
		Delta:           pos.Sign(),
		UnderlyingPrice: spot,
	}, nil
}

func (s *Service) priceOption(ctx context.Context, pos models.Position, c *Cache) (*models.GreeksSnapshot, error) {
	sym, err := market.PositionSymbol(pos)
	if err != nil {
		return nil, err
	}
	q, err := s.provider.GetOptionQuote(ctx, sym)
	if err != nil {
		return nil, fmt.Errorf("leg %d %s: %w", pos.LegNumber, sym, err)
	}
	if q == nil {
		return nil, fmt.Errorf("leg %d %s: %w", pos.LegNumber, sym, market.ErrNoData)
	}

	underlying := q.Underlying
	if underlying == "" {
		underlying = pos.Underlying
	}
	spot := c.Spot(ctx, s.provider, underlying)

	strike := q.Strike
	if strike <= 0 {
		strike = pos.Option.Strike
	}
	typ := q.OptionType
	if !typ.Valid() {
		typ = pos.Option.Type
	}

	snap := &models.GreeksSnapshot{
		Label:             pos.Label(),
		Price:             q.LastPrice,
		Delta:             q.Delta,
		Gamma:             q.Gamma,
		Vega:              q.Vega,
		Theta:             q.Theta,
		Rho:               q.Rho,
		UnderlyingPrice:   spot,
		ImpliedVolatility: q.ImpliedVolatility,
		DaysToExpiry:      s.daysToExpiry(pos, q),
	}

	if spot > 0 && strike > 0 && q.ImpliedVolatility > 0 && typ.Valid() {
		t := math.Max(0, float64(snap.DaysToExpiry)) / 365.0
		price, err := pricer.Price(spot, strike, t, s.rate, q.ImpliedVolatility, typ)
		if err == nil {
			snap.TheoreticalPrice = price
			snap.HasTheoretical = true
		}
	}
	return snap, nil
}

// daysToExpiry prefers the distance reported by the feed and falls back to
// the calendar days between today and the stored expiry.
func (s *Service) daysToExpiry(pos models.Position, q *models.OptionQuote) int {
	if q.DaysToExpiry != nil {
		return *q.DaysToExpiry
	}
	exp := q.Expiry
	if exp.IsZero() {
		var err error
		if exp, err = pos.ExpiryTime(); err != nil {
			return 0
		}
	}
	return CalendarDays(s.now(), exp)
}

// CalendarDays counts whole calendar days from from to to, ignoring the
// time of day. Negative when to is in the past.
func CalendarDays(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
