package valuation

import (
	"context"
	"errors"
	"testing"
	"time"

	"option_monitor/internal/market"
	"option_monitor/internal/models"
	"option_monitor/internal/pricer"

	"github.com/shopspring/decimal"
)

// MockProvider serves canned quotes and counts spot lookups.
type MockProvider struct {
	Quotes     map[string]*models.OptionQuote
	Spots      map[string]float64
	SpotCalls  map[string]int
	QuoteCalls int
}

func (m *MockProvider) GetOptionQuote(ctx context.Context, symbol string) (*models.OptionQuote, error) {
	m.QuoteCalls++
	q, ok := m.Quotes[symbol]
	if !ok {
		return nil, market.ErrNoData
	}
	return q, nil
}

func (m *MockProvider) GetSpotPrice(ctx context.Context, symbol string) (float64, error) {
	if m.SpotCalls == nil {
		m.SpotCalls = make(map[string]int)
	}
	m.SpotCalls[symbol]++
	p, ok := m.Spots[symbol]
	if !ok {
		return 0, market.ErrNoData
	}
	return p, nil
}

var testNow = time.Date(2025, 1, 2, 14, 0, 0, 0, time.UTC)

func optionLeg(t *testing.T, underlying string, strike float64, typ models.OptionType, qty int) models.Position {
	t.Helper()
	p, err := models.NewOptionPosition("US", underlying, strike, typ, time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC), qty, decimal.NewFromInt(3), "")
	if err != nil {
		t.Fatalf("NewOptionPosition: %v", err)
	}
	return p
}

func newTestService(p market.MarketDataProvider) *Service {
	s := NewService(p, 0.04)
	s.now = func() time.Time { return testNow }
	return s
}

func TestPriceLeg_Option(t *testing.T) {
	mp := &MockProvider{
		Quotes: map[string]*models.OptionQuote{
			"AAPL250117C00150000": {LastPrice: 4.5, Strike: 150, ImpliedVolatility: 0.3, Delta: 0.52, Gamma: 0.03, Vega: 0.1, Theta: -0.08, Rho: 0.01, OptionType: models.Call, Underlying: "AAPL"},
		},
		Spots: map[string]float64{"AAPL": 151},
	}
	s := newTestService(mp)

	snap, err := s.PriceLeg(context.Background(), optionLeg(t, "AAPL", 150, models.Call, 2), NewCache())
	if err != nil {
		t.Fatalf("PriceLeg failed: %v", err)
	}
	if snap.Price != 4.5 || snap.Delta != 0.52 || snap.UnderlyingPrice != 151 {
		t.Errorf("Unexpected snapshot: %+v", snap)
	}
	// 2 Jan -> 17 Jan.
	if snap.DaysToExpiry != 15 {
		t.Errorf("Expected 15 days to expiry, got %d", snap.DaysToExpiry)
	}
	want, _ := pricer.Price(151, 150, 15.0/365.0, 0.04, 0.3, models.Call)
	if !snap.HasTheoretical || snap.TheoreticalPrice != want {
		t.Errorf("Expected theoretical %f, got %f (has=%v)", want, snap.TheoreticalPrice, snap.HasTheoretical)
	}
}

func TestPriceLeg_ReportedDaysToExpiry(t *testing.T) {
	dte := 9
	mp := &MockProvider{
		Quotes: map[string]*models.OptionQuote{
			"AAPL250117P00140000": {LastPrice: 1.2, ImpliedVolatility: 0.25, DaysToExpiry: &dte},
		},
		Spots: map[string]float64{"AAPL": 151},
	}
	snap, err := newTestService(mp).PriceLeg(context.Background(), optionLeg(t, "AAPL", 140, models.Put, -1), NewCache())
	if err != nil {
		t.Fatalf("PriceLeg failed: %v", err)
	}
	if snap.DaysToExpiry != 9 {
		t.Errorf("Expected reported 9 days, got %d", snap.DaysToExpiry)
	}
	// Strike and type fall back to the position when the quote lacks them.
	want, _ := pricer.Price(151, 140, 9.0/365.0, 0.04, 0.25, models.Put)
	if snap.TheoreticalPrice != want {
		t.Errorf("Expected theoretical %f, got %f", want, snap.TheoreticalPrice)
	}
}

func TestPriceLeg_NoTheoreticalWithoutInputs(t *testing.T) {
	mp := &MockProvider{
		Quotes: map[string]*models.OptionQuote{
			"AAPL250117C00150000": {LastPrice: 4.5, ImpliedVolatility: 0},
		},
		Spots: map[string]float64{"AAPL": 151},
	}
	snap, err := newTestService(mp).PriceLeg(context.Background(), optionLeg(t, "AAPL", 150, models.Call, 1), NewCache())
	if err != nil {
		t.Fatalf("PriceLeg failed: %v", err)
	}
	if snap.HasTheoretical || snap.TheoreticalPrice != 0 {
		t.Errorf("Expected no theoretical price at zero IV, got %+v", snap)
	}

	// Missing spot also disables the model price but not the leg.
	mp.Spots = nil
	snap, err = newTestService(mp).PriceLeg(context.Background(), optionLeg(t, "AAPL", 150, models.Call, 1), NewCache())
	if err != nil {
		t.Fatalf("PriceLeg failed: %v", err)
	}
	if snap.HasTheoretical || snap.UnderlyingPrice != 0 {
		t.Errorf("Expected no theoretical price without spot, got %+v", snap)
	}
}

func TestPriceLeg_Stock(t *testing.T) {
	mp := &MockProvider{Spots: map[string]float64{"TSLA": 250}}
	s := newTestService(mp)

	long, _ := models.NewStockPosition("US", "TSLA", 300, decimal.NewFromInt(240), 0, "")
	short, _ := models.NewStockPosition("US", "TSLA", -50, decimal.NewFromInt(260), 5, "")

	c := NewCache()
	for _, tt := range []struct {
		pos   models.Position
		delta float64
	}{{long, 1}, {short, -1}} {
		snap, err := s.PriceLeg(context.Background(), tt.pos, c)
		if err != nil {
			t.Fatalf("PriceLeg failed: %v", err)
		}
		if snap.Price != 250 || snap.Delta != tt.delta {
			t.Errorf("Expected price 250 delta %v, got %+v", tt.delta, snap)
		}
		if snap.Gamma != 0 || snap.Vega != 0 || snap.Theta != 0 || snap.Rho != 0 {
			t.Errorf("Stock greeks must be zero, got %+v", snap)
		}
	}
	if mp.SpotCalls["TSLA"] != 1 {
		t.Errorf("Expected 1 spot lookup, got %d", mp.SpotCalls["TSLA"])
	}
}

func TestPriceLeg_NoData(t *testing.T) {
	mp := &MockProvider{}
	s := newTestService(mp)

	if _, err := s.PriceLeg(context.Background(), optionLeg(t, "AAPL", 150, models.Call, 1), NewCache()); !errors.Is(err, market.ErrNoData) {
		t.Errorf("Expected ErrNoData for option, got %v", err)
	}
	stock, _ := models.NewStockPosition("US", "AAPL", 1, decimal.NewFromInt(1), 0, "")
	if _, err := s.PriceLeg(context.Background(), stock, NewCache()); !errors.Is(err, market.ErrNoData) {
		t.Errorf("Expected ErrNoData for stock, got %v", err)
	}
}

func TestCache_OneLookupPerUnderlying(t *testing.T) {
	mp := &MockProvider{
		Quotes: map[string]*models.OptionQuote{
			"AAPL250117C00150000": {LastPrice: 4.5, ImpliedVolatility: 0.3},
			"AAPL250117C00160000": {LastPrice: 1.5, ImpliedVolatility: 0.3},
			"MSFT250117C00400000": {LastPrice: 7, ImpliedVolatility: 0.3},
		},
		Spots: map[string]float64{"AAPL": 151},
	}
	s := newTestService(mp)

	c := NewCache()
	legs := []models.Position{
		optionLeg(t, "AAPL", 150, models.Call, 1),
		optionLeg(t, "AAPL", 160, models.Call, -1),
		optionLeg(t, "MSFT", 400, models.Call, 1),
		optionLeg(t, "MSFT", 400, models.Call, 1),
	}
	for _, l := range legs {
		if _, err := s.PriceLeg(context.Background(), l, c); err != nil {
			t.Fatalf("PriceLeg failed: %v", err)
		}
	}
	if mp.SpotCalls["AAPL"] != 1 {
		t.Errorf("Expected 1 AAPL lookup, got %d", mp.SpotCalls["AAPL"])
	}
	// Failed MSFT lookup is memoized too.
	if mp.SpotCalls["MSFT"] != 1 {
		t.Errorf("Expected 1 MSFT lookup, got %d", mp.SpotCalls["MSFT"])
	}
	if c.Len() != 2 {
		t.Errorf("Expected 2 cached underlyings, got %d", c.Len())
	}

	// A fresh cache asks again.
	if _, err := s.PriceLeg(context.Background(), legs[0], NewCache()); err != nil {
		t.Fatalf("PriceLeg failed: %v", err)
	}
	if mp.SpotCalls["AAPL"] != 2 {
		t.Errorf("Expected a new lookup with a new cache, got %d", mp.SpotCalls["AAPL"])
	}
}

func TestCalendarDays(t *testing.T) {
	from := time.Date(2025, 3, 1, 23, 59, 0, 0, time.UTC)
	if got := CalendarDays(from, time.Date(2025, 3, 2, 0, 1, 0, 0, time.UTC)); got != 1 {
		t.Errorf("Expected 1, got %d", got)
	}
	if got := CalendarDays(from, time.Date(2025, 2, 27, 0, 0, 0, 0, time.UTC)); got != -2 {
		t.Errorf("Expected -2, got %d", got)
	}
}
