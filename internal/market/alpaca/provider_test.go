package alpaca

import (
	"context"
	"errors"
	"testing"
	"time"

	"option_monitor/internal/market"
	"option_monitor/internal/models"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
)

type mockClient struct {
	snapshot *marketdata.OptionSnapshot
	trade    *marketdata.Trade
	err      error
	calls    int
}

func (m *mockClient) GetOptionSnapshot(symbol string, req marketdata.GetOptionSnapshotRequest) (*marketdata.OptionSnapshot, error) {
	m.calls++
	return m.snapshot, m.err
}

func (m *mockClient) GetLatestTrade(symbol string, req marketdata.GetLatestTradeRequest) (*marketdata.Trade, error) {
	m.calls++
	return m.trade, m.err
}

func TestGetOptionQuote_MapsSnapshot(t *testing.T) {
	ts := time.Date(2025, 1, 10, 15, 30, 0, 0, time.UTC)
	mc := &mockClient{snapshot: &marketdata.OptionSnapshot{
		LatestTrade:       &marketdata.OptionTrade{Price: 4.5, Timestamp: ts},
		ImpliedVolatility: 0.31,
		Greeks:            &marketdata.OptionGreeks{Delta: 0.55, Gamma: 0.04, Vega: 0.12, Theta: -0.05, Rho: 0.02},
	}}
	p := newProvider(mc, 6000)

	q, err := p.GetOptionQuote(context.Background(), "AAPL250117C00150000")
	if err != nil {
		t.Fatalf("GetOptionQuote failed: %v", err)
	}
	if q.LastPrice != 4.5 || q.ImpliedVolatility != 0.31 || q.Delta != 0.55 || q.Theta != -0.05 {
		t.Errorf("Unexpected quote: %+v", q)
	}
	if q.Strike != 150 || q.OptionType != models.Call || q.Underlying != "AAPL" {
		t.Errorf("Contract terms not recovered from symbol: %+v", q)
	}
	if !q.Timestamp.Equal(ts) {
		t.Errorf("Expected trade timestamp, got %v", q.Timestamp)
	}
	if q.DaysToExpiry != nil {
		t.Errorf("Alpaca does not report days to expiry")
	}
}

func TestGetOptionQuote_MidpointFallback(t *testing.T) {
	mc := &mockClient{snapshot: &marketdata.OptionSnapshot{
		LatestQuote: &marketdata.OptionQuote{BidPrice: 2.0, AskPrice: 2.5},
	}}
	p := newProvider(mc, 6000)

	q, err := p.GetOptionQuote(context.Background(), "SPY250620P00500000")
	if err != nil {
		t.Fatalf("GetOptionQuote failed: %v", err)
	}
	if q.LastPrice != 2.25 {
		t.Errorf("Expected midpoint 2.25, got %f", q.LastPrice)
	}
	if q.Delta != 0 {
		t.Errorf("Missing greeks should stay zero, got %f", q.Delta)
	}
}

func TestGetOptionQuote_NoData(t *testing.T) {
	p := newProvider(&mockClient{}, 6000)
	if _, err := p.GetOptionQuote(context.Background(), "AAPL250117C00150000"); !errors.Is(err, market.ErrNoData) {
		t.Errorf("Expected ErrNoData for nil snapshot, got %v", err)
	}

	p = newProvider(&mockClient{snapshot: &marketdata.OptionSnapshot{}}, 6000)
	if _, err := p.GetOptionQuote(context.Background(), "AAPL250117C00150000"); !errors.Is(err, market.ErrNoData) {
		t.Errorf("Expected ErrNoData for empty snapshot, got %v", err)
	}
}

func TestGetOptionQuote_BadSymbolSkipsRequest(t *testing.T) {
	mc := &mockClient{}
	p := newProvider(mc, 6000)
	if _, err := p.GetOptionQuote(context.Background(), "AAPL"); !errors.Is(err, models.ErrValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}
	if mc.calls != 0 {
		t.Errorf("Expected no request, got %d", mc.calls)
	}
}

func TestGetSpotPrice(t *testing.T) {
	p := newProvider(&mockClient{trade: &marketdata.Trade{Price: 187.2}}, 6000)
	got, err := p.GetSpotPrice(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("GetSpotPrice failed: %v", err)
	}
	if got != 187.2 {
		t.Errorf("Expected 187.2, got %f", got)
	}

	p = newProvider(&mockClient{trade: &marketdata.Trade{Price: 0}}, 6000)
	if _, err := p.GetSpotPrice(context.Background(), "AAPL"); !errors.Is(err, market.ErrNoData) {
		t.Errorf("Expected ErrNoData for zero price, got %v", err)
	}

	p = newProvider(&mockClient{err: errors.New("boom")}, 6000)
	if _, err := p.GetSpotPrice(context.Background(), "AAPL"); err == nil || errors.Is(err, market.ErrNoData) {
		t.Errorf("Expected transport error, got %v", err)
	}
}

func TestGetSpotPrice_CancelledContext(t *testing.T) {
	p := newProvider(&mockClient{trade: &marketdata.Trade{Price: 1}}, 1)
	// Drain the burst so the next Wait has to block.
	for i := 0; i < 5; i++ {
		p.limiter.Allow()
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.GetSpotPrice(ctx, "AAPL"); err == nil {
		t.Error("Expected error on cancelled context")
	}
}
