package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PortfolioSummary aggregates all successfully priced legs of one poll.
// HasData is false when no leg could be priced; every other field is then zero.
type PortfolioSummary struct {
	HasData bool `json:"has_data"`
	Legs    int  `json:"legs"`

	// Per-share-equivalent nets: Σ greek × quantity, no multiplier.
	NetDelta float64 `json:"net_delta_per_share_equiv"`
	NetGamma float64 `json:"net_gamma_per_share_equiv"`
	NetVega  float64 `json:"net_vega_per_share_equiv"`
	NetTheta float64 `json:"net_theta_per_share_equiv"`
	NetRho   float64 `json:"net_rho_per_share_equiv"`

	// Dollar Greeks: options scaled by the contract multiplier, stock by share count.
	OptionDelta float64 `json:"total_delta_options"`
	StockDelta  float64 `json:"total_delta_stocks"`
	TotalDelta  float64 `json:"total_net_delta"`
	TotalGamma  float64 `json:"total_net_gamma"`
	TotalVega   float64 `json:"total_net_vega"`
	TotalTheta  float64 `json:"total_net_theta"`
	TotalRho    float64 `json:"total_net_rho"`

	MarketValue      decimal.Decimal `json:"portfolio_market_value"`
	TheoreticalValue decimal.Decimal `json:"portfolio_bs_value"`
	PnL              decimal.Decimal `json:"portfolio_pnl"`
	BorrowCost       decimal.Decimal `json:"short_interest_cost"`
	InitialValue     decimal.Decimal `json:"initial_value"`

	AvgUnderlying float64 `json:"avg_underlying"`
}

// PnLPercent returns P&L as a percentage of the initial value; ok is false
// when the initial value is zero.
func (s PortfolioSummary) PnLPercent() (float64, bool) {
	if s.InitialValue.IsZero() {
		return 0, false
	}
	pct := s.PnL.Div(s.InitialValue).Mul(decimal.NewFromInt(100))
	return pct.InexactFloat64(), true
}

// AlertRecord is the audit entry written for every fired alert.
type AlertRecord struct {
	ID            string         `json:"id"`
	Type          string         `json:"type"`
	Title         string         `json:"title"`
	Message       string         `json:"message"`
	Timestamp     time.Time      `json:"timestamp"`
	Value         float64        `json:"value"`
	Threshold     float64        `json:"threshold"`
	ThresholdType string         `json:"threshold_type"` // upper or lower
	Remarks       []string       `json:"remarks,omitempty"`
	Data          map[string]any `json:"data,omitempty"`
}

// ScenarioLeg is one hypothetical option leg of the BS calculator.
type ScenarioLeg struct {
	Strike   float64    `json:"strike"`
	DTE      int        `json:"dte"`
	Type     OptionType `json:"option_type"`
	Quantity int        `json:"quantity"`
}

// CalculatorInputs are the saved inputs of the BS calculator tool.
type CalculatorInputs struct {
	Ticker       string        `json:"ticker"`
	Market       string        `json:"market"`
	Spot         float64       `json:"current_price"`
	Volatility   float64       `json:"volatility"`
	RiskFreeRate float64       `json:"risk_free_rate"`
	Legs         []ScenarioLeg `json:"legs"`
}

// MonitorSettings are the saved monitoring inputs.
type MonitorSettings struct {
	IntervalMins int        `json:"interval"`
	Thresholds   Thresholds `json:"thresholds"`
}

// UIState is the complete record saved between sessions.
type UIState struct {
	Version    string           `json:"version"`
	LastSave   string           `json:"last_save"`
	Positions  []Position       `json:"positions"`
	Spreads    []Spread         `json:"spreads"`
	Monitor    MonitorSettings  `json:"monitor"`
	Calculator CalculatorInputs `json:"bs_calculator"`
}

// Defaults are named default values grouped by section
// (position, monitor, spread).
type Defaults map[string]map[string]string
