package models

import "time"

// OptionQuote is what a market data provider reports for one option contract.
// Zero values mean "not reported".
type OptionQuote struct {
	Symbol            string
	LastPrice         float64
	Strike            float64
	ImpliedVolatility float64 // annualized, as a fraction (0.25 = 25%)
	Delta             float64
	Gamma             float64
	Vega              float64
	Theta             float64
	Rho               float64
	OptionType        OptionType // empty when unknown
	Expiry            time.Time  // zero when unknown
	DaysToExpiry      *int       // nil when the feed does not report a distance
	Underlying        string
	Timestamp         time.Time
}

// GreeksSnapshot is the per-poll view of one leg.
type GreeksSnapshot struct {
	Label string  `json:"label"`
	Price float64 `json:"price"`
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Vega  float64 `json:"vega"`
	Theta float64 `json:"theta"`
	Rho   float64 `json:"rho"`

	// Option only.
	UnderlyingPrice   float64 `json:"underlying_price,omitempty"`
	ImpliedVolatility float64 `json:"implied_volatility,omitempty"`
	DaysToExpiry      int     `json:"days_to_expiry,omitempty"`
	TheoreticalPrice  float64 `json:"theoretical_price,omitempty"`
	// HasTheoretical is false when the model price could not be computed;
	// TheoreticalPrice is then 0 and must not be read as a real price.
	HasTheoretical bool `json:"has_theoretical"`
}

// LegSnapshot pairs a position with its snapshot for the current poll.
type LegSnapshot struct {
	Position Position
	Snapshot GreeksSnapshot
}

// SpreadLeg is one leg's contribution to a spread.
type SpreadLeg struct {
	LegNumber         int     `json:"leg_number"`
	Label             string  `json:"label"`
	Quantity          int     `json:"quantity"`
	MarketPrice       float64 `json:"market_price"`
	Delta             float64 `json:"delta"`
	PriceContribution float64 `json:"price_contribution"`
	DeltaContribution float64 `json:"delta_contribution"`
}

// SpreadMetrics is the evaluated price and delta of one unit of a spread.
type SpreadMetrics struct {
	Name      string      `json:"name"`
	Price     float64     `json:"price"`
	Delta     float64     `json:"delta"`
	Legs      []SpreadLeg `json:"legs"`
	Timestamp time.Time   `json:"timestamp"`
	Remark    string      `json:"remark,omitempty"`
}

// PriceLabel is "Debit" for a positive price and "Credit" otherwise.
func (m SpreadMetrics) PriceLabel() string {
	if m.Price > 0 {
		return "Debit"
	}
	return "Credit"
}
