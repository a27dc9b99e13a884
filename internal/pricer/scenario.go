package pricer

import (
	"fmt"

	"option_monitor/internal/models"
)

// ScenarioInput drives the BS calculator: a single underlying priced with
// one volatility and rate across several hypothetical legs.
type ScenarioInput struct {
	Spot       float64
	Volatility float64
	Rate       float64
	Multiplier int
	Legs       []models.ScenarioLeg
}

// LegResult is the valuation of one scenario leg.
type LegResult struct {
	Leg           models.ScenarioLeg `json:"leg"`
	Greeks        Greeks             `json:"greeks"`
	PositionValue float64            `json:"position_value"`
}

// ScenarioResult holds per-leg results and multiplier scaled totals.
type ScenarioResult struct {
	Legs       []LegResult `json:"legs"`
	TotalValue float64     `json:"total_value"`
	Delta      float64     `json:"delta"`
	Gamma      float64     `json:"gamma"`
	Vega       float64     `json:"vega"`
	Theta      float64     `json:"theta"`
	Rho        float64     `json:"rho"`
}

// Evaluate prices every leg of the scenario. No live data is used.
func Evaluate(in ScenarioInput) (*ScenarioResult, error) {
	if in.Spot <= 0 {
		return nil, fmt.Errorf("%w: stock price must be positive", models.ErrValidation)
	}
	if in.Volatility < 0 {
		return nil, fmt.Errorf("%w: volatility cannot be negative", models.ErrValidation)
	}
	mult := in.Multiplier
	if mult <= 0 {
		mult = 100
	}

	res := &ScenarioResult{Legs: make([]LegResult, 0, len(in.Legs))}
	for i, leg := range in.Legs {
		if leg.Strike <= 0 {
			return nil, fmt.Errorf("%w: leg %d strike must be positive", models.ErrValidation, i+1)
		}
		if leg.Quantity == 0 {
			return nil, fmt.Errorf("%w: leg %d quantity cannot be zero", models.ErrValidation, i+1)
		}
		g, err := PriceAndGreeks(in.Spot, leg.Strike, float64(leg.DTE)/365.0, in.Rate, in.Volatility, leg.Type)
		if err != nil {
			return nil, fmt.Errorf("leg %d: %w", i+1, err)
		}

		scale := float64(leg.Quantity * mult)
		lr := LegResult{Leg: leg, Greeks: g, PositionValue: g.Price * scale}
		res.Legs = append(res.Legs, lr)

		res.TotalValue += lr.PositionValue
		res.Delta += g.Delta * scale
		res.Gamma += g.Gamma * scale
		res.Vega += g.Vega * scale
		res.Theta += g.Theta * scale
		res.Rho += g.Rho * scale
	}
	return res, nil
}
