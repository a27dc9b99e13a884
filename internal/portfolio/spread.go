package portfolio

import (
	"time"

	"option_monitor/internal/models"
)

// EvaluateSpread prices one unit of a spread: every leg contributes its
// market price and delta with the sign of its quantity, whatever the
// number of contracts behind it. ok is false when a referenced leg no
// longer exists or has no snapshot this poll.
func EvaluateSpread(s models.Spread, positions []models.Position, snaps map[int]models.GreeksSnapshot, asOf time.Time) (*models.SpreadMetrics, bool) {
	byLeg := make(map[int]models.Position, len(positions))
	for _, p := range positions {
		byLeg[p.LegNumber] = p
	}

	m := &models.SpreadMetrics{
		Name:      s.Name,
		Legs:      make([]models.SpreadLeg, 0, len(s.Legs)),
		Timestamp: asOf,
		Remark:    s.Remark,
	}
	for _, n := range s.Legs {
		p, ok := byLeg[n]
		if !ok {
			return nil, false
		}
		g, ok := snaps[n]
		if !ok {
			return nil, false
		}
		sign := p.Sign()
		leg := models.SpreadLeg{
			LegNumber:         n,
			Label:             p.Label(),
			Quantity:          p.Quantity,
			MarketPrice:       g.Price,
			Delta:             g.Delta,
			PriceContribution: g.Price * sign,
			DeltaContribution: g.Delta * sign,
		}
		m.Price += leg.PriceContribution
		m.Delta += leg.DeltaContribution
		m.Legs = append(m.Legs, leg)
	}
	return m, true
}
