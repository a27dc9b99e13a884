package portfolio

import (
	"time"

	"option_monitor/internal/models"

	"github.com/shopspring/decimal"
)

// Aggregate folds the priced legs of one poll into a portfolio summary.
// An empty slice yields a summary with HasData false.
func Aggregate(legs []models.LegSnapshot, multiplier int, asOf time.Time) models.PortfolioSummary {
	var sum models.PortfolioSummary
	if len(legs) == 0 {
		return sum
	}
	sum.HasData = true
	sum.Legs = len(legs)

	var underlyingTotal float64
	var underlyingCount int

	for _, l := range legs {
		p, g := l.Position, l.Snapshot
		qty := float64(p.Quantity)
		mult := float64(p.Multiplier(multiplier))

		sum.NetDelta += g.Delta * qty
		sum.NetGamma += g.Gamma * qty
		sum.NetVega += g.Vega * qty
		sum.NetTheta += g.Theta * qty
		sum.NetRho += g.Rho * qty

		if p.IsOption() {
			sum.OptionDelta += g.Delta * qty * mult
			if g.UnderlyingPrice > 0 {
				underlyingTotal += g.UnderlyingPrice
				underlyingCount++
			}
		} else {
			sum.StockDelta += g.Delta * qty
		}
		sum.TotalGamma += g.Gamma * qty * mult
		sum.TotalVega += g.Vega * qty * mult
		sum.TotalTheta += g.Theta * qty * mult
		sum.TotalRho += g.Rho * qty * mult

		scale := decimal.NewFromInt(int64(p.Quantity) * int64(p.Multiplier(multiplier)))
		sum.MarketValue = sum.MarketValue.Add(decimal.NewFromFloat(g.Price).Mul(scale))
		if g.HasTheoretical {
			sum.TheoreticalValue = sum.TheoreticalValue.Add(decimal.NewFromFloat(g.TheoreticalPrice).Mul(scale))
		}

		pnl, borrow := LegPnL(p, g.Price, multiplier, asOf)
		sum.PnL = sum.PnL.Add(pnl)
		sum.BorrowCost = sum.BorrowCost.Add(borrow)
		sum.InitialValue = sum.InitialValue.Add(InitialValue(p, multiplier))
	}
	sum.TotalDelta = sum.OptionDelta + sum.StockDelta
	if underlyingCount > 0 {
		sum.AvgUnderlying = underlyingTotal / float64(underlyingCount)
	}
	return sum
}

// LegPnL is the unrealized P&L of one leg at price. For short stock with a
// short interest rate the accrued borrow cost is already subtracted and is
// also returned on its own.
func LegPnL(p models.Position, price float64, multiplier int, asOf time.Time) (pnl, borrow decimal.Decimal) {
	current := decimal.NewFromFloat(price)
	scale := decimal.NewFromInt(int64(p.AbsQuantity()) * int64(p.Multiplier(multiplier)))

	if p.IsLong() {
		pnl = current.Sub(p.EntryCost).Mul(scale)
	} else {
		pnl = p.EntryCost.Sub(current).Mul(scale)
	}

	borrow = BorrowCost(p, asOf)
	return pnl.Sub(borrow), borrow
}

// BorrowCost is |qty| × entry cost × rate% × days held / 365 for a short
// stock leg; 0 for anything else.
func BorrowCost(p models.Position, asOf time.Time) decimal.Decimal {
	if p.IsOption() || p.IsLong() || p.Stock == nil || p.Stock.ShortInterestRate <= 0 {
		return decimal.Zero
	}
	days := DaysHeld(p, asOf)
	if days <= 0 {
		return decimal.Zero
	}
	rate := decimal.NewFromFloat(p.Stock.ShortInterestRate).Div(decimal.NewFromInt(100))
	return decimal.NewFromInt(int64(p.AbsQuantity())).
		Mul(p.EntryCost).
		Mul(rate).
		Mul(decimal.NewFromInt(int64(days))).
		Div(decimal.NewFromInt(365))
}

// DaysHeld counts calendar days since the entry date. Unknown entry dates
// count as today.
func DaysHeld(p models.Position, asOf time.Time) int {
	entry, ok := p.EntryTime()
	if !ok {
		return 0
	}
	a := time.Date(entry.Year(), entry.Month(), entry.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

// InitialValue is |qty| × entry cost × multiplier, with the multiplier
// applied to option legs only.
func InitialValue(p models.Position, multiplier int) decimal.Decimal {
	return p.EntryCost.Mul(decimal.NewFromInt(int64(p.AbsQuantity()) * int64(p.Multiplier(multiplier))))
}
