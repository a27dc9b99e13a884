package watcher

import (
	"fmt"
	"strings"
	"time"

	"option_monitor/internal/monitor"
)

// String renders the report as a chat friendly dashboard.
func (r *Report) String() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📊 *PORTFOLIO STATUS* (%s)\n", r.Time.Format("2006-01-02 15:04:05")))

	s := r.Summary
	if !s.HasData {
		sb.WriteString("No market data for any leg.\n")
	} else {
		sb.WriteString(fmt.Sprintf("Legs priced: %d", s.Legs))
		if len(r.Failures) > 0 {
			sb.WriteString(fmt.Sprintf(" (%d skipped)", len(r.Failures)))
		}
		sb.WriteString("\n")
		if s.AvgUnderlying > 0 {
			sb.WriteString(fmt.Sprintf("Avg underlying: $%.2f\n", s.AvgUnderlying))
		}
		pnl := monitor.FormatUSD(s.PnL)
		if pct, ok := s.PnLPercent(); ok {
			pnl += fmt.Sprintf(" (%+.1f%%)", pct)
		}
		sb.WriteString(fmt.Sprintf("P&L: %s\n", pnl))
		if !s.BorrowCost.IsZero() {
			sb.WriteString(fmt.Sprintf("Borrow cost: %s\n", monitor.FormatUSD(s.BorrowCost)))
		}
		sb.WriteString(fmt.Sprintf("Market value: %s | BS value: %s\n", monitor.FormatUSD(s.MarketValue), monitor.FormatUSD(s.TheoreticalValue)))
		sb.WriteString(fmt.Sprintf("Delta: %.2f (options %.2f, stock %.2f)\n", s.TotalDelta, s.OptionDelta, s.StockDelta))
		sb.WriteString(fmt.Sprintf("Gamma: %.4f | Vega: %.2f | Theta: %.2f | Rho: %.2f\n", s.TotalGamma, s.TotalVega, s.TotalTheta, s.TotalRho))
	}

	if len(r.Legs) > 0 {
		sb.WriteString("\n*Legs*\n")
		for _, l := range r.Legs {
			g := l.Snapshot
			line := fmt.Sprintf("%d. %s x%d @ $%.2f Δ %.3f", l.Position.LegNumber, g.Label, l.Position.Quantity, g.Price, g.Delta)
			if g.HasTheoretical {
				line += fmt.Sprintf(" BS $%.2f", g.TheoreticalPrice)
			}
			sb.WriteString(line + "\n")
		}
	}
	for _, f := range r.Failures {
		sb.WriteString(fmt.Sprintf("⚠️ Leg %d (%s): %v\n", f.LegNumber, f.Label, f.Err))
	}

	if len(r.Spreads) > 0 {
		sb.WriteString("\n*Spreads*\n")
		for _, sr := range r.Spreads {
			sb.WriteString(spreadLine(sr) + "\n")
		}
	}
	if len(r.Alerts) > 0 {
		sb.WriteString(fmt.Sprintf("\n🚨 %d alert(s) fired\n", len(r.Alerts)))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func spreadLine(sr monitor.SpreadResult) string {
	if sr.Metrics == nil {
		return fmt.Sprintf("• %s: no data", sr.Spread.Name)
	}
	m := sr.Metrics
	abs := m.Price
	if abs < 0 {
		abs = -abs
	}
	return fmt.Sprintf("• %s: $%.2f %s, Δ %.3f", m.Name, abs, m.PriceLabel(), m.Delta)
}

// getStatus summarizes the monitor state and the last report.
func (w *Watcher) getStatus() string {
	running := w.Running()
	rep := w.LastReport()

	state := "STOPPED 🔴"
	if running {
		state = fmt.Sprintf("RUNNING 🟢 every %s", w.Interval())
	}
	head := fmt.Sprintf("Monitoring: %s\nUptime: %s\n", state, time.Since(startTime).Round(time.Second))
	if err := w.Err(); err != nil && !running {
		head += fmt.Sprintf("Last stop reason: %v\n", err)
	}
	if rep == nil {
		return head + "No poll has run yet."
	}
	return head + "\n" + rep.String()
}
