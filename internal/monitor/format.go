package monitor

import (
	"fmt"
	"strings"

	"option_monitor/internal/models"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// FormatUSD renders an amount as dollars with thousands separators,
// e.g. -$1,234.50.
func FormatUSD(d decimal.Decimal) string {
	return money.New(d.Shift(2).Round(0).IntPart(), money.USD).Display()
}

// positionNotes lists "Leg n: remark" for every leg with a remark. When
// legs is non-empty only those legs are listed.
func positionNotes(positions []models.Position, legs []int) []string {
	want := make(map[int]bool, len(legs))
	for _, l := range legs {
		want[l] = true
	}
	var notes []string
	for _, p := range positions {
		if p.Remark == "" || (len(legs) > 0 && !want[p.LegNumber]) {
			continue
		}
		notes = append(notes, fmt.Sprintf("Leg %d: %s", p.LegNumber, p.Remark))
	}
	return notes
}

// appendNotes adds the remark line and the position notes block.
func appendNotes(sb *strings.Builder, remarkLabel, remark string, notes []string) {
	if strings.TrimSpace(remark) != "" {
		fmt.Fprintf(sb, "\n%s: %s", remarkLabel, remark)
	}
	if len(notes) > 0 {
		sb.WriteString("\n\nPosition Notes:\n")
		sb.WriteString(strings.Join(notes, "\n"))
	}
}

func pnlMessage(pct float64, pnl decimal.Decimal, threshold float64, side, remark string, notes []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Portfolio P&L reached %.1f%% (%s)\n%s threshold: %g%%", pct, FormatUSD(pnl), side, threshold)
	appendNotes(&sb, "P&L Alert Remark", remark, notes)
	return sb.String()
}

func deltaMessage(delta float64, pnl decimal.Decimal, threshold float64, upper bool, remark string, notes []string) string {
	var sb strings.Builder
	if upper {
		fmt.Fprintf(&sb, "Portfolio delta (%.2f) exceeds upper threshold: %g", delta, threshold)
	} else {
		fmt.Fprintf(&sb, "Portfolio delta (%.2f) below lower threshold: %g", delta, threshold)
	}
	fmt.Fprintf(&sb, "\nCurrent P&L: %s", FormatUSD(pnl))
	appendNotes(&sb, "Delta Alert Remark", remark, notes)
	return sb.String()
}

func spreadMessage(head string, m *models.SpreadMetrics, s models.Spread, change *float64, notes []string) string {
	var sb strings.Builder
	sb.WriteString(head)

	legs := make([]string, len(m.Legs))
	for i, l := range m.Legs {
		legs[i] = fmt.Sprintf("%d", l.LegNumber)
	}
	fmt.Fprintf(&sb, "\nLegs: %s", strings.Join(legs, ", "))
	if r := targetRange(s.PriceTargetLower, s.PriceTargetUpper, "$%.2f"); r != "" {
		fmt.Fprintf(&sb, "\nPrice targets: %s", r)
	}
	if r := targetRange(s.DeltaTargetLower, s.DeltaTargetUpper, "%.3f"); r != "" {
		fmt.Fprintf(&sb, "\nDelta targets: %s", r)
	}
	if change != nil {
		fmt.Fprintf(&sb, "\nDelta change since last poll: %+.3f", *change)
	}
	appendNotes(&sb, "Remark", s.Remark, notes)
	return sb.String()
}

func targetRange(lower, upper *float64, verb string) string {
	if lower == nil && upper == nil {
		return ""
	}
	side := func(v *float64) string {
		if v == nil {
			return "-"
		}
		return fmt.Sprintf(verb, *v)
	}
	return side(lower) + " .. " + side(upper)
}
