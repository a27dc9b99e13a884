// Package monitor compares portfolio and spread metrics against configured
// thresholds and fires alerts.
package monitor

import (
	"context"
	"fmt"
	"math"
	"time"

	"option_monitor/internal/audit"
	"option_monitor/internal/logger"
	"option_monitor/internal/metrics"
	"option_monitor/internal/models"
	"option_monitor/internal/notifications"

	"github.com/google/uuid"
)

// Alert types.
const (
	TypePnLUpper         = "portfolio_pnl_upper"
	TypePnLLower         = "portfolio_pnl_lower"
	TypeDeltaUpper       = "portfolio_delta_upper"
	TypeDeltaLower       = "portfolio_delta_lower"
	TypeSpreadPriceUpper = "spread_price_upper"
	TypeSpreadPriceLower = "spread_price_lower"
	TypeSpreadDeltaUpper = "spread_delta_upper"
	TypeSpreadDeltaLower = "spread_delta_lower"
)

// SpreadResult is one spread with its metrics for the current poll. Metrics
// is nil when the spread could not be resolved.
type SpreadResult struct {
	Spread  models.Spread
	Metrics *models.SpreadMetrics
}

// Input is everything one evaluation looks at.
type Input struct {
	Summary    models.PortfolioSummary
	Positions  []models.Position
	Thresholds models.Thresholds
	Spreads    []SpreadResult
	Now        time.Time
}

// Monitor evaluates thresholds. It keeps no state of its own; the caller
// passes State in and stores the returned value.
type Monitor struct {
	sink  notifications.Sink
	audit audit.Recorder
	mode  Mode
	newID func() string
}

// New builds a Monitor. sink and rec may be nil.
func New(sink notifications.Sink, rec audit.Recorder, mode Mode) *Monitor {
	if mode == "" {
		mode = ModeRepeat
	}
	return &Monitor{sink: sink, audit: rec, mode: mode, newID: uuid.NewString}
}

// Mode returns the configured alert mode.
func (m *Monitor) Mode() Mode { return m.mode }

// Evaluate checks every configured threshold, delivers the alerts that fire
// and returns the next state. An error means the inputs cannot be evaluated
// at all (bad thresholds or a non-finite summary); delivery failures are
// only logged.
func (m *Monitor) Evaluate(ctx context.Context, st State, in Input) (State, []models.AlertRecord, error) {
	if err := in.Thresholds.Validate(); err != nil {
		return st, nil, err
	}
	if err := checkSummary(in.Summary); err != nil {
		return st, nil, err
	}
	for _, sr := range in.Spreads {
		if err := checkTargets(sr.Spread); err != nil {
			return st, nil, err
		}
	}
	if in.Now.IsZero() {
		in.Now = time.Now()
	}

	next := st.clone()
	fired := make(map[string]bool)
	var alerts []models.AlertRecord
	emit := func(key string, rec models.AlertRecord) {
		fired[key] = true
		if m.mode == ModeOnce && st.Breached[key] {
			return
		}
		alerts = append(alerts, m.deliver(ctx, rec, in.Now))
	}

	if in.Summary.HasData {
		m.checkPortfolio(in, emit)
	}
	for _, sr := range in.Spreads {
		if sr.Metrics == nil {
			continue
		}
		var change *float64
		if prev, ok := st.SpreadDeltas[sr.Spread.Name]; ok {
			d := sr.Metrics.Delta - prev
			change = &d
		}
		m.checkSpread(in, sr, change, emit)
		next.SpreadDeltas[sr.Spread.Name] = sr.Metrics.Delta
	}

	if m.mode == ModeOnce {
		next.Breached = fired
	} else {
		next.Breached = make(map[string]bool)
	}
	return next, alerts, nil
}

func (m *Monitor) checkPortfolio(in Input, emit func(string, models.AlertRecord)) {
	sum := in.Summary
	th := in.Thresholds
	notes := positionNotes(in.Positions, nil)

	if pct, ok := sum.PnLPercent(); ok {
		pnl := sum.PnL
		data := func(threshold float64, side string) map[string]any {
			return map[string]any{
				"pnl_percentage":   pct,
				"current_pnl":      pnl.InexactFloat64(),
				"initial_value":    sum.InitialValue.InexactFloat64(),
				"threshold":        threshold,
				"threshold_type":   side,
				"pnl_remark":       th.PnLRemark,
				"position_remarks": notes,
			}
		}
		if th.PnLPctUpper != nil && pct >= *th.PnLPctUpper {
			emit(TypePnLUpper, models.AlertRecord{
				Type:          TypePnLUpper,
				Title:         "Portfolio P&L Upper Alert",
				Message:       pnlMessage(pct, pnl, *th.PnLPctUpper, "Upper", th.PnLRemark, notes),
				Value:         pct,
				Threshold:     *th.PnLPctUpper,
				ThresholdType: "upper",
				Remarks:       remarks(th.PnLRemark, notes),
				Data:          data(*th.PnLPctUpper, "upper"),
			})
		}
		if th.PnLPctLower != nil && pct <= *th.PnLPctLower {
			emit(TypePnLLower, models.AlertRecord{
				Type:          TypePnLLower,
				Title:         "Portfolio P&L Lower Alert",
				Message:       pnlMessage(pct, pnl, *th.PnLPctLower, "Lower", th.PnLRemark, notes),
				Value:         pct,
				Threshold:     *th.PnLPctLower,
				ThresholdType: "lower",
				Remarks:       remarks(th.PnLRemark, notes),
				Data:          data(*th.PnLPctLower, "lower"),
			})
		}
	}

	delta := sum.TotalDelta
	data := func(threshold float64, side string) map[string]any {
		return map[string]any{
			"current_delta":    delta,
			"current_pnl":      sum.PnL.InexactFloat64(),
			"threshold":        threshold,
			"threshold_type":   side,
			"delta_remark":     th.DeltaRemark,
			"position_remarks": notes,
		}
	}
	if th.DeltaUpper != nil && delta >= *th.DeltaUpper {
		emit(TypeDeltaUpper, models.AlertRecord{
			Type:          TypeDeltaUpper,
			Title:         "Portfolio Delta Upper Alert",
			Message:       deltaMessage(delta, sum.PnL, *th.DeltaUpper, true, th.DeltaRemark, notes),
			Value:         delta,
			Threshold:     *th.DeltaUpper,
			ThresholdType: "upper",
			Remarks:       remarks(th.DeltaRemark, notes),
			Data:          data(*th.DeltaUpper, "upper"),
		})
	}
	if th.DeltaLower != nil && delta <= *th.DeltaLower {
		emit(TypeDeltaLower, models.AlertRecord{
			Type:          TypeDeltaLower,
			Title:         "Portfolio Delta Lower Alert",
			Message:       deltaMessage(delta, sum.PnL, *th.DeltaLower, false, th.DeltaRemark, notes),
			Value:         delta,
			Threshold:     *th.DeltaLower,
			ThresholdType: "lower",
			Remarks:       remarks(th.DeltaRemark, notes),
			Data:          data(*th.DeltaLower, "lower"),
		})
	}
}

func (m *Monitor) checkSpread(in Input, sr SpreadResult, change *float64, emit func(string, models.AlertRecord)) {
	s, met := sr.Spread, sr.Metrics
	notes := positionNotes(in.Positions, s.Legs)
	title := "Spread Alert - " + s.Name
	price := math.Abs(met.Price)

	rec := func(typ, head string, value, threshold float64, side string) models.AlertRecord {
		data := map[string]any{
			"spread_name":      s.Name,
			"spread_price":     met.Price,
			"spread_delta":     met.Delta,
			"price_label":      met.PriceLabel(),
			"legs":             s.Legs,
			"threshold":        threshold,
			"threshold_type":   side,
			"position_remarks": notes,
		}
		if change != nil {
			data["delta_change"] = *change
		}
		return models.AlertRecord{
			Type:          typ,
			Title:         title,
			Message:       spreadMessage(head, met, s, change, notes),
			Value:         value,
			Threshold:     threshold,
			ThresholdType: side,
			Remarks:       remarks(s.Remark, notes),
			Data:          data,
		}
	}
	key := func(typ string) string { return typ + ":" + s.Name }

	if v := s.PriceTargetUpper; v != nil && price >= *v {
		head := fmt.Sprintf("Price $%.2f %s per spread reached or exceeded upper target $%.2f", price, met.PriceLabel(), *v)
		emit(key(TypeSpreadPriceUpper), rec(TypeSpreadPriceUpper, head, price, *v, "upper"))
	}
	if v := s.PriceTargetLower; v != nil && price <= *v {
		head := fmt.Sprintf("Price $%.2f %s per spread reached or fell below lower target $%.2f", price, met.PriceLabel(), *v)
		emit(key(TypeSpreadPriceLower), rec(TypeSpreadPriceLower, head, price, *v, "lower"))
	}
	if v := s.DeltaTargetUpper; v != nil && met.Delta >= *v {
		head := fmt.Sprintf("Delta %.3f reached or exceeded upper target %.3f", met.Delta, *v)
		emit(key(TypeSpreadDeltaUpper), rec(TypeSpreadDeltaUpper, head, met.Delta, *v, "upper"))
	}
	if v := s.DeltaTargetLower; v != nil && met.Delta <= *v {
		head := fmt.Sprintf("Delta %.3f reached or fell below lower target %.3f", met.Delta, *v)
		emit(key(TypeSpreadDeltaLower), rec(TypeSpreadDeltaLower, head, met.Delta, *v, "lower"))
	}
}

// deliver stamps the record, notifies and writes the audit entry.
func (m *Monitor) deliver(ctx context.Context, rec models.AlertRecord, now time.Time) models.AlertRecord {
	rec.ID = m.newID()
	rec.Timestamp = now
	metrics.AlertsFired.WithLabelValues(rec.Type).Inc()
	logger.Infof("Alert %s: %s", rec.Type, rec.Title)

	if m.sink != nil {
		if err := m.sink.Notify(rec.Title, rec.Message); err != nil {
			metrics.NotifyFailures.WithLabelValues("notify").Inc()
			logger.Warnf("Failed to deliver alert %s: %v", rec.Type, err)
		}
	}
	if m.audit != nil {
		if err := m.audit.Record(ctx, rec); err != nil {
			metrics.NotifyFailures.WithLabelValues("audit").Inc()
			logger.Warnf("Failed to record alert %s: %v", rec.ID, err)
		}
	}
	return rec
}

func remarks(remark string, notes []string) []string {
	var out []string
	if remark != "" {
		out = append(out, remark)
	}
	return append(out, notes...)
}

func checkSummary(s models.PortfolioSummary) error {
	for name, v := range map[string]float64{
		"total delta": s.TotalDelta,
		"total gamma": s.TotalGamma,
		"total vega":  s.TotalVega,
		"total theta": s.TotalTheta,
		"total rho":   s.TotalRho,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("portfolio %s is not a finite number", name)
		}
	}
	return nil
}

// checkTargets rejects non-finite spread targets. Leg references are not
// checked here; a stale spread is simply unresolved.
func checkTargets(s models.Spread) error {
	for _, v := range []*float64{s.PriceTargetUpper, s.PriceTargetLower, s.DeltaTargetUpper, s.DeltaTargetLower} {
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
			return fmt.Errorf("%w: spread %q has a non-finite target", models.ErrValidation, s.Name)
		}
	}
	return nil
}
