package watcher

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"option_monitor/internal/logger"
	"option_monitor/internal/metrics"
	"option_monitor/internal/models"
	"option_monitor/internal/monitor"
	"option_monitor/internal/portfolio"
	"option_monitor/internal/valuation"
)

// LegFailure is a leg skipped in a poll.
type LegFailure struct {
	LegNumber int
	Label     string
	Err       error
}

// Report is the outcome of one poll.
type Report struct {
	Time     time.Time
	Legs     []models.LegSnapshot
	Failures []LegFailure
	Summary  models.PortfolioSummary
	Spreads  []monitor.SpreadResult
	Alerts   []models.AlertRecord
}

// Poll reprices every leg once and evaluates all thresholds. Legs without
// data are skipped and listed in the report. A returned error is fatal: the
// loop stops on it.
func (w *Watcher) Poll(ctx context.Context) (*Report, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	start := time.Now()
	rep, err := w.pollLocked(ctx)
	metrics.PollDuration.Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		metrics.PollsTotal.WithLabelValues(metrics.OutcomeFatal).Inc()
		return nil, err
	case !rep.Summary.HasData:
		metrics.PollsTotal.WithLabelValues(metrics.OutcomeNoData).Inc()
	default:
		metrics.PollsTotal.WithLabelValues(metrics.OutcomeOK).Inc()
		metrics.PortfolioDelta.Set(rep.Summary.TotalDelta)
		metrics.PortfolioPnL.Set(rep.Summary.PnL.InexactFloat64())
	}
	logger.Infof("Poll: %d legs priced, %d skipped, delta %.2f, P&L %s, %d alerts",
		len(rep.Legs), len(rep.Failures), rep.Summary.TotalDelta, monitor.FormatUSD(rep.Summary.PnL), len(rep.Alerts))
	w.lastReport = rep
	return rep, nil
}

// LastReport returns the report of the last successful poll, or nil.
func (w *Watcher) LastReport() *Report {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastReport
}

func (w *Watcher) pollLocked(ctx context.Context) (*Report, error) {
	now := w.now()
	rep := &Report{Time: now}
	cache := valuation.NewCache()
	positions := w.book.Positions()

	snaps := make(map[int]models.GreeksSnapshot, len(positions))
	for _, p := range positions {
		g, err := w.priceLeg(ctx, p, cache)
		if err != nil {
			logger.Warnf("Skipping leg %d (%s): %v", p.LegNumber, p.Label(), err)
			metrics.LegFailures.WithLabelValues(string(p.Kind)).Inc()
			rep.Failures = append(rep.Failures, LegFailure{LegNumber: p.LegNumber, Label: p.Label(), Err: err})
			continue
		}
		snaps[p.LegNumber] = *g
		rep.Legs = append(rep.Legs, models.LegSnapshot{Position: p, Snapshot: *g})
	}
	logger.Debugf("Priced %d/%d legs, %d underlyings looked up", len(rep.Legs), len(positions), cache.Len())

	if err := w.evaluateLocked(ctx, rep, positions, snaps); err != nil {
		return nil, err
	}
	return rep, nil
}

// priceLeg turns a panic while pricing a single leg into an error for
// that leg.
func (w *Watcher) priceLeg(ctx context.Context, p models.Position, c *valuation.Cache) (g *models.GreeksSnapshot, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pricing panic: %v", r)
		}
	}()
	return w.pricing.PriceLeg(ctx, p, c)
}

// evaluateLocked is the aggregation and threshold phase. Any error or
// panic here is fatal for the loop.
func (w *Watcher) evaluateLocked(ctx context.Context, rep *Report, positions []models.Position, snaps map[int]models.GreeksSnapshot) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("Panic in evaluation: %v\n%s", r, debug.Stack())
			err = fmt.Errorf("evaluation panic: %v", r)
		}
	}()

	rep.Summary = portfolio.Aggregate(rep.Legs, w.multiplier, rep.Time)

	for _, s := range w.book.Spreads() {
		m, ok := portfolio.EvaluateSpread(s, positions, snaps, rep.Time)
		if !ok {
			logger.Debugf("Spread %q unresolved this poll", s.Name)
			m = nil
		}
		rep.Spreads = append(rep.Spreads, monitor.SpreadResult{Spread: s, Metrics: m})
	}

	next, alerts, err := w.monitor.Evaluate(ctx, w.state, monitor.Input{
		Summary:    rep.Summary,
		Positions:  positions,
		Thresholds: w.thresholds,
		Spreads:    rep.Spreads,
		Now:        rep.Time,
	})
	if err != nil {
		return fmt.Errorf("threshold evaluation: %w", err)
	}
	w.state = next
	rep.Alerts = alerts
	return nil
}
