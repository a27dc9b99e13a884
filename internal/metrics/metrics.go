// Package metrics exposes Prometheus counters for the poll loop.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Poll outcomes.
const (
	OutcomeOK     = "ok"
	OutcomeNoData = "no_data"
	OutcomeFatal  = "fatal"
)

// PollsTotal counts finished polls by outcome.
var PollsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "option_monitor",
		Subsystem: "poll",
		Name:      "total",
		Help:      "Number of polls by outcome",
	},
	[]string{"outcome"},
)

// PollDuration is the wall time of one poll.
var PollDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "option_monitor",
		Subsystem: "poll",
		Name:      "duration_seconds",
		Help:      "Time to reprice and evaluate the portfolio",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	},
)

// LegFailures counts legs skipped for lack of market data.
var LegFailures = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "option_monitor",
		Subsystem: "poll",
		Name:      "leg_failures_total",
		Help:      "Legs skipped because pricing failed",
	},
	[]string{"kind"},
)

// AlertsFired counts alerts by type (portfolio_delta_upper, ...).
var AlertsFired = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "option_monitor",
		Subsystem: "alerts",
		Name:      "fired_total",
		Help:      "Alerts fired by type",
	},
	[]string{"type"},
)

// NotifyFailures counts alert deliveries or audit writes that failed.
var NotifyFailures = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "option_monitor",
		Subsystem: "alerts",
		Name:      "delivery_failures_total",
		Help:      "Failed notification or audit writes",
	},
	[]string{"target"},
)

// Running is 1 while monitoring is active.
var Running = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "option_monitor",
		Name:      "running",
		Help:      "1 while the poll loop is running",
	},
)

// PortfolioDelta is the total dollar delta of the last poll.
var PortfolioDelta = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "option_monitor",
		Subsystem: "portfolio",
		Name:      "total_delta",
		Help:      "Total dollar delta at the last poll",
	},
)

// PortfolioPnL is the total P&L in dollars of the last poll.
var PortfolioPnL = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "option_monitor",
		Subsystem: "portfolio",
		Name:      "pnl_dollars",
		Help:      "Total unrealized P&L at the last poll",
	},
)

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }
