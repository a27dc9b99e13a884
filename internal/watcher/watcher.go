// Package watcher runs the poll loop: it reprices the book on an interval,
// evaluates thresholds and owns the monitoring on/off state.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"option_monitor/internal/config"
	"option_monitor/internal/logger"
	"option_monitor/internal/metrics"
	"option_monitor/internal/models"
	"option_monitor/internal/monitor"
	"option_monitor/internal/notifications"
	"option_monitor/internal/portfolio"
	"option_monitor/internal/storage"
	"option_monitor/internal/valuation"
)

var (
	ErrNoPositions     = errors.New("no positions to monitor")
	ErrInvalidInterval = errors.New("interval must be positive")
	ErrAlreadyRunning  = errors.New("monitoring already running")
)

var startTime = time.Now()

// loopContext derives the context of one monitoring loop.
var loopContext = context.WithCancel

type Watcher struct {
	// mu guards the book, thresholds, alert state and last report. A poll
	// holds it for its whole duration so edits never interleave with one.
	mu         sync.Mutex
	book       *portfolio.Book
	thresholds models.Thresholds
	state      monitor.State
	lastReport *Report
	ui         models.UIState

	pricing    *valuation.Service
	monitor    *monitor.Monitor
	sink       notifications.Sink
	store      *storage.Store
	multiplier int
	interval   time.Duration
	now        func() time.Time

	// runMu guards the loop lifecycle.
	runMu    sync.Mutex
	running  bool
	cancel   context.CancelFunc
	done     chan struct{}
	err      error
	baseCtx  context.Context
	commands []CommandDoc
}

// New builds a watcher. When store is non-nil the saved session is loaded
// from it and every mutation is saved back. sink may be nil.
func New(cfg *config.Config, pricing *valuation.Service, mon *monitor.Monitor, sink notifications.Sink, store *storage.Store) (*Watcher, error) {
	w := &Watcher{
		book:       portfolio.NewBook(),
		state:      monitor.NewState(),
		pricing:    pricing,
		monitor:    mon,
		sink:       sink,
		store:      store,
		multiplier: cfg.ContractMultiplier,
		interval:   time.Duration(cfg.PollIntervalMins) * time.Minute,
		now:        time.Now,
		baseCtx:    context.Background(),
		commands: []CommandDoc{
			{"/ping", "Connectivity check", "/ping"},
			{"/status", "Portfolio summary of the last poll", "/status"},
			{"/legs", "List positions", "/legs"},
			{"/spreads", "List spreads with their last metrics", "/spreads"},
			{"/poll", "Reprice the book now", "/poll"},
			{"/start", "Start monitoring", "/start [minutes]"},
			{"/stop", "Stop monitoring", "/stop"},
			{"/help", "This list", "/help"},
		},
	}
	if w.multiplier <= 0 {
		w.multiplier = 100
	}
	if store == nil {
		return w, nil
	}

	st, err := store.LoadUIState()
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	if err := w.Load(st); err != nil {
		return nil, err
	}
	if len(st.Spreads) == 0 && len(st.Positions) > 0 {
		w.loadSpreadsFile(st)
	}
	return w, nil
}

// loadSpreadsFile restores spreads from the standalone definitions file
// when the session carries none. A file the book rejects is ignored.
func (w *Watcher) loadSpreadsFile(st models.UIState) {
	spreads, err := w.store.LoadSpreads()
	if err != nil {
		logger.Warnf("Failed to read spread definitions: %v", err)
		return
	}
	if len(spreads) == 0 {
		return
	}
	st.Spreads = spreads
	if err := w.Load(st); err != nil {
		logger.Warnf("Ignoring spread definitions: %v", err)
		return
	}
	logger.Infof("Restored %d spreads from %s", len(spreads), storage.SpreadsFile)
}

// Load replaces the book, thresholds and interval with a saved session.
func (w *Watcher) Load(st models.UIState) error {
	book, err := portfolio.LoadBook(st.Positions, st.Spreads)
	if err != nil {
		return fmt.Errorf("load book: %w", err)
	}
	if err := st.Monitor.Thresholds.Validate(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.book = book
	w.thresholds = st.Monitor.Thresholds
	w.ui = st
	if st.Monitor.IntervalMins > 0 {
		w.interval = time.Duration(st.Monitor.IntervalMins) * time.Minute
	}
	return nil
}

// SetContext sets the parent context used by commands that start the loop.
func (w *Watcher) SetContext(ctx context.Context) {
	w.runMu.Lock()
	w.baseCtx = ctx
	w.runMu.Unlock()
}

// Interval returns the configured poll interval.
func (w *Watcher) Interval() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.interval
}

// Start launches the poll loop. The first poll runs immediately; each next
// one is scheduled interval after the previous one finished.
func (w *Watcher) Start(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return ErrInvalidInterval
	}
	w.mu.Lock()
	empty := w.book.Len() == 0
	w.mu.Unlock()
	if empty {
		return ErrNoPositions
	}

	w.runMu.Lock()
	defer w.runMu.Unlock()
	if w.running {
		return ErrAlreadyRunning
	}
	loopCtx, cancel := loopContext(ctx)
	w.running = true
	w.cancel = cancel
	w.done = make(chan struct{})
	w.err = nil
	metrics.Running.Set(1)

	w.mu.Lock()
	w.interval = interval
	w.saveLocked()
	w.mu.Unlock()

	logger.Infof("Monitoring started, interval %s", interval)
	go w.loop(loopCtx, interval, w.done)
	return nil
}

// Stop asks the loop to exit. A poll in flight still completes; use Done
// to wait for it.
func (w *Watcher) Stop() {
	w.runMu.Lock()
	defer w.runMu.Unlock()
	if w.cancel != nil {
		w.cancel()
	}
}

// Running reports whether the loop is active.
func (w *Watcher) Running() bool {
	w.runMu.Lock()
	defer w.runMu.Unlock()
	return w.running
}

// Done is closed when the current loop exits. It is nil before the first
// Start.
func (w *Watcher) Done() <-chan struct{} {
	w.runMu.Lock()
	defer w.runMu.Unlock()
	return w.done
}

// Err returns the fatal error that stopped the last loop, if any.
func (w *Watcher) Err() error {
	w.runMu.Lock()
	defer w.runMu.Unlock()
	return w.err
}

func (w *Watcher) loop(ctx context.Context, interval time.Duration, done chan struct{}) {
	var fatal error
	defer func() {
		w.runMu.Lock()
		w.running = false
		w.err = fatal
		if w.cancel != nil {
			w.cancel()
			w.cancel = nil
		}
		w.runMu.Unlock()
		metrics.Running.Set(0)
		close(done)
	}()

	// Polls ignore cancellation so that Stop lets the current one finish.
	pollCtx := context.WithoutCancel(ctx)

	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Infof("Monitoring stopped")
			return
		case <-timer.C:
		}

		if _, err := w.Poll(pollCtx); err != nil {
			fatal = err
			w.reportFatal(err)
			return
		}
		if ctx.Err() != nil {
			logger.Infof("Monitoring stopped")
			return
		}
		logger.Debugf("Next poll at %s", w.now().Add(interval).Format("2006-01-02 15:04:05"))
		timer.Reset(interval)
	}
}

func (w *Watcher) reportFatal(err error) {
	logger.Errorf("Monitoring stopped by error: %v", err)
	if w.sink == nil {
		return
	}
	if nerr := w.sink.Notify("Monitoring Stopped", fmt.Sprintf("Monitoring stopped due to error:\n%v", err)); nerr != nil {
		logger.Warnf("Failed to deliver stop notice: %v", nerr)
	}
}

// saveLocked writes the session to the store. Failures are logged; the
// in-memory book stays authoritative. w.mu must be held.
func (w *Watcher) saveLocked() {
	if w.store == nil {
		return
	}
	st := w.ui
	st.Positions = w.book.Positions()
	st.Spreads = w.book.Spreads()
	st.Monitor = models.MonitorSettings{
		IntervalMins: int(w.interval / time.Minute),
		Thresholds:   w.thresholds,
	}
	if err := w.store.SaveUIState(st); err != nil {
		logger.Errorf("Failed to save state: %v", err)
		return
	}
	if err := w.store.SaveSpreads(st.Spreads); err != nil {
		logger.Errorf("Failed to save spreads: %v", err)
	}
	w.ui = st
}
