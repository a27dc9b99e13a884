package watcher

import (
	"option_monitor/internal/models"
)

// The methods below serialize edits with polling and save the session
// after every successful change.

func (w *Watcher) Positions() []models.Position {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.book.Positions()
}

func (w *Watcher) Spreads() []models.Spread {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.book.Spreads()
}

func (w *Watcher) Thresholds() models.Thresholds {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.thresholds
}

// AddPosition appends a leg and returns its number.
func (w *Watcher) AddPosition(p models.Position) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	n, err := w.book.AddPosition(p)
	if err != nil {
		return 0, err
	}
	w.saveLocked()
	return n, nil
}

// RemoveLeg deletes a leg; the remaining legs are renumbered.
func (w *Watcher) RemoveLeg(leg int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.book.RemoveLeg(leg); err != nil {
		return err
	}
	w.saveLocked()
	return nil
}

// EditLeg replaces a leg and returns its new number.
func (w *Watcher) EditLeg(leg int, p models.Position) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	n, err := w.book.EditLeg(leg, p)
	if err != nil {
		return 0, err
	}
	w.saveLocked()
	return n, nil
}

func (w *Watcher) AddSpread(s models.Spread) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.book.AddSpread(s); err != nil {
		return err
	}
	w.saveLocked()
	return nil
}

func (w *Watcher) UpdateSpread(name string, s models.Spread) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.book.UpdateSpread(name, s); err != nil {
		return err
	}
	w.saveLocked()
	return nil
}

// RemoveSpread deletes a spread and forgets its alert history.
func (w *Watcher) RemoveSpread(name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.book.RemoveSpread(name); err != nil {
		return err
	}
	delete(w.state.SpreadDeltas, name)
	w.saveLocked()
	return nil
}

// SetThresholds validates and installs the portfolio thresholds.
func (w *Watcher) SetThresholds(t models.Thresholds) error {
	if err := t.Validate(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.thresholds = t
	w.saveLocked()
	return nil
}
