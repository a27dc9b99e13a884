package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"option_monitor/internal/models"
)

// File names inside the state directory.
const (
	UIStateFile  = "ui_state.json"
	DefaultsFile = "defaults_config.json"
	SpreadsFile  = "spreads_config.json"
)

// CurrentVersion is written to every saved UI state.
const CurrentVersion = "1.2"

// Store saves and loads the three persisted records under Dir.
type Store struct {
	Dir string
	now func() time.Time
}

// New returns a store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("state dir: %w", err)
	}
	return &Store{Dir: dir, now: time.Now}, nil
}

func (s *Store) path(name string) string { return filepath.Join(s.Dir, name) }

// LoadUIState reads the saved session. A missing file is replaced with an
// empty template, which is saved and returned.
func (s *Store) LoadUIState() (models.UIState, error) {
	var st models.UIState

	b, err := readFile(s.path(UIStateFile))
	if errors.Is(err, os.ErrNotExist) {
		log.Println("State file missing, generating template...")
		st = emptyUIState()
		return st, s.SaveUIState(st)
	}
	if err != nil {
		return st, err
	}
	if err := json.Unmarshal(b, &st); err != nil {
		return st, fmt.Errorf("parse %s: %w", UIStateFile, err)
	}

	if migrateUIState(&st) {
		log.Printf("INFO: State migrated to version %s. Saving...", st.Version)
		if err := s.SaveUIState(st); err != nil {
			return st, err
		}
	}
	return st, nil
}

// SaveUIState writes the session, stamping version and save time.
func (s *Store) SaveUIState(st models.UIState) error {
	st.Version = CurrentVersion
	st.LastSave = s.now().Format(time.RFC3339)
	if st.Positions == nil {
		st.Positions = []models.Position{}
	}
	if st.Spreads == nil {
		st.Spreads = []models.Spread{}
	}
	return writeJSONAtomic(s.path(UIStateFile), st)
}

// LoadDefaults reads the named default values, writing the built-in set
// when the file is missing.
func (s *Store) LoadDefaults() (models.Defaults, error) {
	b, err := readFile(s.path(DefaultsFile))
	if errors.Is(err, os.ErrNotExist) {
		d := BuiltinDefaults()
		return d, s.SaveDefaults(d)
	}
	if err != nil {
		return nil, err
	}
	var d models.Defaults
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("parse %s: %w", DefaultsFile, err)
	}
	// fill sections added after the file was written
	for section, kv := range BuiltinDefaults() {
		if d[section] == nil {
			d[section] = kv
		}
	}
	return d, nil
}

// SaveDefaults writes the named default values.
func (s *Store) SaveDefaults(d models.Defaults) error {
	return writeJSONAtomic(s.path(DefaultsFile), d)
}

// LoadSpreads reads the spread definitions. A missing file is no spreads.
func (s *Store) LoadSpreads() ([]models.Spread, error) {
	b, err := readFile(s.path(SpreadsFile))
	if errors.Is(err, os.ErrNotExist) {
		return []models.Spread{}, nil
	}
	if err != nil {
		return nil, err
	}
	var out []models.Spread
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("parse %s: %w", SpreadsFile, err)
	}
	return out, nil
}

// SaveSpreads writes the spread definitions.
func (s *Store) SaveSpreads(spreads []models.Spread) error {
	if spreads == nil {
		spreads = []models.Spread{}
	}
	return writeJSONAtomic(s.path(SpreadsFile), spreads)
}

// ClearAll deletes the three files. Missing files are not an error.
func (s *Store) ClearAll() error {
	var errs []error
	for _, name := range []string{UIStateFile, DefaultsFile, SpreadsFile} {
		if err := os.Remove(s.path(name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// BuiltinDefaults are the values offered before the user saves their own.
func BuiltinDefaults() models.Defaults {
	return models.Defaults{
		"position": {
			"market":        "US",
			"quantity":      "1",
			"option_type":   "CALL",
			"short_rate":    "0",
			"position_kind": "OPTION",
		},
		"monitor": {
			"interval":              "15",
			"pnl_upper_threshold":   "",
			"pnl_lower_threshold":   "",
			"delta_upper_threshold": "",
			"delta_lower_threshold": "",
		},
		"spread": {
			"target_price_upper": "",
			"target_price_lower": "",
			"target_delta_upper": "",
			"target_delta_lower": "",
		},
	}
}

func emptyUIState() models.UIState {
	return models.UIState{
		Version:   CurrentVersion,
		Positions: []models.Position{},
		Spreads:   []models.Spread{},
		Monitor:   models.MonitorSettings{IntervalMins: 15},
		Calculator: models.CalculatorInputs{
			Market:       "US",
			RiskFreeRate: 0.04,
		},
	}
}

// migrateUIState handles schema evolution.
// Returns true if changes were made and the state needs to be saved.
func migrateUIState(st *models.UIState) bool {
	updated := false

	// 1.0 -> 1.1: kind was implied by which leg fields were present
	if st.Version < "1.1" {
		log.Println("INFO: Migrating State Schema from 1.0 to 1.1")
		for i := range st.Positions {
			p := &st.Positions[i]
			if p.Kind != "" {
				continue
			}
			if p.Option != nil {
				p.Kind = models.KindOption
			} else {
				p.Kind = models.KindStock
				if p.Stock == nil {
					p.Stock = &models.StockLeg{}
				}
			}
		}
		st.Version = "1.1"
		updated = true
	}

	// 1.1 -> 1.2: monitor interval became mandatory, legs renumbered densely
	if st.Version < "1.2" {
		log.Println("INFO: Migrating State Schema from 1.1 to 1.2")
		if st.Monitor.IntervalMins <= 0 {
			st.Monitor.IntervalMins = 15
		}
		for i := range st.Positions {
			st.Positions[i].LegNumber = i + 1
		}
		st.Version = "1.2"
		updated = true
	}

	return updated
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// writeJSONAtomic writes v as indented JSON through a temp file:
// write, fsync, close, then rename over the destination.
func writeJSONAtomic(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}

	tmpFile := path + ".tmp"
	f, err := os.Create(tmpFile)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(b); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	// close before rename (Windows)
	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpFile, path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
