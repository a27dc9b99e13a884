// Package portfolio holds the leg book, the portfolio aggregator and the
// spread calculator.
package portfolio

import (
	"errors"
	"fmt"
	"time"

	"option_monitor/internal/models"
)

var (
	ErrUnknownLeg      = errors.New("unknown leg")
	ErrDuplicateSpread = errors.New("spread already exists")
	ErrUnknownSpread   = errors.New("unknown spread")
)

// staleLeg replaces spread references to a removed leg. It never matches a
// live leg, so the spread reports unresolved until it is edited.
const staleLeg = 0

// Book is the ordered list of legs and the spreads defined on them. Leg
// numbers are dense and 1-based; removing a leg renumbers the legs behind
// it and rewrites every spread reference in the same step.
//
// Book is not safe for concurrent use; the watcher serializes access.
type Book struct {
	positions []models.Position
	spreads   []models.Spread
	now       func() time.Time
}

// NewBook returns an empty book.
func NewBook() *Book {
	return &Book{now: time.Now}
}

// LoadBook rebuilds a book from saved positions and spreads. Positions are
// renumbered in list order. Spread references are kept as saved; ones that
// do not point at a live leg simply never resolve.
func LoadBook(positions []models.Position, spreads []models.Spread) (*Book, error) {
	b := NewBook()
	for i, p := range positions {
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("position %d: %w", i+1, err)
		}
		p.LegNumber = i + 1
		b.positions = append(b.positions, p)
	}
	seen := make(map[string]bool, len(spreads))
	for _, s := range spreads {
		if seen[s.Name] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateSpread, s.Name)
		}
		seen[s.Name] = true
		b.spreads = append(b.spreads, s.Clone())
	}
	return b, nil
}

// Len is the number of legs.
func (b *Book) Len() int { return len(b.positions) }

// Positions returns a copy of the legs in leg-number order.
func (b *Book) Positions() []models.Position {
	return append([]models.Position(nil), b.positions...)
}

// Position returns the leg with the given number.
func (b *Book) Position(leg int) (models.Position, bool) {
	if leg < 1 || leg > len(b.positions) {
		return models.Position{}, false
	}
	return b.positions[leg-1], true
}

// AddPosition validates p and appends it as the last leg, returning the
// assigned leg number. An empty entry date defaults to today.
func (b *Book) AddPosition(p models.Position) (int, error) {
	if p.EntryDate == "" {
		p.EntryDate = b.now().Format(models.DateLayout)
	}
	if err := p.Validate(); err != nil {
		return 0, err
	}
	p.LegNumber = len(b.positions) + 1
	b.positions = append(b.positions, p)
	return p.LegNumber, nil
}

// RemoveLeg deletes a leg and renumbers the rest. Spread references to
// the removed leg become stale; references above it shift down by one.
func (b *Book) RemoveLeg(leg int) error {
	if _, ok := b.Position(leg); !ok {
		return fmt.Errorf("%w: %d", ErrUnknownLeg, leg)
	}
	b.remove(leg, staleLeg)
	return nil
}

// EditLeg replaces a leg by removing it and re-adding p at the end, the
// way a user edit works. Spreads that used the old leg follow it to its
// new number. p is validated before anything changes.
func (b *Book) EditLeg(leg int, p models.Position) (int, error) {
	if _, ok := b.Position(leg); !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownLeg, leg)
	}
	if p.EntryDate == "" {
		p.EntryDate = b.positions[leg-1].EntryDate
	}
	if err := p.Validate(); err != nil {
		return 0, err
	}

	// After removal the book is one shorter and the edited leg lands last.
	newLeg := len(b.positions)
	b.remove(leg, newLeg)
	p.LegNumber = newLeg
	b.positions = append(b.positions, p)
	return newLeg, nil
}

// remove drops a leg, renumbers the others and rewrites spread references;
// references to the dropped leg are replaced with target.
func (b *Book) remove(leg, target int) {
	b.positions = append(b.positions[:leg-1], b.positions[leg:]...)
	for i := range b.positions {
		b.positions[i].LegNumber = i + 1
	}
	for i := range b.spreads {
		legs := b.spreads[i].Legs
		for j, ref := range legs {
			switch {
			case ref == leg:
				legs[j] = target
			case ref > leg:
				legs[j] = ref - 1
			}
		}
	}
}

// Spreads returns copies of the defined spreads.
func (b *Book) Spreads() []models.Spread {
	out := make([]models.Spread, len(b.spreads))
	for i, s := range b.spreads {
		out[i] = s.Clone()
	}
	return out
}

// Spread returns the spread with the given name.
func (b *Book) Spread(name string) (models.Spread, bool) {
	if i := b.spreadIndex(name); i >= 0 {
		return b.spreads[i].Clone(), true
	}
	return models.Spread{}, false
}

// AddSpread defines a new spread. All legs must exist.
func (b *Book) AddSpread(s models.Spread) error {
	if err := b.checkSpread(s); err != nil {
		return err
	}
	if b.spreadIndex(s.Name) >= 0 {
		return fmt.Errorf("%w: %q", ErrDuplicateSpread, s.Name)
	}
	b.spreads = append(b.spreads, s.Clone())
	return nil
}

// UpdateSpread replaces the spread called name. Renaming onto another
// existing spread is rejected.
func (b *Book) UpdateSpread(name string, s models.Spread) error {
	i := b.spreadIndex(name)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownSpread, name)
	}
	if err := b.checkSpread(s); err != nil {
		return err
	}
	if j := b.spreadIndex(s.Name); j >= 0 && j != i {
		return fmt.Errorf("%w: %q", ErrDuplicateSpread, s.Name)
	}
	b.spreads[i] = s.Clone()
	return nil
}

// RemoveSpread deletes the spread called name.
func (b *Book) RemoveSpread(name string) error {
	i := b.spreadIndex(name)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownSpread, name)
	}
	b.spreads = append(b.spreads[:i], b.spreads[i+1:]...)
	return nil
}

func (b *Book) checkSpread(s models.Spread) error {
	if err := s.Validate(); err != nil {
		return err
	}
	for _, l := range s.Legs {
		if _, ok := b.Position(l); !ok {
			return fmt.Errorf("%w: spread %q references leg %d", ErrUnknownLeg, s.Name, l)
		}
	}
	return nil
}

func (b *Book) spreadIndex(name string) int {
	for i, s := range b.spreads {
		if s.Name == name {
			return i
		}
	}
	return -1
}
