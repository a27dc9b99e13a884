package portfolio

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"option_monitor/internal/models"

	"github.com/shopspring/decimal"
)

var expiry = time.Date(2025, 3, 21, 0, 0, 0, 0, time.UTC)

func mustOption(t *testing.T, underlying string, strike float64, qty int) models.Position {
	t.Helper()
	p, err := models.NewOptionPosition("US", underlying, strike, models.Call, expiry, qty, decimal.NewFromInt(2), "")
	if err != nil {
		t.Fatalf("NewOptionPosition: %v", err)
	}
	return p
}

func newTestBook(t *testing.T, n int) *Book {
	t.Helper()
	b := NewBook()
	b.now = func() time.Time { return time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC) }
	for i := 0; i < n; i++ {
		if _, err := b.AddPosition(mustOption(t, "AAPL", float64(100+10*i), 1)); err != nil {
			t.Fatalf("AddPosition: %v", err)
		}
	}
	return b
}

func TestAddPosition_NumbersAndEntryDate(t *testing.T) {
	b := newTestBook(t, 2)
	leg, err := b.AddPosition(mustOption(t, "MSFT", 400, -1))
	if err != nil {
		t.Fatalf("AddPosition: %v", err)
	}
	if leg != 3 {
		t.Errorf("Expected leg 3, got %d", leg)
	}
	p, _ := b.Position(3)
	if p.EntryDate != "2025-01-06" {
		t.Errorf("Expected default entry date 2025-01-06, got %s", p.EntryDate)
	}
}

func TestAddPosition_RejectsInvalid(t *testing.T) {
	b := newTestBook(t, 1)
	bad := mustOption(t, "AAPL", 100, 1)
	bad.Quantity = 0
	if _, err := b.AddPosition(bad); !errors.Is(err, models.ErrValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}
	if b.Len() != 1 {
		t.Errorf("Invalid add must not change the book, len=%d", b.Len())
	}
}

func TestRemoveLeg_RenumbersAndRewritesSpreads(t *testing.T) {
	b := newTestBook(t, 3)
	if err := b.AddSpread(models.Spread{Name: "vertical", Legs: []int{1, 3}}); err != nil {
		t.Fatalf("AddSpread: %v", err)
	}
	if err := b.AddSpread(models.Spread{Name: "uses2", Legs: []int{2, 3}}); err != nil {
		t.Fatalf("AddSpread: %v", err)
	}

	if err := b.RemoveLeg(2); err != nil {
		t.Fatalf("RemoveLeg: %v", err)
	}

	pos := b.Positions()
	if len(pos) != 2 || pos[0].LegNumber != 1 || pos[1].LegNumber != 2 {
		t.Fatalf("Expected legs [1 2], got %+v", pos)
	}
	if pos[1].Option.Strike != 120 {
		t.Errorf("Old leg 3 should now be leg 2, got strike %f", pos[1].Option.Strike)
	}

	v, _ := b.Spread("vertical")
	if !reflect.DeepEqual(v.Legs, []int{1, 2}) {
		t.Errorf("Expected vertical legs [1 2], got %v", v.Legs)
	}
	u, _ := b.Spread("uses2")
	if !reflect.DeepEqual(u.Legs, []int{0, 2}) {
		t.Errorf("Expected stale reference [0 2], got %v", u.Legs)
	}

	// The spread that lost a leg is unresolved; the other still resolves.
	snaps := map[int]models.GreeksSnapshot{1: {Price: 5}, 2: {Price: 2}}
	if _, ok := EvaluateSpread(u, b.Positions(), snaps, time.Now()); ok {
		t.Error("Expected spread with removed leg to be unresolved")
	}
	if m, ok := EvaluateSpread(v, b.Positions(), snaps, time.Now()); !ok || m.Price != 7 {
		t.Errorf("Expected vertical to resolve to 7, got %+v ok=%v", m, ok)
	}

	if err := b.RemoveLeg(5); !errors.Is(err, ErrUnknownLeg) {
		t.Errorf("Expected ErrUnknownLeg, got %v", err)
	}
}

func TestEditLeg_MovesToEndAndKeepsSpread(t *testing.T) {
	b := newTestBook(t, 3)
	if err := b.AddSpread(models.Spread{Name: "s", Legs: []int{1, 2, 3}}); err != nil {
		t.Fatalf("AddSpread: %v", err)
	}

	edited := mustOption(t, "AAPL", 999, 2)
	leg, err := b.EditLeg(1, edited)
	if err != nil {
		t.Fatalf("EditLeg: %v", err)
	}
	if leg != 3 {
		t.Errorf("Edited leg should land last as 3, got %d", leg)
	}
	p, _ := b.Position(3)
	if p.Option.Strike != 999 || p.EntryDate != "2025-01-06" {
		t.Errorf("Unexpected edited leg: %+v", p)
	}
	s, _ := b.Spread("s")
	if !reflect.DeepEqual(s.Legs, []int{3, 1, 2}) {
		t.Errorf("Expected spread legs [3 1 2], got %v", s.Legs)
	}

	bad := edited
	bad.Option = nil
	if _, err := b.EditLeg(1, bad); !errors.Is(err, models.ErrValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}
	if b.Len() != 3 {
		t.Errorf("Failed edit must not change the book")
	}
}

func TestSpreads_CRUD(t *testing.T) {
	b := newTestBook(t, 2)

	if err := b.AddSpread(models.Spread{Name: "x", Legs: []int{1, 4}}); !errors.Is(err, ErrUnknownLeg) {
		t.Errorf("Expected ErrUnknownLeg, got %v", err)
	}
	if err := b.AddSpread(models.Spread{Name: "", Legs: []int{1}}); !errors.Is(err, models.ErrValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}
	if err := b.AddSpread(models.Spread{Name: "x", Legs: []int{1, 2}}); err != nil {
		t.Fatalf("AddSpread: %v", err)
	}
	if err := b.AddSpread(models.Spread{Name: "x", Legs: []int{2}}); !errors.Is(err, ErrDuplicateSpread) {
		t.Errorf("Expected ErrDuplicateSpread, got %v", err)
	}
	if err := b.AddSpread(models.Spread{Name: "y", Legs: []int{2}}); err != nil {
		t.Fatalf("AddSpread: %v", err)
	}

	up := models.Spread{Name: "x", Legs: []int{2, 1}, PriceTargetUpper: models.Float(3)}
	if err := b.UpdateSpread("x", up); err != nil {
		t.Fatalf("UpdateSpread: %v", err)
	}
	if err := b.UpdateSpread("x", models.Spread{Name: "y", Legs: []int{1}}); !errors.Is(err, ErrDuplicateSpread) {
		t.Errorf("Expected ErrDuplicateSpread on rename, got %v", err)
	}
	if err := b.UpdateSpread("nope", up); !errors.Is(err, ErrUnknownSpread) {
		t.Errorf("Expected ErrUnknownSpread, got %v", err)
	}

	got, _ := b.Spread("x")
	*got.PriceTargetUpper = 100
	again, _ := b.Spread("x")
	if *again.PriceTargetUpper != 3 {
		t.Error("Spread accessor must return a copy")
	}

	if err := b.RemoveSpread("x"); err != nil {
		t.Fatalf("RemoveSpread: %v", err)
	}
	if err := b.RemoveSpread("x"); !errors.Is(err, ErrUnknownSpread) {
		t.Errorf("Expected ErrUnknownSpread, got %v", err)
	}
	if len(b.Spreads()) != 1 {
		t.Errorf("Expected 1 spread left, got %d", len(b.Spreads()))
	}
}

func TestLoadBook(t *testing.T) {
	a := mustOption(t, "AAPL", 100, 1)
	a.LegNumber = 7
	c := mustOption(t, "AAPL", 110, -1)
	c.LegNumber = 9

	b, err := LoadBook([]models.Position{a, c}, []models.Spread{{Name: "s", Legs: []int{1, 0}}})
	if err != nil {
		t.Fatalf("LoadBook: %v", err)
	}
	pos := b.Positions()
	if pos[0].LegNumber != 1 || pos[1].LegNumber != 2 {
		t.Errorf("Expected dense renumbering, got %d %d", pos[0].LegNumber, pos[1].LegNumber)
	}
	if _, err := LoadBook(nil, []models.Spread{{Name: "s", Legs: []int{1}}, {Name: "s", Legs: []int{2}}}); !errors.Is(err, ErrDuplicateSpread) {
		t.Errorf("Expected ErrDuplicateSpread, got %v", err)
	}
	bad := a
	bad.Kind = "FUTURE"
	if _, err := LoadBook([]models.Position{bad}, nil); !errors.Is(err, models.ErrValidation) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestBook_RejectedEditsLeaveBookUnchanged(t *testing.T) {
	b := newTestBook(t, 2)
	if err := b.AddSpread(models.Spread{Name: "bull", Legs: []int{1, 2}, PriceTargetUpper: models.Float(5)}); err != nil {
		t.Fatalf("AddSpread: %v", err)
	}
	wantPositions := b.Positions()
	wantSpreads := b.Spreads()

	unchanged := func(step string) {
		t.Helper()
		if !reflect.DeepEqual(b.Positions(), wantPositions) {
			t.Errorf("%s: positions changed to %+v", step, b.Positions())
		}
		if !reflect.DeepEqual(b.Spreads(), wantSpreads) {
			t.Errorf("%s: spreads changed to %+v", step, b.Spreads())
		}
	}

	badStrike := mustOption(t, "AAPL", 100, 1)
	badStrike.Option.Strike = 0
	badCost := mustOption(t, "AAPL", 100, 1)
	badCost.EntryCost = decimal.NewFromInt(-3)
	badType := mustOption(t, "AAPL", 100, 1)
	badType.Option.Type = "X"
	badRate, _ := models.NewStockPosition("US", "MSFT", -5, decimal.NewFromInt(10), 1, "")
	badRate.Stock.ShortInterestRate = -1

	for name, p := range map[string]models.Position{
		"zero strike":   badStrike,
		"negative cost": badCost,
		"bad type":      badType,
		"negative rate": badRate,
	} {
		if _, err := b.AddPosition(p); !errors.Is(err, models.ErrValidation) {
			t.Errorf("add %s: expected ErrValidation, got %v", name, err)
		}
		unchanged("add " + name)
		if _, err := b.EditLeg(1, p); !errors.Is(err, models.ErrValidation) {
			t.Errorf("edit %s: expected ErrValidation, got %v", name, err)
		}
		unchanged("edit " + name)
	}

	if _, err := b.EditLeg(7, mustOption(t, "AAPL", 100, 1)); !errors.Is(err, ErrUnknownLeg) {
		t.Errorf("Expected ErrUnknownLeg, got %v", err)
	}
	unchanged("edit unknown leg")

	for name, s := range map[string]models.Spread{
		"duplicate leg":   {Name: "dup", Legs: []int{1, 1}},
		"zero leg":        {Name: "zero", Legs: []int{0}},
		"negative target": {Name: "neg", Legs: []int{1}, PriceTargetLower: models.Float(-1)},
	} {
		if err := b.AddSpread(s); !errors.Is(err, models.ErrValidation) {
			t.Errorf("spread %s: expected ErrValidation, got %v", name, err)
		}
		unchanged("spread " + name)
	}
	if err := b.AddSpread(models.Spread{Name: "far", Legs: []int{1, 3}}); !errors.Is(err, ErrUnknownLeg) {
		t.Errorf("Expected ErrUnknownLeg, got %v", err)
	}
	if err := b.AddSpread(models.Spread{Name: "bull", Legs: []int{2}}); !errors.Is(err, ErrDuplicateSpread) {
		t.Errorf("Expected ErrDuplicateSpread, got %v", err)
	}
	if err := b.UpdateSpread("bull", models.Spread{Name: "bull", Legs: []int{2, 2}}); !errors.Is(err, models.ErrValidation) {
		t.Errorf("Expected ErrValidation on update, got %v", err)
	}
	unchanged("spread updates")
}
