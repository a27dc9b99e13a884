package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the on-disk format for expiry and entry dates.
const DateLayout = "2006-01-02"

// ErrValidation wraps every rejected user input.
var ErrValidation = errors.New("validation failed")

// Kind discriminates the two position variants.
type Kind string

const (
	KindOption Kind = "OPTION"
	KindStock  Kind = "STOCK"
)

// OptionType is CALL or PUT.
type OptionType string

const (
	Call OptionType = "CALL"
	Put  OptionType = "PUT"
)

// ParseOptionType accepts CALL/PUT as well as the single letters C/P, case-insensitive.
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CALL", "C":
		return Call, nil
	case "PUT", "P":
		return Put, nil
	}
	return "", fmt.Errorf("%w: unknown option type %q", ErrValidation, s)
}

// Valid reports whether t is CALL or PUT.
func (t OptionType) Valid() bool { return t == Call || t == Put }

// OptionLeg holds the fields that only exist on option positions.
type OptionLeg struct {
	Strike float64    `json:"strike"`
	Type   OptionType `json:"type"`
	Expiry string     `json:"expiry"` // YYYY-MM-DD
}

// StockLeg holds the fields that only exist on stock positions.
type StockLeg struct {
	// ShortInterestRate is an annual percentage, only used when the quantity is negative.
	ShortInterestRate float64 `json:"short_interest_rate"`
}

// Position is one portfolio leg. Exactly one of Option or Stock is set,
// matching Kind.
type Position struct {
	LegNumber  int             `json:"leg_number"`
	Kind       Kind            `json:"kind"`
	Market     string          `json:"market"`
	Underlying string          `json:"underlying"`
	Quantity   int             `json:"quantity"`   // signed: >0 long, <0 short
	EntryCost  decimal.Decimal `json:"entry_cost"` // per share or per contract-share
	EntryDate  string          `json:"entry_date"` // YYYY-MM-DD
	Remark     string          `json:"remark,omitempty"`

	Option *OptionLeg `json:"option,omitempty"`
	Stock  *StockLeg  `json:"stock,omitempty"`
}

// NewOptionPosition builds and validates an option leg. The leg number is
// assigned by the Book.
func NewOptionPosition(market, underlying string, strike float64, typ OptionType, expiry time.Time, qty int, entryCost decimal.Decimal, remark string) (Position, error) {
	p := Position{
		Kind:       KindOption,
		Market:     strings.ToUpper(strings.TrimSpace(market)),
		Underlying: strings.ToUpper(strings.TrimSpace(underlying)),
		Quantity:   qty,
		EntryCost:  entryCost,
		Remark:     remark,
		Option: &OptionLeg{
			Strike: strike,
			Type:   typ,
			Expiry: expiry.Format(DateLayout),
		},
	}
	return p, p.Validate()
}

// NewStockPosition builds and validates a stock leg.
func NewStockPosition(market, underlying string, qty int, entryCost decimal.Decimal, shortRate float64, remark string) (Position, error) {
	p := Position{
		Kind:       KindStock,
		Market:     strings.ToUpper(strings.TrimSpace(market)),
		Underlying: strings.ToUpper(strings.TrimSpace(underlying)),
		Quantity:   qty,
		EntryCost:  entryCost,
		Remark:     remark,
		Stock:      &StockLeg{ShortInterestRate: shortRate},
	}
	return p, p.Validate()
}

// Validate checks the variant invariants.
func (p Position) Validate() error {
	if p.Underlying == "" {
		return fmt.Errorf("%w: underlying cannot be empty", ErrValidation)
	}
	if p.Quantity == 0 {
		return fmt.Errorf("%w: quantity cannot be zero", ErrValidation)
	}
	if p.EntryCost.IsNegative() {
		return fmt.Errorf("%w: entry cost cannot be negative", ErrValidation)
	}
	if p.EntryDate != "" {
		if _, err := time.Parse(DateLayout, p.EntryDate); err != nil {
			return fmt.Errorf("%w: entry date %q: %v", ErrValidation, p.EntryDate, err)
		}
	}

	switch p.Kind {
	case KindOption:
		if p.Option == nil || p.Stock != nil {
			return fmt.Errorf("%w: option position must carry option fields only", ErrValidation)
		}
		if !(p.Option.Strike > 0) || math.IsInf(p.Option.Strike, 0) {
			return fmt.Errorf("%w: strike price must be positive", ErrValidation)
		}
		if !p.Option.Type.Valid() {
			return fmt.Errorf("%w: option type must be CALL or PUT, got %q", ErrValidation, p.Option.Type)
		}
		if _, err := time.Parse(DateLayout, p.Option.Expiry); err != nil {
			return fmt.Errorf("%w: expiry %q: %v", ErrValidation, p.Option.Expiry, err)
		}
	case KindStock:
		if p.Stock == nil || p.Option != nil {
			return fmt.Errorf("%w: stock position must carry stock fields only", ErrValidation)
		}
		if p.Stock.ShortInterestRate < 0 || math.IsNaN(p.Stock.ShortInterestRate) {
			return fmt.Errorf("%w: short interest rate cannot be negative", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown position kind %q", ErrValidation, p.Kind)
	}
	return nil
}

// IsOption reports whether the leg is an option.
func (p Position) IsOption() bool { return p.Kind == KindOption }

// IsLong reports whether the quantity is positive.
func (p Position) IsLong() bool { return p.Quantity > 0 }

// Sign is +1 for long and -1 for short.
func (p Position) Sign() float64 {
	if p.Quantity < 0 {
		return -1
	}
	return 1
}

// AbsQuantity returns |quantity|.
func (p Position) AbsQuantity() int {
	if p.Quantity < 0 {
		return -p.Quantity
	}
	return p.Quantity
}

// Multiplier is the contract multiplier for options and 1 for stock.
func (p Position) Multiplier(contract int) int {
	if p.IsOption() {
		return contract
	}
	return 1
}

// ExpiryTime parses the option expiry. Stock legs return the zero time.
func (p Position) ExpiryTime() (time.Time, error) {
	if p.Option == nil {
		return time.Time{}, nil
	}
	return time.Parse(DateLayout, p.Option.Expiry)
}

// EntryTime parses the entry date; ok is false when unknown.
func (p Position) EntryTime() (time.Time, bool) {
	if p.EntryDate == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, p.EntryDate)
	return t, err == nil
}

// Label is a short human readable description used in reports.
func (p Position) Label() string {
	if p.IsOption() {
		return fmt.Sprintf("%s.%s %s %.2f %s", p.Market, p.Underlying, p.Option.Expiry, p.Option.Strike, p.Option.Type)
	}
	return fmt.Sprintf("%s.%s (Stock)", p.Market, p.Underlying)
}
