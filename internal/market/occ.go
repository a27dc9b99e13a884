package market

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"option_monitor/internal/models"
)

const occDate = "060102"

// Contract is the decoded form of an OCC option symbol.
type Contract struct {
	Underlying string
	Expiry     time.Time
	Type       models.OptionType
	Strike     float64
}

// OptionSymbol encodes a contract as ROOT + YYMMDD + C/P + strike*1000
// zero padded to eight digits, e.g. AAPL250117C00150000.
func OptionSymbol(underlying string, expiry time.Time, typ models.OptionType, strike float64) string {
	cp := "C"
	if typ == models.Put {
		cp = "P"
	}
	milli := int64(math.Round(strike * 1000))
	return fmt.Sprintf("%s%s%s%08d", strings.ToUpper(underlying), expiry.Format(occDate), cp, milli)
}

// PositionSymbol is OptionSymbol for an option position.
func PositionSymbol(p models.Position) (string, error) {
	if !p.IsOption() {
		return "", fmt.Errorf("%w: leg %d is not an option", models.ErrValidation, p.LegNumber)
	}
	exp, err := p.ExpiryTime()
	if err != nil {
		return "", fmt.Errorf("%w: leg %d expiry: %v", models.ErrValidation, p.LegNumber, err)
	}
	return OptionSymbol(p.Underlying, exp, p.Option.Type, p.Option.Strike), nil
}

// ParseOptionSymbol decodes an OCC option symbol.
func ParseOptionSymbol(sym string) (Contract, error) {
	sym = strings.ToUpper(strings.TrimSpace(sym))
	// root (1-6) + date (6) + type (1) + strike (8)
	if len(sym) < 16 {
		return Contract{}, fmt.Errorf("%w: option symbol %q too short", models.ErrValidation, sym)
	}
	n := len(sym)
	root := strings.TrimSpace(sym[:n-15])
	if root == "" {
		return Contract{}, fmt.Errorf("%w: option symbol %q has no root", models.ErrValidation, sym)
	}

	exp, err := time.Parse(occDate, sym[n-15:n-9])
	if err != nil {
		return Contract{}, fmt.Errorf("%w: option symbol %q expiry: %v", models.ErrValidation, sym, err)
	}

	var typ models.OptionType
	switch sym[n-9] {
	case 'C':
		typ = models.Call
	case 'P':
		typ = models.Put
	default:
		return Contract{}, fmt.Errorf("%w: option symbol %q type %q", models.ErrValidation, sym, sym[n-9])
	}

	milli, err := strconv.ParseInt(sym[n-8:], 10, 64)
	if err != nil {
		return Contract{}, fmt.Errorf("%w: option symbol %q strike: %v", models.ErrValidation, sym, err)
	}

	return Contract{
		Underlying: root,
		Expiry:     exp,
		Type:       typ,
		Strike:     float64(milli) / 1000,
	}, nil
}
