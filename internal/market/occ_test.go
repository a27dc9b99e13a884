package market

import (
	"errors"
	"testing"
	"time"

	"option_monitor/internal/models"

	"github.com/shopspring/decimal"
)

func TestOptionSymbol(t *testing.T) {
	exp := time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		underlying string
		typ        models.OptionType
		strike     float64
		want       string
	}{
		{"AAPL", models.Call, 150, "AAPL250117C00150000"},
		{"spy", models.Put, 432.5, "SPY250117P00432500"},
		{"F", models.Call, 12.125, "F250117C00012125"},
	}
	for _, tt := range tests {
		got := OptionSymbol(tt.underlying, exp, tt.typ, tt.strike)
		if got != tt.want {
			t.Errorf("OptionSymbol(%s, %v, %v) = %s, want %s", tt.underlying, tt.typ, tt.strike, got, tt.want)
		}

		c, err := ParseOptionSymbol(got)
		if err != nil {
			t.Fatalf("ParseOptionSymbol(%s): %v", got, err)
		}
		if !c.Expiry.Equal(exp) || c.Type != tt.typ || c.Strike != tt.strike {
			t.Errorf("round trip of %s gave %+v", got, c)
		}
	}
}

func TestParseOptionSymbol_Invalid(t *testing.T) {
	for _, sym := range []string{"", "AAPL", "250117C00150000", "AAPL251317C00150000", "AAPL250117X00150000", "AAPL250117C0015000A"} {
		if _, err := ParseOptionSymbol(sym); !errors.Is(err, models.ErrValidation) {
			t.Errorf("ParseOptionSymbol(%q): expected validation error, got %v", sym, err)
		}
	}
}

func TestPositionSymbol(t *testing.T) {
	exp := time.Date(2025, 6, 20, 0, 0, 0, 0, time.UTC)
	pos, err := models.NewOptionPosition("US", "msft", 400, models.Put, exp, -2, decimal.NewFromFloat(3.1), "")
	if err != nil {
		t.Fatalf("NewOptionPosition: %v", err)
	}
	sym, err := PositionSymbol(pos)
	if err != nil {
		t.Fatalf("PositionSymbol: %v", err)
	}
	if sym != "MSFT250620P00400000" {
		t.Errorf("Expected MSFT250620P00400000, got %s", sym)
	}

	stock, _ := models.NewStockPosition("US", "MSFT", 10, decimal.NewFromInt(400), 0, "")
	if _, err := PositionSymbol(stock); err == nil {
		t.Error("Expected error for stock leg")
	}
}

func TestSymbol(t *testing.T) {
	if got := Symbol("US", "AAPL"); got != "US.AAPL" {
		t.Errorf("Expected US.AAPL, got %s", got)
	}
	if got := Symbol("", "AAPL"); got != "AAPL" {
		t.Errorf("Expected AAPL, got %s", got)
	}
}
