package pricer

import (
	"errors"
	"math"
	"testing"

	"option_monitor/internal/models"
)

func TestEvaluateScenario_VerticalSpread(t *testing.T) {
	in := ScenarioInput{
		Spot:       100,
		Volatility: 0.2,
		Rate:       0.05,
		Multiplier: 100,
		Legs: []models.ScenarioLeg{
			{Strike: 100, DTE: 365, Type: models.Call, Quantity: 1},
			{Strike: 110, DTE: 365, Type: models.Call, Quantity: -1},
		},
	}

	res, err := Evaluate(in)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(res.Legs) != 2 {
		t.Fatalf("Expected 2 leg results, got %d", len(res.Legs))
	}

	long, _ := PriceAndGreeks(100, 100, 1, 0.05, 0.2, models.Call)
	short, _ := PriceAndGreeks(100, 110, 1, 0.05, 0.2, models.Call)

	wantValue := (long.Price - short.Price) * 100
	if math.Abs(res.TotalValue-wantValue) > 1e-9 {
		t.Errorf("Expected total value %f, got %f", wantValue, res.TotalValue)
	}
	wantDelta := (long.Delta - short.Delta) * 100
	if math.Abs(res.Delta-wantDelta) > 1e-9 {
		t.Errorf("Expected delta %f, got %f", wantDelta, res.Delta)
	}
	if res.Legs[1].PositionValue >= 0 {
		t.Errorf("Short leg should carry a negative position value, got %f", res.Legs[1].PositionValue)
	}
}

func TestEvaluateScenario_Validation(t *testing.T) {
	cases := []ScenarioInput{
		{Spot: 0, Volatility: 0.2},
		{Spot: 100, Volatility: -0.1},
		{Spot: 100, Volatility: 0.2, Legs: []models.ScenarioLeg{{Strike: 0, DTE: 30, Type: models.Put, Quantity: 1}}},
		{Spot: 100, Volatility: 0.2, Legs: []models.ScenarioLeg{{Strike: 90, DTE: 30, Type: models.Put, Quantity: 0}}},
	}
	for i, in := range cases {
		if _, err := Evaluate(in); !errors.Is(err, models.ErrValidation) {
			t.Errorf("case %d: expected validation error, got %v", i, err)
		}
	}

	_, err := Evaluate(ScenarioInput{Spot: 100, Volatility: 0.2, Legs: []models.ScenarioLeg{{Strike: 90, DTE: 30, Type: "X", Quantity: 1}}})
	if !errors.Is(err, ErrInvalidOptionType) {
		t.Errorf("Expected ErrInvalidOptionType, got %v", err)
	}
}

func TestEvaluateScenario_DefaultMultiplier(t *testing.T) {
	res, err := Evaluate(ScenarioInput{
		Spot:       50,
		Volatility: 0,
		Legs:       []models.ScenarioLeg{{Strike: 40, DTE: 10, Type: models.Call, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	// Zero vol: intrinsic 10 x 2 contracts x 100.
	if res.TotalValue != 2000 {
		t.Errorf("Expected 2000, got %f", res.TotalValue)
	}
}
