// Package pricer implements closed-form Black-Scholes valuation.
package pricer

import (
	"errors"
	"fmt"
	"math"

	"option_monitor/internal/models"
)

// ErrInvalidOptionType is returned when the option type is neither CALL nor PUT.
var ErrInvalidOptionType = errors.New("option type must be CALL or PUT")

// Greeks is a model price with its sensitivities. Vega and rho are per one
// percentage point, theta is per calendar day.
type Greeks struct {
	Price float64 `json:"price"`
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Vega  float64 `json:"vega"`
	Theta float64 `json:"theta"`
	Rho   float64 `json:"rho"`
}

// PriceAndGreeks values a European option on a non-dividend underlying.
// s is the spot, k the strike, t the time to expiry in years, r the annual
// risk-free rate and sigma the annual volatility.
//
// With t <= 0 or sigma <= 0 the intrinsic value is returned with degenerate
// Greeks. Non-positive s or k take the same path to keep the log defined.
func PriceAndGreeks(s, k, t, r, sigma float64, typ models.OptionType) (Greeks, error) {
	if !typ.Valid() {
		return Greeks{}, fmt.Errorf("%w: %q", ErrInvalidOptionType, typ)
	}

	if t <= 0 || sigma <= 0 || s <= 0 || k <= 0 {
		return intrinsic(s, k, typ), nil
	}

	sqrtT := math.Sqrt(t)
	d1 := (math.Log(s/k) + (r+0.5*sigma*sigma)*t) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT
	disc := math.Exp(-r * t)
	pdf := normPDF(d1)

	g := Greeks{
		Gamma: pdf / (s * sigma * sqrtT),
		Vega:  s * pdf * sqrtT / 100,
	}
	decay := -s * pdf * sigma / (2 * sqrtT)

	if typ == models.Call {
		g.Price = s*normCDF(d1) - k*disc*normCDF(d2)
		g.Delta = normCDF(d1)
		g.Theta = (decay - r*k*disc*normCDF(d2)) / 365
		g.Rho = k * t * disc * normCDF(d2) / 100
	} else {
		g.Price = k*disc*normCDF(-d2) - s*normCDF(-d1)
		g.Delta = normCDF(d1) - 1
		g.Theta = (decay + r*k*disc*normCDF(-d2)) / 365
		g.Rho = -k * t * disc * normCDF(-d2) / 100
	}
	g.Price = math.Max(0, g.Price)

	return g, nil
}

// Price is PriceAndGreeks without the sensitivities.
func Price(s, k, t, r, sigma float64, typ models.OptionType) (float64, error) {
	g, err := PriceAndGreeks(s, k, t, r, sigma, typ)
	return g.Price, err
}

func intrinsic(s, k float64, typ models.OptionType) Greeks {
	if typ == models.Call {
		g := Greeks{Price: math.Max(0, s-k)}
		if s > k {
			g.Delta = 1
		}
		return g
	}
	return Greeks{Price: math.Max(0, k-s)}
}

// normCDF is the standard normal cumulative distribution.
func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

func normPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}
