package models

import (
	"fmt"
	"math"
	"strings"
)

// Spread is a named combination of legs evaluated per one unit of spread.
type Spread struct {
	Name             string   `json:"name"`
	Legs             []int    `json:"legs"`
	PriceTargetUpper *float64 `json:"target_price_upper"`
	PriceTargetLower *float64 `json:"target_price_lower"`
	DeltaTargetUpper *float64 `json:"target_delta_upper"`
	DeltaTargetLower *float64 `json:"target_delta_lower"`
	Remark           string   `json:"remark,omitempty"`
}

// Validate checks the name, leg list and targets. It does not check that
// the legs exist; the Book does that.
func (s Spread) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: spread name cannot be empty", ErrValidation)
	}
	if len(s.Legs) == 0 {
		return fmt.Errorf("%w: spread %q needs at least one leg", ErrValidation, s.Name)
	}
	seen := make(map[int]bool, len(s.Legs))
	for _, l := range s.Legs {
		if l <= 0 {
			return fmt.Errorf("%w: spread %q references invalid leg %d", ErrValidation, s.Name, l)
		}
		if seen[l] {
			return fmt.Errorf("%w: spread %q references leg %d twice", ErrValidation, s.Name, l)
		}
		seen[l] = true
	}
	for name, v := range map[string]*float64{"upper price target": s.PriceTargetUpper, "lower price target": s.PriceTargetLower} {
		if err := checkFinite(name, v); err != nil {
			return err
		}
		if v != nil && *v < 0 {
			return fmt.Errorf("%w: %s must be a positive magnitude", ErrValidation, name)
		}
	}
	if err := checkFinite("upper delta target", s.DeltaTargetUpper); err != nil {
		return err
	}
	return checkFinite("lower delta target", s.DeltaTargetLower)
}

// References reports whether the spread includes the leg.
func (s Spread) References(leg int) bool {
	for _, l := range s.Legs {
		if l == leg {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (s Spread) Clone() Spread {
	c := s
	c.Legs = append([]int(nil), s.Legs...)
	c.PriceTargetUpper = clonePtr(s.PriceTargetUpper)
	c.PriceTargetLower = clonePtr(s.PriceTargetLower)
	c.DeltaTargetUpper = clonePtr(s.DeltaTargetUpper)
	c.DeltaTargetLower = clonePtr(s.DeltaTargetLower)
	return c
}

// Thresholds is the portfolio level alert configuration. A nil pointer
// disables the corresponding check.
type Thresholds struct {
	PnLPctUpper *float64 `json:"pnl_upper_threshold"`
	PnLPctLower *float64 `json:"pnl_lower_threshold"`
	PnLRemark   string   `json:"pnl_remark,omitempty"`
	DeltaUpper  *float64 `json:"delta_upper_threshold"`
	DeltaLower  *float64 `json:"delta_lower_threshold"`
	DeltaRemark string   `json:"delta_remark,omitempty"`
}

// Validate rejects NaN and infinite thresholds. Upper <= lower is accepted.
func (t Thresholds) Validate() error {
	for name, v := range map[string]*float64{
		"P&L upper threshold":   t.PnLPctUpper,
		"P&L lower threshold":   t.PnLPctLower,
		"delta upper threshold": t.DeltaUpper,
		"delta lower threshold": t.DeltaLower,
	} {
		if err := checkFinite(name, v); err != nil {
			return err
		}
	}
	return nil
}

// Float returns a pointer to v, for building optional thresholds.
func Float(v float64) *float64 { return &v }

func checkFinite(name string, v *float64) error {
	if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
		return fmt.Errorf("%w: %s is not a finite number", ErrValidation, name)
	}
	return nil
}

func clonePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
