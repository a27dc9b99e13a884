package monitor

// Mode selects how a threshold that stays breached is reported.
type Mode string

const (
	// ModeRepeat fires on every poll while the condition holds.
	ModeRepeat Mode = "repeat"
	// ModeOnce fires when a condition starts to hold and re-arms once it
	// clears.
	ModeOnce Mode = "once"
)

// ParseMode maps "once" to ModeOnce; anything else is ModeRepeat.
func ParseMode(s string) Mode {
	if Mode(s) == ModeOnce {
		return ModeOnce
	}
	return ModeRepeat
}

// State is carried from one evaluation to the next by the caller.
type State struct {
	// SpreadDeltas is the delta of each spread at its last evaluation.
	SpreadDeltas map[string]float64
	// Breached holds the alert keys currently suppressed in ModeOnce.
	Breached map[string]bool
}

// NewState returns an empty state.
func NewState() State {
	return State{
		SpreadDeltas: make(map[string]float64),
		Breached:     make(map[string]bool),
	}
}

func (s State) clone() State {
	c := NewState()
	for k, v := range s.SpreadDeltas {
		c.SpreadDeltas[k] = v
	}
	for k, v := range s.Breached {
		c.Breached[k] = v
	}
	return c
}
