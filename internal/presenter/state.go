package presenter

import "fmt"

// State is a step of one generation-and-reveal cycle
type State int

const (
	StateIdle State = iota
	StateValidating
	StateAwaitingBackend
	StateRevealing
	StateSucceeded
	StateFailed
)

var stateNames = map[State]string{
	StateIdle:            "idle",
	StateValidating:      "validating",
	StateAwaitingBackend: "awaiting_backend",
	StateRevealing:       "revealing",
	StateSucceeded:       "succeeded",
	StateFailed:          "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether the cycle has ended
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// MarshalText lets states appear by name in JSON
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for state, name := range stateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", text)
}

// allowed lists the legal transitions of a cycle
var allowed = map[State][]State{
	StateIdle:            {StateValidating},
	StateValidating:      {StateFailed, StateAwaitingBackend},
	StateAwaitingBackend: {StateFailed, StateRevealing},
	StateRevealing:       {StateRevealing, StateSucceeded, StateFailed},
	StateSucceeded:       {StateValidating},
	StateFailed:          {StateValidating},
}

// CanTransition reports whether from -> to is a legal step
func CanTransition(from, to State) bool {
	for _, next := range allowed[from] {
		if next == to {
			return true
		}
	}
	return false
}
