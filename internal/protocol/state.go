package protocol

import "fmt"

type State int

const (
	StateUnconfigured State = iota
	StateConfigured
	StateRunning
)

func (s State) String() string {
	switch s {
	case StateUnconfigured:
		return "UNCONFIGURED"
	case StateConfigured:
		return "CONFIGURED"
	case StateRunning:
		return "RUNNING"
	default:
		return "UNKNOWN"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func ValidateTransition(from, to State) error {
	validTransitions := map[State][]State{
		StateUnconfigured: {StateConfigured},
		StateConfigured:   {StateConfigured, StateRunning},
		StateRunning:      {StateConfigured},
	}

	allowed, exists := validTransitions[from]
	if !exists {
		return fmt.Errorf("invalid current state: %s", from)
	}

	for _, validTo := range allowed {
		if validTo == to {
			return nil
		}
	}

	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}
