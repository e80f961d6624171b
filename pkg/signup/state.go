package signup

import "fmt"

// State is the position of a Session in the submission lifecycle.
type State int

const (
	// Idle is the initial state and the state after a failed delivery.
	Idle State = iota
	// Invalid means the last submission failed validation.
	Invalid
	// Submitted means the last submission was accepted by the sink.
	Submitted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Invalid:
		return "invalid"
	case Submitted:
		return "submitted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
