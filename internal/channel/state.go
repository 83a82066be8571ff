package channel

import "fmt"

// State is the lifecycle state of a channel. The zero value is not a valid
// state, so a snapshot entry without one is rejected.
type State int

const (
	StateOpened State = iota + 1
	StatePendingOpen
	StatePendingClose
	StateClosed
)

// stateNames is the on-disk spelling of each state. Changing an entry
// breaks reads of existing rows.
var stateNames = map[State]string{
	StateOpened:       "Opened",
	StatePendingOpen:  "PendingOpen",
	StatePendingClose: "PendingClose",
	StateClosed:       "Closed",
}

// States lists every state in declaration order.
var States = []State{StateOpened, StatePendingOpen, StatePendingClose, StateClosed}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// IsValid reports whether s is one of the declared states.
func (s State) IsValid() bool {
	_, ok := stateNames[s]
	return ok
}

// IsClosing reports whether s triggers first-closure timestamping.
func (s State) IsClosing() bool {
	return s == StatePendingClose || s == StateClosed
}

// ParseState parses the on-disk spelling of a state. Matching is exact.
func ParseState(name string) (State, error) {
	for s, n := range stateNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown channel state %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("invalid channel state %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	parsed, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
