package sequence

import "fmt"

// State is a pipeline milestone.
type State int

const (
	StateInit State = iota
	StateAuthenticated
	StateOnTargetPage
	StateScopeEntered
	StatePopupsCleared
	StateFieldsPopulated
	StatePersisted
	StateDone
	StateAborted
)

var stateNames = [...]string{
	StateInit:            "init",
	StateAuthenticated:   "authenticated",
	StateOnTargetPage:    "on_target_page",
	StateScopeEntered:    "scope_entered",
	StatePopupsCleared:   "popups_cleared",
	StateFieldsPopulated: "fields_populated",
	StatePersisted:       "persisted",
	StateDone:            "done",
	StateAborted:         "aborted",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool { return s == StateDone || s == StateAborted }

// ParseState is the inverse of String.
func ParseState(name string) (State, error) {
	for i, n := range stateNames {
		if n == name {
			return State(i), nil
		}
	}
	return 0, fmt.Errorf("sequence: unknown state %q", name)
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *State) UnmarshalText(b []byte) error {
	v, err := ParseState(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
