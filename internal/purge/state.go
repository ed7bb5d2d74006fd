package purge

// State is a step of a deletion run.
type State int

const (
	StateStart State = iota
	StateFileCheck
	StateConnected
	StateCounted
	StateEmptyExit
	StateAwaitConfirmation
	StateCancelled
	StateDeleting
	StateVerified
	StateClosed
	StateFailed
)

var stateNames = [...]string{
	StateStart:             "start",
	StateFileCheck:         "file_check",
	StateConnected:         "connected",
	StateCounted:           "counted",
	StateEmptyExit:         "empty_exit",
	StateAwaitConfirmation: "await_confirmation",
	StateCancelled:         "cancelled",
	StateDeleting:          "deleting",
	StateVerified:          "verified",
	StateClosed:            "closed",
	StateFailed:            "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	switch s {
	case StateEmptyExit, StateCancelled, StateClosed, StateFailed:
		return true
	}
	return false
}
