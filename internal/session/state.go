package session

// State is the lifecycle position of a session.
type State int

const (
	Constructed State = iota
	Submitted
	AwaitingResult
	Resolved
	ErrorAborted
)

var stateNames = map[State]string{
	Constructed:    "constructed",
	Submitted:      "submitted",
	AwaitingResult: "awaiting-result",
	Resolved:       "resolved",
	ErrorAborted:   "error-aborted",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}
