package session

// State represents the session lifecycle state.
type State uint8

const (
	// StateConnecting indicates the first connection attempt is in
	// progress. The session starts here.
	StateConnecting State = iota

	// StateOpen indicates an active connection with subscriptions
	// replayed.
	StateOpen

	// StateReconnecting indicates the connection dropped and automatic
	// reconnection with backoff is in progress.
	StateReconnecting

	// StateClosed indicates explicit teardown. Terminal; a session never
	// leaves this state.
	StateClosed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "CONNECTING"
	case StateOpen:
		return "OPEN"
	case StateReconnecting:
		return "RECONNECTING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}
