package ping

// State is how far a run got. States only move forward; a failed stage leaves
// the run in the last state it reached.
type State uint8

const (
	StateDisconnected State = iota
	StateConnected
	StateIdentityLoaded
	StateProgramResolved
	StateAccountReady
	StatePinged
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateIdentityLoaded:
		return "identity_loaded"
	case StateProgramResolved:
		return "program_resolved"
	case StateAccountReady:
		return "account_ready"
	case StatePinged:
		return "pinged"
	default:
		return "unknown"
	}
}
