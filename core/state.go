package session

// SessionState is the engine's externally visible lifecycle state. Exactly
// one of idle, connecting, active or errored holds at any time; idle is the
// zero value.
type SessionState struct {
	IsActive     bool
	IsConnecting bool
	Err          error
}

func (s SessionState) IsIdle() bool {
	return !s.IsActive && !s.IsConnecting && s.Err == nil
}

func stateIdle() SessionState       { return SessionState{} }
func stateConnecting() SessionState { return SessionState{IsConnecting: true} }
func stateActive() SessionState     { return SessionState{IsActive: true} }
func stateErrored(err error) SessionState {
	return SessionState{Err: err}
}
