package domain

// SessionState represents the lifecycle state of the client session.
type SessionState string

const (
	SessionBootstrapping SessionState = "bootstrapping"
	SessionAuthenticated SessionState = "authenticated"
	SessionAnonymous     SessionState = "anonymous"
)

// validSessionTransitions defines the allowed state machine transitions.
// authenticated → authenticated covers a re-login and a profile refresh.
var validSessionTransitions = map[SessionState][]SessionState{
	SessionBootstrapping: {SessionAuthenticated, SessionAnonymous},
	SessionAnonymous:     {SessionAuthenticated},
	SessionAuthenticated: {SessionAnonymous, SessionAuthenticated},
}

// CanTransitionTo reports whether a transition from s to next is valid.
func (s SessionState) CanTransitionTo(next SessionState) bool {
	for _, allowed := range validSessionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Session is an immutable snapshot of the session store.
//
// User is non-nil exactly when Token is non-empty.
type Session struct {
	Token   string
	User    *User
	Loading bool
	State   SessionState
}

// Authenticated reports whether the snapshot holds a validated token.
func (s Session) Authenticated() bool {
	return s.State == SessionAuthenticated && s.Token != "" && s.User != nil
}
