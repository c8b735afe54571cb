package session

// Package session contains domain-level types for the gateway session.
// It is pure and free of transport/adapter concerns.

// AuthMethod identifies how the current session was established.
// Keep string form for easy persistence and logging.
type AuthMethod string

const (
	MethodLTI   AuthMethod = "lti"
	MethodStaff AuthMethod = "staff"
	MethodNone  AuthMethod = "none"
)

// User is the normalized identity record. Both launch origins (LTI claims
// and SSO claims) are mapped into this shape before being stored, so
// consumers never branch on the auth method to render a user.
type User struct {
	ID      string `json:"user_id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
}

// Course is the launch context attached to LTI-origin sessions only.
type Course struct {
	ID    string `json:"course_id"`
	Title string `json:"course_title"`
}

// Session is the single source of truth for the current identity.
// Invariants: Method == MethodNone iff User == nil; Course and Token are
// populated only when Method == MethodLTI.
type Session struct {
	Method AuthMethod `json:"method"`
	User   *User      `json:"user,omitempty"`
	Course *Course    `json:"course,omitempty"`
	Token  string     `json:"-"`
}

// Authenticated reports whether a principal is signed in.
func (s Session) Authenticated() bool { return s.Method != MethodNone && s.User != nil }

// None returns the unauthenticated session value.
func None() Session { return Session{Method: MethodNone} }
