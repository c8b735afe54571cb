package ports

// Package ports defines interfaces (hexagonal ports) for the session
// gateway. Implementations live in internal/adapters; orchestration in
// internal/service.

import (
	"context"
	"errors"
	"net/url"

	"github.com/sit-hvlab/session-gateway/internal/domain/session"
)

// ErrNotFound is returned by ArtifactStore.Get for absent keys.
var ErrNotFound = errors.New("artifact not found")

// ArtifactStore is durable key/value storage for session artifacts. Values
// are opaque strings; serialization is the repository's concern.
type ArtifactStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// ValidateResult is the backend's answer to a successful session validate.
type ValidateResult struct {
	User   session.User
	Course session.Course
}

// ExchangeResult is the backend's answer to a staff code exchange: the
// resolved user plus the raw provider claims for restriction evaluation.
type ExchangeResult struct {
	User   session.User
	Claims map[string]any
}

// BackendClient talks to the LTI backend's session endpoints. Every method
// applies its own bounded timeout and converts failures into the domain
// error taxonomy.
type BackendClient interface {
	// ValidateSession checks a bearer token and returns the session context.
	ValidateSession(ctx context.Context, token string) (ValidateResult, error)

	// RefreshSession extends the backend session. Best-effort; the response
	// body is ignored.
	RefreshSession(ctx context.Context, token string) error

	// ExchangeStaffCode trades an authorization code/state pair for a staff
	// identity and its claims.
	ExchangeStaffCode(ctx context.Context, code, state string) (ExchangeResult, error)

	// LTILogout tears down the backend session. Best-effort.
	LTILogout(ctx context.Context, token string) error
}

// SsoResult is a completed staff sign-in: a normalized user and the raw
// claims it was derived from. Restriction evaluation and session commit
// happen in the service layer, not in the strategy.
type SsoResult struct {
	User   session.User
	Claims map[string]any
}

// SsoStrategy abstracts the two staff SSO integration styles (backend code
// exchange vs. delegated provider SDK) behind one contract.
type SsoStrategy interface {
	// BeginSignIn returns the URL to send the user to for authentication.
	BeginSignIn(ctx context.Context) (string, error)

	// CompleteIfCallback inspects u and, when it is an SSO callback,
	// completes the sign-in exactly once per code/state pair. A nil result
	// with nil error means u is not a callback URL.
	CompleteIfCallback(ctx context.Context, u *url.URL) (*SsoResult, error)

	// SignOut returns the provider-side logout URL. It must not clear any
	// provider-owned state of its own.
	SignOut(ctx context.Context) (string, error)
}
