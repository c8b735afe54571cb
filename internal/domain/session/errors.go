package session

import (
	"errors"
	"fmt"
	"strings"
)

// Failure taxonomy for the session subsystem. Every network call made by an
// adapter is wrapped and converted into one of these; nothing below the HTTP
// layer surfaces raw transport errors.
var (
	// ErrMissingCredential means an entry route was hit without a token or
	// code. Treated as a redirect, not a surfaced error.
	ErrMissingCredential = errors.New("missing credential")

	// ErrValidationFailed covers backend rejection of a token or code as
	// well as network errors and timeouts; they are indistinguishable to
	// the caller and both terminal for the attempt.
	ErrValidationFailed = errors.New("session validation failed")

	// ErrNotConfigured is returned when staff sign-in is attempted but no
	// SSO strategy is configured for this deployment.
	ErrNotConfigured = errors.New("staff sign-in is not configured")
)

// ProviderError is an identity-provider failure reported via redirect
// parameters. It is surfaced verbatim to the user, with the request ID when
// present.
type ProviderError struct {
	Code        string
	Description string
	RequestID   string
}

func (e *ProviderError) Error() string {
	var parts []string
	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("Sign-in failed (%s).", e.Code))
	}
	if e.Description != "" {
		parts = append(parts, e.Description)
	}
	if e.Code == "" && e.Description == "" && e.RequestID != "" {
		parts = append(parts, "Sign-in failed at identity provider.")
	}
	if e.RequestID != "" {
		parts = append(parts, "Request ID: "+e.RequestID)
	}
	if len(parts) == 0 {
		return "Sign-in failed at identity provider."
	}
	return strings.Join(parts, " ")
}

// RestrictedError is a valid identity denied by the restriction policy. The
// reason comes from the first failing rule and is shown to the user as-is.
type RestrictedError struct {
	Reason string
}

func (e *RestrictedError) Error() string { return e.Reason }
