package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/sit-hvlab/session-gateway/internal/domain/session"
	"github.com/sit-hvlab/session-gateway/internal/service"
)

// SessionAuthority is the interface the HTTP layer needs from the session
// manager.
type SessionAuthority interface {
	Current() (session.Session, bool)
	IngestLaunch(ctx context.Context, token string) error
	BeginStaffSignIn(ctx context.Context) (string, error)
	CompleteStaffSignIn(ctx context.Context, u *url.URL) (*session.User, error)
	StaffSignInConfigured() bool
	Logout(ctx context.Context) service.LogoutResult
}

// SessionHandlers provides HTTP handlers for the gateway's entry routes.
type SessionHandlers struct {
	Authority SessionAuthority
	Dest      service.Destinations
	Logger    *slog.Logger
}

func (h *SessionHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Entry handles the LTI launch entry route.
// GET /entry?session_token=<token> or GET /entry?error=<code>.
func (h *SessionHandlers) Entry(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if errParam := query.Get("error"); errParam != "" {
		h.logger().WarnContext(r.Context(), "launch reported an error", "error", errParam)
		h.redirectSessionRequired(w, r, errParam)
		return
	}

	token := query.Get("session_token")
	if token == "" {
		h.redirectSessionRequired(w, r, "")
		return
	}

	err := h.Authority.IngestLaunch(r.Context(), token)
	switch {
	case err == nil:
		http.Redirect(w, r, h.Dest.Home, http.StatusFound)
	case errors.Is(err, service.ErrLaunchAlreadyHandled):
		// Duplicate delivery of the same token. If the first attempt won,
		// the user is signed in; send them where they belong either way.
		if current, _ := h.Authority.Current(); current.Authenticated() {
			http.Redirect(w, r, h.Dest.Home, http.StatusFound)
			return
		}
		h.redirectSessionRequired(w, r, "")
	default:
		h.logger().WarnContext(r.Context(), "launch ingestion failed", "error", err)
		h.redirectSessionRequired(w, r, "session_invalid")
	}
}

// StaffLogin starts a staff sign-in.
// GET /auth/staff/login.
func (h *SessionHandlers) StaffLogin(w http.ResponseWriter, r *http.Request) {
	if !h.Authority.StaffSignInConfigured() {
		WriteError(w, ErrorParams{
			Code:    http.StatusServiceUnavailable,
			ErrCode: "sso_not_configured",
			Err:     session.ErrNotConfigured,
		})
		return
	}

	target, err := h.Authority.BeginStaffSignIn(r.Context())
	if err != nil {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "sso_begin_failed",
			Err:     err,
		})
		return
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// StaffCallback handles the SSO callback.
// GET /oauth2/callback?code=<code>&state=<state>, or provider error
// parameters in the query string or fragment.
func (h *SessionHandlers) StaffCallback(w http.ResponseWriter, r *http.Request) {
	user, err := h.Authority.CompleteStaffSignIn(r.Context(), r.URL)
	if err == nil {
		h.logger().InfoContext(r.Context(), "staff sign-in complete", "user", user.Email)
		http.Redirect(w, r, h.Dest.Home, http.StatusFound)
		return
	}

	var provErr *session.ProviderError
	var restricted *session.RestrictedError
	switch {
	case errors.Is(err, session.ErrMissingCredential):
		// Not a callback at all; back to the sign-in page.
		http.Redirect(w, r, h.Dest.StaffSignIn, http.StatusFound)
	case errors.As(err, &provErr):
		WriteError(w, ErrorParams{Code: http.StatusBadGateway, ErrCode: "provider_error", Err: provErr})
	case errors.As(err, &restricted):
		WriteError(w, ErrorParams{Code: http.StatusForbidden, ErrCode: "access_denied", Err: restricted})
	case errors.Is(err, session.ErrNotConfigured):
		WriteError(w, ErrorParams{Code: http.StatusServiceUnavailable, ErrCode: "sso_not_configured", Err: err})
	default:
		WriteError(w, ErrorParams{Code: http.StatusUnauthorized, ErrCode: "sign_in_failed", Err: err})
	}
}

// Logout handles the logout endpoint.
// POST /auth/logout.
func (h *SessionHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	result := h.Authority.Logout(r.Context())

	// AJAX requests get a JSON payload; regular requests redirect.
	isAJAX := strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest")
	if isAJAX {
		WriteJSON(w, http.StatusOK, map[string]string{
			"status":      "success",
			"redirect_to": result.RedirectURL,
		})
		return
	}
	http.Redirect(w, r, result.RedirectURL, http.StatusFound)
}

// Status returns the current session for the SPA.
// GET /auth/status.
func (h *SessionHandlers) Status(w http.ResponseWriter, r *http.Request) {
	current, loading := h.Authority.Current()
	if loading {
		WriteJSON(w, http.StatusOK, map[string]any{
			"authenticated": false,
			"loading":       true,
		})
		return
	}

	payload := map[string]any{
		"authenticated": current.Authenticated(),
		"loading":       false,
		"method":        current.Method,
	}
	if current.User != nil {
		payload["user"] = current.User
	}
	if current.Course != nil {
		payload["course"] = current.Course
	}
	WriteJSON(w, http.StatusOK, payload)
}

// redirectSessionRequired sends the user to the session-required page,
// carrying the error code for display when one exists.
func (h *SessionHandlers) redirectSessionRequired(w http.ResponseWriter, r *http.Request, errCode string) {
	target := h.Dest.SessionRequired
	if errCode != "" {
		u, err := url.Parse(target)
		if err == nil {
			q := u.Query()
			q.Set("error", errCode)
			u.RawQuery = q.Encode()
			target = u.String()
		}
	}
	http.Redirect(w, r, target, http.StatusFound)
}
