package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/sit-hvlab/session-gateway/internal/domain/policy"
	"github.com/sit-hvlab/session-gateway/internal/domain/session"
	"github.com/sit-hvlab/session-gateway/internal/ports"
)

// ErrLaunchAlreadyHandled is returned by IngestLaunch when the same token
// was already ingested on this process; the attempt is not repeated.
var ErrLaunchAlreadyHandled = errors.New("launch token already handled")

// Destinations are the post-auth navigation targets handed back to callers
// as redirect URLs.
type Destinations struct {
	Home            string
	SessionRequired string
	Root            string
	StaffSignIn     string
}

// SessionManagerOptions groups dependencies for SessionManager.
type SessionManagerOptions struct {
	Artifacts *ArtifactRepository
	Backend   ports.BackendClient
	Strategy  ports.SsoStrategy // nil disables staff sign-in
	Policy    *policy.Evaluator
	Dest      Destinations

	// RefreshInterval is the silent-refresh cadence for LTI sessions.
	// Defaults to 30 minutes.
	RefreshInterval time.Duration

	Logger *slog.Logger
}

// SessionManager is the single source of truth for the current identity.
// It owns the only writer to both the in-memory session and the artifact
// store; all mutation happens under one mutex. States move from loading to
// exactly one of none/lti/staff, and an LTI session validated at boot always
// erases a stale staff session.
type SessionManager struct {
	artifacts *ArtifactRepository
	backend   ports.BackendClient
	strategy  ports.SsoStrategy
	policy    *policy.Evaluator
	dest      Destinations
	interval  time.Duration
	logger    *slog.Logger

	mu       sync.Mutex
	state    session.Session
	loading  bool
	ingested map[string]struct{}

	stopRefresh chan struct{}
	refreshDone chan struct{}
	closeOnce   sync.Once
}

// NewSessionManager constructs a SessionManager and starts its refresh loop.
// Call Close to stop the loop.
func NewSessionManager(opts SessionManagerOptions) (*SessionManager, error) {
	if opts.Artifacts == nil {
		return nil, errors.New("artifact repository is required")
	}
	if opts.Backend == nil {
		return nil, errors.New("backend client is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	interval := opts.RefreshInterval
	if interval <= 0 {
		interval = 30 * time.Minute
	}

	m := &SessionManager{
		artifacts:   opts.Artifacts,
		backend:     opts.Backend,
		strategy:    opts.Strategy,
		policy:      opts.Policy,
		dest:        opts.Dest,
		interval:    interval,
		logger:      logger,
		state:       session.None(),
		loading:     true,
		ingested:    map[string]struct{}{},
		stopRefresh: make(chan struct{}),
		refreshDone: make(chan struct{}),
	}
	go m.refreshLoop()
	return m, nil
}

// Current returns a snapshot of the session and whether boot has completed.
func (m *SessionManager) Current() (session.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, m.loading
}

// StaffSignInConfigured reports whether an SSO strategy is wired.
func (m *SessionManager) StaffSignInConfigured() bool { return m.strategy != nil }

// Boot restores the session from durable storage. Single pass, no re-entry:
//  1. durable LTI token → validate; success wins over and erases any staff
//     artifact, failure clears the LTI artifacts and falls through
//  2. durable staff user → staff session, no course
//  3. cached LTI user+course → LTI session without a validate round-trip
//  4. otherwise unauthenticated
//
// Loading always ends, whichever branch ran. Boot is idempotent: a second
// call against identical storage lands in the identical state.
func (m *SessionManager) Boot(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer func() { m.loading = false }()

	stored := m.artifacts.Load(ctx)

	if stored.Token != "" {
		result, err := m.backend.ValidateSession(ctx, stored.Token)
		if err == nil {
			if clearErr := m.artifacts.ClearStaff(ctx); clearErr != nil {
				m.logger.WarnContext(ctx, "clear stale staff artifacts failed", "error", clearErr)
			}
			m.state = session.Session{
				Method: session.MethodLTI,
				User:   &result.User,
				Course: &result.Course,
				Token:  stored.Token,
			}
			m.logger.InfoContext(ctx, "session restored", "method", "lti", "user", result.User.Email)
			return
		}

		m.logger.WarnContext(ctx, "stored token validation failed", "error", err)
		if clearErr := m.artifacts.ClearLTI(ctx); clearErr != nil {
			m.logger.WarnContext(ctx, "clear lti artifacts failed", "error", clearErr)
		}
	}

	if stored.StaffUser != nil {
		m.state = session.Session{Method: session.MethodStaff, User: stored.StaffUser}
		m.logger.InfoContext(ctx, "session restored", "method", "staff", "user", stored.StaffUser.Email)
		return
	}

	if stored.Token == "" && stored.LTIUser != nil && stored.LTICourse != nil {
		// Fast path for immediate reloads: trust the cached copies rather
		// than forcing a fresh launch.
		m.state = session.Session{
			Method: session.MethodLTI,
			User:   stored.LTIUser,
			Course: stored.LTICourse,
		}
		return
	}

	m.state = session.None()
}

// IngestLaunch consumes a one-shot launch token delivered via URL: validate
// it against the backend and commit the resulting session. Each token is
// attempted at most once per process; a failed validation ends the attempt
// with no retry.
func (m *SessionManager) IngestLaunch(ctx context.Context, token string) error {
	if token == "" {
		return session.ErrMissingCredential
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	defer func() { m.loading = false }()

	if _, done := m.ingested[token]; done {
		return ErrLaunchAlreadyHandled
	}
	m.ingested[token] = struct{}{}

	result, err := m.backend.ValidateSession(ctx, token)
	if err != nil {
		if clearErr := m.artifacts.ClearLTI(ctx); clearErr != nil {
			m.logger.WarnContext(ctx, "clear lti artifacts failed", "error", clearErr)
		}
		return fmt.Errorf("ingest launch: %w", err)
	}

	if err = m.artifacts.SaveLTI(ctx, token, result.User, result.Course); err != nil {
		return fmt.Errorf("ingest launch: %w", err)
	}
	if err = m.artifacts.ClearStaff(ctx); err != nil {
		m.logger.WarnContext(ctx, "clear stale staff artifacts failed", "error", err)
	}

	m.state = session.Session{
		Method: session.MethodLTI,
		User:   &result.User,
		Course: &result.Course,
		Token:  token,
	}
	m.logger.InfoContext(ctx, "launch ingested", "user", result.User.Email, "course", result.Course.Title)
	return nil
}

// BeginStaffSignIn returns the provider URL to start a staff sign-in.
func (m *SessionManager) BeginStaffSignIn(ctx context.Context) (string, error) {
	if m.strategy == nil {
		return "", session.ErrNotConfigured
	}
	return m.strategy.BeginSignIn(ctx)
}

// CompleteStaffSignIn finishes an SSO callback: the strategy completes the
// redirect, the restriction policy gates the identity, and only an approved
// identity is committed. Denials create no session and leave the provider's
// own state untouched.
func (m *SessionManager) CompleteStaffSignIn(ctx context.Context, u *url.URL) (*session.User, error) {
	if m.strategy == nil {
		return nil, session.ErrNotConfigured
	}

	result, err := m.strategy.CompleteIfCallback(ctx, u)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, session.ErrMissingCredential
	}

	if m.policy != nil {
		decision := m.policy.Evaluate(result.Claims, result.User.Email)
		if !decision.Allowed {
			m.logger.WarnContext(ctx, "staff sign-in denied by policy",
				"user", result.User.Email, "reason", decision.Reason)
			return nil, &session.RestrictedError{Reason: decision.Reason}
		}
	}

	if err = m.LoginStaff(ctx, result.User); err != nil {
		return nil, err
	}
	return &result.User, nil
}

// LoginStaff commits a staff session: no course, no token, and the
// force-reauth marker cleared.
func (m *SessionManager) LoginStaff(ctx context.Context, user session.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer func() { m.loading = false }()

	if err := m.artifacts.SaveStaffUser(ctx, user); err != nil {
		return fmt.Errorf("login staff: %w", err)
	}
	m.state = session.Session{Method: session.MethodStaff, User: &user}
	m.logger.InfoContext(ctx, "staff signed in", "user", user.Email)
	return nil
}

// UpdateUser patches the current LTI session's cached user. No-op for other
// auth methods, by contract of callers.
func (m *SessionManager) UpdateUser(ctx context.Context, user session.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Method != session.MethodLTI {
		return nil
	}
	if err := m.artifacts.SaveUser(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	m.state.User = &user
	return nil
}

// UpdateCourse patches the current LTI session's cached course.
func (m *SessionManager) UpdateCourse(ctx context.Context, course session.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Method != session.MethodLTI {
		return nil
	}
	if err := m.artifacts.SaveCourse(ctx, course); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	m.state.Course = &course
	return nil
}

// LogoutResult tells the caller where to send the user next.
type LogoutResult struct {
	RedirectURL string
}

// Logout destroys the session for both auth origins, best-effort notifies
// the backend when an LTI token existed, and picks the destination by
// precedence: staff session → provider logout (with the force-reauth marker
// set), LTI session → session-required, otherwise root.
func (m *SessionManager) Logout(ctx context.Context) LogoutResult {
	m.mu.Lock()
	defer m.mu.Unlock()

	token := m.state.Token
	if token == "" {
		if stored, err := m.artifacts.store.Get(ctx, KeyLTIToken); err == nil {
			token = stored
		}
	}
	hadStaff := m.state.Method == session.MethodStaff
	if !hadStaff {
		if _, err := m.artifacts.store.Get(ctx, KeyStaffUser); err == nil {
			hadStaff = true
		}
	}
	hadLTI := token != ""

	if hadLTI {
		if err := m.backend.LTILogout(ctx, token); err != nil {
			m.logger.WarnContext(ctx, "backend logout failed", "error", err)
		}
	}

	if err := m.artifacts.ClearAll(ctx); err != nil {
		m.logger.WarnContext(ctx, "clear artifacts failed", "error", err)
	}
	m.state = session.None()

	switch {
	case hadStaff:
		if err := m.artifacts.SetForceReauth(ctx); err != nil {
			m.logger.WarnContext(ctx, "set force-reauth marker failed", "error", err)
		}
		if m.strategy != nil {
			if target, err := m.strategy.SignOut(ctx); err == nil {
				return LogoutResult{RedirectURL: target}
			}
		}
		return LogoutResult{RedirectURL: m.dest.Root}
	case hadLTI:
		return LogoutResult{RedirectURL: m.dest.SessionRequired}
	default:
		return LogoutResult{RedirectURL: m.dest.Root}
	}
}

// Destinations exposes the configured navigation targets to the HTTP layer.
func (m *SessionManager) Destinations() Destinations { return m.dest }

// Close stops the refresh loop. In-flight refresh calls finish on their own;
// their results are discarded.
func (m *SessionManager) Close() {
	m.closeOnce.Do(func() {
		close(m.stopRefresh)
		<-m.refreshDone
	})
}

// refreshLoop silently refreshes the backend session while an LTI token is
// present. Failures are logged and otherwise ignored; a refresh never forces
// a logout. A tick that races a logout finds no token and does nothing.
func (m *SessionManager) refreshLoop() {
	defer close(m.refreshDone)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopRefresh:
			return
		case <-ticker.C:
			m.refreshOnce()
		}
	}
}

func (m *SessionManager) refreshOnce() {
	m.mu.Lock()
	token := m.state.Token
	m.mu.Unlock()
	if token == "" {
		return
	}

	ctx := context.Background()
	if err := m.backend.RefreshSession(ctx, token); err != nil {
		m.logger.WarnContext(ctx, "session refresh failed", "error", err)
	}
}
