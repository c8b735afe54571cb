package ssoexchange

// Package ssoexchange implements the client-driven staff SSO strategy: the
// authorization code never touches an SDK; it is relayed to the backend's
// exchange endpoint, which holds the provider credentials.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/sit-hvlab/session-gateway/internal/domain/session"
	"github.com/sit-hvlab/session-gateway/internal/ports"
)

// Config holds the strategy's wiring.
type Config struct {
	Backend ports.BackendClient

	// LoginURL and LogoutURL are the backend-hosted provider redirects
	// (typically <backend>/lti/staff/login and <backend>/lti/staff/logout).
	LoginURL  string
	LogoutURL string

	Logger *slog.Logger
}

// Strategy implements ports.SsoStrategy via the backend exchange endpoint.
// Each code/state pair is exchanged at most once: the attempt is latched
// before the network call starts and never reset, so a duplicate delivery of
// the same callback cannot trigger a second exchange.
type Strategy struct {
	backend   ports.BackendClient
	loginURL  string
	logoutURL string
	logger    *slog.Logger

	mu        sync.Mutex
	attempted map[string]struct{}
}

// New validates the config and constructs a Strategy.
func New(cfg Config) (*Strategy, error) {
	if cfg.Backend == nil {
		return nil, errors.New("backend client is required")
	}
	if cfg.LoginURL == "" {
		return nil, errors.New("login URL is required")
	}
	if cfg.LogoutURL == "" {
		return nil, errors.New("logout URL is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Strategy{
		backend:   cfg.Backend,
		loginURL:  cfg.LoginURL,
		logoutURL: cfg.LogoutURL,
		logger:    logger,
		attempted: map[string]struct{}{},
	}, nil
}

func (s *Strategy) BeginSignIn(_ context.Context) (string, error) {
	return s.loginURL, nil
}

func (s *Strategy) CompleteIfCallback(ctx context.Context, u *url.URL) (*ports.SsoResult, error) {
	cb := session.ParseCallback(u)

	if provErr := cb.ProviderError(); provErr != nil {
		return nil, provErr
	}
	if !cb.HasCodePayload() {
		return nil, nil
	}

	if !s.latch(cb.Code, cb.State) {
		s.logger.WarnContext(ctx, "duplicate exchange attempt ignored", "state", cb.State)
		return nil, nil
	}

	result, err := s.backend.ExchangeStaffCode(ctx, cb.Code, cb.State)
	if err != nil {
		return nil, fmt.Errorf("exchange staff code: %w", err)
	}

	return &ports.SsoResult{User: result.User, Claims: result.Claims}, nil
}

func (s *Strategy) SignOut(_ context.Context) (string, error) {
	return s.logoutURL, nil
}

// latch records the attempt and reports whether this caller won it.
func (s *Strategy) latch(code, state string) bool {
	key := strings.Join([]string{code, state}, "|")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, done := s.attempted[key]; done {
		return false
	}
	s.attempted[key] = struct{}{}
	return true
}
