package ssomock

// Package ssomock provides a config-driven SSO strategy for local
// development. It short-circuits the provider redirect by pointing the
// sign-in URL back at our own callback with a generated code.

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"github.com/google/uuid"

	"github.com/sit-hvlab/session-gateway/internal/domain/session"
	"github.com/sit-hvlab/session-gateway/internal/ports"
)

// Config controls the identity the mock strategy signs in.
type Config struct {
	UserID string
	Email  string
	Name   string
	Groups []string
	Roles  []string
}

// Strategy implements ports.SsoStrategy for development.
type Strategy struct {
	cfg Config

	mu           sync.Mutex
	pendingState string
}

// New constructs a mock strategy from Config.
func New(cfg Config) (*Strategy, error) {
	if cfg.UserID == "" {
		return nil, errors.New("mock sso: UserID is required")
	}
	if cfg.Email == "" {
		return nil, errors.New("mock sso: Email is required")
	}
	return &Strategy{cfg: cfg}, nil
}

func (s *Strategy) BeginSignIn(_ context.Context) (string, error) {
	state := uuid.NewString()
	s.mu.Lock()
	s.pendingState = state
	s.mu.Unlock()
	return "/oauth2/callback?code=dev&state=" + state, nil
}

func (s *Strategy) CompleteIfCallback(_ context.Context, u *url.URL) (*ports.SsoResult, error) {
	cb := session.ParseCallback(u)
	if provErr := cb.ProviderError(); provErr != nil {
		return nil, provErr
	}
	if !cb.HasCodePayload() {
		return nil, nil
	}

	claims := map[string]any{
		"sub":    s.cfg.UserID,
		"email":  s.cfg.Email,
		"name":   s.cfg.Name,
		"groups": toAny(s.cfg.Groups),
		"roles":  toAny(s.cfg.Roles),
	}
	return &ports.SsoResult{User: session.UserFromClaims(claims), Claims: claims}, nil
}

func (s *Strategy) SignOut(_ context.Context) (string, error) {
	return "/", nil
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
