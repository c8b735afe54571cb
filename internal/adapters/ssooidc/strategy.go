package ssooidc

// Package ssooidc implements the delegated-SDK staff SSO strategy: the
// gateway completes the OIDC redirect itself using go-oidc, verifies the ID
// token, and exposes the raw claims for restriction evaluation.

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/sit-hvlab/session-gateway/internal/domain/session"
	"github.com/sit-hvlab/session-gateway/internal/ports"
)

// Config holds configuration for the OIDC strategy.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scope        string
	DiscoveryURL string
	LogoutURL    string
	HTTPClient   *http.Client // optional, defaults to a 30s-timeout client
}

// Strategy implements ports.SsoStrategy against an OIDC provider. It keeps
// the pending state/nonce for the single principal this gateway serves and
// latches each code/state pair so a duplicate callback delivery never
// triggers a second token exchange.
type Strategy struct {
	config    *oauth2.Config
	verifier  *gooidc.IDTokenVerifier
	logoutURL string

	mu           sync.Mutex
	pendingState string
	pendingNonce string
	attempted    map[string]struct{}
}

// New performs OIDC discovery and constructs the strategy.
func New(cfg Config) (*Strategy, error) {
	if cfg.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if cfg.ClientSecret == "" {
		return nil, errors.New("client secret is required")
	}
	if cfg.RedirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}
	if cfg.DiscoveryURL == "" {
		return nil, errors.New("discovery URL is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
	issuer := strings.TrimSuffix(cfg.DiscoveryURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	provider, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}

	scope := cfg.Scope
	if scope == "" {
		scope = "openid profile email"
	}

	return &Strategy{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       strings.Fields(scope),
			Endpoint:     provider.Endpoint(),
		},
		verifier:  provider.Verifier(&gooidc.Config{ClientID: cfg.ClientID}),
		logoutURL: cfg.LogoutURL,
		attempted: map[string]struct{}{},
	}, nil
}

func (s *Strategy) BeginSignIn(_ context.Context) (string, error) {
	state, err := randomString(32)
	if err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	nonce, err := randomString(32)
	if err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	s.mu.Lock()
	s.pendingState = state
	s.pendingNonce = nonce
	s.mu.Unlock()

	authURL := s.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("nonce", nonce),
		oauth2.SetAuthURLParam("response_type", "code"),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
	return authURL, nil
}

func (s *Strategy) CompleteIfCallback(ctx context.Context, u *url.URL) (*ports.SsoResult, error) {
	cb := session.ParseCallback(u)

	if provErr := cb.ProviderError(); provErr != nil {
		return nil, provErr
	}
	if !cb.HasCodePayload() {
		return nil, nil
	}

	nonce, duplicate, err := s.claimAttempt(cb.Code, cb.State)
	if err != nil {
		return nil, err
	}
	if duplicate {
		return nil, nil
	}

	token, err := s.config.Exchange(ctx, cb.Code)
	if err != nil {
		return nil, fmt.Errorf("%w: exchange code: %w", session.ErrValidationFailed, err)
	}

	rawID, ok := token.Extra("id_token").(string)
	if !ok || rawID == "" {
		return nil, fmt.Errorf("%w: missing id_token in token response", session.ErrValidationFailed)
	}
	idToken, err := s.verifier.Verify(ctx, rawID)
	if err != nil {
		return nil, fmt.Errorf("%w: verify id_token: %w", session.ErrValidationFailed, err)
	}

	var claims map[string]any
	if claimsErr := idToken.Claims(&claims); claimsErr != nil {
		return nil, fmt.Errorf("%w: parse claims: %w", session.ErrValidationFailed, claimsErr)
	}
	if tokenNonce, _ := claims["nonce"].(string); nonce != "" && tokenNonce != nonce {
		return nil, fmt.Errorf("%w: nonce mismatch", session.ErrValidationFailed)
	}

	return &ports.SsoResult{User: session.UserFromClaims(claims), Claims: claims}, nil
}

// SignOut returns the provider logout URL. The provider's own session cache
// is left alone; clearing it is the provider's concern.
func (s *Strategy) SignOut(_ context.Context) (string, error) {
	if s.logoutURL == "" {
		return "", errors.New("logout URL is not configured")
	}
	return s.logoutURL, nil
}

// claimAttempt validates the callback state against the pending sign-in and
// latches the code/state pair before any network call. It returns the nonce
// to verify against, or duplicate=true when this pair was already attempted,
// or an error when the state does not match a sign-in this gateway started.
func (s *Strategy) claimAttempt(code, state string) (nonce string, duplicate bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := code + "|" + state
	if _, done := s.attempted[key]; done {
		return "", true, nil
	}
	if s.pendingState == "" || state != s.pendingState {
		return "", false, fmt.Errorf("%w: state mismatch", session.ErrValidationFailed)
	}
	s.attempted[key] = struct{}{}
	nonce = s.pendingNonce
	s.pendingState = ""
	s.pendingNonce = ""
	return nonce, false, nil
}

// randomString generates a cryptographically secure URL-safe random string.
func randomString(length int) (string, error) {
	b := make([]byte, (length*3+3)/4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	s := base64.RawURLEncoding.EncodeToString(b)
	if len(s) > length {
		s = s[:length]
	}
	return s, nil
}
