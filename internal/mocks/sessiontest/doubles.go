package sessiontest

// Package sessiontest contains simple hand-written test doubles for the
// session gateway ports. These are lightweight and suitable for unit tests
// without codegen.

import (
	"context"
	"net/url"
	"sync"

	"github.com/sit-hvlab/session-gateway/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.ArtifactStore = (*MemoryArtifactStore)(nil)
	_ ports.BackendClient = (*MockBackendClient)(nil)
	_ ports.SsoStrategy   = (*MockSsoStrategy)(nil)
)

// MemoryArtifactStore is an in-memory ports.ArtifactStore.
type MemoryArtifactStore struct {
	mu   sync.Mutex
	data map[string]string
}

// NewMemoryArtifactStore creates an empty store.
func NewMemoryArtifactStore() *MemoryArtifactStore {
	return &MemoryArtifactStore{data: map[string]string{}}
}

func (s *MemoryArtifactStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return "", ports.ErrNotFound
	}
	return v, nil
}

func (s *MemoryArtifactStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *MemoryArtifactStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

// Snapshot returns a copy of the stored data for assertions.
func (s *MemoryArtifactStore) Snapshot() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.data))
	for k, v := range s.data {
		out[k] = v
	}
	return out
}

// MockBackendClient simulates the LTI backend with func fields and call
// counters. A nil func field makes the call succeed with zero values.
type MockBackendClient struct {
	ValidateFunc func(ctx context.Context, token string) (ports.ValidateResult, error)
	RefreshFunc  func(ctx context.Context, token string) error
	ExchangeFunc func(ctx context.Context, code, state string) (ports.ExchangeResult, error)
	LogoutFunc   func(ctx context.Context, token string) error

	mu            sync.Mutex
	validateCalls int
	refreshCalls  int
	exchangeCalls int
	logoutCalls   int
}

// Counter accessors are locked so tests can assert against a running
// refresh loop without tripping the race detector.

func (m *MockBackendClient) ValidateCalls() int { m.mu.Lock(); defer m.mu.Unlock(); return m.validateCalls }
func (m *MockBackendClient) RefreshCalls() int  { m.mu.Lock(); defer m.mu.Unlock(); return m.refreshCalls }
func (m *MockBackendClient) ExchangeCalls() int { m.mu.Lock(); defer m.mu.Unlock(); return m.exchangeCalls }
func (m *MockBackendClient) LogoutCalls() int   { m.mu.Lock(); defer m.mu.Unlock(); return m.logoutCalls }

func (m *MockBackendClient) ValidateSession(ctx context.Context, token string) (ports.ValidateResult, error) {
	m.mu.Lock()
	m.validateCalls++
	m.mu.Unlock()
	if m.ValidateFunc != nil {
		return m.ValidateFunc(ctx, token)
	}
	return ports.ValidateResult{}, nil
}

func (m *MockBackendClient) RefreshSession(ctx context.Context, token string) error {
	m.mu.Lock()
	m.refreshCalls++
	m.mu.Unlock()
	if m.RefreshFunc != nil {
		return m.RefreshFunc(ctx, token)
	}
	return nil
}

func (m *MockBackendClient) ExchangeStaffCode(ctx context.Context, code, state string) (ports.ExchangeResult, error) {
	m.mu.Lock()
	m.exchangeCalls++
	m.mu.Unlock()
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, code, state)
	}
	return ports.ExchangeResult{}, nil
}

func (m *MockBackendClient) LTILogout(ctx context.Context, token string) error {
	m.mu.Lock()
	m.logoutCalls++
	m.mu.Unlock()
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, token)
	}
	return nil
}

// MockSsoStrategy simulates a staff SSO strategy.
type MockSsoStrategy struct {
	BeginFunc    func(ctx context.Context) (string, error)
	CompleteFunc func(ctx context.Context, u *url.URL) (*ports.SsoResult, error)
	SignOutFunc  func(ctx context.Context) (string, error)

	mu            sync.Mutex
	BeginCalls    int
	CompleteCalls int
	SignOutCalls  int
}

func (m *MockSsoStrategy) BeginSignIn(ctx context.Context) (string, error) {
	m.mu.Lock()
	m.BeginCalls++
	m.mu.Unlock()
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return "https://mock-idp/auth", nil
}

func (m *MockSsoStrategy) CompleteIfCallback(ctx context.Context, u *url.URL) (*ports.SsoResult, error) {
	m.mu.Lock()
	m.CompleteCalls++
	m.mu.Unlock()
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, u)
	}
	return nil, nil
}

func (m *MockSsoStrategy) SignOut(ctx context.Context) (string, error) {
	m.mu.Lock()
	m.SignOutCalls++
	m.mu.Unlock()
	if m.SignOutFunc != nil {
		return m.SignOutFunc(ctx)
	}
	return "https://mock-idp/logout", nil
}
