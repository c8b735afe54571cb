package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sit-hvlab/session-gateway/internal/domain/session"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(ClientConfig{BaseURL: srv.URL})
	require.NoError(t, err)
	return c, srv
}

func TestValidateSessionSuccess(t *testing.T) {
	var gotAuth string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/lti/session/validate", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"user": {"user_id": "u1", "name": "Student One", "email": "s1@x.test", "picture": "p"},
			"course": {"course_id": "c1", "course_title": "HV101"}
		}`))
	}))

	result, err := c.ValidateSession(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Equal(t, session.User{ID: "u1", Email: "s1@x.test", Name: "Student One", Picture: "p"}, result.User)
	assert.Equal(t, session.Course{ID: "c1", Title: "HV101"}, result.Course)
}

func TestValidateSessionSubFallback(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"user": {"sub": "sub-1"}, "course": {}}`))
	}))

	result, err := c.ValidateSession(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "sub-1", result.User.ID)
}

func TestValidateSessionRejection(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"detail": "Session expired"}`, http.StatusUnauthorized)
	}))

	_, err := c.ValidateSession(context.Background(), "stale")
	assert.ErrorIs(t, err, session.ErrValidationFailed)
}

func TestValidateSessionNetworkError(t *testing.T) {
	c, srv := newTestClient(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	_, err := c.ValidateSession(context.Background(), "tok")
	assert.ErrorIs(t, err, session.ErrValidationFailed)
}

func TestValidateSessionTimeout(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(ClientConfig{BaseURL: srv.URL, ValidateTimeout: 50 * time.Millisecond})
	require.NoError(t, err)

	_, err = c.ValidateSession(context.Background(), "tok")
	assert.ErrorIs(t, err, session.ErrValidationFailed)
}

func TestRefreshSessionIgnoresBody(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/lti/session/refresh", r.URL.Path)
		_, _ = w.Write([]byte("not json at all"))
	}))

	require.NoError(t, c.RefreshSession(context.Background(), "tok-1"))
}

func TestExchangeStaffCodeSuccess(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/lti/staff/exchange", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"user": {"user_id": "staff-1", "email": "prof@x.test", "name": "Prof"},
			"claims": {"groups": ["staff-group"]}
		}`))
	}))

	result, err := c.ExchangeStaffCode(context.Background(), "code-1", "state-1")
	require.NoError(t, err)
	assert.Equal(t, "staff-1", result.User.ID)
	assert.Equal(t, []any{"staff-group"}, result.Claims["groups"])
	// Sparse fields are normalized on the staff path.
	assert.NotEmpty(t, result.User.Picture)
}

func TestExchangeStaffCodeSurfacesDetail(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail": "Code already redeemed"}`))
	}))

	_, err := c.ExchangeStaffCode(context.Background(), "code-1", "state-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, session.ErrValidationFailed)
	assert.Contains(t, err.Error(), "Code already redeemed")
}

func TestExchangeStaffCodeRequiresCodeAndState(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("no request expected")
	}))

	_, err := c.ExchangeStaffCode(context.Background(), "", "state")
	assert.ErrorIs(t, err, session.ErrMissingCredential)

	_, err = c.ExchangeStaffCode(context.Background(), "code", "")
	assert.ErrorIs(t, err, session.ErrMissingCredential)
}

func TestLTILogout(t *testing.T) {
	var gotAuth string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/lti/logout", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))

	require.NoError(t, c.LTILogout(context.Background(), "tok-1"))
	assert.Equal(t, "Bearer tok-1", gotAuth)
}

func TestLTILogoutFailureReported(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	assert.Error(t, c.LTILogout(context.Background(), "tok-1"))
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(ClientConfig{})
	require.Error(t, err)
}
