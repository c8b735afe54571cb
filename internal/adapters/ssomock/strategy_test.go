package ssomock

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeginSignInPointsAtOwnCallback(t *testing.T) {
	s, err := New(Config{UserID: "dev-1", Email: "dev@x.test"})
	require.NoError(t, err)

	target, err := s.BeginSignIn(context.Background())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(target, "/oauth2/callback?code=dev&state="))
}

func TestCompleteIfCallbackReturnsConfiguredIdentity(t *testing.T) {
	s, err := New(Config{
		UserID: "dev-1",
		Email:  "dev@x.test",
		Name:   "Dev Staff",
		Groups: []string{"staff-group"},
		Roles:  []string{"staff"},
	})
	require.NoError(t, err)

	u, _ := url.Parse("/oauth2/callback?code=dev&state=whatever")
	result, err := s.CompleteIfCallback(context.Background(), u)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "dev-1", result.User.ID)
	assert.Equal(t, "dev@x.test", result.User.Email)
	assert.Equal(t, "Dev Staff", result.User.Name)
	assert.Equal(t, []any{"staff-group"}, result.Claims["groups"])
	assert.Equal(t, []any{"staff"}, result.Claims["roles"])
}

func TestCompleteIfCallbackIgnoresNonCallback(t *testing.T) {
	s, err := New(Config{UserID: "dev-1", Email: "dev@x.test"})
	require.NoError(t, err)

	u, _ := url.Parse("/entry?session_token=tok")
	result, err := s.CompleteIfCallback(context.Background(), u)
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestNewRequiresIdentity(t *testing.T) {
	_, err := New(Config{Email: "dev@x.test"})
	require.Error(t, err)

	_, err = New(Config{UserID: "dev-1"})
	require.Error(t, err)
}
