package config

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	var cfg AppConfig
	require.NoError(t, env.Parse(&cfg))
	cfg.Sanitize()

	assert.Equal(t, SsoModeExchange, cfg.Auth.Mode)
	assert.Equal(t, "groups", cfg.Auth.Restrictions.GroupsClaim)
	assert.Equal(t, "roles", cfg.Auth.Restrictions.RolesClaim)

	assert.Equal(t, "http://localhost:8000", cfg.Backend.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.Backend.ValidateTimeout)
	assert.Equal(t, 20*time.Second, cfg.Backend.ExchangeTimeout)
	assert.Equal(t, 5*time.Second, cfg.Backend.LogoutTimeout)
	assert.Equal(t, 30*time.Minute, cfg.Backend.RefreshInterval)

	assert.Equal(t, StoreBackendFile, cfg.Store.Backend)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "/home", cfg.HTTP.HomeURL)
	assert.Equal(t, "/lti-required", cfg.HTTP.SessionRequiredURL)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SSO_MODE", "oidc")
	t.Setenv("OIDC_CLIENT_ID", "client-1")
	t.Setenv("STAFF_ALLOWED_EMAIL_DOMAIN", "university.edu")
	t.Setenv("STAFF_ALLOWED_GROUP_IDS", "g1;g2")
	t.Setenv("BACKEND_BASE_URL", "https://lti.university.edu")
	t.Setenv("BACKEND_VALIDATE_TIMEOUT", "3s")
	t.Setenv("STORE_BACKEND", "redis")
	t.Setenv("STORE_REDIS_PREFIX", "station7:")

	var cfg AppConfig
	require.NoError(t, env.Parse(&cfg))
	cfg.Sanitize()

	assert.Equal(t, SsoModeOIDC, cfg.Auth.Mode)
	assert.Equal(t, "client-1", cfg.Auth.OIDC.ClientID)
	assert.Equal(t, "university.edu", cfg.Auth.Restrictions.AllowedEmailDomain)
	assert.Equal(t, []string{"g1", "g2"}, cfg.Auth.Restrictions.AllowedGroupIDs)
	assert.Equal(t, "https://lti.university.edu", cfg.Backend.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Backend.ValidateTimeout)
	assert.Equal(t, StoreBackendRedis, cfg.Store.Backend)
	assert.Equal(t, "station7:", cfg.Store.RedisPrefix)
}

func TestInvalidSsoModeRejected(t *testing.T) {
	t.Setenv("SSO_MODE", "carrier-pigeon")

	var cfg AppConfig
	require.Error(t, env.Parse(&cfg))
}

func TestInvalidStoreBackendRejected(t *testing.T) {
	t.Setenv("STORE_BACKEND", "clay-tablet")

	var cfg AppConfig
	require.Error(t, env.Parse(&cfg))
}

func TestSanitizeClampsTimeouts(t *testing.T) {
	cfg := AppConfig{
		Backend: BackendConfig{
			ValidateTimeout: -1 * time.Second,
			RefreshInterval: 0,
		},
	}
	cfg.Sanitize()

	assert.Equal(t, 10*time.Second, cfg.Backend.ValidateTimeout)
	assert.Equal(t, 30*time.Minute, cfg.Backend.RefreshInterval)
}

func TestSanitizeFillsEmptyDestinations(t *testing.T) {
	cfg := AppConfig{}
	cfg.Sanitize()

	assert.Equal(t, "/", cfg.HTTP.RootURL)
	assert.Equal(t, "/", cfg.HTTP.HomeURL)
	assert.Equal(t, "/", cfg.HTTP.SessionRequiredURL)
	assert.Equal(t, "/", cfg.HTTP.StaffSignInURL)
}

func TestDevModeFromNodeEnv(t *testing.T) {
	t.Setenv("NODE_ENV", "development")

	cfg := AppConfig{}
	cfg.Sanitize()
	assert.True(t, cfg.IsDev)
}

func TestBackendStaffURLs(t *testing.T) {
	b := BackendConfig{BaseURL: "https://lti.university.edu"}
	assert.Equal(t, "https://lti.university.edu/lti/staff/login", b.StaffLoginURL())
	assert.Equal(t, "https://lti.university.edu/lti/staff/logout", b.StaffLogoutURL())
}
