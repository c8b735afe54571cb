package config

import "time"

// BackendConfig contains LTI backend configuration. Timeouts default to the
// values the backend's own clients were tuned against.
type BackendConfig struct {
	// BaseURL is the LTI backend root (e.g., "https://lti.example.edu").
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8000"`

	// ValidateTimeout bounds session-validate and refresh calls.
	ValidateTimeout time.Duration `env:"VALIDATE_TIMEOUT" envDefault:"10s"`

	// ExchangeTimeout bounds the staff code exchange.
	ExchangeTimeout time.Duration `env:"EXCHANGE_TIMEOUT" envDefault:"20s"`

	// LogoutTimeout bounds the best-effort backend logout.
	LogoutTimeout time.Duration `env:"LOGOUT_TIMEOUT" envDefault:"5s"`

	// RefreshInterval is the silent-refresh cadence for LTI sessions.
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL" envDefault:"30m"`
}

// Sanitize applies guardrails to backend configuration values. Unbounded
// network waits would leave the gateway permanently loading, so zero or
// negative timeouts fall back to defaults.
func (b *BackendConfig) Sanitize() {
	if b.ValidateTimeout <= 0 {
		b.ValidateTimeout = 10 * time.Second
	}
	if b.ExchangeTimeout <= 0 {
		b.ExchangeTimeout = 20 * time.Second
	}
	if b.LogoutTimeout <= 0 {
		b.LogoutTimeout = 5 * time.Second
	}
	if b.RefreshInterval <= 0 {
		b.RefreshInterval = 30 * time.Minute
	}
}

// StaffLoginURL is the backend-hosted provider redirect that initiates SSO.
func (b *BackendConfig) StaffLoginURL() string { return b.BaseURL + "/lti/staff/login" }

// StaffLogoutURL is the backend-hosted provider-side sign-out redirect.
func (b *BackendConfig) StaffLogoutURL() string { return b.BaseURL + "/lti/staff/logout" }
