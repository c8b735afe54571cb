package config

import (
	"fmt"
	"strings"
)

// SsoMode selects the staff SSO integration style.
type SsoMode string

const (
	// SsoModeExchange relays the authorization code to the backend's
	// exchange endpoint.
	SsoModeExchange SsoMode = "exchange"
	// SsoModeOIDC completes the redirect locally via the OIDC SDK.
	SsoModeOIDC SsoMode = "oidc"
	// SsoModeMock signs in a config-driven identity (development only).
	SsoModeMock SsoMode = "mock"
	// SsoModeDisabled turns staff sign-in off entirely.
	SsoModeDisabled SsoMode = "disabled"
)

// UnmarshalText implements encoding.TextUnmarshaler for SsoMode.
func (m *SsoMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "exchange", "oidc", "mock", "disabled":
		*m = SsoMode(v)
		return nil
	default:
		return fmt.Errorf("invalid SsoMode: %q (valid options: exchange, oidc, mock, disabled)", v)
	}
}

// OIDCConfig contains OIDC provider configuration (used when Mode=oidc).
type OIDCConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"  envDefault:"http://localhost:8080/oauth2/callback"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
	LogoutURL    string `env:"LOGOUT_URL"`
}

// RestrictionConfig is the staff access policy. Empty lists disable the
// corresponding rule.
type RestrictionConfig struct {
	// AllowedEmailDomain restricts staff sign-ins to one email domain.
	// A leading "@" is tolerated.
	AllowedEmailDomain string `env:"ALLOWED_EMAIL_DOMAIN" envDefault:""`

	// AllowedGroupIDs is the provider group IDs allowed to sign in.
	AllowedGroupIDs []string `env:"ALLOWED_GROUP_IDS" envDefault:"" envSeparator:";"`

	// AllowedRoles is the provider roles allowed to sign in.
	AllowedRoles []string `env:"ALLOWED_ROLES" envDefault:"" envSeparator:";"`

	// GroupsClaim and RolesClaim are JMESPath expressions selecting the
	// group/role claims from the provider's token, for providers that nest
	// them in non-standard places.
	GroupsClaim string `env:"GROUPS_CLAIM" envDefault:"groups"`
	RolesClaim  string `env:"ROLES_CLAIM"  envDefault:"roles"`
}

// MockSsoConfig controls the mock sign-in identity (used when Mode=mock).
type MockSsoConfig struct {
	UserID string   `env:"USER_ID" envDefault:"dev-staff"`
	Email  string   `env:"EMAIL"   envDefault:"dev-staff@example.com"`
	Name   string   `env:"NAME"    envDefault:"Dev Staff"`
	Groups []string `env:"GROUPS"  envDefault:""                     envSeparator:";"`
	Roles  []string `env:"ROLES"   envDefault:"staff"                envSeparator:";"`
}

// AuthConfig groups all staff-authentication configuration.
type AuthConfig struct {
	// Mode determines which SSO strategy to use.
	Mode SsoMode `env:"SSO_MODE" envDefault:"exchange"`

	// OIDC configuration (used when Mode=oidc).
	OIDC OIDCConfig `envPrefix:"OIDC_"`

	// Restrictions applied to every staff sign-in attempt.
	Restrictions RestrictionConfig `envPrefix:"STAFF_"`

	// Mock configuration (used when Mode=mock).
	Mock MockSsoConfig `envPrefix:"MOCK_SSO_"`
}
