package config

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// HomeURL is where authenticated users land.
	HomeURL string `env:"APP_HOME_URL" envDefault:"/home"`

	// SessionRequiredURL is where users without a valid launch land.
	SessionRequiredURL string `env:"APP_SESSION_REQUIRED_URL" envDefault:"/lti-required"`

	// RootURL is the application root.
	RootURL string `env:"APP_ROOT_URL" envDefault:"/"`

	// StaffSignInURL is the staff sign-in page.
	StaffSignInURL string `env:"APP_STAFF_SIGNIN_URL" envDefault:"/staff"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	if h.RootURL == "" {
		h.RootURL = "/"
	}
	if h.HomeURL == "" {
		h.HomeURL = h.RootURL
	}
	if h.SessionRequiredURL == "" {
		h.SessionRequiredURL = h.RootURL
	}
	if h.StaffSignInURL == "" {
		h.StaffSignInURL = h.RootURL
	}
}
