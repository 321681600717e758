package config

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// AppDomain is the origin value state-changing requests must present
	// (Origin, Referer, or Host header). Cross-site submissions fail the
	// CSRF guard before token comparison.
	AppDomain string `env:"APP_DOMAIN" envDefault:"http://localhost:8080"`

	// CookieDomain is the domain for auth cookies.
	// Leave empty to use the request domain.
	CookieDomain string `env:"APP_COOKIE_DOMAIN" envDefault:""`

	// CookieMaxAge is the transport-level lifetime of auth cookies in
	// seconds. Embedded token expiry may be shorter.
	CookieMaxAge int `env:"APP_COOKIE_MAX_AGE" envDefault:"604800"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	if h.Addr == "" {
		h.Addr = ":8080"
	}
	if h.CookieMaxAge <= 0 {
		h.CookieMaxAge = 604800
	}
}
