package req

import (
	"fmt"
	"net/url"
	"time"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultRequestTimeout = 30 * time.Second
	defaultMaxConnections = 100
)

// Config configures a backend. All backends understand the same
// configuration; transport-specific knobs (TLS, proxy) are applied
// where the transport supports them.
type Config struct {
	// Name identifies the backend in logs and metrics. Defaults to the
	// backend implementation name.
	Name string `yaml:"name" mapstructure:"name"`

	// BaseURL is prepended to relative request targets. Absolute
	// targets are sent as-is.
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"omitempty,url"`

	// ConnectTimeout bounds the connection establishment (dial plus
	// TLS handshake). Defaults to 10s.
	ConnectTimeout time.Duration `yaml:"connect_timeout" mapstructure:"connect_timeout"`

	// RequestTimeout is the default per-request read timeout; a
	// request-level timeout overrides it. Defaults to 30s.
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`

	// MaxConnections caps pooled connections per backend. Must be
	// positive. Defaults to 100.
	MaxConnections int `yaml:"max_connections" mapstructure:"max_connections"`

	// Proxy is an optional proxy address: http://, https://, or
	// socks5:// URLs are accepted. Empty disables proxying.
	Proxy string `yaml:"proxy" mapstructure:"proxy"`

	// TLS configures the TLS context for https targets.
	TLS *TLSConfig `yaml:"tls" mapstructure:"tls"`

	// FollowRedirects is the default redirect policy. Defaults to true;
	// individual requests can override it.
	FollowRedirects *bool `yaml:"follow_redirects" mapstructure:"follow_redirects"`

	// Headers are default headers applied to all requests. Request
	// headers with the same name take precedence.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = defaultConnectTimeout
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = defaultRequestTimeout
	}
	if c.MaxConnections <= 0 {
		c.MaxConnections = defaultMaxConnections
	}
	if c.FollowRedirects == nil {
		follow := true
		c.FollowRedirects = &follow
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.MaxConnections <= 0 {
		return fmt.Errorf("reqkit: max_connections must be positive")
	}
	if c.Proxy != "" {
		u, err := url.Parse(c.Proxy)
		if err != nil {
			return fmt.Errorf("reqkit: invalid proxy address: %w", err)
		}
		switch u.Scheme {
		case "http", "https", "socks5":
		default:
			return fmt.Errorf("reqkit: unsupported proxy scheme %q", u.Scheme)
		}
	}
	if c.TLS != nil {
		if err := c.TLS.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Follow resolves the effective redirect policy for a request.
func (c *Config) Follow(override *bool) bool {
	if override != nil {
		return *override
	}
	if c.FollowRedirects != nil {
		return *c.FollowRedirects
	}
	return true
}

// Deadline resolves the effective read timeout for a request:
// per-request overrides the backend default, negative disables.
func (c *Config) Deadline(override time.Duration) time.Duration {
	if override < 0 {
		return 0
	}
	if override > 0 {
		return override
	}
	return c.RequestTimeout
}
