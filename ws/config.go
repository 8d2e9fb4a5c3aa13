package ws

import (
	"net/http"
	"time"

	"github.com/kbukum/reqkit/req"
)

const (
	defaultHandshakeTimeout = 10 * time.Second
	defaultCloseGrace       = 5 * time.Second
	defaultWriteTimeout     = 10 * time.Second
)

// Config configures a websocket session.
type Config struct {
	// HandshakeTimeout bounds the opening handshake. Defaults to 10s.
	HandshakeTimeout time.Duration `yaml:"handshake_timeout" mapstructure:"handshake_timeout"`

	// CloseGrace bounds how long the closing handshake waits for the
	// peer to acknowledge a close frame. Defaults to 5s.
	CloseGrace time.Duration `yaml:"close_grace" mapstructure:"close_grace"`

	// WriteTimeout bounds individual frame writes. Defaults to 10s.
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`

	// ReadLimit caps the size of an inbound frame. Zero means no limit.
	// An oversized frame is a protocol error and closes the session.
	ReadLimit int64 `yaml:"read_limit" mapstructure:"read_limit"`

	// Subprotocols are offered during the handshake.
	Subprotocols []string `yaml:"subprotocols" mapstructure:"subprotocols"`

	// TLS configures the TLS context for wss targets.
	TLS *req.TLSConfig `yaml:"tls" mapstructure:"tls"`

	// Header holds extra handshake headers (auth, origin).
	Header http.Header `yaml:"-" mapstructure:"-"`

	// OnPing, when set, is invoked for every inbound ping in addition
	// to the automatic pong reply.
	OnPing func(data []byte) `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = defaultHandshakeTimeout
	}
	if c.CloseGrace <= 0 {
		c.CloseGrace = defaultCloseGrace
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = defaultWriteTimeout
	}
}
