package nethttp

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"

	xproxy "golang.org/x/net/proxy"

	"github.com/kbukum/reqkit/req"
)

// buildTransport constructs the pooled transport from configuration:
// dial/TLS-handshake bounds from the connect timeout, pool caps from
// max connections, TLS context, and the optional proxy.
func buildTransport(cfg req.Config) (*http.Transport, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	dialer := &net.Dialer{Timeout: cfg.ConnectTimeout}
	transport.DialContext = dialer.DialContext
	transport.TLSHandshakeTimeout = cfg.ConnectTimeout

	transport.MaxIdleConns = cfg.MaxConnections
	transport.MaxIdleConnsPerHost = cfg.MaxConnections
	transport.MaxConnsPerHost = cfg.MaxConnections

	if cfg.TLS != nil {
		tlsCfg, err := cfg.TLS.Build()
		if err != nil {
			return nil, err
		}
		if tlsCfg != nil {
			transport.TLSClientConfig = tlsCfg
		}
	}

	if cfg.Proxy != "" {
		if err := applyProxy(transport, cfg.Proxy, dialer); err != nil {
			return nil, err
		}
	}

	return transport, nil
}

// applyProxy wires an http(s) proxy through the standard Proxy hook and
// a socks5 proxy through a replacement dialer.
func applyProxy(transport *http.Transport, proxyAddr string, dialer *net.Dialer) error {
	u, err := url.Parse(proxyAddr)
	if err != nil {
		return fmt.Errorf("nethttp: invalid proxy address: %w", err)
	}

	switch u.Scheme {
	case "http", "https":
		transport.Proxy = http.ProxyURL(u)
		return nil
	case "socks5":
		var auth *xproxy.Auth
		if u.User != nil {
			password, _ := u.User.Password()
			auth = &xproxy.Auth{User: u.User.Username(), Password: password}
		}
		socks, err := xproxy.SOCKS5("tcp", u.Host, auth, dialer)
		if err != nil {
			return fmt.Errorf("nethttp: socks5 proxy: %w", err)
		}
		if cd, ok := socks.(xproxy.ContextDialer); ok {
			transport.DialContext = cd.DialContext
		} else {
			transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
				return socks.Dial(network, addr)
			}
		}
		transport.Proxy = nil
		return nil
	default:
		return fmt.Errorf("nethttp: unsupported proxy scheme %q", u.Scheme)
	}
}

func parseURL(raw string) (*url.URL, error) {
	return url.Parse(raw)
}
