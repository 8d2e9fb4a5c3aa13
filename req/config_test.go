package req

import (
	"testing"
	"time"
)

func TestConfig_ApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.ConnectTimeout != 10*time.Second {
		t.Errorf("expected 10s connect timeout, got %v", cfg.ConnectTimeout)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("expected 30s request timeout, got %v", cfg.RequestTimeout)
	}
	if cfg.MaxConnections != 100 {
		t.Errorf("expected 100 max connections, got %d", cfg.MaxConnections)
	}
	if cfg.FollowRedirects == nil || !*cfg.FollowRedirects {
		t.Error("expected redirects followed by default")
	}
}

func TestConfig_ApplyDefaults_KeepsExplicitValues(t *testing.T) {
	follow := false
	cfg := Config{
		RequestTimeout:  5 * time.Second,
		MaxConnections:  7,
		FollowRedirects: &follow,
	}
	cfg.ApplyDefaults()

	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("explicit timeout overwritten: %v", cfg.RequestTimeout)
	}
	if cfg.MaxConnections != 7 {
		t.Errorf("explicit max connections overwritten: %d", cfg.MaxConnections)
	}
	if *cfg.FollowRedirects {
		t.Error("explicit redirect policy overwritten")
	}
}

func TestConfig_Validate_Proxy(t *testing.T) {
	cfg := Config{MaxConnections: 1, Proxy: "socks5://127.0.0.1:1080"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("socks5 proxy must validate: %v", err)
	}

	cfg.Proxy = "ftp://example.com"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unsupported proxy scheme")
	}

	cfg.Proxy = ""
	cfg.MaxConnections = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for non-positive max connections")
	}
}

func TestConfig_Deadline(t *testing.T) {
	cfg := Config{RequestTimeout: 30 * time.Second}

	if d := cfg.Deadline(0); d != 30*time.Second {
		t.Errorf("zero override must use the backend default, got %v", d)
	}
	if d := cfg.Deadline(5 * time.Second); d != 5*time.Second {
		t.Errorf("positive override must win, got %v", d)
	}
	if d := cfg.Deadline(-1); d != 0 {
		t.Errorf("negative override must disable the deadline, got %v", d)
	}
}

func TestConfig_Follow(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if !cfg.Follow(nil) {
		t.Error("expected default follow=true")
	}
	off := false
	if cfg.Follow(&off) {
		t.Error("request override must win")
	}
}
