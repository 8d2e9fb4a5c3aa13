package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad_YAMLFile(t *testing.T) {
	path := writeConfigFile(t, `
name: mytool
environment: staging
clients:
  api:
    base_url: https://api.example.com
    request_timeout: 5s
`)

	var cfg ClientsConfig
	if err := Load("mytool", &cfg, WithConfigFile(path)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Name != "mytool" || cfg.Environment != "staging" {
		t.Errorf("base section wrong: %+v", cfg.BaseConfig)
	}

	api, err := cfg.Client("api")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.BaseURL != "https://api.example.com" {
		t.Errorf("expected base url, got %q", api.BaseURL)
	}
	if api.RequestTimeout != 5*time.Second {
		t.Errorf("expected 5s, got %v", api.RequestTimeout)
	}
	// Defaults filled in for fields the file omitted.
	if api.MaxConnections != 100 {
		t.Errorf("expected defaulted max connections, got %d", api.MaxConnections)
	}
	if api.Name != "api" {
		t.Errorf("profile must inherit its map key as name, got %q", api.Name)
	}
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	path := writeConfigFile(t, `
name: mytool
clients:
  api:
    base_url: https://file.example.com
`)
	t.Setenv("CLIENTS_API_PROXY", "socks5://127.0.0.1:9050")

	var cfg ClientsConfig
	if err := Load("mytool", &cfg, WithConfigFile(path)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	api, err := cfg.Client("api")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.Proxy != "socks5://127.0.0.1:9050" {
		t.Errorf("env override lost, got %q", api.Proxy)
	}
	if api.BaseURL != "https://file.example.com" {
		t.Errorf("file value lost, got %q", api.BaseURL)
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	// Missing name fails the config's own Validate hook.
	path := writeConfigFile(t, `
environment: production
`)
	var cfg ClientsConfig
	err := Load("mytool", &cfg, WithConfigFile(path))
	if err == nil || !strings.Contains(err.Error(), "name is required") {
		t.Fatalf("expected name validation error, got %v", err)
	}
}

func TestLoad_UnknownClientProfile(t *testing.T) {
	path := writeConfigFile(t, `
name: mytool
clients:
  api:
    base_url: https://api.example.com
`)
	var cfg ClientsConfig
	if err := Load("mytool", &cfg, WithConfigFile(path)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := cfg.Client("billing"); err == nil {
		t.Error("expected error for unknown profile")
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("CLIENTS_API_BASE_URL=https://env.example.com\n"), 0o644); err != nil {
		t.Fatalf("writing .env: %v", err)
	}
	confPath := writeConfigFile(t, `
name: mytool
clients:
  api: {}
`)

	var cfg ClientsConfig
	if err := Load("mytool", &cfg, WithConfigFile(confPath), WithEnvFile(envPath)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	api, err := cfg.Client("api")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.BaseURL != "https://env.example.com" {
		t.Errorf("expected .env value, got %q", api.BaseURL)
	}
}

func TestDeclaredKeys_ResolveVariants(t *testing.T) {
	ks := declaredKeys(&ClientsConfig{})

	for _, key := range []string{
		"name",
		"logging.level",
		"clients.api.proxy",
		"clients.api.base_url",
		"clients.api.headers.accept",
	} {
		if !ks.contains(key) {
			t.Errorf("expected %q to resolve", key)
		}
	}
	// Spellings that would plant a scalar inside the clients map must
	// not resolve; they break unmarshalling of the whole section.
	for _, key := range []string{
		"clients.api_proxy",
		"clients.api.base.url",
		"path",
	} {
		if ks.contains(key) {
			t.Errorf("expected %q to be rejected", key)
		}
	}
}

func TestLoad_UnrelatedEnvIgnored(t *testing.T) {
	// A multi-word variable that shares a prefix with a declared map
	// section must not leak into the key space.
	t.Setenv("CLIENTS_API_PROXY_AUTH_SECRET_FILE", "/run/secret")

	path := writeConfigFile(t, `
name: mytool
clients:
  api:
    base_url: https://api.example.com
`)
	var cfg ClientsConfig
	if err := Load("mytool", &cfg, WithConfigFile(path)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	api, err := cfg.Client("api")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.Proxy != "" {
		t.Errorf("expected untouched proxy, got %q", api.Proxy)
	}
}

type fakeFS struct {
	files map[string]bool
}

func (f fakeFS) Exists(path string) bool { return f.files[path] }
func (f fakeFS) LoadEnv(string) error    { return nil }

func TestLoad_SearchOrder(t *testing.T) {
	// None of the standard locations exist; loading still succeeds with
	// environment-only configuration.
	t.Setenv("NAME", "envonly")

	var cfg BaseConfig
	err := Load("mytool", &cfg, WithFileSystem(fakeFS{files: map[string]bool{}}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Name != "envonly" {
		t.Errorf("expected env-provided name, got %q", cfg.Name)
	}
}
