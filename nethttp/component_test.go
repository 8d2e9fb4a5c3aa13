package nethttp

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kbukum/reqkit/component"
	"github.com/kbukum/reqkit/req"
)

func TestComponent_Lifecycle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	c := NewComponent(req.Config{Name: "api", BaseURL: srv.URL})
	if c.Name() != "api" {
		t.Errorf("expected configured name, got %q", c.Name())
	}

	// Unhealthy before Start.
	if h := c.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy before start, got %v", h.Status)
	}

	if err := c.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if h := c.Health(context.Background()); h.Status != component.StatusHealthy {
		t.Errorf("expected healthy after start, got %v", h.Status)
	}

	resp, err := req.Send(context.Background(), c.Backend(), req.Get("/"))
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if got, _ := resp.Body.Get(); got != "ok" {
		t.Errorf("expected ok, got %+v", resp.Body)
	}

	if err := c.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if h := c.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy after stop, got %v", h.Status)
	}
}

func TestComponent_Describe(t *testing.T) {
	c := NewComponent(req.Config{BaseURL: "https://api.example.com"})
	d := c.Describe()
	if d.Type != "http-backend" {
		t.Errorf("unexpected type %q", d.Type)
	}
	if d.Details != "https://api.example.com" {
		t.Errorf("unexpected details %q", d.Details)
	}
	if c.Name() != "nethttp" {
		t.Errorf("expected fallback name, got %q", c.Name())
	}
}

func TestComponent_StartRejectsBadConfig(t *testing.T) {
	c := NewComponent(req.Config{Proxy: "ftp://nope"})
	if err := c.Start(context.Background()); err == nil {
		t.Fatal("expected start to fail on invalid config")
	}
}
