package nethttp

import (
	"context"

	"github.com/kbukum/reqkit/component"
	"github.com/kbukum/reqkit/req"
)

// Component wraps a Backend with lifecycle management for applications
// that start and stop their infrastructure as a unit. The backend is
// created lazily in Start.
type Component struct {
	config  req.Config
	backend *Backend
}

// compile-time assertions
var _ component.Component = (*Component)(nil)
var _ component.Describable = (*Component)(nil)

// NewComponent creates a new backend component.
func NewComponent(cfg req.Config) *Component {
	return &Component{config: cfg}
}

// Name returns the component name.
func (c *Component) Name() string {
	if c.config.Name != "" {
		return c.config.Name
	}
	return "nethttp"
}

// Start initializes the backend.
func (c *Component) Start(_ context.Context) error {
	b, err := New(c.config)
	if err != nil {
		return err
	}
	c.backend = b
	return nil
}

// Stop closes the backend and releases pooled connections.
func (c *Component) Stop(ctx context.Context) error {
	if c.backend != nil {
		return c.backend.Close(ctx)
	}
	return nil
}

// Health returns the backend health status.
func (c *Component) Health(ctx context.Context) component.Health {
	status := component.StatusHealthy
	if c.backend == nil || !c.backend.IsAvailable(ctx) {
		status = component.StatusUnhealthy
	}
	return component.Health{Name: c.Name(), Status: status}
}

// Describe returns component description for startup summaries.
func (c *Component) Describe() component.Description {
	return component.Description{
		Name:    c.Name(),
		Type:    "http-backend",
		Details: c.config.BaseURL,
	}
}

// Backend returns the underlying backend. Must be called after Start.
func (c *Component) Backend() *Backend {
	return c.backend
}
