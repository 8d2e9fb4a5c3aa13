package config

import (
	"fmt"

	"github.com/kbukum/reqkit/logger"
	"github.com/kbukum/reqkit/req"
)

// BaseConfig holds the fields every client application needs. Embed it
// in an application config struct; its methods are promoted so the
// embedding struct satisfies the loader's defaulting and validation
// hooks.
type BaseConfig struct {
	Name        string        `yaml:"name" mapstructure:"name"`
	Environment string        `yaml:"environment" mapstructure:"environment"`
	Debug       bool          `yaml:"debug" mapstructure:"debug"`
	Logging     logger.Config `yaml:"logging" mapstructure:"logging"`
}

// ApplyDefaults fills in defaults. Embedding structs that override it
// should call this first.
func (c *BaseConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	if c.Logging.ServiceName == "" && c.Name != "" {
		c.Logging.ServiceName = c.Name
	}
	c.Logging.ApplyDefaults()
}

// Validate checks the base fields. Embedding structs that override it
// should call this first.
func (c *BaseConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("config.name is required")
	}
	switch c.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("config.environment must be one of [development, staging, production] (got: %s)", c.Environment)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("config.logging: %w", err)
	}
	return nil
}

// ClientsConfig is a ready-made config shape for tools that talk to
// several HTTP endpoints: a base section plus a named profile per
// target service.
type ClientsConfig struct {
	BaseConfig `yaml:",inline" mapstructure:",squash"`
	Clients    map[string]req.Config `yaml:"clients" mapstructure:"clients"`
}

// ApplyDefaults fills in defaults for the base section and every
// client profile. A profile with no explicit name takes its map key.
func (c *ClientsConfig) ApplyDefaults() {
	c.BaseConfig.ApplyDefaults()
	for name, cc := range c.Clients {
		if cc.Name == "" {
			cc.Name = name
		}
		cc.ApplyDefaults()
		c.Clients[name] = cc
	}
}

// Validate checks the base section and every client profile.
func (c *ClientsConfig) Validate() error {
	if err := c.BaseConfig.Validate(); err != nil {
		return err
	}
	for name, cc := range c.Clients {
		if err := cc.Validate(); err != nil {
			return fmt.Errorf("config.clients.%s: %w", name, err)
		}
	}
	return nil
}

// Client returns the named profile, or an error naming the profiles
// that do exist.
func (c *ClientsConfig) Client(name string) (req.Config, error) {
	cc, ok := c.Clients[name]
	if !ok {
		names := make([]string, 0, len(c.Clients))
		for n := range c.Clients {
			names = append(names, n)
		}
		return req.Config{}, fmt.Errorf("config: no client profile %q (have %v)", name, names)
	}
	return cc, nil
}
