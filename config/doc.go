// Package config loads client configuration from YAML files and the
// environment.
//
// Configuration is layered: a config.yml file provides the base, a
// .env file (if present) is loaded into the process environment, and
// environment variables override both. The merged result is
// unmarshalled into a caller-provided struct and validated.
//
//	type AppConfig struct {
//		config.BaseConfig `yaml:",inline" mapstructure:",squash"`
//		API               req.Config `yaml:"api" mapstructure:"api"`
//	}
//
//	var cfg AppConfig
//	if err := config.Load("my-tool", &cfg); err != nil {
//		...
//	}
package config
