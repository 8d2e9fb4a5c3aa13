package logger

import "fmt"

// Config contains logging configuration.
type Config struct {
	// Level is the minimum level: trace, debug, info, warn, error.
	Level string `yaml:"level" mapstructure:"level"`
	// Format selects json or console output.
	Format string `yaml:"format" mapstructure:"format"`
	// Output selects stdout or stderr.
	Output string `yaml:"output" mapstructure:"output"`
	// NoColor disables colors in console format.
	NoColor bool `yaml:"no_color" mapstructure:"no_color"`
	// Timestamp adds a timestamp field to every event.
	Timestamp bool `yaml:"timestamp" mapstructure:"timestamp"`
	// Caller adds the calling file:line to every event.
	Caller bool `yaml:"caller" mapstructure:"caller"`
	// ServiceName tags all events with a service field.
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`
}

// ApplyDefaults applies default values to logging configuration.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "json"
	}
	if c.Output == "" {
		c.Output = "stdout"
	}
}

// Validate validates logging configuration.
func (c *Config) Validate() error {
	switch c.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("logger: format must be json or console (got: %s)", c.Format)
	}
	switch c.Output {
	case "", "stdout", "stderr":
	default:
		return fmt.Errorf("logger: output must be stdout or stderr (got: %s)", c.Output)
	}
	return nil
}
