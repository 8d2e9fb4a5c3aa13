package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Defaulter is implemented by config structs that can fill in their
// own defaults after loading.
type Defaulter interface {
	ApplyDefaults()
}

// Validator is implemented by config structs that can check themselves
// after loading.
type Validator interface {
	Validate() error
}

// FileSystem abstracts the file operations the loader performs, so
// tests can run against a fake.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
}

type osFileSystem struct{}

func (osFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (osFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

// Option adjusts how Load resolves and reads configuration.
type Option func(*loader)

// WithConfigFile sets an explicit config file path instead of
// searching the standard locations.
func WithConfigFile(path string) Option {
	return func(l *loader) { l.configFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) Option {
	return func(l *loader) { l.envFile = path }
}

// WithFileSystem substitutes the filesystem used for lookups.
func WithFileSystem(fs FileSystem) Option {
	return func(l *loader) { l.fs = fs }
}

type loader struct {
	fs         FileSystem
	configFile string
	envFile    string
}

// Load reads configuration for the named application into cfg. It
// merges, in order of increasing precedence: a YAML config file, a
// .env file, and process environment variables. After unmarshalling it
// runs struct-tag validation, then cfg's own ApplyDefaults and
// Validate hooks when present.
func Load(appName string, cfg interface{}, opts ...Option) error {
	l := loader{fs: osFileSystem{}}
	for _, opt := range opts {
		opt(&l)
	}

	configFile := l.configFile
	if configFile == "" {
		configFile = findFirst(l.fs, configSearchPaths(appName))
	}
	envFile := l.envFile
	if envFile == "" {
		envFile = findFirst(l.fs, envSearchPaths(appName))
	}

	v := viper.New()

	if configFile != "" && l.fs.Exists(configFile) {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("config: read %s: %w", configFile, err)
		}
	}

	keys := declaredKeys(cfg)
	v.AutomaticEnv()
	bindEnvironment(v, keys)

	if envFile != "" && l.fs.Exists(envFile) {
		if err := l.fs.LoadEnv(envFile); err != nil {
			return fmt.Errorf("config: load %s: %w", envFile, err)
		}
		// Pick up variables the .env file introduced.
		bindEnvironment(v, keys)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("config: unmarshal for %s: %w", appName, err)
	}

	if d, ok := cfg.(Defaulter); ok {
		d.ApplyDefaults()
	}
	if err := validateTags(cfg); err != nil {
		return err
	}
	if val, ok := cfg.(Validator); ok {
		if err := val.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func configSearchPaths(appName string) []string {
	return []string{
		fmt.Sprintf("./cmd/%s/config.yml", appName),
		fmt.Sprintf("../cmd/%s/config.yml", appName),
		"./config/config.yml",
		"../config/config.yml",
		"./config.yml",
	}
}

func envSearchPaths(appName string) []string {
	return []string{
		fmt.Sprintf(".env.%s", appName),
		".env",
		"../.env",
		fmt.Sprintf("config/.env.%s", appName),
		"config/.env",
	}
}

func findFirst(fs FileSystem, paths []string) string {
	for _, p := range paths {
		if fs.Exists(p) {
			return p
		}
	}
	return ""
}

// bindEnvironment maps UPPER_SNAKE environment variables onto viper's
// nested keys so CLIENTS_API_PROXY can populate clients.api.proxy.
// Only spellings the target struct declares are applied; an ambiguous
// spelling like clients.api_proxy would otherwise plant a scalar where
// the unmarshaller expects a section and fail the whole load.
func bindEnvironment(v *viper.Viper, keys keySet) {
	for _, env := range os.Environ() {
		key, value, ok := strings.Cut(env, "=")
		if !ok {
			continue
		}
		for _, variant := range keyVariants(key) {
			if keys.contains(variant) {
				v.Set(variant, value)
			}
		}
	}
}

// keySet holds the dotted key shapes a config struct can accept. A "*"
// segment stands for the dynamic keys of a map-typed section.
type keySet [][]string

func (ks keySet) contains(key string) bool {
	segs := strings.Split(key, ".")
	for _, pattern := range ks {
		if matchSegments(pattern, segs) {
			return true
		}
	}
	return false
}

func matchSegments(pattern, segs []string) bool {
	if len(pattern) != len(segs) {
		return false
	}
	for i, p := range pattern {
		if p != "*" && p != segs[i] {
			return false
		}
	}
	return true
}

// declaredKeys walks cfg's type and collects the dotted keys its
// mapstructure tags declare.
func declaredKeys(cfg interface{}) keySet {
	var ks keySet
	collectKeys(reflect.TypeOf(cfg), nil, 0, &ks)
	return ks
}

func collectKeys(t reflect.Type, prefix []string, depth int, ks *keySet) {
	if t == nil || depth > 8 {
		return
	}
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			name, opts, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
			if name == "-" {
				continue
			}
			if strings.Contains(opts, "squash") {
				collectKeys(f.Type, prefix, depth+1, ks)
				continue
			}
			if name == "" {
				name = strings.ToLower(f.Name)
			}
			next := append(append([]string(nil), prefix...), name)
			collectKeys(f.Type, next, depth+1, ks)
		}
	case reflect.Map:
		next := append(append([]string(nil), prefix...), "*")
		collectKeys(t.Elem(), next, depth+1, ks)
	default:
		if len(prefix) > 0 {
			*ks = append(*ks, prefix)
		}
	}
}

// keyVariants generates the nested-key spellings an environment
// variable could address. API_BASE_URL yields api_base_url,
// api.base.url and api.base_url.
func keyVariants(envKey string) []string {
	lower := strings.ToLower(envKey)
	parts := strings.Split(lower, "_")
	if len(parts) <= 1 {
		return []string{lower}
	}

	variants := []string{
		lower,
		strings.ReplaceAll(lower, "_", "."),
	}
	for i := 1; i < len(parts); i++ {
		variants = append(variants, strings.Join(parts[:i], ".")+"."+strings.Join(parts[i:], "_"))
	}

	seen := make(map[string]bool, len(variants))
	out := variants[:0]
	for _, item := range variants {
		if !seen[item] {
			seen[item] = true
			out = append(out, item)
		}
	}
	return out
}

// validateTags runs struct-tag validation (`validate:"..."` tags) on
// cfg. Structs without tags pass trivially.
func validateTags(cfg interface{}) error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(cfg); err != nil {
		var invalid *validator.InvalidValidationError
		if errors.As(err, &invalid) {
			// Not a struct target; nothing to check.
			return nil
		}
		return fmt.Errorf("config: validation failed: %w", err)
	}
	return nil
}
