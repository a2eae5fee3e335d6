package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Registry RegistryConfig `koanf:"registry"`
	Routing  RoutingConfig  `koanf:"routing"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

type RegistryConfig struct {
	Type   string       `koanf:"type"` // sqlite, memory
	SQLite SQLiteConfig `koanf:"sqlite"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

type RoutingConfig struct {
	UseDiscovered   bool   `koanf:"use_discovered"`
	FallbackEnabled bool   `koanf:"fallback_enabled"`
	RefreshInterval string `koanf:"refresh_interval"`
	ServiceName     string `koanf:"service_name"`
}

// RefreshIntervalDuration parses the refresh interval, defaulting to 30s.
func (r RoutingConfig) RefreshIntervalDuration() (time.Duration, error) {
	if r.RefreshInterval == "" {
		return 30 * time.Second, nil
	}
	d, err := time.ParseDuration(r.RefreshInterval)
	if err != nil {
		return 0, fmt.Errorf("routing.refresh_interval: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("routing.refresh_interval must be positive, got %s", r.RefreshInterval)
	}
	return d, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads config.yaml from the working directory, if present, with
// ROUTEGATE_* environment overrides.
func Load() (*Config, error) {
	return LoadFrom("config.yaml")
}

// LoadFrom reads the given YAML file, if present, with ROUTEGATE_*
// environment overrides.
func LoadFrom(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		// File not found is OK, we'll use env vars
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	// Load environment variables (can override file config)
	if err := k.Load(env.Provider("ROUTEGATE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "ROUTEGATE_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	// Default values
	if !k.Exists("server.port") {
		k.Set("server.port", 8080)
	}
	if !k.Exists("registry.type") {
		k.Set("registry.type", "memory")
	}
	if !k.Exists("routing.use_discovered") {
		k.Set("routing.use_discovered", true)
	}
	if !k.Exists("routing.fallback_enabled") {
		k.Set("routing.fallback_enabled", true)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	// Substitute environment variables in the registry path
	cfg.Registry.SQLite.Path = substituteEnvVars(cfg.Registry.SQLite.Path)

	return &cfg, nil
}

func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// Extract variable name from ${VAR_NAME}
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
