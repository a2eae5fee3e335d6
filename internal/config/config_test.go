package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Registry.Type != "memory" {
		t.Errorf("registry type = %q, want memory", cfg.Registry.Type)
	}
	if !cfg.Routing.UseDiscovered {
		t.Error("use_discovered should default to true")
	}
	if !cfg.Routing.FallbackEnabled {
		t.Error("fallback_enabled should default to true")
	}

	d, err := cfg.Routing.RefreshIntervalDuration()
	if err != nil {
		t.Fatalf("RefreshIntervalDuration() error = %v", err)
	}
	if d != 30*time.Second {
		t.Errorf("refresh interval = %v, want 30s", d)
	}
}

func TestLoad_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
server:
  port: 9090
registry:
  type: sqlite
  sqlite:
    path: /var/lib/routegate/routes.db
routing:
  use_discovered: false
  fallback_enabled: false
  refresh_interval: 10s
  service_name: frontend-gateway
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Registry.Type != "sqlite" || cfg.Registry.SQLite.Path != "/var/lib/routegate/routes.db" {
		t.Errorf("registry = %+v", cfg.Registry)
	}
	if cfg.Routing.UseDiscovered || cfg.Routing.FallbackEnabled {
		t.Errorf("routing toggles = %+v, want both false", cfg.Routing)
	}
	if cfg.Routing.ServiceName != "frontend-gateway" {
		t.Errorf("service_name = %q", cfg.Routing.ServiceName)
	}

	d, err := cfg.Routing.RefreshIntervalDuration()
	if err != nil {
		t.Fatal(err)
	}
	if d != 10*time.Second {
		t.Errorf("refresh interval = %v, want 10s", d)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("ROUTEGATE_SERVER__PORT", "9000")
	t.Setenv("ROUTEGATE_ROUTING__USE_DISCOVERED", "false")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Routing.UseDiscovered {
		t.Error("use_discovered should be overridden to false")
	}
}

func TestRefreshIntervalDuration_Invalid(t *testing.T) {
	r := RoutingConfig{RefreshInterval: "soon"}
	if _, err := r.RefreshIntervalDuration(); err == nil {
		t.Error("expected parse error")
	}

	r = RoutingConfig{RefreshInterval: "-5s"}
	if _, err := r.RefreshIntervalDuration(); err == nil {
		t.Error("expected rejection of non-positive interval")
	}
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR", "test-value")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple substitution", "${TEST_VAR}", "test-value"},
		{"substitution in string", "prefix-${TEST_VAR}-suffix", "prefix-test-value-suffix"},
		{"no substitution", "plain-string", "plain-string"},
		{"undefined var", "${UNDEFINED_VAR}", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := substituteEnvVars(tt.input)
			if got != tt.want {
				t.Errorf("substituteEnvVars() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWatch_ReloadOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 8081\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan *Config, 1)
	if err := Watch(ctx, path, nil, func(cfg *Config) {
		select {
		case changed <- cfg:
		default:
		}
	}); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	if err := os.WriteFile(path, []byte("server:\n  port: 8082\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-changed:
		if cfg.Server.Port != 8082 {
			t.Errorf("reloaded port = %d, want 8082", cfg.Server.Port)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}
