package runtime

import (
	"fmt"
	"log/slog"

	"github.com/pillarhq/routegate/internal/config"
	"github.com/pillarhq/routegate/internal/middleware"
	"github.com/pillarhq/routegate/internal/registry"
	"github.com/pillarhq/routegate/internal/registry/sqlite"
	"github.com/pillarhq/routegate/internal/route"
)

// Option is a functional option for configuring a Gateway.
type Option func(*Gateway) error

// WithConfig uses an already loaded configuration.
func WithConfig(cfg *config.Config) Option {
	return func(g *Gateway) error {
		g.cfg = cfg
		return nil
	}
}

// WithConfigFile loads configuration from the given YAML file and watches it
// for changes while the gateway runs.
func WithConfigFile(path string) Option {
	return func(g *Gateway) error {
		cfg, err := config.LoadFrom(path)
		if err != nil {
			return fmt.Errorf("load config from %s: %w", path, err)
		}
		g.cfg = cfg
		g.configPath = path
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) error {
		g.logger = logger
		return nil
	}
}

// WithRegistry sets a custom route registry.
func WithRegistry(reg registry.Registry) Option {
	return func(g *Gateway) error {
		g.registry = reg
		return nil
	}
}

// WithMemoryRegistry uses the in-memory route registry.
func WithMemoryRegistry() Option {
	return func(g *Gateway) error {
		g.registry = registry.NewMemory()
		return nil
	}
}

// WithSQLiteRegistry uses the SQLite-backed route registry (default for
// single-instance deployments).
func WithSQLiteRegistry(path string) Option {
	return func(g *Gateway) error {
		store, err := sqlite.New(path)
		if err != nil {
			return fmt.Errorf("create sqlite registry: %w", err)
		}
		g.registry = store
		g.registryCloser = store
		return nil
	}
}

// WithHandler binds a handler reference name to a local handler.
func WithHandler(name string, h route.Handler) Option {
	return func(g *Gateway) error {
		return g.binder.RegisterHandler(name, h)
	}
}

// WithLegacyRoute installs a static fallback route.
func WithLegacyRoute(method, path string, h route.Handler) Option {
	return func(g *Gateway) error {
		g.legacy.Add(method, path, h)
		return nil
	}
}

// WithTenantExtractor sets the tenant identity extractor applied to every
// discovered route.
func WithTenantExtractor(extract middleware.TenantExtractor) Option {
	return func(g *Gateway) error {
		g.extractor = extract
		return nil
	}
}

// WithTagMiddleware attaches middleware to every route carrying the tag.
func WithTagMiddleware(tag string, mws ...middleware.Middleware) Option {
	return func(g *Gateway) error {
		if g.tagMiddleware == nil {
			g.tagMiddleware = make(map[string][]middleware.Middleware)
		}
		g.tagMiddleware[tag] = append(g.tagMiddleware[tag], mws...)
		return nil
	}
}
