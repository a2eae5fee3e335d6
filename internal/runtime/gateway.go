// Package runtime provides the Gateway struct and lifecycle management for
// the route-discovery gateway. It wires the registry, resolver, binder, and
// dispatch service together and owns the HTTP server.
package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pillarhq/routegate/internal/binding"
	"github.com/pillarhq/routegate/internal/config"
	"github.com/pillarhq/routegate/internal/discovery"
	"github.com/pillarhq/routegate/internal/gateway"
	"github.com/pillarhq/routegate/internal/metrics"
	"github.com/pillarhq/routegate/internal/middleware"
	"github.com/pillarhq/routegate/internal/registration"
	"github.com/pillarhq/routegate/internal/registry"
	"github.com/pillarhq/routegate/internal/registry/sqlite"
	"github.com/pillarhq/routegate/internal/server"
)

// Gateway is the main entry point for running the routing gateway. It can
// be embedded in larger applications or run standalone.
type Gateway struct {
	cfg        *config.Config
	configPath string
	logger     *slog.Logger

	registry       registry.Registry
	registryCloser io.Closer
	binder         *binding.Binder
	legacy         *gateway.LegacyTable
	extractor      middleware.TenantExtractor
	tagMiddleware  map[string][]middleware.Middleware

	service *gateway.Service
	srv     *server.Server
	promReg *prometheus.Registry

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.Mutex
}

// New creates a Gateway with the given options. By default it loads
// config.yaml from the working directory and uses the registry the config
// names (in-memory unless configured otherwise).
func New(opts ...Option) (*Gateway, error) {
	g := &Gateway{
		logger:  slog.Default(),
		binder:  binding.NewBinder(),
		legacy:  gateway.NewLegacyTable(),
		promReg: prometheus.NewRegistry(),
	}

	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, fmt.Errorf("apply option: %w", err)
		}
	}

	if g.cfg == nil {
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		g.cfg = cfg
	}

	if g.registry == nil {
		switch g.cfg.Registry.Type {
		case "sqlite":
			store, err := sqlite.New(g.cfg.Registry.SQLite.Path)
			if err != nil {
				return nil, fmt.Errorf("create sqlite registry: %w", err)
			}
			g.registry = store
			g.registryCloser = store
		case "", "memory":
			g.registry = registry.NewMemory()
		default:
			return nil, fmt.Errorf("unknown registry type %q", g.cfg.Registry.Type)
		}
	}

	g.promReg.MustRegister(collectors.NewGoCollector())
	g.promReg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	g.service = gateway.New(gateway.Options{
		Resolver: discovery.NewResolver(g.registry, g.logger),
		Binder:   g.binder,
		Legacy:   g.legacy,
		Metrics:  metrics.NewCollector(g.promReg),
		Chain: middleware.ChainConfig{
			Logger:    g.logger,
			Extractor: g.extractor,
			ByTag:     g.tagMiddleware,
		},
		Logger:          g.logger,
		UseDiscovered:   g.cfg.Routing.UseDiscovered,
		FallbackEnabled: g.cfg.Routing.FallbackEnabled,
	})

	return g, nil
}

// Service exposes the dispatch service for embedding applications.
func (g *Gateway) Service() *gateway.Service {
	return g.service
}

// Registry exposes the route registry so capability modules can register
// against the same store the gateway discovers from.
func (g *Gateway) Registry() registry.Registry {
	return g.registry
}

// RegistrationClient returns a registration client for the named service.
func (g *Gateway) RegistrationClient(service string) *registration.Client {
	return registration.NewClient(g.registry, service, g.logger)
}

// Start publishes the initial route table and starts the HTTP server.
func (g *Gateway) Start(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	// Reject a bad refresh interval before the listener comes up, so a
	// misconfigured gateway never starts serving.
	interval, err := g.cfg.Routing.RefreshIntervalDuration()
	if err != nil {
		return fmt.Errorf("invalid refresh interval: %w", err)
	}

	g.ctx, g.cancel = context.WithCancel(ctx)

	// Publish the first table before accepting traffic.
	g.service.Refresh(g.ctx)

	g.srv = server.New(g.cfg.Server.Port, g.logger)
	g.mountRoutes()

	go func() {
		if err := g.srv.Start(); err != nil {
			g.logger.Error("server error", slog.String("error", err.Error()))
		}
	}()

	go g.refreshLoop(interval)

	if g.configPath != "" {
		if err := config.Watch(g.ctx, g.configPath, g.logger, g.onConfigChange); err != nil {
			g.logger.Error("config watch failed", slog.String("error", err.Error()))
		}
	}

	g.logger.Info("gateway started",
		slog.Int("port", g.cfg.Server.Port),
		slog.Bool("use_discovered", g.service.UseDiscovered()),
		slog.Duration("refresh_interval", interval))
	return nil
}

// mountRoutes installs the ops surface and hands everything else to the
// dispatch service.
func (g *Gateway) mountRoutes() {
	r := g.srv.Router

	r.Get("/internal/health", g.service.HandleHealth)
	r.Get("/internal/routes", g.service.HandleRoutes)
	r.Get("/internal/routing/metrics", g.service.HandleMetrics)
	r.Post("/internal/routing/metrics/reset", g.service.HandleMetricsReset)
	r.Post("/internal/routing/refresh", g.service.HandleRefresh)
	r.Handle("/metrics", promhttp.HandlerFor(g.promReg, promhttp.HandlerOpts{}))

	r.Handle("/*", g.service)
}

// refreshLoop republishes the route table on the configured interval.
func (g *Gateway) refreshLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-g.ctx.Done():
			return
		case <-ticker.C:
			g.service.Refresh(g.ctx)
		}
	}
}

// onConfigChange applies the runtime-toggleable settings from a reloaded
// config. Port and registry changes require a restart.
func (g *Gateway) onConfigChange(cfg *config.Config) {
	g.logger.Info("config changed, applying routing toggles")
	g.service.SetUseDiscovered(cfg.Routing.UseDiscovered)
	g.service.SetFallbackEnabled(cfg.Routing.FallbackEnabled)
}

// Shutdown gracefully stops the gateway.
func (g *Gateway) Shutdown(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.logger.Info("shutting down gateway")

	if g.cancel != nil {
		g.cancel()
	}

	if g.srv != nil {
		if err := g.srv.Shutdown(ctx); err != nil {
			g.logger.Error("failed to shutdown server", slog.String("error", err.Error()))
			return err
		}
	}

	if g.registryCloser != nil {
		if err := g.registryCloser.Close(); err != nil {
			g.logger.Error("failed to close registry", slog.String("error", err.Error()))
		}
	}

	g.logger.Info("gateway shutdown complete")
	return nil
}
