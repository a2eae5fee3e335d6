// Package gateway ties discovery, the router, and the legacy table into the
// front-door service with an explicit fallback policy.
package gateway

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pillarhq/routegate/internal/binding"
	"github.com/pillarhq/routegate/internal/discovery"
	"github.com/pillarhq/routegate/internal/metrics"
	"github.com/pillarhq/routegate/internal/middleware"
	"github.com/pillarhq/routegate/internal/registry"
	"github.com/pillarhq/routegate/internal/route"
	"github.com/pillarhq/routegate/internal/router"
)

// Options configures a gateway service.
type Options struct {
	Router   *router.Router
	Resolver *discovery.Resolver
	Binder   *binding.Binder
	Legacy   *LegacyTable
	Metrics  *metrics.Collector
	Chain    middleware.ChainConfig
	Logger   *slog.Logger

	// UseDiscovered selects dispatch through the discovered route table.
	// When false every request goes straight to the legacy table.
	UseDiscovered bool

	// FallbackEnabled lets a discovered-dispatch internal error retry on
	// the legacy table instead of answering with an execution error.
	FallbackEnabled bool
}

// Service is the gateway front door. Dispatch mode and fallback policy are
// toggleable at runtime so discovered routing can be rolled out gradually.
type Service struct {
	router   *router.Router
	resolver *discovery.Resolver
	binder   *binding.Binder
	legacy   *LegacyTable
	metrics  *metrics.Collector
	chainCfg middleware.ChainConfig
	logger   *slog.Logger

	useDiscovered   atomic.Bool
	fallbackEnabled atomic.Bool

	mu          sync.Mutex
	lastRefresh time.Time
	degraded    bool
}

// New creates a gateway service.
func New(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Legacy == nil {
		opts.Legacy = NewLegacyTable()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewCollector(nil)
	}
	if opts.Router == nil {
		opts.Router = router.New(logger)
	}

	s := &Service{
		router:   opts.Router,
		resolver: opts.Resolver,
		binder:   opts.Binder,
		legacy:   opts.Legacy,
		metrics:  opts.Metrics,
		chainCfg: opts.Chain,
		logger:   logger,
	}
	s.useDiscovered.Store(opts.UseDiscovered)
	s.fallbackEnabled.Store(opts.FallbackEnabled)
	return s
}

// Refresh rebuilds the route table from the registry and publishes it. The
// previous table keeps serving until the swap; a degraded discovery reuses
// the last known record snapshot.
func (s *Service) Refresh(ctx context.Context) {
	records, degraded := s.resolver.Discover(ctx, registry.Filter{})
	table := router.BuildTable(records, s.binder, s.chainCfg, s.logger)
	s.router.Publish(table)

	s.mu.Lock()
	s.lastRefresh = time.Now().UTC()
	s.degraded = degraded
	s.mu.Unlock()

	s.logger.Info("routing table published",
		slog.Int("bound", table.Bound),
		slog.Int("skipped", table.Skipped),
		slog.Bool("degraded", degraded))
}

// Handle routes one request. A nil response means the caller went away and
// nothing should be written.
func (s *Service) Handle(ctx context.Context, req *route.Request) *route.Response {
	start := time.Now()

	if !s.useDiscovered.Load() {
		return s.dispatchLegacy(ctx, req, start)
	}

	res := s.router.RouteRequest(ctx, req)
	elapsed := time.Since(start)

	switch res.Outcome {
	case router.OutcomeMatched:
		s.metrics.Record(metrics.ModeDiscovered, res.Response.Status < http.StatusBadRequest, elapsed)
		return res.Response

	case router.OutcomeNotFound:
		s.metrics.Record(metrics.ModeDiscovered, false, elapsed)
		return route.NotFoundResponse(req.Method, req.Path, req.CorrelationID)

	default:
		if ctx.Err() != nil {
			return nil
		}
		s.metrics.Record(metrics.ModeDiscovered, false, elapsed)

		if s.fallbackEnabled.Load() {
			s.metrics.RecordFallbackActivation()
			s.logger.Warn("falling back to legacy dispatch",
				slog.String("method", req.Method),
				slog.String("path", req.Path),
				slog.String("error", res.Err.Error()))
			return s.dispatchLegacy(ctx, req, time.Now())
		}
		return route.ErrorResponse(route.ErrExecution(res.Err), req.CorrelationID)
	}
}

// dispatchLegacy serves a request from the static table and accounts it
// under the fallback mode.
func (s *Service) dispatchLegacy(ctx context.Context, req *route.Request, start time.Time) *route.Response {
	resp, found, err := s.legacy.Dispatch(ctx, req)
	elapsed := time.Since(start)

	if !found {
		s.metrics.Record(metrics.ModeFallback, false, elapsed)
		return route.NotFoundResponse(req.Method, req.Path, req.CorrelationID)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		s.metrics.Record(metrics.ModeFallback, false, elapsed)
		s.logger.Error("legacy dispatch failed",
			slog.String("method", req.Method),
			slog.String("path", req.Path),
			slog.String("error", err.Error()))
		return route.ErrorResponse(route.ErrFallbackFailed(err), req.CorrelationID)
	}

	s.metrics.Record(metrics.ModeFallback, resp.Status < http.StatusBadRequest, elapsed)
	return resp
}

// Health summarizes the gateway's routing state for the ops surface.
type Health struct {
	Status          string    `json:"status"`
	UseDiscovered   bool      `json:"use_discovered_routing"`
	FallbackEnabled bool      `json:"fallback_enabled"`
	RoutesBound     int       `json:"routes_bound"`
	RoutesSkipped   int       `json:"routes_skipped"`
	BindMisses      int64     `json:"bind_misses"`
	LegacyRoutes    int       `json:"legacy_routes"`
	Degraded        bool      `json:"discovery_degraded"`
	LastRefresh     time.Time `json:"last_refresh"`
}

// Health returns the current routing health.
func (s *Service) Health() Health {
	table := s.router.Snapshot()

	s.mu.Lock()
	lastRefresh, degraded := s.lastRefresh, s.degraded
	s.mu.Unlock()

	status := "ok"
	if degraded {
		status = "degraded"
	}

	h := Health{
		Status:          status,
		UseDiscovered:   s.useDiscovered.Load(),
		FallbackEnabled: s.fallbackEnabled.Load(),
		RoutesBound:     table.Bound,
		RoutesSkipped:   table.Skipped,
		LegacyRoutes:    s.legacy.Len(),
		Degraded:        degraded,
		LastRefresh:     lastRefresh,
	}
	if s.binder != nil {
		h.BindMisses = s.binder.Skipped()
	}
	return h
}

// Routes returns the records currently published in the route table,
// ordered by route ID.
func (s *Service) Routes() []*route.Record {
	entries := s.router.Snapshot().Entries()
	records := make([]*route.Record, 0, len(entries))
	for _, e := range entries {
		records = append(records, e.Record)
	}
	return records
}

// Metrics returns the current routing metrics snapshot.
func (s *Service) Metrics() metrics.Snapshot {
	return s.metrics.Snapshot()
}

// ResetMetrics zeroes the resettable routing counters.
func (s *Service) ResetMetrics() {
	s.metrics.Reset()
}

// SetUseDiscovered toggles discovered dispatch at runtime.
func (s *Service) SetUseDiscovered(on bool) {
	s.useDiscovered.Store(on)
	s.logger.Info("dispatch mode changed", slog.Bool("use_discovered", on))
}

// SetFallbackEnabled toggles the legacy fallback policy at runtime.
func (s *Service) SetFallbackEnabled(on bool) {
	s.fallbackEnabled.Store(on)
	s.logger.Info("fallback policy changed", slog.Bool("fallback_enabled", on))
}

// UseDiscovered reports whether discovered dispatch is active.
func (s *Service) UseDiscovered() bool {
	return s.useDiscovered.Load()
}

// FallbackEnabled reports whether legacy fallback is active.
func (s *Service) FallbackEnabled() bool {
	return s.fallbackEnabled.Load()
}

// Legacy exposes the static table so callers can install fallback routes.
func (s *Service) Legacy() *LegacyTable {
	return s.legacy
}
