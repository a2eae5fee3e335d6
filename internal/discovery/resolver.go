// Package discovery queries the route registry and keeps a last-known-good
// snapshot so a registry outage never crashes the gateway.
package discovery

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pillarhq/routegate/internal/registry"
	"github.com/pillarhq/routegate/internal/route"
)

// Resolver fetches the current set of active route records. Availability is
// prioritized over freshness: when the registry is unreachable the resolver
// serves the last known-good snapshot (empty if none exists yet).
type Resolver struct {
	registry registry.Registry
	logger   *slog.Logger

	mu       sync.Mutex
	lastGood []*route.Record
}

// NewResolver creates a resolver over the given registry.
func NewResolver(reg registry.Registry, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{registry: reg, logger: logger}
}

// Discover returns active records matching the filter. On registry failure
// it logs one degraded-mode warning and returns the previous snapshot with
// degraded=true; it never returns an error to the caller.
func (r *Resolver) Discover(ctx context.Context, f registry.Filter) (records []*route.Record, degraded bool) {
	f.Status = route.StatusActive

	recs, err := r.registry.List(ctx, f)
	if err != nil {
		r.mu.Lock()
		snapshot := r.lastGood
		r.mu.Unlock()

		r.logger.Warn("route discovery degraded, serving last known snapshot",
			slog.String("error", err.Error()),
			slog.Int("snapshot_routes", len(snapshot)))
		return snapshot, true
	}

	r.mu.Lock()
	r.lastGood = recs
	r.mu.Unlock()
	return recs, false
}
