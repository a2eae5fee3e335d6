// Package registration lets capability modules declare their HTTP routes
// into the shared registry at startup.
package registration

import (
	"context"
	"log/slog"

	"github.com/pillarhq/routegate/internal/registry"
	"github.com/pillarhq/routegate/internal/route"
)

// Client registers a service's routes idempotently. Route IDs are derived
// from the spec and the service identity, so restarts never create
// duplicates.
type Client struct {
	registry registry.Registry
	service  string
	logger   *slog.Logger
}

// NewClient creates a registration client for the named owning service.
func NewClient(reg registry.Registry, service string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{registry: reg, service: service, logger: logger}
}

// Failure pairs a rejected spec with its error.
type Failure struct {
	Spec route.Spec
	Err  error
}

// Result reports the outcome of a RegisterRoutes call so the owning service
// can log-and-continue rather than crash on a single malformed route.
type Result struct {
	Registered []string
	Failed     []Failure
}

// RegisterRoutes upserts each spec into the registry. One bad spec never
// aborts registration of the rest.
func (c *Client) RegisterRoutes(ctx context.Context, specs []route.Spec) Result {
	var result Result

	for _, spec := range specs {
		if err := spec.Validate(); err != nil {
			c.logger.Warn("rejected route spec",
				slog.String("service", c.service),
				slog.String("method", spec.Method),
				slog.String("pattern", spec.PathPattern),
				slog.String("error", err.Error()))
			result.Failed = append(result.Failed, Failure{Spec: spec, Err: err})
			continue
		}

		rec := &route.Record{
			RouteID:       route.DeriveID(spec.Method, spec.PathPattern, c.service),
			Method:        spec.Method,
			PathPattern:   spec.PathPattern,
			Tag:           spec.Tag,
			OwningService: c.service,
			Capability:    spec.Capability,
			HandlerRef:    spec.HandlerRef,
			Description:   spec.Description,
			Version:       spec.Version,
			DefinedBy:     c.service,
			Status:        route.StatusActive,
		}

		if err := c.registry.Register(ctx, rec); err != nil {
			c.logger.Warn("route registration failed",
				slog.String("service", c.service),
				slog.String("route_id", rec.RouteID),
				slog.String("method", spec.Method),
				slog.String("pattern", spec.PathPattern),
				slog.String("error", err.Error()))
			result.Failed = append(result.Failed, Failure{Spec: spec, Err: err})
			continue
		}

		c.logger.Info("route registered",
			slog.String("service", c.service),
			slog.String("route_id", rec.RouteID),
			slog.String("method", spec.Method),
			slog.String("pattern", spec.PathPattern))
		result.Registered = append(result.Registered, rec.RouteID)
	}

	return result
}
