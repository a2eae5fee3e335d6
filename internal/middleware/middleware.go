// Package middleware composes cross-cutting behavior around route handlers.
// Chains are applied once at table build time, not per request.
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pillarhq/routegate/internal/route"
)

// Middleware wraps a handler with additional behavior.
type Middleware func(next route.Handler) route.Handler

// Chain wraps h so that mws[0] is the outermost middleware.
func Chain(h route.Handler, mws ...Middleware) route.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// TenantExtractor derives the caller identity from an inbound request. An
// error short-circuits the chain with an unauthenticated response.
type TenantExtractor func(req *route.Request) (tenantID, subject string, err error)

// ChainConfig describes the standard chain wrapped around every bound
// handler. Per-tag middleware lets one route group carry extra behavior
// without touching the others.
type ChainConfig struct {
	Logger    *slog.Logger
	Extractor TenantExtractor

	// ByTag holds extra middleware applied only to routes with that tag.
	ByTag map[string][]Middleware

	// Extra is appended innermost for every route.
	Extra []Middleware
}

// Build returns the middleware stack for a route with the given tag:
// correlation, then the error boundary, then tenant context, then any
// tag-specific and extra middleware.
func Build(cfg ChainConfig, tag string) []Middleware {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mws := []Middleware{
		Correlation(logger),
		ErrorBoundary(logger),
	}
	if cfg.Extractor != nil {
		mws = append(mws, TenantContext(cfg.Extractor))
	}
	if tagged, ok := cfg.ByTag[tag]; ok {
		mws = append(mws, tagged...)
	}
	return append(mws, cfg.Extra...)
}

// Correlation assigns a correlation ID when the request carries none, and
// logs one started/completed line pair around the call.
func Correlation(logger *slog.Logger) Middleware {
	return func(next route.Handler) route.Handler {
		return func(ctx context.Context, req *route.Request) (*route.Response, error) {
			if req.CorrelationID == "" {
				req.CorrelationID = uuid.NewString()
			}

			log := logger.With(
				slog.String("correlation_id", req.CorrelationID),
				slog.String("method", req.Method),
				slog.String("path", req.Path))

			log.Info("request started")
			start := time.Now()

			resp, err := next(ctx, req)

			attrs := []any{slog.Duration("duration", time.Since(start))}
			if resp != nil {
				attrs = append(attrs, slog.Int("status", resp.Status))
			}
			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
			}
			log.Info("request completed", attrs...)

			return resp, err
		}
	}
}

// ErrorBoundary converts routing-layer errors into structured responses and
// contains handler panics. Unexpected errors pass through so the router can
// classify them; a cancelled context is never answered.
func ErrorBoundary(logger *slog.Logger) Middleware {
	return func(next route.Handler) route.Handler {
		return func(ctx context.Context, req *route.Request) (resp *route.Response, err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("handler panic",
						slog.String("correlation_id", req.CorrelationID),
						slog.String("path", req.Path),
						slog.Any("panic", r))
					resp = nil
					err = fmt.Errorf("handler panic: %v", r)
				}
			}()

			resp, err = next(ctx, req)
			if err == nil {
				return resp, nil
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			var rerr *route.Error
			if route.AsError(err, &rerr) {
				logger.Warn("handler returned routing error",
					slog.String("correlation_id", req.CorrelationID),
					slog.String("code", string(rerr.Code)),
					slog.String("error", rerr.Message))
				return route.ErrorResponse(rerr, req.CorrelationID), nil
			}
			return nil, err
		}
	}
}

// TenantContext populates the request's tenant identity. Extraction failure
// yields an unauthenticated error for the boundary to answer.
func TenantContext(extract TenantExtractor) Middleware {
	return func(next route.Handler) route.Handler {
		return func(ctx context.Context, req *route.Request) (*route.Response, error) {
			tenantID, subject, err := extract(req)
			if err != nil {
				return nil, route.ErrUnauthenticated(err.Error())
			}
			req.TenantID = tenantID
			req.Subject = subject
			return next(ctx, req)
		}
	}
}
