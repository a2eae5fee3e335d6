// Package router dispatches requests against an immutable route table that
// is rebuilt aside and swapped atomically on refresh.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/pillarhq/routegate/internal/route"
)

// Outcome classifies the result of routing a request.
type Outcome int

const (
	// OutcomeMatched means a route matched and its handler produced a
	// response (including structured error responses).
	OutcomeMatched Outcome = iota

	// OutcomeNotFound means no route in the table matched.
	OutcomeNotFound

	// OutcomeInternalError means a handler or its chain failed
	// unexpectedly. The caller decides whether to fall back.
	OutcomeInternalError
)

// String returns the outcome name for logs.
func (o Outcome) String() string {
	switch o {
	case OutcomeMatched:
		return "matched"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeInternalError:
		return "internal_error"
	default:
		return "unknown"
	}
}

// Result is the tagged outcome of one routed request.
type Result struct {
	Outcome  Outcome
	Response *route.Response
	Err      error
}

// Router serves requests from the most recently published table. Lookups
// are lock-free; a refresh in progress never blocks dispatch.
type Router struct {
	table  atomic.Pointer[Table]
	logger *slog.Logger
}

// New creates a router with an empty table.
func New(logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{logger: logger}
	r.table.Store(NewTable())
	return r
}

// Publish atomically swaps in a new table. In-flight requests finish on the
// table they started with.
func (r *Router) Publish(t *Table) {
	r.table.Store(t)
}

// Snapshot returns the current table.
func (r *Router) Snapshot() *Table {
	return r.table.Load()
}

// FindRoute locates the matching entry without executing it.
func (r *Router) FindRoute(method, path string) (*Entry, map[string]string, bool) {
	return r.table.Load().Find(method, path)
}

// RouteRequest matches the request and runs the bound handler exactly once.
// A structured error response from the chain is still a match; only an
// unexpected failure surfaces as an internal error for the caller to handle.
func (r *Router) RouteRequest(ctx context.Context, req *route.Request) Result {
	entry, params, ok := r.table.Load().Find(req.Method, req.Path)
	if !ok {
		return Result{
			Outcome: OutcomeNotFound,
			Err:     route.ErrRouteNotFound(req.Method, req.Path),
		}
	}

	req.PathParams = params
	req.Tag = entry.Record.Tag

	resp, err := entry.handler(ctx, req)
	if err != nil {
		r.logger.Error("route execution failed",
			slog.String("route_id", entry.Record.RouteID),
			slog.String("method", req.Method),
			slog.String("path", req.Path),
			slog.String("error", err.Error()))
		return Result{Outcome: OutcomeInternalError, Err: err}
	}
	if resp == nil {
		// A handler that returns neither a response nor an error breaks
		// the envelope contract; surface it as an execution failure.
		r.logger.Error("route handler returned no response",
			slog.String("route_id", entry.Record.RouteID),
			slog.String("handler_ref", entry.Record.HandlerRef))
		return Result{
			Outcome: OutcomeInternalError,
			Err:     fmt.Errorf("handler %q returned no response", entry.Record.HandlerRef),
		}
	}
	return Result{Outcome: OutcomeMatched, Response: resp}
}
