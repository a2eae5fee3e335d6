// Package registry provides the authoritative store of route records.
// Uniqueness of active (method, path_pattern) pairs is enforced here, not
// assumed from storage constraints.
package registry

import (
	"context"

	"github.com/pillarhq/routegate/internal/pathmatch"
	"github.com/pillarhq/routegate/internal/route"
)

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Tag    string
	Status route.Status
}

// Registry is the durable store of route metadata. Implementations must be
// safe under many concurrent callers: every capability module registers at
// once during platform startup.
type Registry interface {
	// Register upserts a record. Re-applying an identical spec for the
	// same route ID is a no-op; a collision with a different active route
	// fails with a duplicate-route error.
	Register(ctx context.Context, rec *route.Record) error

	// List returns matching records ordered by route ID.
	List(ctx context.Context, f Filter) ([]*route.Record, error)

	// Get returns the record for a route ID.
	Get(ctx context.Context, routeID string) (*route.Record, error)

	// Deprecate marks a record deprecated without deleting it.
	Deprecate(ctx context.Context, routeID string) error
}

// Matches reports whether a record passes the filter.
func (f Filter) Matches(rec *route.Record) bool {
	if f.Tag != "" && rec.Tag != f.Tag {
		return false
	}
	if f.Status != "" && rec.Status != f.Status {
		return false
	}
	return true
}

// checkConflict validates a candidate record against the active records with
// the same method. It rejects exact (method, pattern) duplicates and any
// overlap between two parameterized patterns; literal-vs-parameterized
// overlap is allowed because the literal pattern wins at match time.
func checkConflict(rec *route.Record, pat *pathmatch.Pattern, active []*route.Record) error {
	for _, existing := range active {
		if existing.RouteID == rec.RouteID || existing.Method != rec.Method {
			continue
		}
		if existing.Status != route.StatusActive {
			continue
		}
		if existing.PathPattern == rec.PathPattern {
			return route.ErrDuplicateRoute(rec.Method, rec.PathPattern, existing.RouteID)
		}
		other, err := pathmatch.Compile(existing.PathPattern)
		if err != nil {
			continue
		}
		if pat.IsLiteral() || other.IsLiteral() {
			continue
		}
		if pathmatch.Overlaps(pat, other) {
			return route.ErrDuplicateRoute(rec.Method, rec.PathPattern, existing.RouteID)
		}
	}
	return nil
}

// validate compiles and checks the candidate record.
func validate(rec *route.Record) (*pathmatch.Pattern, error) {
	if rec.RouteID == "" {
		return nil, route.ErrInvalidSpec("route_id is required")
	}
	if !route.SupportedMethod(rec.Method) {
		return nil, route.ErrInvalidSpec("unsupported method: " + rec.Method)
	}
	pat, err := pathmatch.Compile(rec.PathPattern)
	if err != nil {
		return nil, route.ErrInvalidSpec(err.Error())
	}
	return pat, nil
}
