// Package route defines the route metadata model shared by the registry,
// discovery, binding, and routing layers.
package route

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"
	"time"
)

// Status represents the lifecycle state of a route record.
// Records are deprecated, never hard-deleted, on routine restarts.
type Status string

const (
	StatusActive     Status = "active"
	StatusDeprecated Status = "deprecated"
)

// Methods supported by the routing layer.
var supportedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
	http.MethodPatch:  true,
}

// SupportedMethod reports whether the routing layer accepts the HTTP method.
func SupportedMethod(method string) bool {
	return supportedMethods[method]
}

// Record is the authoritative metadata describing one HTTP endpoint: its
// method, path pattern, and owning handler. Records live in the route
// registry and are the unit of discovery.
type Record struct {
	RouteID       string    `json:"route_id"`
	Method        string    `json:"method"`
	PathPattern   string    `json:"path_pattern"`
	Tag           string    `json:"tag"`
	OwningService string    `json:"owning_service"`
	Capability    string    `json:"capability"`
	HandlerRef    string    `json:"handler_ref"`
	Description   string    `json:"description,omitempty"`
	Version       string    `json:"version,omitempty"`
	DefinedBy     string    `json:"defined_by,omitempty"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Clone returns a copy of the record so callers cannot mutate registry state.
func (r *Record) Clone() *Record {
	c := *r
	return &c
}

// SameSpec reports whether two records describe the same route declaration.
// Used to detect idempotent re-registration.
func (r *Record) SameSpec(other *Record) bool {
	return r.Method == other.Method &&
		r.PathPattern == other.PathPattern &&
		r.Tag == other.Tag &&
		r.OwningService == other.OwningService &&
		r.Capability == other.Capability &&
		r.HandlerRef == other.HandlerRef &&
		r.Description == other.Description &&
		r.Version == other.Version
}

// Spec is the declarative route description a capability module submits at
// startup. The registration client derives the route ID and timestamps.
type Spec struct {
	Method      string `json:"method"`
	PathPattern string `json:"path_pattern"`
	Tag         string `json:"tag"`
	Capability  string `json:"capability"`
	HandlerRef  string `json:"handler_ref"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version,omitempty"`
}

// Validate checks the spec fields that can be verified without the registry.
func (s Spec) Validate() error {
	if s.Method == "" {
		return ErrInvalidSpec("method is required")
	}
	if !SupportedMethod(s.Method) {
		return ErrInvalidSpec("unsupported method: " + s.Method)
	}
	if s.PathPattern == "" || !strings.HasPrefix(s.PathPattern, "/") {
		return ErrInvalidSpec("path pattern must begin with /")
	}
	if s.HandlerRef == "" {
		return ErrInvalidSpec("handler_ref is required")
	}
	return nil
}

// DeriveID computes the deterministic route ID for a spec registered by a
// service. A restarting service re-derives the same ID, so re-registration
// is an upsert rather than a duplicate.
func DeriveID(method, pattern, service string) string {
	sum := sha256.Sum256([]byte(method + " " + pattern + " " + service))
	return "rt_" + hex.EncodeToString(sum[:8])
}
