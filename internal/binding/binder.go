// Package binding resolves a route record's handler reference to a locally
// invocable function. Handlers are registered by name once at process
// startup; there is no reflection-by-string, so resolution failures surface
// at bind time rather than mid-request.
package binding

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/pillarhq/routegate/internal/route"
)

// Binder maps handler references to locally registered handlers. Records
// belonging to other processes are expected not to bind; those misses are
// counted in a diagnostic skipped metric, not reported as errors.
type Binder struct {
	mu       sync.RWMutex
	handlers map[string]route.Handler
	skipped  atomic.Int64
}

// NewBinder creates an empty binder.
func NewBinder() *Binder {
	return &Binder{handlers: make(map[string]route.Handler)}
}

// RegisterHandler binds a name to a handler. Names must be unique within
// the process.
func (b *Binder) RegisterHandler(name string, h route.Handler) error {
	if name == "" {
		return fmt.Errorf("handler name cannot be empty")
	}
	if h == nil {
		return fmt.Errorf("handler %q cannot be nil", name)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.handlers[name]; exists {
		return fmt.Errorf("handler %q already registered", name)
	}
	b.handlers[name] = h
	return nil
}

// Bind resolves a record's handler reference. A miss increments the skipped
// counter and returns a handler-not-resolvable error the caller is expected
// to treat as an exclusion, not a failure.
func (b *Binder) Bind(rec *route.Record) (route.Handler, error) {
	b.mu.RLock()
	h, ok := b.handlers[rec.HandlerRef]
	b.mu.RUnlock()

	if !ok {
		b.skipped.Add(1)
		return nil, route.ErrHandlerNotResolvable(rec.HandlerRef)
	}
	return h, nil
}

// Skipped returns the number of bind misses since process start. Exposed on
// the health surface, distinct from the bound-route count.
func (b *Binder) Skipped() int64 {
	return b.skipped.Load()
}

// Handlers returns the registered handler names in sorted order.
func (b *Binder) Handlers() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	names := make([]string, 0, len(b.handlers))
	for name := range b.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
