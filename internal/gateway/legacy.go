package gateway

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/pillarhq/routegate/internal/route"
)

// LegacyTable is the static fallback dispatch table. Entries are exact
// method+path pairs with no parameter capture and no middleware; it mirrors
// the hardwired routing the discovered table replaces.
type LegacyTable struct {
	mu     sync.RWMutex
	routes map[string]route.Handler
}

// NewLegacyTable creates an empty legacy table.
func NewLegacyTable() *LegacyTable {
	return &LegacyTable{routes: make(map[string]route.Handler)}
}

func legacyKey(method, path string) string {
	return method + " " + path
}

// Add installs a static route. Later adds for the same key replace earlier
// ones.
func (t *LegacyTable) Add(method, path string, h route.Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.routes[legacyKey(method, path)] = h
}

// Dispatch runs the static handler for an exact method+path, if one exists.
func (t *LegacyTable) Dispatch(ctx context.Context, req *route.Request) (*route.Response, bool, error) {
	t.mu.RLock()
	h, ok := t.routes[legacyKey(req.Method, req.Path)]
	t.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	resp, err := h(ctx, req)
	if err != nil {
		return nil, true, fmt.Errorf("legacy handler %s %s: %w", req.Method, req.Path, err)
	}
	return resp, true, nil
}

// Len returns the number of static routes.
func (t *LegacyTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.routes)
}

// Keys returns the installed method+path pairs in sorted order.
func (t *LegacyTable) Keys() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	keys := make([]string, 0, len(t.routes))
	for k := range t.routes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
