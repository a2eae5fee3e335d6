package registry

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pillarhq/routegate/internal/route"
)

// MemoryRegistry is an in-memory Registry. Used for single-process
// deployments and tests; the sqlite implementation backs durable setups.
type MemoryRegistry struct {
	mu      sync.RWMutex
	records map[string]*route.Record
}

// NewMemory creates an empty in-memory registry.
func NewMemory() *MemoryRegistry {
	return &MemoryRegistry{records: make(map[string]*route.Record)}
}

var _ Registry = (*MemoryRegistry)(nil)

func (m *MemoryRegistry) Register(ctx context.Context, rec *route.Record) error {
	pat, err := validate(rec)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()

	if existing, ok := m.records[rec.RouteID]; ok {
		if existing.Status == route.StatusActive && existing.SameSpec(rec) {
			// Idempotent re-registration.
			return nil
		}
	}

	active := make([]*route.Record, 0, len(m.records))
	for _, r := range m.records {
		active = append(active, r)
	}
	if err := checkConflict(rec, pat, active); err != nil {
		return err
	}

	stored := rec.Clone()
	stored.Status = route.StatusActive
	stored.UpdatedAt = now
	if existing, ok := m.records[rec.RouteID]; ok {
		stored.CreatedAt = existing.CreatedAt
	} else {
		stored.CreatedAt = now
	}
	m.records[rec.RouteID] = stored
	return nil
}

func (m *MemoryRegistry) List(ctx context.Context, f Filter) ([]*route.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []*route.Record
	for _, rec := range m.records {
		if f.Matches(rec) {
			result = append(result, rec.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].RouteID < result[j].RouteID
	})
	return result, nil
}

func (m *MemoryRegistry) Get(ctx context.Context, routeID string) (*route.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[routeID]
	if !ok {
		return nil, route.ErrRecordNotFound(routeID)
	}
	return rec.Clone(), nil
}

func (m *MemoryRegistry) Deprecate(ctx context.Context, routeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[routeID]
	if !ok {
		return route.ErrRecordNotFound(routeID)
	}
	rec.Status = route.StatusDeprecated
	rec.UpdatedAt = time.Now().UTC()
	return nil
}
