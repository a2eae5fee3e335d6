package discovery

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/pillarhq/routegate/internal/registry"
	"github.com/pillarhq/routegate/internal/route"
)

// flakyRegistry serves a fixed record set until tripped, then fails every
// List call.
type flakyRegistry struct {
	records []*route.Record
	failing bool
}

func (f *flakyRegistry) Register(ctx context.Context, rec *route.Record) error { return nil }

func (f *flakyRegistry) List(ctx context.Context, filter registry.Filter) ([]*route.Record, error) {
	if f.failing {
		return nil, errors.New("registry unreachable")
	}
	return f.records, nil
}

func (f *flakyRegistry) Get(ctx context.Context, routeID string) (*route.Record, error) {
	return nil, route.ErrRecordNotFound(routeID)
}

func (f *flakyRegistry) Deprecate(ctx context.Context, routeID string) error { return nil }

func testRecord(id string) *route.Record {
	return &route.Record{
		RouteID:     id,
		Method:      http.MethodGet,
		PathPattern: "/widgets/{id}",
		HandlerRef:  "handle_get_widget",
		Status:      route.StatusActive,
	}
}

func TestDiscover(t *testing.T) {
	reg := &flakyRegistry{records: []*route.Record{testRecord("rt_1"), testRecord("rt_2")}}
	r := NewResolver(reg, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	recs, degraded := r.Discover(context.Background(), registry.Filter{})
	if degraded {
		t.Fatal("expected healthy discovery")
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
}

func TestDiscover_DegradedServesLastSnapshot(t *testing.T) {
	reg := &flakyRegistry{records: []*route.Record{testRecord("rt_1")}}
	var buf bytes.Buffer
	r := NewResolver(reg, slog.New(slog.NewTextHandler(&buf, nil)))
	ctx := context.Background()

	if _, degraded := r.Discover(ctx, registry.Filter{}); degraded {
		t.Fatal("first discovery should succeed")
	}

	reg.failing = true
	recs, degraded := r.Discover(ctx, registry.Filter{})
	if !degraded {
		t.Fatal("expected degraded discovery")
	}
	if len(recs) != 1 || recs[0].RouteID != "rt_1" {
		t.Fatalf("expected last known snapshot, got %+v", recs)
	}
	if n := strings.Count(buf.String(), "route discovery degraded"); n != 1 {
		t.Errorf("expected exactly one degraded warning, got %d", n)
	}
}

func TestDiscover_DegradedWithNoSnapshotReturnsEmpty(t *testing.T) {
	reg := &flakyRegistry{failing: true}
	r := NewResolver(reg, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	recs, degraded := r.Discover(context.Background(), registry.Filter{})
	if !degraded {
		t.Fatal("expected degraded discovery")
	}
	if len(recs) != 0 {
		t.Fatalf("expected empty snapshot, got %d records", len(recs))
	}
}

func TestDiscover_RecoveryRefreshesSnapshot(t *testing.T) {
	reg := &flakyRegistry{records: []*route.Record{testRecord("rt_1")}}
	r := NewResolver(reg, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	ctx := context.Background()

	r.Discover(ctx, registry.Filter{})
	reg.failing = true
	r.Discover(ctx, registry.Filter{})

	reg.failing = false
	reg.records = []*route.Record{testRecord("rt_1"), testRecord("rt_3")}
	recs, degraded := r.Discover(ctx, registry.Filter{})
	if degraded {
		t.Fatal("expected recovery")
	}
	if len(recs) != 2 {
		t.Fatalf("expected refreshed snapshot of 2, got %d", len(recs))
	}
}
