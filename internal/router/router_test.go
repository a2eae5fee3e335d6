package router

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/pillarhq/routegate/internal/binding"
	"github.com/pillarhq/routegate/internal/middleware"
	"github.com/pillarhq/routegate/internal/route"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func record(method, pattern, handlerRef string) *route.Record {
	return &route.Record{
		RouteID:     route.DeriveID(method, pattern, "test-service"),
		Method:      method,
		PathPattern: pattern,
		Tag:         "content-pillar",
		HandlerRef:  handlerRef,
		Status:      route.StatusActive,
	}
}

func echoHandler(body string) route.Handler {
	return func(ctx context.Context, req *route.Request) (*route.Response, error) {
		return route.JSON(http.StatusOK, map[string]any{
			"body":   body,
			"params": req.PathParams,
		}), nil
	}
}

func buildTestRouter(t *testing.T, records []*route.Record, handlers map[string]route.Handler) *Router {
	t.Helper()
	b := binding.NewBinder()
	for name, h := range handlers {
		if err := b.RegisterHandler(name, h); err != nil {
			t.Fatalf("RegisterHandler error: %v", err)
		}
	}
	r := New(discardLogger())
	r.Publish(BuildTable(records, b, middleware.ChainConfig{Logger: discardLogger()}, discardLogger()))
	return r
}

func TestRouteRequest_Matched(t *testing.T) {
	r := buildTestRouter(t,
		[]*route.Record{record(http.MethodGet, "/widgets/{id}", "get_widget")},
		map[string]route.Handler{"get_widget": echoHandler("widget")})

	res := r.RouteRequest(context.Background(), &route.Request{Method: http.MethodGet, Path: "/widgets/42"})
	if res.Outcome != OutcomeMatched {
		t.Fatalf("outcome = %v, want matched (err %v)", res.Outcome, res.Err)
	}
	if res.Response == nil || res.Response.Status != http.StatusOK {
		t.Fatalf("unexpected response %+v", res.Response)
	}
}

func TestRouteRequest_PathParamsAndTag(t *testing.T) {
	var gotParams map[string]string
	var gotTag string
	h := func(ctx context.Context, req *route.Request) (*route.Response, error) {
		gotParams, gotTag = req.PathParams, req.Tag
		return route.JSON(http.StatusOK, nil), nil
	}
	r := buildTestRouter(t,
		[]*route.Record{record(http.MethodGet, "/widgets/{id}/parts/{part}", "h")},
		map[string]route.Handler{"h": h})

	res := r.RouteRequest(context.Background(), &route.Request{Method: http.MethodGet, Path: "/widgets/42/parts/7"})
	if res.Outcome != OutcomeMatched {
		t.Fatalf("outcome = %v, want matched", res.Outcome)
	}
	if gotParams["id"] != "42" || gotParams["part"] != "7" {
		t.Errorf("params = %v, want id=42 part=7", gotParams)
	}
	if gotTag != "content-pillar" {
		t.Errorf("tag = %q, want content-pillar", gotTag)
	}
}

func TestRouteRequest_LiteralBeatsParam(t *testing.T) {
	r := buildTestRouter(t,
		[]*route.Record{
			record(http.MethodGet, "/widgets/{id}", "by_id"),
			record(http.MethodGet, "/widgets/featured", "featured"),
		},
		map[string]route.Handler{
			"by_id":    echoHandler("by_id"),
			"featured": echoHandler("featured"),
		})

	entry, params, ok := r.FindRoute(http.MethodGet, "/widgets/featured")
	if !ok {
		t.Fatal("expected a match")
	}
	if entry.Record.HandlerRef != "featured" {
		t.Errorf("matched %q, want the literal route", entry.Record.HandlerRef)
	}
	if len(params) != 0 {
		t.Errorf("literal match should carry no params, got %v", params)
	}

	entry, params, ok = r.FindRoute(http.MethodGet, "/widgets/42")
	if !ok || entry.Record.HandlerRef != "by_id" {
		t.Fatalf("expected parameterized fallback, got %+v", entry)
	}
	if params["id"] != "42" {
		t.Errorf("params = %v, want id=42", params)
	}
}

func TestRouteRequest_NotFound(t *testing.T) {
	r := buildTestRouter(t,
		[]*route.Record{record(http.MethodGet, "/widgets", "list")},
		map[string]route.Handler{"list": echoHandler("list")})

	res := r.RouteRequest(context.Background(), &route.Request{Method: http.MethodDelete, Path: "/widgets"})
	if res.Outcome != OutcomeNotFound {
		t.Fatalf("outcome = %v, want not_found", res.Outcome)
	}
	if !route.IsNotFound(res.Err) {
		t.Errorf("expected route-not-found error, got %v", res.Err)
	}

	res = r.RouteRequest(context.Background(), &route.Request{Method: http.MethodGet, Path: "/nothing"})
	if res.Outcome != OutcomeNotFound {
		t.Fatalf("outcome = %v, want not_found", res.Outcome)
	}
}

func TestRouteRequest_InternalError(t *testing.T) {
	boom := errors.New("downstream unavailable")
	h := func(ctx context.Context, req *route.Request) (*route.Response, error) {
		return nil, boom
	}
	r := buildTestRouter(t,
		[]*route.Record{record(http.MethodGet, "/widgets", "h")},
		map[string]route.Handler{"h": h})

	res := r.RouteRequest(context.Background(), &route.Request{Method: http.MethodGet, Path: "/widgets"})
	if res.Outcome != OutcomeInternalError {
		t.Fatalf("outcome = %v, want internal_error", res.Outcome)
	}
	if !errors.Is(res.Err, boom) {
		t.Errorf("expected original error, got %v", res.Err)
	}
	if res.Response != nil {
		t.Errorf("expected no response, got %+v", res.Response)
	}
}

func TestRouteRequest_NilResponseWithoutError(t *testing.T) {
	h := func(ctx context.Context, req *route.Request) (*route.Response, error) {
		return nil, nil
	}
	r := buildTestRouter(t,
		[]*route.Record{record(http.MethodGet, "/widgets", "h")},
		map[string]route.Handler{"h": h})

	res := r.RouteRequest(context.Background(), &route.Request{Method: http.MethodGet, Path: "/widgets"})
	if res.Outcome != OutcomeInternalError {
		t.Fatalf("outcome = %v, want internal_error", res.Outcome)
	}
	if res.Err == nil {
		t.Error("expected an error describing the empty handler result")
	}
	if res.Response != nil {
		t.Errorf("expected no response, got %+v", res.Response)
	}
}

func TestRouteRequest_TypedErrorBecomesStructuredMatch(t *testing.T) {
	h := func(ctx context.Context, req *route.Request) (*route.Response, error) {
		return nil, route.ErrInvalidSpec("bad widget payload")
	}
	r := buildTestRouter(t,
		[]*route.Record{record(http.MethodPost, "/widgets", "h")},
		map[string]route.Handler{"h": h})

	res := r.RouteRequest(context.Background(), &route.Request{Method: http.MethodPost, Path: "/widgets"})
	if res.Outcome != OutcomeMatched {
		t.Fatalf("outcome = %v, want matched (boundary converts typed errors)", res.Outcome)
	}
	if res.Response == nil || res.Response.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 structured response, got %+v", res.Response)
	}
}

func TestBuildTable_SkipsBadRecords(t *testing.T) {
	b := binding.NewBinder()
	if err := b.RegisterHandler("good", echoHandler("good")); err != nil {
		t.Fatal(err)
	}

	records := []*route.Record{
		record(http.MethodGet, "/good", "good"),
		record(http.MethodGet, "/bad/{", "good"),
		record(http.MethodGet, "/remote", "owned_elsewhere"),
	}

	table := BuildTable(records, b, middleware.ChainConfig{Logger: discardLogger()}, discardLogger())
	if table.Bound != 1 {
		t.Errorf("Bound = %d, want 1", table.Bound)
	}
	if table.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", table.Skipped)
	}
	if _, _, ok := table.Find(http.MethodGet, "/good"); !ok {
		t.Error("good route should still dispatch")
	}
}

func TestPublish_SwapIsAtomic(t *testing.T) {
	b := binding.NewBinder()
	if err := b.RegisterHandler("h", echoHandler("h")); err != nil {
		t.Fatal(err)
	}
	r := New(discardLogger())
	r.Publish(BuildTable([]*route.Record{record(http.MethodGet, "/widgets", "h")}, b,
		middleware.ChainConfig{Logger: discardLogger()}, discardLogger()))

	var misses atomic.Int64
	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				res := r.RouteRequest(context.Background(), &route.Request{Method: http.MethodGet, Path: "/widgets"})
				if res.Outcome != OutcomeMatched {
					misses.Add(1)
				}
			}
		}()
	}

	// Republish an equivalent table repeatedly while requests are in flight.
	for i := 0; i < 200; i++ {
		r.Publish(BuildTable([]*route.Record{record(http.MethodGet, "/widgets", "h")}, b,
			middleware.ChainConfig{Logger: discardLogger()}, discardLogger()))
	}
	close(stop)
	wg.Wait()

	if misses.Load() != 0 {
		t.Errorf("requests observed a partial table %d times", misses.Load())
	}
}

func TestEntries_OrderedByRouteID(t *testing.T) {
	b := binding.NewBinder()
	if err := b.RegisterHandler("h", echoHandler("h")); err != nil {
		t.Fatal(err)
	}
	records := []*route.Record{
		record(http.MethodGet, "/widgets/{id}", "h"),
		record(http.MethodGet, "/widgets", "h"),
		record(http.MethodPost, "/widgets", "h"),
	}
	table := BuildTable(records, b, middleware.ChainConfig{Logger: discardLogger()}, discardLogger())

	entries := table.Entries()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i-1].Record.RouteID >= entries[i].Record.RouteID {
			t.Errorf("entries not ordered: %s before %s",
				entries[i-1].Record.RouteID, entries[i].Record.RouteID)
		}
	}
}
