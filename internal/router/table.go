package router

import (
	"log/slog"
	"sort"
	"time"

	"github.com/pillarhq/routegate/internal/binding"
	"github.com/pillarhq/routegate/internal/middleware"
	"github.com/pillarhq/routegate/internal/pathmatch"
	"github.com/pillarhq/routegate/internal/route"
)

// Entry is one dispatchable route: the record, its compiled pattern, and the
// bound handler already wrapped in its middleware chain.
type Entry struct {
	Record  *route.Record
	Pattern *pathmatch.Pattern

	handler route.Handler
}

// Table is an immutable dispatch structure. It is built aside and published
// atomically; request goroutines only ever read a fully built table.
type Table struct {
	// literals indexes exact-path entries by method then path.
	literals map[string]map[string]*Entry

	// params holds parameterized entries by method, ordered by route ID so
	// dispatch is deterministic.
	params map[string][]*Entry

	BuiltAt time.Time
	Bound   int
	Skipped int
}

// NewTable returns an empty table so the router never dereferences nil
// before the first publish.
func NewTable() *Table {
	return &Table{
		literals: make(map[string]map[string]*Entry),
		params:   make(map[string][]*Entry),
		BuiltAt:  time.Now().UTC(),
	}
}

// BuildTable compiles and binds the given records into a fresh table.
// Records with invalid patterns or unresolvable handlers are skipped with a
// warning; a bad record never poisons the rest of the table.
func BuildTable(records []*route.Record, binder *binding.Binder, chainCfg middleware.ChainConfig, logger *slog.Logger) *Table {
	if logger == nil {
		logger = slog.Default()
	}
	t := NewTable()

	for _, rec := range records {
		pat, err := pathmatch.Compile(rec.PathPattern)
		if err != nil {
			logger.Warn("skipping route with invalid pattern",
				slog.String("route_id", rec.RouteID),
				slog.String("pattern", rec.PathPattern),
				slog.String("error", err.Error()))
			t.Skipped++
			continue
		}

		h, err := binder.Bind(rec)
		if err != nil {
			if route.IsNotResolvable(err) {
				logger.Debug("skipping route without local handler",
					slog.String("route_id", rec.RouteID),
					slog.String("handler_ref", rec.HandlerRef))
			} else {
				logger.Warn("skipping route that failed to bind",
					slog.String("route_id", rec.RouteID),
					slog.String("error", err.Error()))
			}
			t.Skipped++
			continue
		}

		entry := &Entry{
			Record:  rec,
			Pattern: pat,
			handler: middleware.Chain(h, middleware.Build(chainCfg, rec.Tag)...),
		}

		if pat.IsLiteral() {
			byPath, ok := t.literals[rec.Method]
			if !ok {
				byPath = make(map[string]*Entry)
				t.literals[rec.Method] = byPath
			}
			byPath[pat.String()] = entry
		} else {
			t.params[rec.Method] = append(t.params[rec.Method], entry)
		}
		t.Bound++
	}

	for _, entries := range t.params {
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].Record.RouteID < entries[j].Record.RouteID
		})
	}
	return t
}

// Find locates the entry for a method and concrete path. Literal matches win
// over parameterized ones.
func (t *Table) Find(method, path string) (*Entry, map[string]string, bool) {
	if byPath, ok := t.literals[method]; ok {
		if entry, ok := byPath[normalize(path)]; ok {
			return entry, nil, true
		}
	}
	for _, entry := range t.params[method] {
		if params, ok := entry.Pattern.Match(path); ok {
			return entry, params, true
		}
	}
	return nil, nil, false
}

// Entries returns every entry in the table, ordered by route ID.
func (t *Table) Entries() []*Entry {
	var entries []*Entry
	for _, byPath := range t.literals {
		for _, e := range byPath {
			entries = append(entries, e)
		}
	}
	for _, byMethod := range t.params {
		entries = append(entries, byMethod...)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Record.RouteID < entries[j].Record.RouteID
	})
	return entries
}

// normalize strips a trailing slash so /widgets/ and /widgets dispatch the
// same way literal patterns are compiled.
func normalize(path string) string {
	if len(path) > 1 && path[len(path)-1] == '/' {
		return path[:len(path)-1]
	}
	return path
}
