// Package sqlite provides a durable route registry backed by SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pillarhq/routegate/internal/pathmatch"
	"github.com/pillarhq/routegate/internal/registry"
	"github.com/pillarhq/routegate/internal/route"
)

// Store is a SQLite implementation of registry.Registry. The (method,
// path_pattern) uniqueness invariant is enforced in this layer, inside a
// transaction, rather than by a storage constraint: ambiguity between
// parameterized patterns cannot be expressed as a column constraint.
type Store struct {
	db *sql.DB
}

var _ registry.Registry = (*Store)(nil)

// New opens (or creates) the registry database at path.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS routes (
			route_id TEXT PRIMARY KEY,
			method TEXT NOT NULL,
			path_pattern TEXT NOT NULL,
			tag TEXT NOT NULL DEFAULT '',
			owning_service TEXT NOT NULL DEFAULT '',
			capability TEXT NOT NULL DEFAULT '',
			handler_ref TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			version TEXT NOT NULL DEFAULT '',
			defined_by TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_routes_method_status ON routes(method, status)`,
		`CREATE INDEX IF NOT EXISTS idx_routes_tag ON routes(tag)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

const recordColumns = `route_id, method, path_pattern, tag, owning_service, capability,
	handler_ref, description, version, defined_by, status, created_at, updated_at`

func scanRecord(row interface{ Scan(...any) error }) (*route.Record, error) {
	var rec route.Record
	err := row.Scan(&rec.RouteID, &rec.Method, &rec.PathPattern, &rec.Tag,
		&rec.OwningService, &rec.Capability, &rec.HandlerRef, &rec.Description,
		&rec.Version, &rec.DefinedBy, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *Store) Register(ctx context.Context, rec *route.Record) error {
	pat, err := pathmatch.Compile(rec.PathPattern)
	if err != nil {
		return route.ErrInvalidSpec(err.Error())
	}
	if rec.RouteID == "" {
		return route.ErrInvalidSpec("route_id is required")
	}
	if !route.SupportedMethod(rec.Method) {
		return route.ErrInvalidSpec("unsupported method: " + rec.Method)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return route.ErrRegistryUnavailable(err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	existing, err := s.getTx(ctx, tx, rec.RouteID)
	if err != nil && !route.IsNotFound(err) {
		return err
	}
	if existing != nil && existing.Status == route.StatusActive && existing.SameSpec(rec) {
		// Idempotent re-registration.
		return nil
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM routes WHERE method = ? AND status = ?`,
		rec.Method, route.StatusActive)
	if err != nil {
		return route.ErrRegistryUnavailable(err)
	}
	var active []*route.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			rows.Close()
			return route.ErrRegistryUnavailable(err)
		}
		active = append(active, r)
	}
	if err := rows.Close(); err != nil {
		return route.ErrRegistryUnavailable(err)
	}

	for _, other := range active {
		if other.RouteID == rec.RouteID {
			continue
		}
		if other.PathPattern == rec.PathPattern {
			return route.ErrDuplicateRoute(rec.Method, rec.PathPattern, other.RouteID)
		}
		otherPat, err := pathmatch.Compile(other.PathPattern)
		if err != nil {
			continue
		}
		if !pat.IsLiteral() && !otherPat.IsLiteral() && pathmatch.Overlaps(pat, otherPat) {
			return route.ErrDuplicateRoute(rec.Method, rec.PathPattern, other.RouteID)
		}
	}

	createdAt := now
	if existing != nil {
		createdAt = existing.CreatedAt
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO routes (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(route_id) DO UPDATE SET
			method = excluded.method,
			path_pattern = excluded.path_pattern,
			tag = excluded.tag,
			owning_service = excluded.owning_service,
			capability = excluded.capability,
			handler_ref = excluded.handler_ref,
			description = excluded.description,
			version = excluded.version,
			defined_by = excluded.defined_by,
			status = excluded.status,
			updated_at = excluded.updated_at`,
		rec.RouteID, rec.Method, rec.PathPattern, rec.Tag, rec.OwningService,
		rec.Capability, rec.HandlerRef, rec.Description, rec.Version,
		rec.DefinedBy, route.StatusActive, createdAt, now)
	if err != nil {
		return route.ErrRegistryUnavailable(err)
	}

	if err := tx.Commit(); err != nil {
		return route.ErrRegistryUnavailable(err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, f registry.Filter) ([]*route.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM routes WHERE 1=1`
	var args []any
	if f.Tag != "" {
		query += ` AND tag = ?`
		args = append(args, f.Tag)
	}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, f.Status)
	}
	query += ` ORDER BY route_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, route.ErrRegistryUnavailable(err)
	}
	defer rows.Close()

	var result []*route.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, route.ErrRegistryUnavailable(err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, route.ErrRegistryUnavailable(err)
	}
	return result, nil
}

func (s *Store) Get(ctx context.Context, routeID string) (*route.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM routes WHERE route_id = ?`, routeID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, route.ErrRecordNotFound(routeID)
	}
	if err != nil {
		return nil, route.ErrRegistryUnavailable(err)
	}
	return rec, nil
}

func (s *Store) getTx(ctx context.Context, tx *sql.Tx, routeID string) (*route.Record, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM routes WHERE route_id = ?`, routeID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, route.ErrRecordNotFound(routeID)
	}
	if err != nil {
		return nil, route.ErrRegistryUnavailable(err)
	}
	return rec, nil
}

func (s *Store) Deprecate(ctx context.Context, routeID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE routes SET status = ?, updated_at = ? WHERE route_id = ?`,
		route.StatusDeprecated, time.Now().UTC(), routeID)
	if err != nil {
		return route.ErrRegistryUnavailable(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return route.ErrRegistryUnavailable(err)
	}
	if affected == 0 {
		return route.ErrRecordNotFound(routeID)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
