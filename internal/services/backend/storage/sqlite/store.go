// Package sqlite provides a SQLite-backed record store. Records are JSON
// documents scoped by owner and resource; filters run over json_extract.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/louisbranch/boardkit/internal/listview/filter"
	"github.com/louisbranch/boardkit/internal/listview/record"
	"github.com/louisbranch/boardkit/internal/platform/id"
	sqlitemigrate "github.com/louisbranch/boardkit/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/boardkit/internal/services/backend/storage"
	"github.com/louisbranch/boardkit/internal/services/backend/storage/sqlite/migrations"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Store persists backend records in SQLite.
type Store struct {
	sqlDB *sql.DB
	newID func() (string, error)
}

var fieldPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Column returns the SQL expression reading field from a stored document.
// Field names outside [a-z0-9_] are rejected with a never-true expression.
func Column(field string) string {
	if !fieldPattern.MatchString(field) {
		return "NULL"
	}
	return "json_extract(doc, '$." + field + "')"
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// Open opens a SQLite record store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlitemigrate.Apply(context.Background(), sqlDB, migrations.FS, "."); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, newID: id.NewID}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// List returns the scope's records in insertion order, or newest first.
func (s *Store) List(ctx context.Context, scope storage.Scope, opts storage.ListOptions) ([]record.Document, error) {
	if err := s.check(ctx, scope); err != nil {
		return nil, err
	}
	columns := make(map[string]string, len(opts.Fields))
	for _, field := range opts.Fields {
		columns[field] = Column(field)
	}
	cond, err := filter.ToSQL(opts.Filter, columns)
	if err != nil {
		return nil, fmt.Errorf("translate filter: %w", err)
	}
	query := `SELECT doc FROM records WHERE owner_id = ? AND resource = ?`
	args := []any{scope.OwnerID, scope.Resource}
	if !cond.Empty() {
		query += " AND " + cond.Clause
		args = append(args, cond.Params...)
	}
	if opts.NewestFirst {
		query += " ORDER BY seq DESC"
	} else {
		query += " ORDER BY seq ASC"
	}
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", scope.Resource, err)
	}
	defer rows.Close()

	out := []record.Document{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan %s: %w", scope.Resource, err)
		}
		doc, err := decode(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", scope.Resource, err)
	}
	return out, nil
}

// Get returns one record.
func (s *Store) Get(ctx context.Context, scope storage.Scope, recordID string) (record.Document, error) {
	if err := s.check(ctx, scope); err != nil {
		return nil, err
	}
	return get(ctx, s.sqlDB, scope, recordID)
}

// Create assigns an identifier and timestamps to doc and stores it at the
// end of the scope's sequence.
func (s *Store) Create(ctx context.Context, scope storage.Scope, doc record.Document, now time.Time) (record.Document, error) {
	if err := s.check(ctx, scope); err != nil {
		return nil, err
	}
	recordID, err := s.newID()
	if err != nil {
		return nil, err
	}
	stamp := now.UTC().Format(time.RFC3339Nano)
	stored := doc.WithID(recordID)
	stored["created_at"] = stamp
	stored["updated_at"] = stamp
	raw, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", scope.Resource, err)
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var seq int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM records WHERE owner_id = ? AND resource = ?`,
		scope.OwnerID, scope.Resource,
	).Scan(&seq); err != nil {
		return nil, fmt.Errorf("next sequence: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO records (owner_id, resource, id, seq, doc, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		scope.OwnerID, scope.Resource, recordID, seq, string(raw), toMillis(now), toMillis(now),
	); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("record id %s already exists", recordID)
		}
		return nil, fmt.Errorf("create %s: %w", scope.Resource, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create: %w", err)
	}
	return stored, nil
}

// Update merges patch into the stored record. The identifier and creation
// time are never changed.
func (s *Store) Update(ctx context.Context, scope storage.Scope, recordID string, patch map[string]any, now time.Time) (record.Document, error) {
	if err := s.check(ctx, scope); err != nil {
		return nil, err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := get(ctx, tx, scope, recordID)
	if err != nil {
		return nil, err
	}
	clean := make(map[string]any, len(patch))
	for key, value := range patch {
		if key == "created_at" || key == "updated_at" {
			continue
		}
		clean[key] = value
	}
	next := current.Merge(clean)
	next["updated_at"] = now.UTC().Format(time.RFC3339Nano)
	raw, err := json.Marshal(next)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", scope.Resource, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE records SET doc = ?, updated_at = ? WHERE owner_id = ? AND resource = ? AND id = ?`,
		string(raw), toMillis(now), scope.OwnerID, scope.Resource, recordID,
	); err != nil {
		return nil, fmt.Errorf("update %s: %w", scope.Resource, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update: %w", err)
	}
	return next, nil
}

// Delete removes one record.
func (s *Store) Delete(ctx context.Context, scope storage.Scope, recordID string) error {
	if err := s.check(ctx, scope); err != nil {
		return err
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM records WHERE owner_id = ? AND resource = ? AND id = ?`,
		scope.OwnerID, scope.Resource, recordID,
	)
	if err != nil {
		return fmt.Errorf("delete %s: %w", scope.Resource, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete %s: %w", scope.Resource, err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) check(ctx context.Context, scope storage.Scope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(scope.OwnerID) == "" {
		return fmt.Errorf("owner id is required")
	}
	if strings.TrimSpace(scope.Resource) == "" {
		return fmt.Errorf("resource is required")
	}
	return nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func get(ctx context.Context, q queryer, scope storage.Scope, recordID string) (record.Document, error) {
	var raw string
	err := q.QueryRowContext(ctx,
		`SELECT doc FROM records WHERE owner_id = ? AND resource = ? AND id = ?`,
		scope.OwnerID, scope.Resource, recordID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", scope.Resource, err)
	}
	return decode(raw)
}

func decode(raw string) (record.Document, error) {
	var doc record.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("decode stored record: %w", err)
	}
	return doc, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	return false
}

var _ storage.RecordStore = (*Store)(nil)
