package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/MrEthical07/regulator/ruleset"
)

const timeFormat = time.RFC3339Nano

const schema = `
CREATE TABLE IF NOT EXISTS rulesets (
	name       TEXT PRIMARY KEY,
	body       BLOB NOT NULL,
	version    INTEGER NOT NULL,
	deleted    INTEGER NOT NULL DEFAULT 0,
	updated_at TEXT NOT NULL
)`

// SQLiteStore keeps rule sets in a SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) a store at path. ":memory:" is accepted for tests.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := path
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Save upserts the body and bumps the version in one statement. A tombstoned
// row is revived with its counter intact.
func (s *SQLiteStore) Save(ctx context.Context, rs *ruleset.RuleSet) (int64, error) {
	data, err := encode(rs)
	if err != nil {
		return 0, err
	}

	var version int64
	err = s.db.QueryRowContext(ctx, `
INSERT INTO rulesets (name, body, version, updated_at) VALUES (?, ?, 1, ?)
ON CONFLICT(name) DO UPDATE SET
	body = excluded.body,
	version = rulesets.version + 1,
	deleted = 0,
	updated_at = excluded.updated_at
RETURNING version`,
		rs.Name, data, time.Now().UTC().Format(timeFormat),
	).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return version, nil
}

func (s *SQLiteStore) Get(ctx context.Context, name string) (*ruleset.RuleSet, int64, error) {
	var (
		data    []byte
		version int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT body, version FROM rulesets WHERE name = ? AND deleted = 0`, name,
	).Scan(&data, &version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	rs, err := decode(data)
	if err != nil {
		return nil, 0, err
	}
	return rs, version, nil
}

func (s *SQLiteStore) Version(ctx context.Context, name string) (int64, error) {
	var version int64
	err := s.db.QueryRowContext(ctx,
		`SELECT version FROM rulesets WHERE name = ? AND deleted = 0`, name,
	).Scan(&version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return version, nil
}

// Delete tombstones the row so its version keeps counting on the next Save.
func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE rulesets SET deleted = 1, updated_at = ? WHERE name = ? AND deleted = 0`,
		time.Now().UTC().Format(timeFormat), name,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM rulesets WHERE deleted = 0 ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return names, nil
}

var _ Store = (*SQLiteStore)(nil)
