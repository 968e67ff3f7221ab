// Package store provides the SQLite database wrapper and model types for
// tokentools: saved input snippets and the conversion history.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store wraps *sql.DB and provides migration support.
type Store struct {
	*sql.DB
}

// New opens a SQLite connection with WAL mode and foreign keys enabled.
// Driver name is "sqlite" (modernc.org/sqlite, not mattn/go-sqlite3).
func New(path string) (*Store, error) {
	sqlDB, err := sql.Open("sqlite", path+"?_journal=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store.New: open: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("store.New: ping: %w", err)
	}
	// Limit to 1 writer at a time to avoid SQLITE_BUSY in WAL mode.
	sqlDB.SetMaxOpenConns(1)
	return &Store{sqlDB}, nil
}

const schemaVersion = 1

// Migrate runs all CREATE TABLE IF NOT EXISTS migrations exactly once per
// schema version.
func (s *Store) Migrate() error {
	if _, err := s.Exec(ddlSettings); err != nil {
		return fmt.Errorf("store.Migrate: settings table: %w", err)
	}

	var version int
	row := s.QueryRow(`SELECT value FROM settings WHERE key='schema_version' LIMIT 1`)
	_ = row.Scan(&version) // Row may not exist yet (version=0).

	if version >= schemaVersion {
		return nil
	}

	for _, ddl := range []string{ddlSnippets, ddlConversions} {
		if _, err := s.Exec(ddl); err != nil {
			return fmt.Errorf("store.Migrate: %w", err)
		}
	}

	_, err := s.Exec(`INSERT INTO settings (key, value) VALUES ('schema_version', ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value`, schemaVersion)
	if err != nil {
		return fmt.Errorf("store.Migrate: schema_version upsert: %w", err)
	}
	return nil
}

const ddlSettings = `CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL DEFAULT ''
)`

const ddlSnippets = `CREATE TABLE IF NOT EXISTS snippets (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	input      TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
)`

const ddlConversions = `CREATE TABLE IF NOT EXISTS conversions (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	input_chars INTEGER NOT NULL,
	input_bytes INTEGER NOT NULL,
	counts_json TEXT NOT NULL,
	created_at  TIMESTAMP NOT NULL
)`

// ── Model Types ──────────────────────────────────────────────────────────────

// Snippet is a saved input document.
type Snippet struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Input     string    `json:"input"`
	CreatedAt time.Time `json:"created_at"`
}

// Conversion records one completed conversion pass: the input's size and the
// per-format counts, serialized as JSON. The input text itself is not kept.
type Conversion struct {
	ID         int       `json:"id"`
	InputChars int       `json:"input_chars"`
	InputBytes int       `json:"input_bytes"`
	CountsJSON string    `json:"counts"`
	CreatedAt  time.Time `json:"created_at"`
}

// ── Snippets ─────────────────────────────────────────────────────────────────

// CreateSnippet saves an input under a name and returns the stored snippet.
func (s *Store) CreateSnippet(ctx context.Context, name, input string) (*Snippet, error) {
	sn := &Snippet{
		ID:        uuid.NewString(),
		Name:      name,
		Input:     input,
		CreatedAt: time.Now(),
	}
	_, err := s.ExecContext(ctx,
		`INSERT INTO snippets (id, name, input, created_at) VALUES (?,?,?,?)`,
		sn.ID, sn.Name, sn.Input, sn.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("store.CreateSnippet: %w", err)
	}
	return sn, nil
}

// GetSnippet fetches one snippet by id. Returns nil, nil when not found.
func (s *Store) GetSnippet(ctx context.Context, id string) (*Snippet, error) {
	var sn Snippet
	err := s.QueryRowContext(ctx,
		`SELECT id, name, input, created_at FROM snippets WHERE id=?`, id,
	).Scan(&sn.ID, &sn.Name, &sn.Input, &sn.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store.GetSnippet: %w", err)
	}
	return &sn, nil
}

// ListSnippets returns all snippets, newest first.
func (s *Store) ListSnippets(ctx context.Context) ([]Snippet, error) {
	rows, err := s.QueryContext(ctx,
		`SELECT id, name, input, created_at FROM snippets ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("store.ListSnippets: %w", err)
	}
	defer rows.Close()

	snippets := []Snippet{}
	for rows.Next() {
		var sn Snippet
		if err := rows.Scan(&sn.ID, &sn.Name, &sn.Input, &sn.CreatedAt); err != nil {
			return nil, fmt.Errorf("store.ListSnippets: scan: %w", err)
		}
		snippets = append(snippets, sn)
	}
	return snippets, rows.Err()
}

// DeleteSnippet removes a snippet. Deleting a missing id is not an error.
func (s *Store) DeleteSnippet(ctx context.Context, id string) error {
	_, err := s.ExecContext(ctx, `DELETE FROM snippets WHERE id=?`, id)
	if err != nil {
		return fmt.Errorf("store.DeleteSnippet: %w", err)
	}
	return nil
}

// ── Conversion history ───────────────────────────────────────────────────────

// RecordConversion appends one history row.
func (s *Store) RecordConversion(ctx context.Context, inputChars, inputBytes int, countsJSON string) error {
	_, err := s.ExecContext(ctx,
		`INSERT INTO conversions (input_chars, input_bytes, counts_json, created_at) VALUES (?,?,?,?)`,
		inputChars, inputBytes, countsJSON, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("store.RecordConversion: %w", err)
	}
	return nil
}

// ListConversions returns the most recent history rows, newest first.
func (s *Store) ListConversions(ctx context.Context, limit int) ([]Conversion, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.QueryContext(ctx, `
		SELECT id, input_chars, input_bytes, counts_json, created_at
		FROM conversions ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store.ListConversions: %w", err)
	}
	defer rows.Close()

	convs := []Conversion{}
	for rows.Next() {
		var c Conversion
		if err := rows.Scan(&c.ID, &c.InputChars, &c.InputBytes, &c.CountsJSON, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("store.ListConversions: scan: %w", err)
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}

// CountConversions returns the number of history rows.
func (s *Store) CountConversions(ctx context.Context) (int, error) {
	var n int
	err := s.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversions`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("store.CountConversions: %w", err)
	}
	return n, nil
}

// PruneConversions deletes history rows older than cutoff and returns how
// many were removed.
func (s *Store) PruneConversions(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.ExecContext(ctx, `DELETE FROM conversions WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("store.PruneConversions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("store.PruneConversions: rows affected: %w", err)
	}
	return n, nil
}
