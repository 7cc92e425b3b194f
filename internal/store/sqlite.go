// ABOUTME: SQLite-backed cache of resolved entities using modernc.org/sqlite.
// ABOUTME: Caches peer identity and access hash only; messages are never persisted.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lanternworks/telegate/internal/telegram"
)

// DefaultTTL bounds how long a cached resolution is trusted. Access
// hashes stay valid for the life of the session, but titles and usernames
// drift, so entries age out.
const DefaultTTL = 24 * time.Hour

// SQLiteStore caches resolved entities between requests so repeat lookups
// of the same target skip the remote resolution round trip.
type SQLiteStore struct {
	db     *sql.DB
	ttl    time.Duration
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) the cache database at path. Parent
// directories are created if needed; ":memory:" is supported for tests.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// WAL keeps concurrent readers cheap while a resolve writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		ttl:    DefaultTTL,
		logger: logger,
	}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("entity cache initialized", "path", path)
	return s, nil
}

func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS entities (
			key         TEXT PRIMARY KEY,
			kind        TEXT NOT NULL,
			peer_id     INTEGER NOT NULL,
			access_hash INTEGER NOT NULL,
			title       TEXT NOT NULL DEFAULT '',
			username    TEXT NOT NULL DEFAULT '',
			resolved_at TIMESTAMP NOT NULL
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// GetEntity returns the cached entity for key, if present and fresh.
func (s *SQLiteStore) GetEntity(ctx context.Context, key string) (*telegram.Entity, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT kind, peer_id, access_hash, title, username, resolved_at
		FROM entities WHERE key = ?`, key)

	var (
		e          telegram.Entity
		kind       string
		resolvedAt time.Time
	)
	err := row.Scan(&kind, &e.ID, &e.AccessHash, &e.Title, &e.Username, &resolvedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading entity: %w", err)
	}

	if time.Since(resolvedAt) > s.ttl {
		// Stale; let the caller re-resolve and overwrite.
		return nil, false, nil
	}
	e.Kind = telegram.EntityKind(kind)
	return &e, true, nil
}

// PutEntity upserts a resolved entity under key.
func (s *SQLiteStore) PutEntity(ctx context.Context, key string, e *telegram.Entity) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entities (key, kind, peer_id, access_hash, title, username, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			kind = excluded.kind,
			peer_id = excluded.peer_id,
			access_hash = excluded.access_hash,
			title = excluded.title,
			username = excluded.username,
			resolved_at = excluded.resolved_at`,
		key, string(e.Kind), e.ID, e.AccessHash, e.Title, e.Username, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("writing entity: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
