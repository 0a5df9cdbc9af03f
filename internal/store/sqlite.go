// internal/store/sqlite.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/tavernlabs/liarsbar/internal/game"
)

// SQLiteStore keeps the snapshot as a single row. The upsert runs inside
// one statement, so a crash never leaves a torn document.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS snapshots (
    id       INTEGER PRIMARY KEY CHECK (id = 1),
    doc      BLOB NOT NULL,
    saved_at TEXT NOT NULL DEFAULT (datetime('now'))
);`)
	if err != nil {
		return fmt.Errorf("init sqlite schema: %w", err)
	}
	return nil
}

// Save upserts the single snapshot row.
func (s *SQLiteStore) Save(ctx context.Context, snap *game.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO snapshots (id, doc, saved_at) VALUES (1, ?, datetime('now'))
ON CONFLICT(id) DO UPDATE SET doc = excluded.doc, saved_at = excluded.saved_at;`, data)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot row, or returns (nil, nil) when absent.
func (s *SQLiteStore) Load(ctx context.Context) (*game.Snapshot, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM snapshots WHERE id = 1;`).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	var snap game.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }
