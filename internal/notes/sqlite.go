// SPDX-License-Identifier: AGPL-3.0-or-later

package notes

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

// SchemaVersion is the current store schema version.
const SchemaVersion = "1"

// SQLite is a SQLite-backed note store. It implements both Operations and
// the directive result cache.
type SQLite struct {
	mu     sync.Mutex
	db     *sql.DB
	userID string
	now    func() time.Time
}

// NewSQLite opens (creating if needed) a note store at the given path.
func NewSQLite(path, userID string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS notes (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			path TEXT NOT NULL UNIQUE,
			content TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			last_accessed_at TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS directive_cache (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLite{db: db, userID: userID, now: time.Now}

	version, err := s.getMetadata("schema_version")
	if err != nil {
		db.Close()
		return nil, err
	}
	switch version {
	case "":
		if err := s.setMetadata("schema_version", SchemaVersion); err != nil {
			db.Close()
			return nil, err
		}
	case SchemaVersion:
	default:
		db.Close()
		return nil, fmt.Errorf("unsupported schema version: %s (expected %s)", version, SchemaVersion)
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Snapshot returns all notes ordered by path.
func (s *SQLite) Snapshot(ctx context.Context) ([]*Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, path, content, created_at, updated_at, last_accessed_at
		FROM notes ORDER BY path
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Note
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// CreateNote creates a note, failing if the path is occupied.
func (s *SQLite) CreateNote(ctx context.Context, path, content string) (*Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n, err := s.byPath(ctx, path); err != nil {
		return nil, err
	} else if n != nil {
		return nil, fmt.Errorf("create %q: %w", path, ErrPathExists)
	}

	now := s.now().UTC()
	n := &Note{
		ID:             uuid.NewString(),
		UserID:         s.userID,
		Path:           path,
		Content:        content,
		CreatedAt:      now,
		UpdatedAt:      now,
		LastAccessedAt: now,
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notes (id, user_id, path, content, created_at, updated_at, last_accessed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, n.ID, n.UserID, n.Path, n.Content, stamp(n.CreatedAt), stamp(n.UpdatedAt), stamp(n.LastAccessedAt))
	if err != nil {
		return nil, err
	}
	return n, nil
}

// GetNoteByID returns a note snapshot, or nil when absent.
func (s *SQLite) GetNoteByID(ctx context.Context, id string) (*Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, path, content, created_at, updated_at, last_accessed_at
		FROM notes WHERE id = ?
	`, id)
	n, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return n, err
}

// FindByPath returns the note at path, or nil when absent.
func (s *SQLite) FindByPath(ctx context.Context, path string) (*Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byPath(ctx, path)
}

// NoteExistsAtPath reports whether a note occupies path.
func (s *SQLite) NoteExistsAtPath(ctx context.Context, path string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.byPath(ctx, path)
	return n != nil, err
}

// UpdatePath moves a note to a new path.
func (s *SQLite) UpdatePath(ctx context.Context, id, newPath string) (*Note, error) {
	return s.update(ctx, id, "path", newPath)
}

// UpdateContent replaces a note's content.
func (s *SQLite) UpdateContent(ctx context.Context, id, content string) (*Note, error) {
	return s.update(ctx, id, "content", content)
}

// AppendToNote appends text to a note's content.
func (s *SQLite) AppendToNote(ctx context.Context, id, text string) (*Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, `
		UPDATE notes SET content = content || ?, updated_at = ? WHERE id = ?
	`, text, stamp(s.now().UTC()), id)
	if err != nil {
		return nil, err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, fmt.Errorf("append to %q: %w", id, ErrNotFound)
	}
	return s.byIDLocked(ctx, id)
}

// GetCached returns a cached directive result by key.
func (s *SQLite) GetCached(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM directive_cache WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(value), true, nil
}

// PutCached stores a directive result by key.
func (s *SQLite) PutCached(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO directive_cache (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, string(data))
	return err
}

func (s *SQLite) update(ctx context.Context, id, column, value string) (*Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE notes SET %s = ?, updated_at = ? WHERE id = ?", column),
		value, stamp(s.now().UTC()), id)
	if err != nil {
		return nil, err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, fmt.Errorf("update %s of %q: %w", column, id, ErrNotFound)
	}
	return s.byIDLocked(ctx, id)
}

func (s *SQLite) byPath(ctx context.Context, path string) (*Note, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, path, content, created_at, updated_at, last_accessed_at
		FROM notes WHERE path = ?
	`, path)
	n, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return n, err
}

func (s *SQLite) byIDLocked(ctx context.Context, id string) (*Note, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, path, content, created_at, updated_at, last_accessed_at
		FROM notes WHERE id = ?
	`, id)
	n, err := scanNote(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%q: %w", id, ErrNotFound)
	}
	return n, err
}

func (s *SQLite) getMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (s *SQLite) setMetadata(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNote(row scanner) (*Note, error) {
	var n Note
	var created, updated, accessed string
	err := row.Scan(&n.ID, &n.UserID, &n.Path, &n.Content, &created, &updated, &accessed)
	if err != nil {
		return nil, err
	}
	if n.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, fmt.Errorf("bad created_at for %s: %w", n.ID, err)
	}
	if n.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return nil, fmt.Errorf("bad updated_at for %s: %w", n.ID, err)
	}
	if n.LastAccessedAt, err = time.Parse(time.RFC3339Nano, accessed); err != nil {
		return nil, fmt.Errorf("bad last_accessed_at for %s: %w", n.ID, err)
	}
	return &n, nil
}

func stamp(t time.Time) string { return t.Format(time.RFC3339Nano) }
