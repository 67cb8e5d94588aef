// SPDX-License-Identifier: AGPL-3.0-or-later

package notes

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-memory Operations implementation for tests and the
// default CLI session.
type Memory struct {
	mu    sync.RWMutex
	byID  map[string]*Note
	now   func() time.Time
	cache map[string][]byte
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		byID:  make(map[string]*Note),
		now:   time.Now,
		cache: make(map[string][]byte),
	}
}

// SetClock overrides the timestamp source (tests only).
func (m *Memory) SetClock(now func() time.Time) { m.now = now }

// Snapshot returns copies of all notes. Order is not guaranteed.
func (m *Memory) Snapshot(ctx context.Context) ([]*Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Note, 0, len(m.byID))
	for _, n := range m.byID {
		c := *n
		out = append(out, &c)
	}
	return out, nil
}

// CreateNote creates a note, failing if the path is occupied.
func (m *Memory) CreateNote(ctx context.Context, path, content string) (*Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findByPathLocked(path) != nil {
		return nil, fmt.Errorf("create %q: %w", path, ErrPathExists)
	}
	now := m.now()
	n := &Note{
		ID:             uuid.NewString(),
		Path:           path,
		Content:        content,
		CreatedAt:      now,
		UpdatedAt:      now,
		LastAccessedAt: now,
	}
	m.byID[n.ID] = n
	c := *n
	return &c, nil
}

// GetNoteByID returns a note snapshot, or nil when absent.
func (m *Memory) GetNoteByID(ctx context.Context, id string) (*Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	c := *n
	return &c, nil
}

// FindByPath returns the note at path, or nil when absent.
func (m *Memory) FindByPath(ctx context.Context, path string) (*Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := m.findByPathLocked(path)
	if n == nil {
		return nil, nil
	}
	c := *n
	return &c, nil
}

// NoteExistsAtPath reports whether a note occupies path.
func (m *Memory) NoteExistsAtPath(ctx context.Context, path string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.findByPathLocked(path) != nil, nil
}

// UpdatePath moves a note to a new path.
func (m *Memory) UpdatePath(ctx context.Context, id, newPath string) (*Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("update path of %q: %w", id, ErrNotFound)
	}
	if other := m.findByPathLocked(newPath); other != nil && other.ID != id {
		return nil, fmt.Errorf("move to %q: %w", newPath, ErrPathExists)
	}
	n.Path = newPath
	n.UpdatedAt = m.now()
	c := *n
	return &c, nil
}

// UpdateContent replaces a note's content.
func (m *Memory) UpdateContent(ctx context.Context, id, content string) (*Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("update content of %q: %w", id, ErrNotFound)
	}
	n.Content = content
	n.UpdatedAt = m.now()
	c := *n
	return &c, nil
}

// AppendToNote appends text to a note's content.
func (m *Memory) AppendToNote(ctx context.Context, id, text string) (*Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("append to %q: %w", id, ErrNotFound)
	}
	n.Content += text
	n.UpdatedAt = m.now()
	c := *n
	return &c, nil
}

// GetCached returns a cached directive result by key.
func (m *Memory) GetCached(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.cache[key]
	return data, ok, nil
}

// PutCached stores a directive result by key.
func (m *Memory) PutCached(ctx context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[key] = data
	return nil
}

func (m *Memory) findByPathLocked(path string) *Note {
	for _, n := range m.byID {
		if n.Path == path {
			return n
		}
	}
	return nil
}
