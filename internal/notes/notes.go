// SPDX-License-Identifier: AGPL-3.0-or-later

// Package notes defines the note model and the storage capability the
// interpreter consumes. The interpreter never owns storage: it is handed
// an Operations implementation and a read-only snapshot of visible notes.
package notes

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Storage failure modes surfaced to the interpreter.
var (
	ErrNotFound   = errors.New("note not found")
	ErrPathExists = errors.New("a note already exists at this path")
)

// Note is a read-only snapshot of a stored note.
type Note struct {
	ID             string
	UserID         string
	Path           string
	Content        string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	LastAccessedAt time.Time
}

// Name is the note's display name: the final segment of its path.
func (n *Note) Name() string {
	if i := strings.LastIndexByte(n.Path, '/'); i >= 0 {
		return n.Path[i+1:]
	}
	return n.Path
}

// WithName returns the note's path with its final segment replaced,
// used when the name property is assigned.
func (n *Note) WithName(name string) string {
	if i := strings.LastIndexByte(n.Path, '/'); i >= 0 {
		return n.Path[:i+1] + name
	}
	return name
}

// Operations is the host-supplied mutation/query capability. Calls may
// block on storage, so every method takes a context; failures propagate
// to the interpreter as execution errors with no retry at this layer.
type Operations interface {
	CreateNote(ctx context.Context, path, content string) (*Note, error)
	GetNoteByID(ctx context.Context, id string) (*Note, error)
	FindByPath(ctx context.Context, path string) (*Note, error)
	NoteExistsAtPath(ctx context.Context, path string) (bool, error)
	UpdatePath(ctx context.Context, id, newPath string) (*Note, error)
	UpdateContent(ctx context.Context, id, content string) (*Note, error)
	AppendToNote(ctx context.Context, id, text string) (*Note, error)
}
