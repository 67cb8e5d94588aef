package margin

import (
	"log/slog"
	"time"

	"github.com/marginlang/margin/internal/eval"
	"github.com/marginlang/margin/internal/notes"
)

// Option configures a Runtime.
type Option func(*Runtime)

// WithOperations wires the note capability used by new, maybe_new,
// append, and assignments to note properties. Without it those
// operations report an evaluation error.
func WithOperations(ops notes.Operations) Option {
	return func(r *Runtime) { r.ops = ops }
}

// WithNotes supplies the snapshot of notes visible to find().
func WithNotes(ns []*notes.Note) Option {
	return func(r *Runtime) { r.snapshot = ns }
}

// WithCurrentNote sets the note that `.` refers to.
func WithCurrentNote(n *notes.Note) Option {
	return func(r *Runtime) { r.current = n }
}

// WithCache enables the once-cache.
func WithCache(c Cache) Option {
	return func(r *Runtime) { r.cache = c }
}

// WithLogger sets the runtime logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runtime) { r.logger = l }
}

// WithClock overrides the time source used by now, today, and clock.
// Intended for tests.
func WithClock(fn func() time.Time) Option {
	return func(r *Runtime) { r.execOpts = append(r.execOpts, eval.WithClock(fn)) }
}
