// SPDX-License-Identifier: AGPL-3.0-or-later

package value

import "github.com/marginlang/margin/internal/notes"

// Environment holds variable bindings plus the host-supplied evaluation
// context: the note being evaluated, a read-only snapshot of visible
// notes, and the mutation capability. Environments form a lexical chain;
// lambdas capture their defining environment by pointer, and invocation
// layers a fresh child scope on top instead of mutating the captured one.
//
// An Environment is built per directive evaluation and never shared
// across concurrent evaluations, so bindings need no locking.
type Environment struct {
	parent *Environment
	vars   map[string]Value

	Notes   []*notes.Note
	Current *notes.Note
	Ops     notes.Operations
}

// NewEnvironment creates a root environment.
func NewEnvironment() *Environment {
	return &Environment{vars: make(map[string]Value)}
}

// NewEnclosed creates a child scope sharing the host context.
func (e *Environment) NewEnclosed() *Environment {
	return &Environment{
		parent:  e,
		vars:    make(map[string]Value),
		Notes:   e.Notes,
		Current: e.Current,
		Ops:     e.Ops,
	}
}

// Get resolves a variable through the scope chain.
func (e *Environment) Get(name string) (Value, bool) {
	for env := e; env != nil; env = env.parent {
		if v, ok := env.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Define binds a variable in this scope.
func (e *Environment) Define(name string, v Value) {
	e.vars[name] = v
}
