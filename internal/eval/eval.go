// SPDX-License-Identifier: AGPL-3.0-or-later

// Package eval implements the margin executor: it walks a directive AST
// against an environment and the builtin registry, producing a runtime
// value. Here it also hosts the two static analyses (idempotency and
// dynamic-call detection) that the host consults before caching results.
package eval

import (
	"context"
	"fmt"
	"time"

	"github.com/marginlang/margin/internal/ast"
	"github.com/marginlang/margin/internal/pattern"
	"github.com/marginlang/margin/internal/value"
)

// Error is a runtime evaluation failure.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

func errf(format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// Executor evaluates directives. It is stateless across evaluations: all
// per-evaluation state lives in the Environment.
type Executor struct {
	reg *Registry
	now func() time.Time
}

// Option configures an Executor.
type Option func(*Executor)

// WithClock overrides the time source for the dynamic clock builtins.
func WithClock(now func() time.Time) Option {
	return func(x *Executor) { x.now = now }
}

// New creates an Executor over the given registry.
func New(reg *Registry, opts ...Option) *Executor {
	x := &Executor{reg: reg, now: time.Now}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Registry returns the executor's builtin registry.
func (x *Executor) Registry() *Registry { return x.reg }

// Execute evaluates a parsed directive.
func (x *Executor) Execute(ctx context.Context, d *ast.Directive, env *value.Environment) (value.Value, error) {
	return x.eval(ctx, d.Expression, env)
}

// Eval evaluates a bare expression. Exposed for lambda-invoking builtins.
func (x *Executor) Eval(ctx context.Context, e ast.Expr, env *value.Environment) (value.Value, error) {
	return x.eval(ctx, e, env)
}

func (x *Executor) eval(ctx context.Context, e ast.Expr, env *value.Environment) (value.Value, error) {
	switch n := e.(type) {
	case *ast.NumberLit:
		return value.Number(n.Value), nil

	case *ast.StringLit:
		return value.String(n.Value), nil

	case *ast.StatementList:
		// Statements run strictly left to right; bindings flow forward
		// through the shared environment.
		var result value.Value = value.Undefined{}
		for _, stmt := range n.Stmts {
			v, err := x.eval(ctx, stmt, env)
			if err != nil {
				return nil, err
			}
			result = v
		}
		return result, nil

	case *ast.CurrentNote:
		if env.Current == nil {
			return nil, errf("no current note in this context")
		}
		return &value.Note{Snapshot: env.Current}, nil

	case *ast.VariableRef:
		v, ok := env.Get(n.Name)
		if !ok {
			return nil, errf("unknown variable %q", n.Name)
		}
		return v, nil

	case *ast.Call:
		return x.evalCall(ctx, n, env)

	case *ast.PropertyAccess:
		target, err := x.eval(ctx, n.Target, env)
		if err != nil {
			return nil, err
		}
		return x.readProperty(target, n.Name)

	case *ast.MethodCall:
		target, err := x.eval(ctx, n.Target, env)
		if err != nil {
			return nil, err
		}
		args, named, err := x.evalArgs(ctx, n.Args, n.Named, env)
		if err != nil {
			return nil, err
		}
		return x.callMethod(ctx, env, target, n.Name, args, named)

	case *ast.Assign:
		return x.evalAssign(ctx, n, env)

	case *ast.PatternLit:
		compiled, err := pattern.Compile(n.Elements)
		if err != nil {
			return nil, errf("%v", err)
		}
		return &value.Pattern{Compiled: compiled}, nil

	case *ast.Lambda:
		// The body stays unevaluated; the environment is captured by
		// reference so the closure sees definition-time bindings.
		return &value.Lambda{Params: n.Params, Body: n.Body, Env: env}, nil

	case *ast.LambdaCall:
		fn, err := x.eval(ctx, n.Lambda, env)
		if err != nil {
			return nil, err
		}
		l, ok := fn.(*value.Lambda)
		if !ok {
			return nil, errf("cannot invoke a %s value", fn.Kind())
		}
		args, named, err := x.evalArgs(ctx, n.Args, n.Named, env)
		if err != nil {
			return nil, err
		}
		return x.invokeLambda(ctx, l, args, named)

	case *ast.Once, *ast.Refresh:
		// Caching and scheduling are host decisions keyed off the AST;
		// evaluation itself just runs the body.
		if o, ok := n.(*ast.Once); ok {
			return x.eval(ctx, o.Body, env)
		}
		return x.eval(ctx, n.(*ast.Refresh).Body, env)
	}
	return nil, errf("cannot evaluate %T", e)
}

// evalCall dispatches a named call: builtins first, then variables. A
// bare identifier parses as a zero-argument call, so an unknown function
// name with no arguments resolves as a variable read, and a call with
// arguments through a lambda-valued variable invokes the lambda.
func (x *Executor) evalCall(ctx context.Context, n *ast.Call, env *value.Environment) (value.Value, error) {
	if b, ok := x.reg.Lookup(n.Name); ok {
		args, named, err := x.evalArgs(ctx, n.Args, n.Named, env)
		if err != nil {
			return nil, err
		}
		if b.Arity >= 0 && len(args) != b.Arity {
			return nil, errf("%s expects %d argument(s), got %d", n.Name, b.Arity, len(args))
		}
		return b.Fn(ctx, x, env, &Args{Pos: args, Named: named})
	}

	v, ok := env.Get(n.Name)
	if !ok {
		if len(n.Args) == 0 && len(n.Named) == 0 {
			return nil, errf("unknown function or variable %q", n.Name)
		}
		return nil, errf("unknown function %q", n.Name)
	}
	if len(n.Args) == 0 && len(n.Named) == 0 {
		return v, nil
	}
	l, ok := v.(*value.Lambda)
	if !ok {
		return nil, errf("%q is not callable (%s)", n.Name, v.Kind())
	}
	args, named, err := x.evalArgs(ctx, n.Args, n.Named, env)
	if err != nil {
		return nil, err
	}
	return x.invokeLambda(ctx, l, args, named)
}

func (x *Executor) evalArgs(ctx context.Context, args []ast.Expr, named []ast.NamedArg, env *value.Environment) ([]value.Value, map[string]value.Value, error) {
	var pos []value.Value
	for _, a := range args {
		v, err := x.eval(ctx, a, env)
		if err != nil {
			return nil, nil, err
		}
		pos = append(pos, v)
	}
	var namedVals map[string]value.Value
	if len(named) > 0 {
		namedVals = make(map[string]value.Value, len(named))
		for _, a := range named {
			v, err := x.eval(ctx, a.Value, env)
			if err != nil {
				return nil, nil, err
			}
			namedVals[a.Name] = v
		}
	}
	return pos, namedVals, nil
}

// invokeLambda layers a fresh scope over the captured environment and
// binds arguments to parameters.
func (x *Executor) invokeLambda(ctx context.Context, l *value.Lambda, args []value.Value, named map[string]value.Value) (value.Value, error) {
	scope := l.Env.NewEnclosed()
	bound := 0
	for _, p := range l.Params {
		if v, ok := named[p]; ok {
			scope.Define(p, v)
			continue
		}
		if bound < len(args) {
			scope.Define(p, args[bound])
			bound++
			continue
		}
		return nil, errf("lambda expects %d argument(s), got %d", len(l.Params), len(args)+len(named))
	}
	if bound < len(args) {
		return nil, errf("lambda expects %d argument(s), got %d", len(l.Params), len(args)+len(named))
	}
	return x.eval(ctx, l.Body, scope)
}

// evalAssign writes a variable, a note property, or the current note's
// content, and yields the assigned value (or the updated note).
func (x *Executor) evalAssign(ctx context.Context, n *ast.Assign, env *value.Environment) (value.Value, error) {
	v, err := x.eval(ctx, n.Value, env)
	if err != nil {
		return nil, err
	}

	switch target := n.Target.(type) {
	case *ast.VariableRef:
		env.Define(target.Name, v)
		return v, nil

	case *ast.CurrentNote:
		// Assigning to "." replaces the current note's content.
		if env.Current == nil {
			return nil, errf("no current note in this context")
		}
		if env.Ops == nil {
			return nil, errf("no note capability available")
		}
		updated, err := env.Ops.UpdateContent(ctx, env.Current.ID, v.Display())
		if err != nil {
			return nil, errf("update content: %v", err)
		}
		return &value.Note{Snapshot: updated}, nil

	case *ast.PropertyAccess:
		obj, err := x.eval(ctx, target.Target, env)
		if err != nil {
			return nil, err
		}
		note, ok := obj.(*value.Note)
		if !ok {
			return nil, errf("cannot assign property %q on a %s value", target.Name, obj.Kind())
		}
		return x.writeNoteProperty(ctx, env, note, target.Name, v)
	}
	return nil, errf("invalid assignment target")
}

func (x *Executor) writeNoteProperty(ctx context.Context, env *value.Environment, n *value.Note, name string, v value.Value) (value.Value, error) {
	if env.Ops == nil {
		return nil, errf("no note capability available")
	}
	switch name {
	case "path":
		updated, err := env.Ops.UpdatePath(ctx, n.Snapshot.ID, v.Display())
		if err != nil {
			return nil, errf("update path: %v", err)
		}
		return &value.Note{Snapshot: updated}, nil
	case "name":
		updated, err := env.Ops.UpdatePath(ctx, n.Snapshot.ID, n.Snapshot.WithName(v.Display()))
		if err != nil {
			return nil, errf("rename: %v", err)
		}
		return &value.Note{Snapshot: updated}, nil
	}
	return nil, errf("note property %q is read-only", name)
}
