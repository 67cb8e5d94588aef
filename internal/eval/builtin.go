// SPDX-License-Identifier: AGPL-3.0-or-later

package eval

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/marginlang/margin/internal/value"
)

// Args carries the evaluated arguments of a call.
type Args struct {
	Pos   []value.Value
	Named map[string]value.Value
}

// Func is the signature of builtin implementations.
type Func func(ctx context.Context, x *Executor, env *value.Environment, args *Args) (value.Value, error)

// Builtin is one registered function. Dynamic functions return different
// results across calls at the same logical time (clock reads); the
// dynamic-call analysis keys off this flag.
type Builtin struct {
	Name    string
	Arity   int // exact positional arity; -1 means checked by the function
	Dynamic bool
	Fn      Func
}

// Registry is the name -> builtin table. It is built once at startup and
// passed into the Executor; there is no module-level instance.
type Registry struct {
	funcs map[string]Builtin
}

// Lookup returns the builtin registered under name.
func (r *Registry) Lookup(name string) (Builtin, bool) {
	b, ok := r.funcs[name]
	return b, ok
}

// IsDynamic reports whether name is registered as a dynamic function.
func (r *Registry) IsDynamic(name string) bool {
	b, ok := r.funcs[name]
	return ok && b.Dynamic
}

func (r *Registry) add(b Builtin) { r.funcs[b.Name] = b }

// NewRegistry builds the standard builtin table.
func NewRegistry() *Registry {
	r := &Registry{funcs: make(map[string]Builtin)}

	// Character constants. Strings carry no escapes, so special
	// characters enter directives through these.
	r.add(constant("quote", "\""))
	r.add(constant("newline", "\n"))
	r.add(constant("tab", "\t"))
	r.add(constant("cr", "\r"))

	// Clock reads.
	r.add(Builtin{Name: "now", Arity: 0, Dynamic: true, Fn: builtinNow})
	r.add(Builtin{Name: "today", Arity: 0, Dynamic: true, Fn: builtinToday})
	r.add(Builtin{Name: "clock", Arity: 0, Dynamic: true, Fn: builtinClock})

	// Date/time constructors.
	r.add(Builtin{Name: "date", Arity: -1, Fn: builtinDate})
	r.add(Builtin{Name: "time", Arity: -1, Fn: builtinTime})
	r.add(Builtin{Name: "datetime", Arity: 1, Fn: builtinDatetime})

	// Arithmetic.
	r.add(arith("add", func(a, b float64) (float64, error) { return a + b, nil }))
	r.add(arith("sub", func(a, b float64) (float64, error) { return a - b, nil }))
	r.add(arith("mul", func(a, b float64) (float64, error) { return a * b, nil }))
	r.add(arith("div", func(a, b float64) (float64, error) {
		if b == 0 {
			return 0, errf("division by zero")
		}
		return a / b, nil
	}))
	r.add(arith("mod", func(a, b float64) (float64, error) {
		if b == 0 {
			return 0, errf("modulo by zero")
		}
		return math.Mod(a, b), nil
	}))

	// Pattern matching.
	r.add(Builtin{Name: "matches", Arity: 2, Fn: builtinMatches})

	// Note query and construction.
	r.add(Builtin{Name: "find", Arity: 0, Fn: builtinFind})
	r.add(Builtin{Name: "new", Arity: 0, Fn: builtinNew})
	r.add(Builtin{Name: "maybe_new", Arity: 0, Fn: builtinMaybeNew})
	r.add(Builtin{Name: "view", Arity: 1, Fn: builtinView})

	return r
}

func constant(name, text string) Builtin {
	return Builtin{Name: name, Arity: 0, Fn: func(context.Context, *Executor, *value.Environment, *Args) (value.Value, error) {
		return value.String(text), nil
	}}
}

func arith(name string, op func(a, b float64) (float64, error)) Builtin {
	return Builtin{Name: name, Arity: 2, Fn: func(_ context.Context, _ *Executor, _ *value.Environment, args *Args) (value.Value, error) {
		a, ok := args.Pos[0].(value.Number)
		if !ok {
			return nil, errf("first operand of %s must be a number, got %s", name, args.Pos[0].Kind())
		}
		b, ok := args.Pos[1].(value.Number)
		if !ok {
			return nil, errf("second operand of %s must be a number, got %s", name, args.Pos[1].Kind())
		}
		n, err := op(float64(a), float64(b))
		if err != nil {
			return nil, err
		}
		return value.Number(n), nil
	}}
}

func builtinNow(_ context.Context, x *Executor, _ *value.Environment, _ *Args) (value.Value, error) {
	return value.DateTime{Time: x.now()}, nil
}

func builtinToday(_ context.Context, x *Executor, _ *value.Environment, _ *Args) (value.Value, error) {
	return value.DateOf(x.now()), nil
}

func builtinClock(_ context.Context, x *Executor, _ *value.Environment, _ *Args) (value.Value, error) {
	return value.TimeOf(x.now()), nil
}

func builtinDate(_ context.Context, _ *Executor, _ *value.Environment, args *Args) (value.Value, error) {
	switch len(args.Pos) {
	case 1:
		s, ok := args.Pos[0].(value.String)
		if !ok {
			return nil, errf("date expects a string or three numbers")
		}
		t, err := time.Parse("2006-01-02", string(s))
		if err != nil {
			return nil, errf("date: cannot parse %q", string(s))
		}
		return value.DateOf(t), nil
	case 3:
		nums, err := numberArgs("date", args.Pos)
		if err != nil {
			return nil, err
		}
		return value.Date{Year: nums[0], Month: time.Month(nums[1]), Day: nums[2]}, nil
	}
	return nil, errf("date expects a string or three numbers, got %d argument(s)", len(args.Pos))
}

// ParseClockTime parses "HH:MM" or "HH:MM:SS" into a time-of-day value.
// Shared with refresh-trigger extraction.
func ParseClockTime(s string) (value.Time, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return value.TimeOf(t), nil
		}
	}
	return value.Time{}, fmt.Errorf("cannot parse %q as a time of day", s)
}

func builtinTime(_ context.Context, _ *Executor, _ *value.Environment, args *Args) (value.Value, error) {
	switch len(args.Pos) {
	case 1:
		s, ok := args.Pos[0].(value.String)
		if !ok {
			return nil, errf("time expects a string or two numbers")
		}
		t, err := ParseClockTime(string(s))
		if err != nil {
			return nil, errf("time: %v", err)
		}
		return t, nil
	case 2:
		nums, err := numberArgs("time", args.Pos)
		if err != nil {
			return nil, err
		}
		if nums[0] < 0 || nums[0] > 23 || nums[1] < 0 || nums[1] > 59 {
			return nil, errf("time: %d:%d is out of range", nums[0], nums[1])
		}
		return value.Time{Hour: nums[0], Minute: nums[1]}, nil
	}
	return nil, errf("time expects a string or two numbers, got %d argument(s)", len(args.Pos))
}

func builtinDatetime(_ context.Context, _ *Executor, _ *value.Environment, args *Args) (value.Value, error) {
	s, ok := args.Pos[0].(value.String)
	if !ok {
		return nil, errf("datetime expects a string, got %s", args.Pos[0].Kind())
	}
	t, err := time.Parse(time.RFC3339, string(s))
	if err != nil {
		return nil, errf("datetime: cannot parse %q", string(s))
	}
	return value.DateTime{Time: t}, nil
}

func builtinMatches(_ context.Context, _ *Executor, _ *value.Environment, args *Args) (value.Value, error) {
	p, ok := args.Pos[0].(*value.Pattern)
	if !ok {
		return nil, errf("first argument of matches must be a pattern, got %s", args.Pos[0].Kind())
	}
	s, ok := args.Pos[1].(value.String)
	if !ok {
		return nil, errf("second argument of matches must be a string, got %s", args.Pos[1].Kind())
	}
	return value.Boolean(p.Compiled.MatchString(string(s))), nil
}

// builtinFind filters the notes snapshot by an optional path prefix and
// an optional where predicate lambda receiving each note.
func builtinFind(ctx context.Context, x *Executor, env *value.Environment, args *Args) (value.Value, error) {
	prefix := ""
	if v, ok := args.Named["path"]; ok {
		s, ok := v.(value.String)
		if !ok {
			return nil, errf("find: path filter must be a string, got %s", v.Kind())
		}
		prefix = string(s)
	}
	var where *value.Lambda
	if v, ok := args.Named["where"]; ok {
		l, ok := v.(*value.Lambda)
		if !ok {
			return nil, errf("find: where filter must be a lambda, got %s", v.Kind())
		}
		where = l
	}

	list := value.List{}
	for _, n := range env.Notes {
		if prefix != "" && !strings.HasPrefix(n.Path, prefix) {
			continue
		}
		nv := &value.Note{Snapshot: n}
		if where != nil {
			keep, err := x.invokeLambda(ctx, where, []value.Value{nv}, nil)
			if err != nil {
				return nil, err
			}
			if !value.Truthy(keep) {
				continue
			}
		}
		list = append(list, nv)
	}
	return list, nil
}

func builtinNew(ctx context.Context, _ *Executor, env *value.Environment, args *Args) (value.Value, error) {
	path, err := requiredPath("new", args)
	if err != nil {
		return nil, err
	}
	if env.Ops == nil {
		return nil, errf("no note capability available")
	}
	content := ""
	if v, ok := args.Named["content"]; ok {
		content = v.Display()
	}
	n, err := env.Ops.CreateNote(ctx, path, content)
	if err != nil {
		return nil, errf("new: %v", err)
	}
	return &value.Note{Snapshot: n}, nil
}

// builtinMaybeNew returns the existing note at path, or creates one. It
// is the idempotent counterpart of new.
func builtinMaybeNew(ctx context.Context, _ *Executor, env *value.Environment, args *Args) (value.Value, error) {
	path, err := requiredPath("maybe_new", args)
	if err != nil {
		return nil, err
	}
	if env.Ops == nil {
		return nil, errf("no note capability available")
	}
	existing, err := env.Ops.FindByPath(ctx, path)
	if err != nil {
		return nil, errf("maybe_new: %v", err)
	}
	if existing != nil {
		return &value.Note{Snapshot: existing}, nil
	}
	content := ""
	if v, ok := args.Named["maybe_content"]; ok {
		content = v.Display()
	}
	n, err := env.Ops.CreateNote(ctx, path, content)
	if err != nil {
		// Lost a race with another writer: the note is there now.
		if existing, findErr := env.Ops.FindByPath(ctx, path); findErr == nil && existing != nil {
			return &value.Note{Snapshot: existing}, nil
		}
		return nil, errf("maybe_new: %v", err)
	}
	return &value.Note{Snapshot: n}, nil
}

func builtinView(_ context.Context, _ *Executor, _ *value.Environment, args *Args) (value.Value, error) {
	list, ok := args.Pos[0].(value.List)
	if !ok {
		return nil, errf("view expects a list of notes, got %s", args.Pos[0].Kind())
	}
	v := &value.View{}
	for _, item := range list {
		n, ok := item.(*value.Note)
		if !ok {
			return nil, errf("view expects a list of notes, found a %s", item.Kind())
		}
		v.Notes = append(v.Notes, n.Snapshot)
		v.Contents = append(v.Contents, n.Snapshot.Content)
	}
	return v, nil
}

func requiredPath(name string, args *Args) (string, error) {
	v, ok := args.Named["path"]
	if !ok {
		return "", errf("%s requires a path argument", name)
	}
	s, ok := v.(value.String)
	if !ok {
		return "", errf("%s: path must be a string, got %s", name, v.Kind())
	}
	return string(s), nil
}

func numberArgs(name string, vals []value.Value) ([]int, error) {
	out := make([]int, len(vals))
	for i, v := range vals {
		n, ok := v.(value.Number)
		if !ok {
			return nil, errf("%s: argument %d must be a number, got %s", name, i+1, v.Kind())
		}
		out[i] = int(n)
	}
	return out, nil
}
