// SPDX-License-Identifier: AGPL-3.0-or-later

package eval

import (
	"context"

	"github.com/marginlang/margin/internal/value"
)

// readProperty resolves property access per value kind.
func (x *Executor) readProperty(target value.Value, name string) (value.Value, error) {
	switch t := target.(type) {
	case *value.Note:
		switch name {
		case "id":
			return value.String(t.Snapshot.ID), nil
		case "path":
			return value.String(t.Snapshot.Path), nil
		case "name":
			return value.String(t.Snapshot.Name()), nil
		case "content":
			return value.String(t.Snapshot.Content), nil
		case "created_at":
			return value.DateTime{Time: t.Snapshot.CreatedAt}, nil
		case "updated_at":
			return value.DateTime{Time: t.Snapshot.UpdatedAt}, nil
		}
	case value.List:
		if name == "count" {
			return value.Number(len(t)), nil
		}
	case value.String:
		if name == "length" {
			return value.Number(len(t)), nil
		}
	case value.Date:
		switch name {
		case "year":
			return value.Number(t.Year), nil
		case "month":
			return value.Number(t.Month), nil
		case "day":
			return value.Number(t.Day), nil
		}
	case value.Time:
		switch name {
		case "hour":
			return value.Number(t.Hour), nil
		case "minute":
			return value.Number(t.Minute), nil
		case "second":
			return value.Number(t.Second), nil
		}
	case value.DateTime:
		switch name {
		case "year":
			return value.Number(t.Time.Year()), nil
		case "month":
			return value.Number(int(t.Time.Month())), nil
		case "day":
			return value.Number(t.Time.Day()), nil
		case "hour":
			return value.Number(t.Time.Hour()), nil
		case "minute":
			return value.Number(t.Time.Minute()), nil
		}
	}
	return nil, errf("unknown property %q on %s value", name, target.Kind())
}

// callMethod dispatches a method call per value kind.
func (x *Executor) callMethod(ctx context.Context, env *value.Environment, target value.Value, name string, args []value.Value, named map[string]value.Value) (value.Value, error) {
	switch t := target.(type) {
	case *value.Note:
		if name == "append" {
			if len(args) != 1 {
				return nil, errf("append expects 1 argument, got %d", len(args))
			}
			if env.Ops == nil {
				return nil, errf("no note capability available")
			}
			updated, err := env.Ops.AppendToNote(ctx, t.Snapshot.ID, args[0].Display())
			if err != nil {
				return nil, errf("append: %v", err)
			}
			return &value.Note{Snapshot: updated}, nil
		}

	case value.List:
		if name == "first" {
			if len(t) == 0 {
				return value.Undefined{}, nil
			}
			return t[0], nil
		}

	case value.String:
		if name == "matches" {
			if len(args) != 1 {
				return nil, errf("matches expects 1 argument, got %d", len(args))
			}
			p, ok := args[0].(*value.Pattern)
			if !ok {
				return nil, errf("matches expects a pattern, got %s", args[0].Kind())
			}
			return value.Boolean(p.Compiled.MatchString(string(t))), nil
		}

	case *value.Pattern:
		if name == "matches" {
			if len(args) != 1 {
				return nil, errf("matches expects 1 argument, got %d", len(args))
			}
			s, ok := args[0].(value.String)
			if !ok {
				return nil, errf("matches expects a string, got %s", args[0].Kind())
			}
			return value.Boolean(t.Compiled.MatchString(string(s))), nil
		}
	}
	return nil, errf("unknown method %q on %s value", name, target.Kind())
}
