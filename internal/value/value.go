// SPDX-License-Identifier: AGPL-3.0-or-later

// Package value defines margin runtime values and the evaluation
// environment.
package value

import (
	"fmt"
	"strconv"
	"time"

	"github.com/marginlang/margin/internal/ast"
	"github.com/marginlang/margin/internal/notes"
	"github.com/marginlang/margin/internal/pattern"
)

// Kind tags a runtime value.
type Kind int

const (
	KindUndefined Kind = iota
	KindNumber
	KindString
	KindBoolean
	KindDate
	KindTime
	KindDateTime
	KindPattern
	KindNote
	KindList
	KindLambda
	KindView
)

// String returns the serialized type tag for the kind.
func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindBoolean:
		return "boolean"
	case KindDate:
		return "date"
	case KindTime:
		return "time"
	case KindDateTime:
		return "datetime"
	case KindPattern:
		return "pattern"
	case KindNote:
		return "note"
	case KindList:
		return "list"
	case KindLambda:
		return "lambda"
	case KindView:
		return "view"
	}
	return "unknown"
}

// Value is the interface all runtime values implement. Display renders the
// value the way the host editor shows it inline.
type Value interface {
	Kind() Kind
	Display() string
}

// Undefined is the absent value.
type Undefined struct{}

func (Undefined) Kind() Kind      { return KindUndefined }
func (Undefined) Display() string { return "" }

// Number is a 64-bit float.
type Number float64

func (Number) Kind() Kind { return KindNumber }
func (n Number) Display() string {
	return strconv.FormatFloat(float64(n), 'f', -1, 64)
}

// String is a text value.
type String string

func (String) Kind() Kind        { return KindString }
func (s String) Display() string { return string(s) }

// Boolean is a truth value.
type Boolean bool

func (Boolean) Kind() Kind { return KindBoolean }
func (b Boolean) Display() string {
	if b {
		return "true"
	}
	return "false"
}

// Date is a calendar date without time of day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func (Date) Kind() Kind { return KindDate }
func (d Date) Display() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// DateOf truncates a time.Time to a Date.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Time is a time of day.
type Time struct {
	Hour   int
	Minute int
	Second int
}

func (Time) Kind() Kind { return KindTime }
func (t Time) Display() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// TimeOf truncates a time.Time to a Time.
func TimeOf(t time.Time) Time {
	return Time{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}
}

// DateTime is an instant.
type DateTime struct {
	Time time.Time
}

func (DateTime) Kind() Kind { return KindDateTime }
func (d DateTime) Display() string {
	return d.Time.Format(time.RFC3339)
}

// Pattern is a compiled pattern literal.
type Pattern struct {
	Compiled *pattern.Pattern
}

func (*Pattern) Kind() Kind        { return KindPattern }
func (p *Pattern) Display() string { return "pattern(" + p.Compiled.String() + ")" }

// Note wraps a read-only note snapshot.
type Note struct {
	Snapshot *notes.Note
}

func (*Note) Kind() Kind        { return KindNote }
func (n *Note) Display() string { return n.Snapshot.Path }

// List is an ordered sequence of values.
type List []Value

func (List) Kind() Kind { return KindList }
func (l List) Display() string {
	out := ""
	for i, v := range l {
		if i > 0 {
			out += ", "
		}
		out += v.Display()
	}
	return out
}

// Lambda is a closure: parameters, an unevaluated body, and the
// environment captured by reference when the literal was evaluated.
// Lambdas do not serialize.
type Lambda struct {
	Params []string
	Body   ast.Expr
	Env    *Environment
}

func (*Lambda) Kind() Kind        { return KindLambda }
func (l *Lambda) Display() string { return fmt.Sprintf("lambda/%d", len(l.Params)) }

// View is the result of inlining other notes' rendered output.
type View struct {
	Notes    []*notes.Note
	Contents []string
}

func (*View) Kind() Kind { return KindView }
func (v *View) Display() string {
	out := ""
	for i, c := range v.Contents {
		if i > 0 {
			out += "\n"
		}
		out += c
	}
	return out
}

// Truthy reports how a value behaves in a predicate position: booleans by
// themselves, undefined as false, empty strings/lists as false, zero as
// false, anything else as true.
func Truthy(v Value) bool {
	switch t := v.(type) {
	case Undefined:
		return false
	case Boolean:
		return bool(t)
	case Number:
		return t != 0
	case String:
		return t != ""
	case List:
		return len(t) > 0
	}
	return true
}

// Equal reports deep value equality. Lambdas are never equal to anything.
func Equal(a, b Value) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case Undefined:
		return true
	case Number:
		return av == b.(Number)
	case String:
		return av == b.(String)
	case Boolean:
		return av == b.(Boolean)
	case Date:
		return av == b.(Date)
	case Time:
		return av == b.(Time)
	case DateTime:
		return av.Time.Equal(b.(DateTime).Time)
	case *Pattern:
		return av.Compiled.String() == b.(*Pattern).Compiled.String()
	case *Note:
		return noteEqual(av.Snapshot, b.(*Note).Snapshot)
	case List:
		bv := b.(List)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case *View:
		bv := b.(*View)
		if len(av.Notes) != len(bv.Notes) || len(av.Contents) != len(bv.Contents) {
			return false
		}
		for i := range av.Notes {
			if !noteEqual(av.Notes[i], bv.Notes[i]) {
				return false
			}
		}
		for i := range av.Contents {
			if av.Contents[i] != bv.Contents[i] {
				return false
			}
		}
		return true
	}
	return false
}

func noteEqual(a, b *notes.Note) bool {
	return a.ID == b.ID && a.UserID == b.UserID && a.Path == b.Path &&
		a.Content == b.Content && a.CreatedAt.Equal(b.CreatedAt) &&
		a.UpdatedAt.Equal(b.UpdatedAt) && a.LastAccessedAt.Equal(b.LastAccessedAt)
}
