// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ast defines margin expression nodes.
//
// Every node carries the byte offset of the token that introduced it so
// errors and editor highlights can point back into the directive source.
package ast

// Expr is the interface all expression nodes implement.
type Expr interface {
	// Pos returns the byte offset of the node in the directive source.
	Pos() int
	exprNode()
}

// NamedArg is a name: value argument in a call.
type NamedArg struct {
	Name  string
	Value Expr
}

// NumberLit is a numeric literal.
type NumberLit struct {
	Value    float64
	Position int
}

// StringLit is a string literal.
type StringLit struct {
	Value    string
	Position int
}

// Call is a function invocation, either parenthesized (f(x, y, name: z))
// or the head of a space-separated chain (a b c parses as a(b(c))).
// A bare identifier parses as a zero-argument Call; the executor resolves
// it against the builtin registry first and the environment second.
type Call struct {
	Name     string
	Args     []Expr
	Named    []NamedArg
	Position int
}

// CurrentNote is the lone "." referring to the note being evaluated.
type CurrentNote struct {
	Position int
}

// PropertyAccess reads a property from a target value.
type PropertyAccess struct {
	Target   Expr
	Name     string
	Position int
}

// Assign binds a value to a variable, a writable note property, or the
// current note's content. Any other target is rejected at parse time.
type Assign struct {
	Target   Expr
	Value    Expr
	Position int
}

// StatementList is a sequence of ';'-separated statements; its value is
// the last statement's value.
type StatementList struct {
	Stmts    []Expr
	Position int
}

// VariableRef reads a variable from the environment.
type VariableRef struct {
	Name     string
	Position int
}

// MethodCall invokes a method on a target value.
type MethodCall struct {
	Target   Expr
	Name     string
	Args     []Expr
	Named    []NamedArg
	Position int
}

// PatternLit is a pattern(...) literal.
type PatternLit struct {
	Elements []PatternElement
	Position int
}

// Lambda is a closure literal. Implicit lambdas ([expr] and lambda[expr])
// have the single reader parameter "i".
type Lambda struct {
	Params   []string
	Body     Expr
	Position int
}

// LambdaCall invokes a lambda literal directly: (a, b)[add(a, b)](1, 2).
type LambdaCall struct {
	Lambda   Expr
	Args     []Expr
	Named    []NamedArg
	Position int
}

// Once marks a body the host evaluates at most once per source text.
type Once struct {
	Body     Expr
	Position int
}

// Refresh marks a body the host re-evaluates at times derived from the
// time literals it contains.
type Refresh struct {
	Body     Expr
	Position int
}

func (n *NumberLit) Pos() int      { return n.Position }
func (n *StringLit) Pos() int      { return n.Position }
func (n *Call) Pos() int           { return n.Position }
func (n *CurrentNote) Pos() int    { return n.Position }
func (n *PropertyAccess) Pos() int { return n.Position }
func (n *Assign) Pos() int         { return n.Position }
func (n *StatementList) Pos() int  { return n.Position }
func (n *VariableRef) Pos() int    { return n.Position }
func (n *MethodCall) Pos() int     { return n.Position }
func (n *PatternLit) Pos() int     { return n.Position }
func (n *Lambda) Pos() int         { return n.Position }
func (n *LambdaCall) Pos() int     { return n.Position }
func (n *Once) Pos() int           { return n.Position }
func (n *Refresh) Pos() int        { return n.Position }

func (*NumberLit) exprNode()      {}
func (*StringLit) exprNode()      {}
func (*Call) exprNode()           {}
func (*CurrentNote) exprNode()    {}
func (*PropertyAccess) exprNode() {}
func (*Assign) exprNode()         {}
func (*StatementList) exprNode()  {}
func (*VariableRef) exprNode()    {}
func (*MethodCall) exprNode()     {}
func (*PatternLit) exprNode()     {}
func (*Lambda) exprNode()         {}
func (*LambdaCall) exprNode()     {}
func (*Once) exprNode()           {}
func (*Refresh) exprNode()        {}

// Directive is one parsed [...] span. Source is the exact original slice
// including brackets; it is the basis for cache and idempotency keys.
type Directive struct {
	Expression Expr
	Source     string
	Start      int
}
