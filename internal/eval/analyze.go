// SPDX-License-Identifier: AGPL-3.0-or-later

package eval

import (
	"fmt"

	"github.com/marginlang/margin/internal/ast"
)

// Idempotency is the result of the idempotency analysis. A non-idempotent
// directive carries a human-readable reason naming the offending call so
// the host can ask for explicit confirmation instead of re-running it
// silently.
type Idempotency struct {
	Idempotent bool
	Reason     string
}

// AnalyzeIdempotency walks an expression in evaluation order and reports
// whether re-evaluating it is safe. new(...) and .append(...) are the
// non-idempotent operations; non-idempotence propagates upward, and the
// analysis stops at the first offender found.
//
// Lambda bodies are included: a lambda passed to find's where filter or
// invoked inline runs during evaluation, so its effects count.
func AnalyzeIdempotency(e ast.Expr) Idempotency {
	if reason := firstOffender(e); reason != "" {
		return Idempotency{Idempotent: false, Reason: reason}
	}
	return Idempotency{Idempotent: true}
}

func firstOffender(e ast.Expr) string {
	if e == nil {
		return ""
	}
	switch n := e.(type) {
	case *ast.Call:
		if n.Name == "new" {
			return "new(...) creates a note every time it runs"
		}
	case *ast.MethodCall:
		if n.Name == "append" {
			return fmt.Sprintf("append(...) at offset %d adds text every time it runs", n.Pos())
		}
	}
	for _, child := range children(e) {
		if reason := firstOffender(child); reason != "" {
			return reason
		}
	}
	return ""
}

// ContainsDynamicCalls reports whether any call reachable from e names a
// dynamic function. The host uses this to decide whether a plain
// directive must be re-evaluated on every render.
func ContainsDynamicCalls(e ast.Expr, reg *Registry) bool {
	if e == nil {
		return false
	}
	if call, ok := e.(*ast.Call); ok && reg.IsDynamic(call.Name) {
		return true
	}
	for _, child := range children(e) {
		if ContainsDynamicCalls(child, reg) {
			return true
		}
	}
	return false
}

// children returns an expression's sub-expressions in evaluation order.
func children(e ast.Expr) []ast.Expr {
	switch n := e.(type) {
	case *ast.Call:
		return append(append([]ast.Expr{}, n.Args...), namedValues(n.Named)...)
	case *ast.PropertyAccess:
		return []ast.Expr{n.Target}
	case *ast.Assign:
		return []ast.Expr{n.Value, n.Target}
	case *ast.StatementList:
		return n.Stmts
	case *ast.MethodCall:
		return append(append([]ast.Expr{n.Target}, n.Args...), namedValues(n.Named)...)
	case *ast.Lambda:
		return []ast.Expr{n.Body}
	case *ast.LambdaCall:
		return append(append([]ast.Expr{n.Lambda}, n.Args...), namedValues(n.Named)...)
	case *ast.Once:
		return []ast.Expr{n.Body}
	case *ast.Refresh:
		return []ast.Expr{n.Body}
	}
	return nil
}

func namedValues(named []ast.NamedArg) []ast.Expr {
	out := make([]ast.Expr, len(named))
	for i, a := range named {
		out[i] = a.Value
	}
	return out
}
