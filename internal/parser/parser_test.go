// SPDX-License-Identifier: AGPL-3.0-or-later

package parser

import (
	"strings"
	"testing"

	"github.com/marginlang/margin/internal/ast"
	"github.com/marginlang/margin/internal/lexer"
)

func parse(t *testing.T, src string) *ast.Directive {
	t.Helper()
	toks, err := lexer.Tokenize(src)
	if err != nil {
		t.Fatalf("Tokenize(%q): %v", src, err)
	}
	d, err := ParseDirective(toks, src, 0)
	if err != nil {
		t.Fatalf("ParseDirective(%q): %v", src, err)
	}
	return d
}

func parseErr(t *testing.T, src string) error {
	t.Helper()
	toks, err := lexer.Tokenize(src)
	if err != nil {
		t.Fatalf("Tokenize(%q): %v", src, err)
	}
	_, err = ParseDirective(toks, src, 0)
	if err == nil {
		t.Fatalf("ParseDirective(%q): expected error", src)
	}
	return err
}

func TestParseLiterals(t *testing.T) {
	d := parse(t, `[42]`)
	n, ok := d.Expression.(*ast.NumberLit)
	if !ok {
		t.Fatalf("expression type %T, want NumberLit", d.Expression)
	}
	if n.Value != 42 {
		t.Errorf("value = %v, want 42", n.Value)
	}

	d = parse(t, `["hi"]`)
	s, ok := d.Expression.(*ast.StringLit)
	if !ok {
		t.Fatalf("expression type %T, want StringLit", d.Expression)
	}
	if s.Value != "hi" {
		t.Errorf("value = %q, want %q", s.Value, "hi")
	}
}

func TestParseCall(t *testing.T) {
	d := parse(t, `[add(2, 3)]`)
	call, ok := d.Expression.(*ast.Call)
	if !ok {
		t.Fatalf("expression type %T, want Call", d.Expression)
	}
	if call.Name != "add" || len(call.Args) != 2 {
		t.Fatalf("call = %s/%d, want add/2", call.Name, len(call.Args))
	}
}

func TestParseNestedCalls(t *testing.T) {
	d := parse(t, `[add(mul(2, 3), sub(10, div(4, 2)))]`)
	call := d.Expression.(*ast.Call)
	if call.Name != "add" {
		t.Fatalf("outer call = %s, want add", call.Name)
	}
	inner, ok := call.Args[0].(*ast.Call)
	if !ok || inner.Name != "mul" {
		t.Fatalf("first arg = %T, want mul call", call.Args[0])
	}
}

func TestParseNamedArgs(t *testing.T) {
	d := parse(t, `[find(path: "work/", where: [i.content.length])]`)
	call := d.Expression.(*ast.Call)
	if len(call.Args) != 0 || len(call.Named) != 2 {
		t.Fatalf("args = %d positional %d named, want 0/2", len(call.Args), len(call.Named))
	}
	if call.Named[0].Name != "path" || call.Named[1].Name != "where" {
		t.Errorf("named arg order = %s, %s", call.Named[0].Name, call.Named[1].Name)
	}
	if _, ok := call.Named[1].Value.(*ast.Lambda); !ok {
		t.Errorf("where value type %T, want Lambda", call.Named[1].Value)
	}
}

func TestParsePositionalAfterNamed(t *testing.T) {
	err := parseErr(t, `[new(path: "a", "b")]`)
	if !strings.Contains(err.Error(), "positional argument after named argument") {
		t.Errorf("error = %v, want positional-after-named", err)
	}
}

func TestParseCallChain(t *testing.T) {
	// a b c parses as a(b(c)).
	d := parse(t, `[view find "x"]`)
	outer := d.Expression.(*ast.Call)
	if outer.Name != "view" || len(outer.Args) != 1 {
		t.Fatalf("outer = %s/%d, want view/1", outer.Name, len(outer.Args))
	}
	mid, ok := outer.Args[0].(*ast.Call)
	if !ok || mid.Name != "find" {
		t.Fatalf("middle = %T, want find call", outer.Args[0])
	}
	if _, ok := mid.Args[0].(*ast.StringLit); !ok {
		t.Fatalf("innermost = %T, want StringLit", mid.Args[0])
	}
}

func TestParseVariableDefinition(t *testing.T) {
	d := parse(t, `[x: 5; add(x, 1)]`)
	list, ok := d.Expression.(*ast.StatementList)
	if !ok {
		t.Fatalf("expression type %T, want StatementList", d.Expression)
	}
	if len(list.Stmts) != 2 {
		t.Fatalf("statements = %d, want 2", len(list.Stmts))
	}
	assign, ok := list.Stmts[0].(*ast.Assign)
	if !ok {
		t.Fatalf("first statement %T, want Assign", list.Stmts[0])
	}
	ref, ok := assign.Target.(*ast.VariableRef)
	if !ok || ref.Name != "x" {
		t.Fatalf("target = %T, want VariableRef x", assign.Target)
	}
}

func TestParseSingleStatementUnwrapped(t *testing.T) {
	d := parse(t, `[7]`)
	if _, ok := d.Expression.(*ast.StatementList); ok {
		t.Fatal("single statement should not be wrapped in a StatementList")
	}
}

func TestParseCurrentNote(t *testing.T) {
	d := parse(t, `[.]`)
	if _, ok := d.Expression.(*ast.CurrentNote); !ok {
		t.Fatalf("expression type %T, want CurrentNote", d.Expression)
	}

	d = parse(t, `[.path]`)
	prop, ok := d.Expression.(*ast.PropertyAccess)
	if !ok {
		t.Fatalf("expression type %T, want PropertyAccess", d.Expression)
	}
	if prop.Name != "path" {
		t.Errorf("property = %q, want path", prop.Name)
	}
	if _, ok := prop.Target.(*ast.CurrentNote); !ok {
		t.Errorf("target type %T, want CurrentNote", prop.Target)
	}
}

func TestParseCurrentNoteMethod(t *testing.T) {
	d := parse(t, `[.append("x")]`)
	m, ok := d.Expression.(*ast.MethodCall)
	if !ok {
		t.Fatalf("expression type %T, want MethodCall", d.Expression)
	}
	if m.Name != "append" || len(m.Args) != 1 {
		t.Errorf("method = %s/%d, want append/1", m.Name, len(m.Args))
	}
}

func TestParseContentAssignment(t *testing.T) {
	d := parse(t, `[. : "new content"]`)
	assign, ok := d.Expression.(*ast.Assign)
	if !ok {
		t.Fatalf("expression type %T, want Assign", d.Expression)
	}
	if _, ok := assign.Target.(*ast.CurrentNote); !ok {
		t.Fatalf("target type %T, want CurrentNote", assign.Target)
	}
}

func TestParsePropertyAssignment(t *testing.T) {
	d := parse(t, `[.path: "inbox/moved"]`)
	assign, ok := d.Expression.(*ast.Assign)
	if !ok {
		t.Fatalf("expression type %T, want Assign", d.Expression)
	}
	prop, ok := assign.Target.(*ast.PropertyAccess)
	if !ok || prop.Name != "path" {
		t.Fatalf("target = %T, want PropertyAccess path", assign.Target)
	}
}

func TestParseInvalidAssignmentTarget(t *testing.T) {
	err := parseErr(t, `[add(1, 2): 3]`)
	if !strings.Contains(err.Error(), "invalid assignment target") {
		t.Errorf("error = %v, want invalid assignment target", err)
	}
}

func TestParseImplicitLambda(t *testing.T) {
	d := parse(t, `[find(where: [i.path.length])]`)
	call := d.Expression.(*ast.Call)
	l, ok := call.Named[0].Value.(*ast.Lambda)
	if !ok {
		t.Fatalf("where value %T, want Lambda", call.Named[0].Value)
	}
	if len(l.Params) != 1 || l.Params[0] != ImplicitParam {
		t.Errorf("params = %v, want [%s]", l.Params, ImplicitParam)
	}
}

func TestParseExplicitLambda(t *testing.T) {
	d := parse(t, `[(a, b)[add(a, b)](2, 3)]`)
	lc, ok := d.Expression.(*ast.LambdaCall)
	if !ok {
		t.Fatalf("expression type %T, want LambdaCall", d.Expression)
	}
	l := lc.Lambda.(*ast.Lambda)
	if len(l.Params) != 2 || l.Params[0] != "a" || l.Params[1] != "b" {
		t.Errorf("params = %v, want [a b]", l.Params)
	}
	if len(lc.Args) != 2 {
		t.Errorf("call args = %d, want 2", len(lc.Args))
	}
}

func TestParseLambdaKeyword(t *testing.T) {
	d := parse(t, `[lambda[add(i, 1)]]`)
	l, ok := d.Expression.(*ast.Lambda)
	if !ok {
		t.Fatalf("expression type %T, want Lambda", d.Expression)
	}
	if len(l.Params) != 1 || l.Params[0] != ImplicitParam {
		t.Errorf("params = %v, want implicit", l.Params)
	}
}

func TestParseBracketSugar(t *testing.T) {
	// name[x] is name([x]).
	d := parse(t, `[apply[add(i, 1)]]`)
	call, ok := d.Expression.(*ast.Call)
	if !ok || call.Name != "apply" {
		t.Fatalf("expression = %T, want apply call", d.Expression)
	}
	if len(call.Args) != 1 {
		t.Fatalf("args = %d, want 1", len(call.Args))
	}
	if _, ok := call.Args[0].(*ast.Lambda); !ok {
		t.Errorf("arg type %T, want Lambda", call.Args[0])
	}
}

func TestParseOnceRefresh(t *testing.T) {
	d := parse(t, `[once[now]]`)
	once, ok := d.Expression.(*ast.Once)
	if !ok {
		t.Fatalf("expression type %T, want Once", d.Expression)
	}
	if _, ok := once.Body.(*ast.Call); !ok {
		t.Errorf("body type %T, want Call", once.Body)
	}

	d = parse(t, `[refresh[time("09:00"); now]]`)
	refresh, ok := d.Expression.(*ast.Refresh)
	if !ok {
		t.Fatalf("expression type %T, want Refresh", d.Expression)
	}
	if _, ok := refresh.Body.(*ast.StatementList); !ok {
		t.Errorf("body type %T, want StatementList", refresh.Body)
	}
}

func TestParsePattern(t *testing.T) {
	d := parse(t, `[pattern(digit*4, "-", letter*(2..5), any*any)]`)
	p, ok := d.Expression.(*ast.PatternLit)
	if !ok {
		t.Fatalf("expression type %T, want PatternLit", d.Expression)
	}
	if len(p.Elements) != 4 {
		t.Fatalf("elements = %d, want 4", len(p.Elements))
	}
	q, ok := p.Elements[0].(ast.QuantifiedElement)
	if !ok {
		t.Fatalf("element 0 type %T, want QuantifiedElement", p.Elements[0])
	}
	if q.Quantifier.Min != 4 || q.Quantifier.Max != 4 {
		t.Errorf("quantifier = %+v, want exactly 4", q.Quantifier)
	}
	r := p.Elements[2].(ast.QuantifiedElement)
	if r.Quantifier.Min != 2 || r.Quantifier.Max != 5 {
		t.Errorf("range quantifier = %+v, want 2..5", r.Quantifier)
	}
	a := p.Elements[3].(ast.QuantifiedElement)
	if a.Quantifier.Min != 0 || !a.Quantifier.Unbounded() {
		t.Errorf("any quantifier = %+v, want unbounded from 0", a.Quantifier)
	}
}

func TestParseEmptyPattern(t *testing.T) {
	err := parseErr(t, `[pattern()]`)
	if !strings.Contains(err.Error(), "empty pattern") {
		t.Errorf("error = %v, want empty pattern", err)
	}
}

func TestParseBareIdentifierIsZeroArgCall(t *testing.T) {
	d := parse(t, `[today]`)
	call, ok := d.Expression.(*ast.Call)
	if !ok {
		t.Fatalf("expression type %T, want Call", d.Expression)
	}
	if call.Name != "today" || len(call.Args) != 0 {
		t.Errorf("call = %s/%d, want today/0", call.Name, len(call.Args))
	}
}

func TestParseTrailingGarbage(t *testing.T) {
	err := parseErr(t, `[1] extra`)
	if !strings.Contains(err.Error(), "unexpected") {
		t.Errorf("error = %v, want unexpected-token", err)
	}
}

func TestParseMissingBrackets(t *testing.T) {
	parseErr(t, `add(1, 2)`)
	parseErr(t, `[add(1, 2)`)
}
