// SPDX-License-Identifier: AGPL-3.0-or-later

package pattern

import (
	"testing"

	"github.com/marginlang/margin/internal/ast"
)

func mustCompile(t *testing.T, elements []ast.PatternElement) *Pattern {
	t.Helper()
	p, err := Compile(elements)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return p
}

func TestCompileExactCount(t *testing.T) {
	// digit*4 "-" digit*2
	p := mustCompile(t, []ast.PatternElement{
		ast.QuantifiedElement{Element: ast.ClassElement{Class: ast.ClassDigit}, Quantifier: ast.Quantifier{Min: 4, Max: 4}},
		ast.LiteralElement{Value: "-"},
		ast.QuantifiedElement{Element: ast.ClassElement{Class: ast.ClassDigit}, Quantifier: ast.Quantifier{Min: 2, Max: 2}},
	})

	cases := []struct {
		in   string
		want bool
	}{
		{"2025-08", true},
		{"2025-8", false},
		{"202-08", false},
		{"2025-088", false}, // anchored: no trailing slack
		{"x2025-08", false},
	}
	for _, c := range cases {
		if got := p.MatchString(c.in); got != c.want {
			t.Errorf("MatchString(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestCompileRange(t *testing.T) {
	// letter*(2..4)
	p := mustCompile(t, []ast.PatternElement{
		ast.QuantifiedElement{Element: ast.ClassElement{Class: ast.ClassLetter}, Quantifier: ast.Quantifier{Min: 2, Max: 4}},
	})
	for in, want := range map[string]bool{
		"a": false, "ab": true, "abcd": true, "abcde": false, "a1": false,
	} {
		if got := p.MatchString(in); got != want {
			t.Errorf("MatchString(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestCompileOpenRange(t *testing.T) {
	// digit*(1..)
	p := mustCompile(t, []ast.PatternElement{
		ast.QuantifiedElement{Element: ast.ClassElement{Class: ast.ClassDigit}, Quantifier: ast.Quantifier{Min: 1, Max: -1}},
	})
	if p.MatchString("") {
		t.Error("empty string should not match digit*(1..)")
	}
	if !p.MatchString("123456789") {
		t.Error("digits should match digit*(1..)")
	}
}

func TestCompileAnyQuantifier(t *testing.T) {
	// "v" any*any
	p := mustCompile(t, []ast.PatternElement{
		ast.LiteralElement{Value: "v"},
		ast.QuantifiedElement{Element: ast.ClassElement{Class: ast.ClassAny}, Quantifier: ast.Quantifier{Min: 0, Max: -1}},
	})
	for in, want := range map[string]bool{
		"v": true, "v1.2.3": true, "x": false,
	} {
		if got := p.MatchString(in); got != want {
			t.Errorf("MatchString(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestCompileLiteralQuoting(t *testing.T) {
	// Regex metacharacters in literals match themselves.
	p := mustCompile(t, []ast.PatternElement{
		ast.LiteralElement{Value: "a.b"},
	})
	if !p.MatchString("a.b") {
		t.Error("literal a.b should match itself")
	}
	if p.MatchString("axb") {
		t.Error("dot in literal must not act as a wildcard")
	}
}

func TestCompileEmpty(t *testing.T) {
	if _, err := Compile(nil); err == nil {
		t.Fatal("expected error for empty pattern")
	}
}

func TestCanonicalSource(t *testing.T) {
	elements := []ast.PatternElement{
		ast.QuantifiedElement{Element: ast.ClassElement{Class: ast.ClassDigit}, Quantifier: ast.Quantifier{Min: 4, Max: 4}},
		ast.LiteralElement{Value: "-"},
		ast.QuantifiedElement{Element: ast.ClassElement{Class: ast.ClassLetter}, Quantifier: ast.Quantifier{Min: 2, Max: 5}},
		ast.QuantifiedElement{Element: ast.ClassElement{Class: ast.ClassAny}, Quantifier: ast.Quantifier{Min: 0, Max: -1}},
	}
	want := `digit*4 "-" letter*(2..5) any*any`
	if got := Source(elements); got != want {
		t.Errorf("Source = %q, want %q", got, want)
	}
}

func TestParseRoundTrip(t *testing.T) {
	sources := []string{
		`digit*4 "-" digit*2`,
		`letter*(2..5)`,
		`digit*(3..)`,
		`any*any`,
		`space punct "::" digit`,
	}
	for _, src := range sources {
		elements, err := Parse(src)
		if err != nil {
			t.Fatalf("Parse(%q): %v", src, err)
		}
		if got := Source(elements); got != src {
			t.Errorf("Source(Parse(%q)) = %q", src, got)
		}
		if _, err := Compile(elements); err != nil {
			t.Errorf("Compile(Parse(%q)): %v", src, err)
		}
	}
}

func TestParseErrors(t *testing.T) {
	for _, src := range []string{"", "bogus", `"unterminated`, "digit*", "digit*(2..1x"} {
		if _, err := Parse(src); err == nil {
			t.Errorf("Parse(%q): expected error", src)
		}
	}
}
