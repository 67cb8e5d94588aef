// SPDX-License-Identifier: AGPL-3.0-or-later

package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marginlang/margin/internal/ast"
	"github.com/marginlang/margin/internal/lexer"
	"github.com/marginlang/margin/internal/parser"
)

func mustParse(t *testing.T, src string) *ast.Directive {
	t.Helper()
	toks, err := lexer.Tokenize(src)
	require.NoError(t, err)
	d, err := parser.ParseDirective(toks, src, 0)
	require.NoError(t, err)
	return d
}

func TestIdempotencyAnalysis(t *testing.T) {
	cases := []struct {
		src        string
		idempotent bool
	}{
		{`[add(2, 3)]`, true},
		{`[maybe_new(path: "a/b")]`, true},
		{`[find(path: "work/")]`, true},
		{`[.path: "moved"]`, true},
		{`[new(path: "a/b")]`, false},
		{`[.append("x")]`, false},
		{`[x: 1; new(path: "a"); 2]`, false},
		{`[view(find(where: [new(path: "a")]))]`, false}, // inside a lambda body
		{`[once[new(path: "a")]]`, false},
		{`[maybe_new(path: "a", maybe_content: "c")]`, true},
	}
	for _, c := range cases {
		got := AnalyzeIdempotency(mustParse(t, c.src).Expression)
		assert.Equal(t, c.idempotent, got.Idempotent, c.src)
		if c.idempotent {
			assert.Empty(t, got.Reason, c.src)
		} else {
			assert.NotEmpty(t, got.Reason, c.src)
		}
	}
}

func TestIdempotencyReasonNamesOffender(t *testing.T) {
	got := AnalyzeIdempotency(mustParse(t, `[new(path: "a/b")]`).Expression)
	require.False(t, got.Idempotent)
	assert.Contains(t, got.Reason, "new(...)")

	got = AnalyzeIdempotency(mustParse(t, `[.append("x")]`).Expression)
	require.False(t, got.Idempotent)
	assert.Contains(t, got.Reason, "append")
}

func TestIdempotencyFirstOffenderWins(t *testing.T) {
	// Both offenders present; the one evaluated first is reported.
	got := AnalyzeIdempotency(mustParse(t, `[new(path: "a"); .append("x")]`).Expression)
	require.False(t, got.Idempotent)
	assert.Contains(t, got.Reason, "new(...)")
}

func TestContainsDynamicCalls(t *testing.T) {
	reg := NewRegistry()
	cases := []struct {
		src  string
		want bool
	}{
		{`[add(2, 3)]`, false},
		{`[now]`, true},
		{`[today]`, true},
		{`[clock]`, true},
		{`[add(1, sub(2, 3))]`, false},
		{`[x: now; add(1, 2)]`, true},
		{`[find(where: [now])]`, true},
		{`[date("2026-01-01")]`, false},
		{`[once[now]]`, true},
	}
	for _, c := range cases {
		got := ContainsDynamicCalls(mustParse(t, c.src).Expression, reg)
		assert.Equal(t, c.want, got, c.src)
	}
}
