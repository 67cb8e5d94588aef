// SPDX-License-Identifier: AGPL-3.0-or-later

package directive

import "testing"

func TestFindMultiple(t *testing.T) {
	text := "[1] and [2] and [3]"
	spans := Find(text)
	if len(spans) != 3 {
		t.Fatalf("Find = %d spans, want 3", len(spans))
	}
	want := []Span{
		{Source: "[1]", Start: 0, End: 3},
		{Source: "[2]", Start: 8, End: 11},
		{Source: "[3]", Start: 16, End: 19},
	}
	for i, w := range want {
		if spans[i] != w {
			t.Errorf("span %d = %+v, want %+v", i, spans[i], w)
		}
	}
}

func TestFindNestedLambda(t *testing.T) {
	// Inner brackets belong to the lambda, not a new directive.
	text := `note [find(where: [i.path.length])] end`
	spans := Find(text)
	if len(spans) != 1 {
		t.Fatalf("Find = %d spans, want 1", len(spans))
	}
	if spans[0].Source != `[find(where: [i.path.length])]` {
		t.Errorf("span = %q", spans[0].Source)
	}
}

func TestFindBracketsInStrings(t *testing.T) {
	// Brackets inside string literals don't count toward balance.
	text := `[concat("]", "[")] after`
	spans := Find(text)
	if len(spans) != 1 {
		t.Fatalf("Find = %d spans, want 1", len(spans))
	}
	if spans[0].Source != `[concat("]", "[")]` {
		t.Errorf("span = %q", spans[0].Source)
	}
}

func TestFindUnclosedDropped(t *testing.T) {
	spans := Find("before [1] then [unclosed")
	if len(spans) != 1 {
		t.Fatalf("Find = %d spans, want 1", len(spans))
	}
	if spans[0].Source != "[1]" {
		t.Errorf("span = %q, want [1]", spans[0].Source)
	}
}

func TestFindNone(t *testing.T) {
	if spans := Find("plain text, no directives"); len(spans) != 0 {
		t.Fatalf("Find = %d spans, want 0", len(spans))
	}
}

func TestPositionKey(t *testing.T) {
	if got := PositionKey(3, 14); got != "d3.14" {
		t.Errorf("PositionKey = %q, want d3.14", got)
	}
	if PositionKey(0, 0) == PositionKey(0, 1) {
		t.Error("distinct positions must yield distinct keys")
	}
}

func TestCacheKey(t *testing.T) {
	a := CacheKey(`[once[now]]`)
	b := CacheKey(`[once[now]]`)
	c := CacheKey(`[once[today]]`)
	if a != b {
		t.Error("identical source must yield identical keys")
	}
	if a == c {
		t.Error("different source must yield different keys")
	}
	if len(a) != 64 {
		t.Errorf("key length = %d, want 64 hex chars", len(a))
	}
}

func TestLineOf(t *testing.T) {
	text := "one\ntwo\nthree"
	cases := []struct {
		offset, line int
	}{
		{0, 0}, {3, 0}, {4, 1}, {7, 1}, {8, 2}, {12, 2},
	}
	for _, c := range cases {
		if got := LineOf(text, c.offset); got != c.line {
			t.Errorf("LineOf(%d) = %d, want %d", c.offset, got, c.line)
		}
	}
}
