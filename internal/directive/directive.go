// SPDX-License-Identifier: AGPL-3.0-or-later

// Package directive locates [...] spans in note text and produces the
// keys the host uses to correlate directive state across renders.
package directive

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Span is one located directive: the exact source slice (including
// brackets) and its byte offsets in the note text.
type Span struct {
	Source string
	Start  int
	End    int // exclusive
}

// Find scans text for balanced [...] spans. Brackets inside nested
// lambdas stay inside their directive, and brackets inside string
// literals don't count toward balance. An unclosed span is dropped.
func Find(text string) []Span {
	var spans []Span
	for i := 0; i < len(text); i++ {
		if text[i] != '[' {
			continue
		}
		end := matchBracket(text, i)
		if end < 0 {
			break
		}
		spans = append(spans, Span{Source: text[i : end+1], Start: i, End: end + 1})
		i = end
	}
	return spans
}

// matchBracket returns the index of the ']' closing the '[' at start,
// or -1 when unbalanced.
func matchBracket(text string, start int) int {
	depth := 0
	inString := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			if c == '"' {
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// PositionKey is the stable per-render key for a directive's UI state:
// the line it sits on and its byte offset within the note text.
func PositionKey(line, start int) string {
	return fmt.Sprintf("d%d.%d", line, start)
}

// CacheKey derives the result-cache key from a directive's exact source
// text. Identical source yields identical keys.
func CacheKey(sourceText string) string {
	sum := sha256.Sum256([]byte(sourceText))
	return hex.EncodeToString(sum[:])
}

// LineOf returns the zero-based line index containing byte offset in text.
func LineOf(text string, offset int) int {
	line := 0
	for i := 0; i < offset && i < len(text); i++ {
		if text[i] == '\n' {
			line++
		}
	}
	return line
}
