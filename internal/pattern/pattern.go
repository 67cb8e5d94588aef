// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pattern compiles the margin pattern sublanguage into matchers.
//
// A pattern is a sequence of character classes and literals with optional
// quantifiers, e.g. digit*4 "-" digit*2. Compilation targets the stdlib
// regexp engine; the canonical pattern source is kept alongside the
// compiled form so patterns round-trip through serialization.
package pattern

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/marginlang/margin/internal/ast"
)

// Pattern is a compiled pattern with its canonical source form.
type Pattern struct {
	re     *regexp.Regexp
	source string
}

// Compile builds a Pattern from parsed elements. Matching is anchored:
// the whole input must match.
func Compile(elements []ast.PatternElement) (*Pattern, error) {
	if len(elements) == 0 {
		return nil, fmt.Errorf("empty pattern")
	}
	var re strings.Builder
	re.WriteString(`\A`)
	for _, el := range elements {
		if err := writeRegexp(&re, el); err != nil {
			return nil, err
		}
	}
	re.WriteString(`\z`)
	compiled, err := regexp.Compile(re.String())
	if err != nil {
		return nil, fmt.Errorf("compile pattern: %w", err)
	}
	return &Pattern{re: compiled, source: Source(elements)}, nil
}

// MatchString reports whether the whole input matches the pattern.
func (p *Pattern) MatchString(s string) bool { return p.re.MatchString(s) }

// Source returns the canonical pattern source.
func (p *Pattern) String() string { return p.source }

func writeRegexp(sb *strings.Builder, el ast.PatternElement) error {
	switch e := el.(type) {
	case ast.ClassElement:
		sb.WriteString(classRegexp(e.Class))
	case ast.LiteralElement:
		sb.WriteString(regexp.QuoteMeta(e.Value))
	case ast.QuantifiedElement:
		// Group the inner element so the quantifier binds to all of it.
		sb.WriteString("(?:")
		if err := writeRegexp(sb, e.Element); err != nil {
			return err
		}
		sb.WriteString(")")
		sb.WriteString(quantRegexp(e.Quantifier))
	default:
		return fmt.Errorf("unknown pattern element %T", el)
	}
	return nil
}

func classRegexp(c ast.CharClass) string {
	switch c {
	case ast.ClassDigit:
		return `[0-9]`
	case ast.ClassLetter:
		return `[A-Za-z]`
	case ast.ClassSpace:
		return `\s`
	case ast.ClassPunct:
		return `[[:punct:]]`
	case ast.ClassAny:
		return `.`
	}
	return `.`
}

func quantRegexp(q ast.Quantifier) string {
	switch {
	case q.Min == 0 && q.Unbounded():
		return "*"
	case q.Unbounded():
		return fmt.Sprintf("{%d,}", q.Min)
	case q.Min == q.Max:
		return fmt.Sprintf("{%d}", q.Min)
	default:
		return fmt.Sprintf("{%d,%d}", q.Min, q.Max)
	}
}

// Source renders elements in canonical pattern-source form, the form the
// parser accepts inside pattern(...) and Parse accepts standalone.
func Source(elements []ast.PatternElement) string {
	var sb strings.Builder
	for i, el := range elements {
		if i > 0 {
			sb.WriteByte(' ')
		}
		writeSource(&sb, el)
	}
	return sb.String()
}

func writeSource(sb *strings.Builder, el ast.PatternElement) {
	switch e := el.(type) {
	case ast.ClassElement:
		sb.WriteString(e.Class.String())
	case ast.LiteralElement:
		sb.WriteByte('"')
		sb.WriteString(e.Value)
		sb.WriteByte('"')
	case ast.QuantifiedElement:
		writeSource(sb, e.Element)
		sb.WriteByte('*')
		q := e.Quantifier
		switch {
		case q.Min == 0 && q.Unbounded():
			sb.WriteString("any")
		case q.Unbounded():
			fmt.Fprintf(sb, "(%d..)", q.Min)
		case q.Min == q.Max:
			fmt.Fprintf(sb, "%d", q.Min)
		default:
			fmt.Fprintf(sb, "(%d..%d)", q.Min, q.Max)
		}
	}
}

// Parse reads canonical pattern source back into elements. It is the
// inverse of Source and exists so serialized patterns can be recompiled.
func Parse(source string) ([]ast.PatternElement, error) {
	p := &sourceParser{src: source}
	var elements []ast.PatternElement
	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			break
		}
		el, err := p.element()
		if err != nil {
			return nil, err
		}
		elements = append(elements, el)
	}
	if len(elements) == 0 {
		return nil, fmt.Errorf("empty pattern")
	}
	return elements, nil
}

type sourceParser struct {
	src string
	pos int
}

func (p *sourceParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *sourceParser) element() (ast.PatternElement, error) {
	var base ast.PatternElement
	switch c := p.src[p.pos]; {
	case c == '"':
		p.pos++
		end := strings.IndexByte(p.src[p.pos:], '"')
		if end < 0 {
			return nil, fmt.Errorf("unterminated literal in pattern source")
		}
		base = ast.LiteralElement{Value: p.src[p.pos : p.pos+end]}
		p.pos += end + 1
	case c >= 'a' && c <= 'z':
		start := p.pos
		for p.pos < len(p.src) && p.src[p.pos] >= 'a' && p.src[p.pos] <= 'z' {
			p.pos++
		}
		cls, err := ClassByName(p.src[start:p.pos])
		if err != nil {
			return nil, err
		}
		base = ast.ClassElement{Class: cls}
	default:
		return nil, fmt.Errorf("unexpected character %q in pattern source", c)
	}

	if p.pos < len(p.src) && p.src[p.pos] == '*' {
		p.pos++
		q, err := p.quantifier()
		if err != nil {
			return nil, err
		}
		return ast.QuantifiedElement{Element: base, Quantifier: q}, nil
	}
	return base, nil
}

func (p *sourceParser) quantifier() (ast.Quantifier, error) {
	if strings.HasPrefix(p.src[p.pos:], "any") {
		p.pos += 3
		return ast.Quantifier{Min: 0, Max: -1}, nil
	}
	if p.pos < len(p.src) && p.src[p.pos] == '(' {
		p.pos++
		min, err := p.integer()
		if err != nil {
			return ast.Quantifier{}, err
		}
		if !strings.HasPrefix(p.src[p.pos:], "..") {
			return ast.Quantifier{}, fmt.Errorf("expected .. in quantifier range")
		}
		p.pos += 2
		q := ast.Quantifier{Min: min, Max: -1}
		if p.pos < len(p.src) && p.src[p.pos] != ')' {
			max, err := p.integer()
			if err != nil {
				return ast.Quantifier{}, err
			}
			q.Max = max
		}
		if p.pos >= len(p.src) || p.src[p.pos] != ')' {
			return ast.Quantifier{}, fmt.Errorf("unterminated quantifier range")
		}
		p.pos++
		return q, nil
	}
	n, err := p.integer()
	if err != nil {
		return ast.Quantifier{}, err
	}
	return ast.Quantifier{Min: n, Max: n}, nil
}

func (p *sourceParser) integer() (int, error) {
	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	if p.pos == start {
		return 0, fmt.Errorf("expected number in pattern quantifier")
	}
	return strconv.Atoi(p.src[start:p.pos])
}

// ClassByName maps a pattern-source class name to its CharClass.
func ClassByName(name string) (ast.CharClass, error) {
	switch name {
	case "digit":
		return ast.ClassDigit, nil
	case "letter":
		return ast.ClassLetter, nil
	case "space":
		return ast.ClassSpace, nil
	case "punct":
		return ast.ClassPunct, nil
	case "any":
		return ast.ClassAny, nil
	}
	return 0, fmt.Errorf("unknown character class %q", name)
}
