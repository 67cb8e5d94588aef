// SPDX-License-Identifier: AGPL-3.0-or-later

package ast

// CharClass is a character class in the pattern sublanguage.
type CharClass int

const (
	ClassDigit CharClass = iota
	ClassLetter
	ClassSpace
	ClassPunct
	ClassAny
)

// String returns the pattern-source name of the class.
func (c CharClass) String() string {
	switch c {
	case ClassDigit:
		return "digit"
	case ClassLetter:
		return "letter"
	case ClassSpace:
		return "space"
	case ClassPunct:
		return "punct"
	case ClassAny:
		return "any"
	}
	return "unknown"
}

// PatternElement is one element of a pattern literal.
type PatternElement interface {
	patternElement()
}

// ClassElement matches one character of a class.
type ClassElement struct {
	Class CharClass
}

// LiteralElement matches an exact string.
type LiteralElement struct {
	Value string
}

// QuantifiedElement repeats an element per its quantifier.
type QuantifiedElement struct {
	Element    PatternElement
	Quantifier Quantifier
}

func (ClassElement) patternElement()      {}
func (LiteralElement) patternElement()    {}
func (QuantifiedElement) patternElement() {}

// Quantifier is a repetition count. Max < 0 means unbounded.
// Exact(n) is {Min: n, Max: n}; *any is {Min: 0, Max: -1}.
type Quantifier struct {
	Min int
	Max int
}

// Unbounded reports whether the quantifier has no upper bound.
func (q Quantifier) Unbounded() bool { return q.Max < 0 }
