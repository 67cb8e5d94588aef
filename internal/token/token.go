// SPDX-License-Identifier: AGPL-3.0-or-later

// Package token defines margin token kinds and source positions.
package token

import "fmt"

// Kind identifies a lexical token class.
type Kind int

const (
	EOF Kind = iota
	NUMBER
	STRING
	IDENT

	LPAREN   // (
	RPAREN   // )
	LBRACKET // [
	RBRACKET // ]
	COMMA    // ,
	COLON    // :
	SEMI     // ;
	DOT      // .
	DOTDOT   // ..
	STAR     // *
)

// String returns the string representation of a token kind.
func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case NUMBER:
		return "NUMBER"
	case STRING:
		return "STRING"
	case IDENT:
		return "IDENT"
	case LPAREN:
		return "("
	case RPAREN:
		return ")"
	case LBRACKET:
		return "["
	case RBRACKET:
		return "]"
	case COMMA:
		return ","
	case COLON:
		return ":"
	case SEMI:
		return ";"
	case DOT:
		return "."
	case DOTDOT:
		return ".."
	case STAR:
		return "*"
	}
	return "UNKNOWN"
}

// Token is one lexical token with its byte position in the directive source.
type Token struct {
	Kind   Kind
	Lexeme string
	Num    float64 // literal value when Kind == NUMBER
	Str    string  // literal value when Kind == STRING
	Pos    int
}

// String returns a human-readable rendering for error messages and tests.
func (t Token) String() string {
	switch t.Kind {
	case NUMBER, STRING, IDENT:
		return fmt.Sprintf("%s(%q)@%d", t.Kind, t.Lexeme, t.Pos)
	}
	return fmt.Sprintf("%s@%d", t.Kind, t.Pos)
}
