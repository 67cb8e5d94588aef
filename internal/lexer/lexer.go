// SPDX-License-Identifier: AGPL-3.0-or-later

// Package lexer tokenizes margin directive source.
//
// Strings carry no escape sequences: special characters are produced by
// zero-arg builtins (quote, newline, tab, cr) so directives stay typeable
// on a phone keyboard.
package lexer

import (
	"fmt"
	"strconv"

	"github.com/marginlang/margin/internal/token"
)

// Error is a lexical error with the byte offset of the offending input.
type Error struct {
	Message string
	Pos     int
}

func (e *Error) Error() string {
	return fmt.Sprintf("lex error at %d: %s", e.Pos, e.Message)
}

// Tokenize converts directive source into a token stream terminated by EOF.
func Tokenize(src string) ([]token.Token, error) {
	l := &lexer{src: src}
	var toks []token.Token
	for {
		t, err := l.next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, t)
		if t.Kind == token.EOF {
			return toks, nil
		}
	}
}

type lexer struct {
	src string
	pos int
}

func (l *lexer) next() (token.Token, error) {
	l.skipWhitespace()
	if l.pos >= len(l.src) {
		return token.Token{Kind: token.EOF, Pos: l.pos}, nil
	}

	start := l.pos
	c := l.src[l.pos]

	switch {
	case c == '(':
		l.pos++
		return token.Token{Kind: token.LPAREN, Lexeme: "(", Pos: start}, nil
	case c == ')':
		l.pos++
		return token.Token{Kind: token.RPAREN, Lexeme: ")", Pos: start}, nil
	case c == '[':
		l.pos++
		return token.Token{Kind: token.LBRACKET, Lexeme: "[", Pos: start}, nil
	case c == ']':
		l.pos++
		return token.Token{Kind: token.RBRACKET, Lexeme: "]", Pos: start}, nil
	case c == ',':
		l.pos++
		return token.Token{Kind: token.COMMA, Lexeme: ",", Pos: start}, nil
	case c == ':':
		l.pos++
		return token.Token{Kind: token.COLON, Lexeme: ":", Pos: start}, nil
	case c == ';':
		l.pos++
		return token.Token{Kind: token.SEMI, Lexeme: ";", Pos: start}, nil
	case c == '*':
		l.pos++
		return token.Token{Kind: token.STAR, Lexeme: "*", Pos: start}, nil
	case c == '.':
		// ".." is the range separator, a lone "." is property access /
		// current-note reference.
		if l.pos+1 < len(l.src) && l.src[l.pos+1] == '.' {
			l.pos += 2
			return token.Token{Kind: token.DOTDOT, Lexeme: "..", Pos: start}, nil
		}
		l.pos++
		return token.Token{Kind: token.DOT, Lexeme: ".", Pos: start}, nil
	case c == '"':
		return l.scanString()
	case isDigit(c):
		return l.scanNumber()
	case isIdentStart(c):
		return l.scanIdent()
	}

	return token.Token{}, &Error{Message: fmt.Sprintf("unexpected character %q", rune(c)), Pos: start}
}

func (l *lexer) skipWhitespace() {
	for l.pos < len(l.src) {
		switch l.src[l.pos] {
		case ' ', '\t', '\r', '\n':
			l.pos++
		default:
			return
		}
	}
}

// scanString scans a double-quoted string. There are no escapes, so the
// string runs to the next quote.
func (l *lexer) scanString() (token.Token, error) {
	start := l.pos
	l.pos++ // opening quote
	for l.pos < len(l.src) {
		if l.src[l.pos] == '"' {
			lit := l.src[start+1 : l.pos]
			l.pos++
			return token.Token{Kind: token.STRING, Lexeme: l.src[start:l.pos], Str: lit, Pos: start}, nil
		}
		l.pos++
	}
	return token.Token{}, &Error{Message: "unterminated string", Pos: start}
}

// scanNumber scans digits with an optional single decimal point. The dot is
// only consumed when a digit follows, so "1..3" lexes as NUMBER DOTDOT NUMBER.
func (l *lexer) scanNumber() (token.Token, error) {
	start := l.pos
	for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
		l.pos++
	}
	if l.pos+1 < len(l.src) && l.src[l.pos] == '.' && isDigit(l.src[l.pos+1]) {
		l.pos++
		for l.pos < len(l.src) && isDigit(l.src[l.pos]) {
			l.pos++
		}
	}
	lexeme := l.src[start:l.pos]
	n, err := strconv.ParseFloat(lexeme, 64)
	if err != nil {
		return token.Token{}, &Error{Message: fmt.Sprintf("malformed number %q", lexeme), Pos: start}
	}
	return token.Token{Kind: token.NUMBER, Lexeme: lexeme, Num: n, Pos: start}, nil
}

func (l *lexer) scanIdent() (token.Token, error) {
	start := l.pos
	for l.pos < len(l.src) && isIdentChar(l.src[l.pos]) {
		l.pos++
	}
	return token.Token{Kind: token.IDENT, Lexeme: l.src[start:l.pos], Pos: start}, nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool { return isIdentStart(c) || isDigit(c) }
