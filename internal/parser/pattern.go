// SPDX-License-Identifier: AGPL-3.0-or-later

package parser

import (
	"github.com/marginlang/margin/internal/ast"
	"github.com/marginlang/margin/internal/pattern"
	"github.com/marginlang/margin/internal/token"
)

// parsePattern parses the pattern(...) sublanguage. The caller has already
// consumed the "pattern" identifier; the current token is '('.
//
//	element    := (char-class | string-literal) ['*' quantifier]
//	quantifier := NUMBER | 'any' | '(' NUMBER '..' [NUMBER] ')'
func (p *parser) parsePattern(pos int) (ast.Expr, error) {
	if err := p.expect(token.LPAREN, "expected '(' after pattern"); err != nil {
		return nil, err
	}
	var elements []ast.PatternElement
	for p.cur().Kind != token.RPAREN {
		if p.cur().Kind == token.EOF {
			return nil, p.errorf(p.cur().Pos, "unterminated pattern")
		}
		el, err := p.parsePatternElement()
		if err != nil {
			return nil, err
		}
		elements = append(elements, el)
		if p.cur().Kind == token.COMMA {
			p.advance()
		}
	}
	if len(elements) == 0 {
		return nil, p.errorf(pos, "empty pattern")
	}
	if err := p.expect(token.RPAREN, "expected ')' after pattern"); err != nil {
		return nil, err
	}
	return &ast.PatternLit{Elements: elements, Position: pos}, nil
}

func (p *parser) parsePatternElement() (ast.PatternElement, error) {
	var base ast.PatternElement
	switch tok := p.cur(); tok.Kind {
	case token.STRING:
		p.advance()
		base = ast.LiteralElement{Value: tok.Str}
	case token.IDENT:
		cls, err := pattern.ClassByName(tok.Lexeme)
		if err != nil {
			return nil, p.errorf(tok.Pos, "%v", err)
		}
		p.advance()
		base = ast.ClassElement{Class: cls}
	default:
		return nil, p.errorf(tok.Pos, "expected character class or literal in pattern (found %s)", tok.Kind)
	}

	if p.cur().Kind != token.STAR {
		return base, nil
	}
	p.advance()
	q, err := p.parseQuantifier()
	if err != nil {
		return nil, err
	}
	return ast.QuantifiedElement{Element: base, Quantifier: q}, nil
}

func (p *parser) parseQuantifier() (ast.Quantifier, error) {
	switch tok := p.cur(); tok.Kind {
	case token.NUMBER:
		p.advance()
		n := int(tok.Num)
		if n < 0 || float64(n) != tok.Num {
			return ast.Quantifier{}, p.errorf(tok.Pos, "quantifier must be a non-negative integer")
		}
		return ast.Quantifier{Min: n, Max: n}, nil

	case token.IDENT:
		if tok.Lexeme != "any" {
			return ast.Quantifier{}, p.errorf(tok.Pos, "expected quantifier (found %q)", tok.Lexeme)
		}
		p.advance()
		return ast.Quantifier{Min: 0, Max: -1}, nil

	case token.LPAREN:
		p.advance()
		minTok := p.cur()
		if minTok.Kind != token.NUMBER {
			return ast.Quantifier{}, p.errorf(minTok.Pos, "expected minimum count in quantifier range")
		}
		p.advance()
		if err := p.expect(token.DOTDOT, "expected '..' in quantifier range"); err != nil {
			return ast.Quantifier{}, err
		}
		q := ast.Quantifier{Min: int(minTok.Num), Max: -1}
		if p.cur().Kind == token.NUMBER {
			maxTok := p.advance()
			q.Max = int(maxTok.Num)
			if q.Max < q.Min {
				return ast.Quantifier{}, p.errorf(maxTok.Pos, "quantifier maximum is below minimum")
			}
		}
		if err := p.expect(token.RPAREN, "expected ')' after quantifier range"); err != nil {
			return ast.Quantifier{}, err
		}
		return q, nil
	}
	return ast.Quantifier{}, p.errorf(p.cur().Pos, "expected quantifier after '*'")
}
