// SPDX-License-Identifier: AGPL-3.0-or-later

// Package parser turns margin token streams into directive ASTs.
//
// The grammar is recursive descent with single-token lookahead plus a
// bounded scan-ahead for explicit lambda parameter lists. Parsing is a
// pure function of the token stream: on failure no shared state has been
// touched and the error carries the offending token's position.
package parser

import (
	"fmt"

	"github.com/marginlang/margin/internal/ast"
	"github.com/marginlang/margin/internal/token"
)

// ImplicitParam is the reader-context parameter name bound by implicit
// lambdas ([expr] and lambda[expr]).
const ImplicitParam = "i"

// Error is a grammar error with the byte offset of the offending token.
type Error struct {
	Message string
	Pos     int
}

func (e *Error) Error() string {
	return fmt.Sprintf("parse error at %d: %s", e.Pos, e.Message)
}

// ParseDirective parses a full [...] directive. source is the exact
// original slice and start its offset in the surrounding note text.
func ParseDirective(toks []token.Token, source string, start int) (*ast.Directive, error) {
	p := &parser{toks: toks}
	if err := p.expect(token.LBRACKET, "directive must start with '['"); err != nil {
		return nil, err
	}
	expr, err := p.parseStatementList()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.RBRACKET, "directive must end with ']'"); err != nil {
		return nil, err
	}
	if p.cur().Kind != token.EOF {
		return nil, p.errorf(p.cur().Pos, "unexpected %s after directive", p.cur().Kind)
	}
	return &ast.Directive{Expression: expr, Source: source, Start: start}, nil
}

type parser struct {
	toks []token.Token
	pos  int
}

func (p *parser) cur() token.Token { return p.toks[p.pos] }

func (p *parser) peek(n int) token.Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1] // EOF
	}
	return p.toks[p.pos+n]
}

func (p *parser) advance() token.Token {
	t := p.toks[p.pos]
	if t.Kind != token.EOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(k token.Kind, msg string) error {
	if p.cur().Kind != k {
		return p.errorf(p.cur().Pos, "%s (found %s)", msg, p.cur().Kind)
	}
	p.advance()
	return nil
}

func (p *parser) errorf(pos int, format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), Pos: pos}
}

// parseStatementList parses ';'-separated statements. A single statement
// stays unwrapped; two or more become a StatementList.
func (p *parser) parseStatementList() (ast.Expr, error) {
	first, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	if p.cur().Kind != token.SEMI {
		return first, nil
	}
	list := &ast.StatementList{Stmts: []ast.Expr{first}, Position: first.Pos()}
	for p.cur().Kind == token.SEMI {
		p.advance()
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		list.Stmts = append(list.Stmts, stmt)
	}
	return list, nil
}

// parseStatement parses a variable definition, an assignment, or a bare
// expression.
func (p *parser) parseStatement() (ast.Expr, error) {
	// IDENT ':' expr defines a variable.
	if p.cur().Kind == token.IDENT && p.peek(1).Kind == token.COLON {
		name := p.advance()
		p.advance() // ':'
		value, err := p.parseCallChain()
		if err != nil {
			return nil, err
		}
		target := &ast.VariableRef{Name: name.Lexeme, Position: name.Pos}
		return &ast.Assign{Target: target, Value: value, Position: name.Pos}, nil
	}

	lhs, err := p.parseCallChain()
	if err != nil {
		return nil, err
	}
	if p.cur().Kind != token.COLON {
		return lhs, nil
	}
	colon := p.advance()
	value, err := p.parseCallChain()
	if err != nil {
		return nil, err
	}
	target, err := p.assignTarget(lhs, colon.Pos)
	if err != nil {
		return nil, err
	}
	return &ast.Assign{Target: target, Value: value, Position: lhs.Pos()}, nil
}

// assignTarget validates an assignment left side. A zero-argument call is
// really a bare identifier, so it narrows to a variable reference.
func (p *parser) assignTarget(lhs ast.Expr, pos int) (ast.Expr, error) {
	switch t := lhs.(type) {
	case *ast.VariableRef, *ast.PropertyAccess, *ast.CurrentNote:
		return lhs, nil
	case *ast.Call:
		if len(t.Args) == 0 && len(t.Named) == 0 {
			return &ast.VariableRef{Name: t.Name, Position: t.Position}, nil
		}
	}
	return nil, p.errorf(pos, "invalid assignment target")
}

// parseCallChain parses space-separated right-nesting chains: a b c is
// a(b(c)). The chain continues only while the head is a bare identifier
// and the next token begins an operand; parenthesized calls stand alone.
func (p *parser) parseCallChain() (ast.Expr, error) {
	if p.cur().Kind == token.IDENT && p.chainContinues() {
		head := p.advance()
		arg, err := p.parseCallChain()
		if err != nil {
			return nil, err
		}
		return &ast.Call{Name: head.Lexeme, Args: []ast.Expr{arg}, Position: head.Pos}, nil
	}
	return p.parsePostfix()
}

// chainContinues reports whether the token after the current identifier
// begins a chained operand rather than a postfix form or a statement tail.
func (p *parser) chainContinues() bool {
	switch p.peek(1).Kind {
	case token.NUMBER, token.STRING:
		return true
	case token.IDENT:
		// "b: ..." after the head belongs to an assignment, not the chain.
		return p.peek(2).Kind != token.COLON
	}
	return false
}

// parsePostfix parses a primary followed by property access, method calls,
// and lambda invocation.
func (p *parser) parsePostfix() (ast.Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.cur().Kind {
		case token.DOT:
			dot := p.advance()
			if p.cur().Kind != token.IDENT {
				return nil, p.errorf(dot.Pos, "expected property name after '.'")
			}
			name := p.advance()
			if p.cur().Kind == token.LPAREN {
				args, named, err := p.parseArgs()
				if err != nil {
					return nil, err
				}
				expr = &ast.MethodCall{Target: expr, Name: name.Lexeme, Args: args, Named: named, Position: dot.Pos}
			} else {
				expr = &ast.PropertyAccess{Target: expr, Name: name.Lexeme, Position: dot.Pos}
			}
		case token.LPAREN:
			// Only lambda literals may be invoked postfix.
			if _, ok := expr.(*ast.Lambda); !ok {
				return expr, nil
			}
			lp := p.cur()
			args, named, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			expr = &ast.LambdaCall{Lambda: expr, Args: args, Named: named, Position: lp.Pos}
		default:
			return expr, nil
		}
	}
}

func (p *parser) parsePrimary() (ast.Expr, error) {
	tok := p.cur()
	switch tok.Kind {
	case token.NUMBER:
		p.advance()
		return &ast.NumberLit{Value: tok.Num, Position: tok.Pos}, nil

	case token.STRING:
		p.advance()
		return &ast.StringLit{Value: tok.Str, Position: tok.Pos}, nil

	case token.DOT:
		// Lone '.' is the current note; '.name' reads its property and
		// '.append(...)' calls a method on it.
		p.advance()
		current := &ast.CurrentNote{Position: tok.Pos}
		if p.cur().Kind != token.IDENT {
			return current, nil
		}
		name := p.advance()
		if p.cur().Kind == token.LPAREN {
			args, named, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			return &ast.MethodCall{Target: current, Name: name.Lexeme, Args: args, Named: named, Position: tok.Pos}, nil
		}
		return &ast.PropertyAccess{Target: current, Name: name.Lexeme, Position: tok.Pos}, nil

	case token.LBRACKET:
		// Implicit single-parameter lambda.
		return p.parseLambdaBody(tok.Pos, []string{ImplicitParam})

	case token.LPAREN:
		if params, ok := p.scanLambdaParams(); ok {
			return p.parseLambdaBody(tok.Pos, params)
		}
		return nil, p.errorf(tok.Pos, "expected lambda parameter list after '('")

	case token.IDENT:
		return p.parseIdentPrimary()
	}
	return nil, p.errorf(tok.Pos, "unexpected %s", tok.Kind)
}

// parseIdentPrimary handles the identifier-led primaries: keyword blocks,
// bracket sugar, parenthesized calls, the pattern sublanguage, and bare
// identifiers (zero-argument calls).
func (p *parser) parseIdentPrimary() (ast.Expr, error) {
	name := p.advance()
	switch p.cur().Kind {
	case token.LBRACKET:
		switch name.Lexeme {
		case "lambda":
			return p.parseLambdaBody(name.Pos, []string{ImplicitParam})
		case "once":
			body, err := p.parseBracketBody()
			if err != nil {
				return nil, err
			}
			return &ast.Once{Body: body, Position: name.Pos}, nil
		case "refresh":
			body, err := p.parseBracketBody()
			if err != nil {
				return nil, err
			}
			return &ast.Refresh{Body: body, Position: name.Pos}, nil
		}
		// name[x] is sugar for name([x]).
		lb := p.cur()
		fn, err := p.parseLambdaBody(lb.Pos, []string{ImplicitParam})
		if err != nil {
			return nil, err
		}
		return &ast.Call{Name: name.Lexeme, Args: []ast.Expr{fn}, Position: name.Pos}, nil

	case token.LPAREN:
		if name.Lexeme == "pattern" {
			return p.parsePattern(name.Pos)
		}
		args, named, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		return &ast.Call{Name: name.Lexeme, Args: args, Named: named, Position: name.Pos}, nil
	}
	// Bare identifier: a zero-argument call. The executor falls back to a
	// variable lookup when the name is not a registered function.
	return &ast.Call{Name: name.Lexeme, Position: name.Pos}, nil
}

// parseBracketBody parses '[' stmtlist ']' and returns the body.
func (p *parser) parseBracketBody() (ast.Expr, error) {
	if err := p.expect(token.LBRACKET, "expected '['"); err != nil {
		return nil, err
	}
	body, err := p.parseStatementList()
	if err != nil {
		return nil, err
	}
	if err := p.expect(token.RBRACKET, "expected ']'"); err != nil {
		return nil, err
	}
	return body, nil
}

// parseLambdaBody parses the '[' body ']' of a lambda whose parameters
// are already known. For explicit lambdas the parameter list has been
// consumed by scanLambdaParams.
func (p *parser) parseLambdaBody(pos int, params []string) (ast.Expr, error) {
	body, err := p.parseBracketBody()
	if err != nil {
		return nil, err
	}
	return &ast.Lambda{Params: params, Body: body, Position: pos}, nil
}

// scanLambdaParams detects and consumes an explicit lambda parameter list:
// '(' IDENT (',' IDENT)* ')' followed by '['. The scan is bounded and the
// stream is left untouched when the shape does not match.
func (p *parser) scanLambdaParams() ([]string, bool) {
	i := p.pos // at '('
	var params []string
	i++
	for {
		if p.at(i).Kind != token.IDENT {
			return nil, false
		}
		params = append(params, p.at(i).Lexeme)
		i++
		if p.at(i).Kind == token.COMMA {
			i++
			continue
		}
		break
	}
	if p.at(i).Kind != token.RPAREN || p.at(i+1).Kind != token.LBRACKET {
		return nil, false
	}
	p.pos = i + 1 // leave the '[' for parseLambdaBody
	return params, true
}

func (p *parser) at(i int) token.Token {
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}

// parseArgs parses '(' arg, ... ')' with named arguments (name: value)
// required to follow all positional ones.
func (p *parser) parseArgs() ([]ast.Expr, []ast.NamedArg, error) {
	if err := p.expect(token.LPAREN, "expected '('"); err != nil {
		return nil, nil, err
	}
	var args []ast.Expr
	var named []ast.NamedArg
	for p.cur().Kind != token.RPAREN {
		if p.cur().Kind == token.EOF {
			return nil, nil, p.errorf(p.cur().Pos, "unterminated argument list")
		}
		if p.cur().Kind == token.IDENT && p.peek(1).Kind == token.COLON {
			name := p.advance()
			p.advance() // ':'
			value, err := p.parseCallChain()
			if err != nil {
				return nil, nil, err
			}
			named = append(named, ast.NamedArg{Name: name.Lexeme, Value: value})
		} else {
			if len(named) > 0 {
				return nil, nil, p.errorf(p.cur().Pos, "positional argument after named argument")
			}
			value, err := p.parseCallChain()
			if err != nil {
				return nil, nil, err
			}
			args = append(args, value)
		}
		if p.cur().Kind == token.COMMA {
			p.advance()
			continue
		}
		break
	}
	if err := p.expect(token.RPAREN, "expected ')' after arguments"); err != nil {
		return nil, nil, err
	}
	return args, named, nil
}
