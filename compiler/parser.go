package compiler

import (
	"fmt"
)

// ---------------------------------------------------------------------------
// Parser: recursive descent over the s-expression syntax
// ---------------------------------------------------------------------------

// Parser builds an AST from telescope source code.
type Parser struct {
	lexer  *Lexer
	cur    Token
	peek   Token
	errors []string
}

// NewParser creates a parser for the given source.
func NewParser(source string) *Parser {
	p := &Parser{lexer: NewLexer(source)}
	// Prime cur and peek
	p.nextToken()
	p.nextToken()
	return p
}

// Errors returns accumulated parse errors.
func (p *Parser) Errors() []string {
	return p.errors
}

func (p *Parser) nextToken() {
	p.cur = p.peek
	p.peek = p.lexer.NextToken()
}

func (p *Parser) errorf(pos Position, format string, args ...interface{}) {
	msg := fmt.Sprintf("line %d, column %d: %s", pos.Line, pos.Column, fmt.Sprintf(format, args...))
	p.errors = append(p.errors, msg)
}

// expect consumes the current token if it has the given type, otherwise
// records an error.
func (p *Parser) expect(t TokenType) bool {
	if p.cur.Type != t {
		p.errorf(p.cur.Pos, "expected %s, got %s %q", t, p.cur.Type, p.cur.Literal)
		return false
	}
	p.nextToken()
	return true
}

// ParseExpression parses a single expression.
func (p *Parser) ParseExpression() Expr {
	expr := p.parseExpr()
	if p.cur.Type != TokenEOF {
		p.errorf(p.cur.Pos, "unexpected trailing input: %q", p.cur.Literal)
	}
	return expr
}

func (p *Parser) parseExpr() Expr {
	switch p.cur.Type {
	case TokenInteger:
		lit := &IntLit{Text: p.cur.Literal}
		p.nextToken()
		return lit

	case TokenFloat:
		lit := &FloatLit{Text: p.cur.Literal}
		p.nextToken()
		return lit

	case TokenIdentifier:
		name := p.cur.Literal
		p.nextToken()
		switch name {
		case "true":
			return &BoolLit{Value: true}
		case "false":
			return &BoolLit{Value: false}
		default:
			return &Ident{Name: name}
		}

	case TokenLParen:
		return p.parseForm()

	case TokenError:
		p.errorf(p.cur.Pos, "%s", p.cur.Literal)
		p.nextToken()
		return nil

	default:
		p.errorf(p.cur.Pos, "unexpected token %s %q", p.cur.Type, p.cur.Literal)
		p.nextToken()
		return nil
	}
}

// parseForm parses a parenthesized form: lambda, fix, if, builtin
// application, or function application.
func (p *Parser) parseForm() Expr {
	open := p.cur.Pos
	p.nextToken() // consume '('

	switch {
	case p.cur.Type == TokenIdentifier && p.cur.Literal == "lambda":
		return p.parseLambda(open)

	case p.cur.Type == TokenIdentifier && p.cur.Literal == "fix":
		p.nextToken()
		body := p.parseExpr()
		p.expect(TokenRParen)
		return &Fix{Body: body}

	case p.cur.Type == TokenIdentifier && p.cur.Literal == "if":
		p.nextToken()
		cond := p.parseExpr()
		then := p.parseExpr()
		els := p.parseExpr()
		p.expect(TokenRParen)
		return &If{Cond: cond, Then: then, Else: els}

	case p.cur.Type == TokenBuiltin:
		return p.parseBuiltinApply()

	case p.cur.Type == TokenRParen:
		p.errorf(open, "empty application")
		p.nextToken()
		return nil

	default:
		return p.parseApply(open)
	}
}

func (p *Parser) parseLambda(open Position) Expr {
	p.nextToken() // consume 'lambda'

	if !p.expect(TokenLParen) {
		return nil
	}
	var params []string
	for p.cur.Type == TokenIdentifier {
		params = append(params, p.cur.Literal)
		p.nextToken()
	}
	if !p.expect(TokenRParen) {
		return nil
	}
	if len(params) == 0 {
		p.errorf(open, "lambda requires at least one parameter")
	}

	body := p.parseExpr()
	p.expect(TokenRParen)
	return &Lambda{Params: params, Body: body}
}

func (p *Parser) parseBuiltinApply() Expr {
	var op BuiltinOp
	switch p.cur.Literal {
	case "#builtin_+":
		op = BuiltinSum
	case "#builtin_-":
		op = BuiltinSub
	case "#builtin_<":
		op = BuiltinLessThan
	default:
		p.errorf(p.cur.Pos, "unknown builtin %q", p.cur.Literal)
	}
	p.nextToken()

	left := p.parseExpr()
	right := p.parseExpr()
	p.expect(TokenRParen)
	return &BuiltinApply{Op: op, Left: left, Right: right}
}

func (p *Parser) parseApply(open Position) Expr {
	fn := p.parseExpr()

	var args []Expr
	for p.cur.Type != TokenRParen && p.cur.Type != TokenEOF {
		args = append(args, p.parseExpr())
	}
	p.expect(TokenRParen)

	if len(args) == 0 {
		p.errorf(open, "application requires at least one argument")
	}
	return &Apply{Fn: fn, Args: args}
}

// ---------------------------------------------------------------------------
// Convenience entry point
// ---------------------------------------------------------------------------

// ParseExpr parses a source string into an AST, returning an error if
// the source is not well-formed.
func ParseExpr(source string) (Expr, error) {
	parser := NewParser(source)
	expr := parser.ParseExpression()
	if errs := parser.Errors(); len(errs) > 0 {
		return nil, fmt.Errorf("parse errors: %v", errs)
	}
	return expr, nil
}
