// Package parser builds an operator tree (internal/ast.Node) from
// S-expression factor source text, per the grammar and operator catalog in
// spec.md §4.1 and §6.
package parser

import (
	"strconv"
	"strings"

	"factorlang/internal/ast"
	"factorlang/internal/errors"
	"factorlang/internal/lexer"
)

// Parse scans and parses a complete factor expression. It fails with a typed
// *errors.FactorError on unmatched parens, unknown operators, arity
// mismatches, or a non-constant-integer where a window/exponent is required.
func Parse(text string) (ast.Node, error) {
	tokens, err := lexer.NewScanner(text).ScanTokens()
	if err != nil {
		return nil, err
	}
	p := &Parser{tokens: tokens}
	node, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.peek().Type != lexer.TokenEOF {
		return nil, errors.NewParseError(p.peek().Pos, "unexpected trailing token %q", p.peek().Lexeme)
	}
	return node, nil
}

// Parser is a recursive-descent parser over a pre-scanned token stream.
type Parser struct {
	tokens  []lexer.Token
	current int
}

// New constructs a Parser over an already-scanned token stream.
func New(tokens []lexer.Token) *Parser {
	return &Parser{tokens: tokens}
}

// ParseExpr parses exactly one expression without requiring EOF afterward;
// used when the caller is parsing a sub-expression as part of a larger
// document.
func (p *Parser) ParseExpr() (ast.Node, error) {
	return p.parseExpr()
}

func (p *Parser) parseExpr() (ast.Node, error) {
	tok := p.peek()
	switch tok.Type {
	case lexer.TokenNumber:
		p.advance()
		v, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			return nil, errors.NewParseError(tok.Pos, "invalid numeric literal %q", tok.Lexeme)
		}
		return &ast.Constant{Value: v}, nil
	case lexer.TokenColumn:
		p.advance()
		if tok.Lexeme == "" {
			return nil, errors.NewParseError(tok.Pos, "empty column name")
		}
		return &ast.ColumnRef{Name: tok.Lexeme}, nil
	case lexer.TokenLParen:
		return p.parseList()
	case lexer.TokenEOF:
		return nil, errors.NewParseError(tok.Pos, "unexpected end of input")
	default:
		return nil, errors.NewParseError(tok.Pos, "unexpected token %q", tok.Lexeme)
	}
}

func (p *Parser) parseList() (ast.Node, error) {
	open := p.advance() // consume '('

	nameTok := p.peek()
	if nameTok.Type != lexer.TokenAtom {
		return nil, errors.NewParseError(nameTok.Pos, "expected operator name, got %q", nameTok.Lexeme)
	}
	p.advance()

	spec, ok := ast.Catalog[nameTok.Lexeme]
	if !ok {
		return nil, errors.NewParseError(nameTok.Pos, "unknown operator %q", nameTok.Lexeme)
	}

	var args []ast.Node
	for {
		if p.peek().Type == lexer.TokenEOF {
			return nil, errors.NewParseError(open.Pos, "unmatched '(' for operator %q", nameTok.Lexeme)
		}
		if p.peek().Type == lexer.TokenRParen {
			break
		}
		if spec.ConstArg == len(args) {
			arg, err := p.parseConstantIntArg(nameTok.Lexeme, spec.ConstMin)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			continue
		}
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	p.advance() // consume ')'

	if len(args) != spec.Arity {
		return nil, errors.NewParseError(nameTok.Pos, "%s expects %d argument(s), got %d", nameTok.Lexeme, spec.Arity, len(args))
	}
	return &ast.Op{Name: nameTok.Lexeme, Args: args}, nil
}

// parseConstantIntArg parses a bare non-negative(-or-above-min) integer
// literal, rejecting decimals/exponents: the structural precondition that a
// window size or exponent must be a literal Constant integer (spec.md §3).
func (p *Parser) parseConstantIntArg(opName string, min int) (ast.Node, error) {
	tok := p.peek()
	if tok.Type != lexer.TokenNumber || strings.ContainsAny(tok.Lexeme, ".eE") {
		return nil, errors.NewParseError(tok.Pos, "%s requires a constant integer, got %q", opName, tok.Lexeme)
	}
	n, err := strconv.Atoi(tok.Lexeme)
	if err != nil {
		return nil, errors.NewParseError(tok.Pos, "%s requires a constant integer, got %q", opName, tok.Lexeme)
	}
	if n < min {
		return nil, errors.NewParseError(tok.Pos, "%s requires an integer >= %d, got %d", opName, min, n)
	}
	p.advance()
	return &ast.Constant{Value: float64(n)}, nil
}

func (p *Parser) peek() lexer.Token {
	return p.tokens[p.current]
}

func (p *Parser) advance() lexer.Token {
	tok := p.tokens[p.current]
	if tok.Type != lexer.TokenEOF {
		p.current++
	}
	return tok
}
