package kicadsexp

import (
	"fmt"
	"io"
	"strings"

	"github.com/chewxy/sexp"
)

// Parser parses s-expressions from a lexer
type Parser struct {
	lexer   *Lexer
	current Token
}

// NewParser creates a new parser from an io.Reader
func NewParser(r io.Reader) *Parser {
	return &Parser{
		lexer: NewLexer(r),
	}
}

// Parse reads every top-level expression from r
func Parse(r io.Reader) ([]sexp.Sexp, error) {
	return NewParser(r).ParseAll()
}

// ParseString reads every top-level expression from s
func ParseString(s string) ([]sexp.Sexp, error) {
	return Parse(strings.NewReader(s))
}

// ParseAll parses all top-level expressions from the input
func (p *Parser) ParseAll() ([]sexp.Sexp, error) {
	var result []sexp.Sexp

	if err := p.advance(); err != nil {
		return nil, err
	}

	for p.current.Type != TokenEOF {
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		result = append(result, expr)

		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func (p *Parser) advance() error {
	tok, err := p.lexer.NextToken()
	if err != nil {
		return err
	}
	p.current = tok
	return nil
}

func (p *Parser) parseExpr() (sexp.Sexp, error) {
	switch p.current.Type {
	case TokenLeftParen:
		return p.parseList()
	case TokenSymbol, TokenString:
		return sexp.Symbol(p.current.Value), nil
	default:
		return nil, fmt.Errorf("line %d: unexpected %v", p.current.Line, p.current.Type)
	}
}

// parseList parses a list; the current token is its '('
func (p *Parser) parseList() (sexp.Sexp, error) {
	start := p.current.Line
	elements := sexp.List{}

	for {
		if err := p.advance(); err != nil {
			return nil, err
		}

		switch p.current.Type {
		case TokenRightParen:
			return elements, nil
		case TokenEOF:
			return nil, fmt.Errorf("line %d: unexpected EOF in list", start)
		}

		elem, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elements = append(elements, elem)
	}
}
