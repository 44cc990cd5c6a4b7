// Package kicadsexp reads the s-expressions KiCad writes for its newer
// files, such as library tables. Unlike a plain symbol lexer it knows about
// quoted strings, so "Resistor SMD" or "(THT)" stay a single atom.
//
// Parsed trees use the github.com/chewxy/sexp node types: lists are
// sexp.List and atoms, quoted or not, are sexp.Symbol.
package kicadsexp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"unicode"
)

// TokenType represents the type of a token
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenLeftParen
	TokenRightParen
	TokenSymbol
	TokenString
)

func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenLeftParen:
		return "'('"
	case TokenRightParen:
		return "')'"
	case TokenSymbol:
		return "symbol"
	case TokenString:
		return "string"
	default:
		return fmt.Sprintf("TokenType(%d)", int(t))
	}
}

// Token is a lexical token with the line it starts on
type Token struct {
	Type  TokenType
	Value string
	Line  int
}

// Lexer tokenizes s-expressions from an io.Reader
type Lexer struct {
	reader *bufio.Reader
	peeked *rune
	line   int
}

// NewLexer creates a new lexer
func NewLexer(r io.Reader) *Lexer {
	return &Lexer{
		reader: bufio.NewReader(r),
		line:   1,
	}
}

// NextToken reads the next token from the input
func (l *Lexer) NextToken() (Token, error) {
	for {
		ch, err := l.peek()
		if errors.Is(err, io.EOF) {
			return Token{Type: TokenEOF, Line: l.line}, nil
		}
		if err != nil {
			return Token{}, err
		}
		if !unicode.IsSpace(ch) {
			break
		}
		l.read()
	}

	ch, _ := l.peek()
	switch ch {
	case '(':
		l.read()
		return Token{Type: TokenLeftParen, Value: "(", Line: l.line}, nil
	case ')':
		l.read()
		return Token{Type: TokenRightParen, Value: ")", Line: l.line}, nil
	case '"':
		return l.readString()
	default:
		return l.readSymbol()
	}
}

func (l *Lexer) peek() (rune, error) {
	if l.peeked != nil {
		return *l.peeked, nil
	}

	ch, _, err := l.reader.ReadRune()
	if err != nil {
		return 0, err
	}

	l.peeked = &ch
	return ch, nil
}

func (l *Lexer) read() (rune, error) {
	var ch rune
	if l.peeked != nil {
		ch = *l.peeked
		l.peeked = nil
	} else {
		var err error
		if ch, _, err = l.reader.ReadRune(); err != nil {
			return 0, err
		}
	}

	if ch == '\n' {
		l.line++
	}
	return ch, nil
}

// readString reads a double quoted string with backslash escapes
func (l *Lexer) readString() (Token, error) {
	start := l.line
	l.read()

	var result []rune
	for {
		ch, err := l.read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return Token{}, fmt.Errorf("line %d: unexpected EOF in string", start)
			}
			return Token{}, err
		}

		if ch == '"' {
			break
		}

		if ch == '\\' {
			next, err := l.read()
			if err != nil {
				return Token{}, fmt.Errorf("line %d: unexpected EOF after backslash", start)
			}
			switch next {
			case 'n':
				result = append(result, '\n')
			case 't':
				result = append(result, '\t')
			case 'r':
				result = append(result, '\r')
			default:
				result = append(result, next)
			}
			continue
		}

		result = append(result, ch)
	}

	return Token{Type: TokenString, Value: string(result), Line: start}, nil
}

// readSymbol reads an unquoted symbol (identifier, number, path, ...)
func (l *Lexer) readSymbol() (Token, error) {
	var result []rune

	for {
		ch, err := l.peek()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Token{}, err
		}

		if unicode.IsSpace(ch) || ch == '(' || ch == ')' || ch == '"' {
			break
		}

		l.read()
		result = append(result, ch)
	}

	return Token{Type: TokenSymbol, Value: string(result), Line: l.line}, nil
}
