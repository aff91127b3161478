package pddl

import (
	"strings"
	"unicode"
)

// Lexer tokenizes PDDL input. PDDL is case-insensitive, so atoms are
// lowercased as they are read.
type Lexer struct {
	input   string
	pos     int
	line    int
	col     int
	tokens  []Token
	current int
}

// NewLexer creates a new lexer for the given input
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		line:   1,
		col:    1,
		tokens: []Token{},
	}
}

// Lex tokenizes the entire input
func (l *Lexer) Lex() error {
	for l.pos < len(l.input) {
		l.skipWhitespaceAndComments()
		if l.pos >= len(l.input) {
			break
		}

		startLine := l.line
		startCol := l.col

		switch ch := l.peek(); ch {
		case '(':
			l.advance()
			l.tokens = append(l.tokens, Token{Type: TokenLeftParen, Line: startLine, Col: startCol})
		case ')':
			l.advance()
			l.tokens = append(l.tokens, Token{Type: TokenRightParen, Line: startLine, Col: startCol})
		default:
			l.tokens = append(l.tokens, Token{
				Type:  TokenAtom,
				Value: l.readAtom(),
				Line:  startLine,
				Col:   startCol,
			})
		}
	}

	l.tokens = append(l.tokens, Token{Type: TokenEOF, Line: l.line, Col: l.col})
	return nil
}

// NextToken returns the next token
func (l *Lexer) NextToken() Token {
	if l.current >= len(l.tokens) {
		return Token{Type: TokenEOF, Line: l.line, Col: l.col}
	}
	token := l.tokens[l.current]
	l.current++
	return token
}

// PeekToken returns the next token without advancing
func (l *Lexer) PeekToken() Token {
	if l.current >= len(l.tokens) {
		return Token{Type: TokenEOF, Line: l.line, Col: l.col}
	}
	return l.tokens[l.current]
}

func (l *Lexer) peek() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	return l.input[l.pos]
}

func (l *Lexer) advance() {
	if l.pos < len(l.input) {
		if l.input[l.pos] == '\n' {
			l.line++
			l.col = 1
		} else {
			l.col++
		}
		l.pos++
	}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for l.pos < len(l.input) {
		ch := l.peek()
		if unicode.IsSpace(rune(ch)) {
			l.advance()
		} else if ch == ';' {
			for l.pos < len(l.input) && l.peek() != '\n' {
				l.advance()
			}
		} else {
			break
		}
	}
}

// readAtom reads a name, variable, keyword or number
func (l *Lexer) readAtom() string {
	var result strings.Builder
	for l.pos < len(l.input) {
		ch := l.peek()
		if isDelimiter(ch) || unicode.IsSpace(rune(ch)) {
			break
		}
		result.WriteByte(ch)
		l.advance()
	}
	return strings.ToLower(result.String())
}

func isDelimiter(ch byte) bool {
	return ch == '(' || ch == ')' || ch == ';'
}
