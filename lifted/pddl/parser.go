package pddl

import (
	"fmt"
	"regexp"
	"strings"
)

var numberPattern = regexp.MustCompile(`^[+-]?\d+(\.\d+)?$`)

// Parser parses PDDL tokens into s-expressions
type Parser struct {
	lexer *Lexer
}

// NewParser creates a new parser
func NewParser(lexer *Lexer) *Parser {
	return &Parser{lexer: lexer}
}

// Parse reads the single top-level form of input
func Parse(input string) (*Node, error) {
	lexer := NewLexer(input)
	if err := lexer.Lex(); err != nil {
		return nil, err
	}

	parser := NewParser(lexer)
	node, err := parser.Parse()
	if err != nil {
		return nil, err
	}
	if tok := lexer.PeekToken(); tok.Type != TokenEOF {
		return nil, fmt.Errorf("unexpected %v after top-level form", tok)
	}
	return node, nil
}

// Parse reads a single value
func (p *Parser) Parse() (*Node, error) {
	return p.readNode()
}

func (p *Parser) readNode() (*Node, error) {
	token := p.lexer.PeekToken()

	switch token.Type {
	case TokenEOF:
		return nil, fmt.Errorf("unexpected EOF at %d:%d", token.Line, token.Col)
	case TokenAtom:
		p.lexer.NextToken()
		return &Node{
			Type:  classify(token.Value),
			Value: token.Value,
			Line:  token.Line,
			Col:   token.Col,
		}, nil
	case TokenLeftParen:
		return p.readList()
	default:
		return nil, fmt.Errorf("unexpected ')' at %d:%d", token.Line, token.Col)
	}
}

func (p *Parser) readList() (*Node, error) {
	open := p.lexer.NextToken()
	node := &Node{Type: NodeList, Line: open.Line, Col: open.Col}

	for {
		token := p.lexer.PeekToken()
		switch token.Type {
		case TokenEOF:
			return nil, fmt.Errorf("unclosed list starting at %d:%d", open.Line, open.Col)
		case TokenRightParen:
			p.lexer.NextToken()
			return node, nil
		}

		child, err := p.readNode()
		if err != nil {
			return nil, err
		}
		node.Nodes = append(node.Nodes, *child)
	}
}

func classify(atom string) NodeType {
	switch {
	case strings.HasPrefix(atom, "?"):
		return NodeVariable
	case strings.HasPrefix(atom, ":"):
		return NodeKeyword
	case numberPattern.MatchString(atom):
		return NodeNumber
	default:
		return NodeSymbol
	}
}
