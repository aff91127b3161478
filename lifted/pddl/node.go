package pddl

import (
	"fmt"
	"strconv"
	"strings"
)

// NodeType represents the type of PDDL node
type NodeType int

const (
	NodeSymbol NodeType = iota
	NodeVariable
	NodeKeyword
	NodeNumber
	NodeList
)

// Node is one s-expression of a PDDL file
type Node struct {
	Type  NodeType
	Line  int
	Col   int
	Value string // For atoms
	Nodes []Node // For lists
}

// String returns a string representation of the node
func (n Node) String() string {
	if n.Type != NodeList {
		return n.Value
	}
	parts := make([]string, len(n.Nodes))
	for i, node := range n.Nodes {
		parts[i] = node.String()
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// Head returns the leading atom of a list, or "" when there is none
func (n Node) Head() string {
	if n.Type != NodeList || len(n.Nodes) == 0 || n.Nodes[0].Type == NodeList {
		return ""
	}
	return n.Nodes[0].Value
}

// Args returns the elements of a list after its head
func (n Node) Args() []Node {
	if n.Type != NodeList || len(n.Nodes) == 0 {
		return nil
	}
	return n.Nodes[1:]
}

// IsList returns true for parenthesized nodes
func (n Node) IsList() bool {
	return n.Type == NodeList
}

// AsInt returns the int value of a number node
func (n Node) AsInt() (int, error) {
	if n.Type != NodeNumber {
		return 0, fmt.Errorf("node is not a number")
	}
	return strconv.Atoi(n.Value)
}

// Pos formats the node's location as line:col
func (n Node) Pos() string {
	return fmt.Sprintf("%d:%d", n.Line, n.Col)
}
