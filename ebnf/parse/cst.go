// Package parse interprets EBNF grammars as parsing expression grammars,
// producing concrete syntax trees.
package parse

import (
	"fmt"
	"strings"
)

// TokenKind is the Kind of leaf nodes created for literal tokens matched
// inside syntactic productions.
const TokenKind = "token"

// Position represents a location in source code.
type Position struct {
	Filename string
	Offset   int // byte offset, starting at 0
	Line     int // line number, starting at 1
	Column   int // byte column, starting at 1
}

func (p Position) String() string {
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Span represents a range in source code.
type Span struct {
	Start Position
	End   Position
}

// Node represents a node in the concrete syntax tree.
//
// Interior nodes correspond to syntactic (upper-case) productions. Lexical
// (lower-case) productions and literal tokens are leaves; their Text is the
// matched source.
type Node struct {
	Kind     string  // Production name, or TokenKind
	Children []*Node // Child nodes (nil for leaves)
	Text     string  // Matched source text, without leading trivia
	Span     Span    // Source span covering this node
}

// IsToken returns true if this node is a literal token.
func (n *Node) IsToken() bool {
	return n.Kind == TokenKind
}

// IsLeaf returns true if this node has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Child returns the first child of the given kind, or nil.
func (n *Node) Child(kind string) *Node {
	for _, c := range n.Children {
		if c.Kind == kind {
			return c
		}
	}
	return nil
}

// ChildrenOf returns all children of the given kind.
func (n *Node) ChildrenOf(kind string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Productions returns the children that are not literal tokens.
func (n *Node) Productions() []*Node {
	var out []*Node
	for _, c := range n.Children {
		if !c.IsToken() {
			out = append(out, c)
		}
	}
	return out
}

// Walk calls fn for n and every descendant in depth-first order.
// Returning false from fn skips the children of that node.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// String renders the tree one node per line, indented by depth.
func (n *Node) String() string {
	var sb strings.Builder
	n.write(&sb, 0)
	return sb.String()
}

func (n *Node) write(sb *strings.Builder, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(n.Kind)
	if n.IsLeaf() {
		fmt.Fprintf(sb, " %q", n.Text)
	}
	fmt.Fprintf(sb, " @%s\n", n.Span.Start)
	for _, c := range n.Children {
		c.write(sb, depth+1)
	}
}
