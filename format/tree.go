package format

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/dhamidi/protopojo/ebnf/parse"
)

// TreeEncoder writes a concrete syntax tree, either indented one node per
// line or as JSON.
type TreeEncoder struct {
	w    io.Writer
	json bool
	tree *parse.Node
}

func NewTreeEncoder(w io.Writer) *TreeEncoder {
	return &TreeEncoder{w: w}
}

// JSON switches the encoder to JSON output.
func (e *TreeEncoder) JSON() *TreeEncoder {
	e.json = true
	return e
}

func (e *TreeEncoder) Encode(tree *parse.Node) error {
	e.tree = tree
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *TreeEncoder) MarshalText() ([]byte, error) {
	if e.tree == nil {
		return nil, errors.New("tree: nothing to encode")
	}
	if !e.json {
		return []byte(e.tree.String()), nil
	}
	out, err := json.MarshalIndent(buildTreeData(e.tree), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

type jsonNode struct {
	Kind     string     `json:"kind"`
	Text     string     `json:"text,omitempty"`
	Start    jsonPos    `json:"start"`
	End      jsonPos    `json:"end"`
	Children []jsonNode `json:"children,omitempty"`
}

type jsonPos struct {
	Offset int `json:"offset"`
	Line   int `json:"line"`
	Column int `json:"column"`
}

func buildTreeData(n *parse.Node) jsonNode {
	out := jsonNode{
		Kind:  n.Kind,
		Start: jsonPos{n.Span.Start.Offset, n.Span.Start.Line, n.Span.Start.Column},
		End:   jsonPos{n.Span.End.Offset, n.Span.End.Line, n.Span.End.Column},
	}
	if n.IsLeaf() {
		out.Text = n.Text
	}
	for _, c := range n.Children {
		out.Children = append(out.Children, buildTreeData(c))
	}
	return out
}
