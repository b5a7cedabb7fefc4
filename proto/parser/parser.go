// Package parser turns proto3 source text into a concrete syntax tree.
//
// The accepted language is defined by the EBNF grammar in proto3.ebnf, which is
// embedded into the binary and interpreted by package ebnf/parse. The tree
// keeps one node per matched syntactic production; see the Rule constants for
// the node kinds the grammar produces.
package parser

import (
	_ "embed"
	"strings"
	"sync"

	"github.com/dhamidi/protopojo/ebnf/parse"
	"github.com/tliron/commonlog"
	"golang.org/x/exp/ebnf"
)

//go:embed proto3.ebnf
var grammarSource string

const grammarFile = "proto3.ebnf"

var loadGrammar = sync.OnceValues(func() (ebnf.Grammar, error) {
	g, err := parse.ParseGrammar(grammarFile, strings.NewReader(grammarSource))
	if err != nil {
		return nil, err
	}
	if err := parse.VerifyGrammar(g, RuleProto); err != nil {
		return nil, err
	}
	return g, nil
})

// Grammar returns the verified proto3 grammar.
func Grammar() (ebnf.Grammar, error) {
	return loadGrammar()
}

// GrammarSource returns the text of the embedded grammar.
func GrammarSource() string {
	return grammarSource
}

type Option func(*options)

type options struct {
	file string
	log  commonlog.Logger
}

// WithFile sets the file name reported in node positions and syntax errors.
func WithFile(path string) Option {
	return func(o *options) {
		o.file = path
	}
}

func WithLogger(log commonlog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// Parse parses a complete proto3 file and returns the root node, whose kind is
// RuleProto. Input the grammar does not accept is reported as a
// *parse.SyntaxError.
func Parse(src []byte, opts ...Option) (*parse.Node, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	g, err := Grammar()
	if err != nil {
		return nil, err
	}

	popts := []parse.Option{
		parse.WithTrivia(ruleTrivia),
		parse.WithEndMarker(RuleEOF),
		parse.WithFile(o.file),
	}
	if o.log != nil {
		popts = append(popts, parse.WithLogger(o.log))
	}
	return parse.NewParser(g, popts...).Parse(src, RuleProto)
}
