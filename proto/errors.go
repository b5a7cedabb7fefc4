package proto

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dhamidi/protopojo/ebnf/parse"
)

// Kinds of errors returned by Reduce. Every *Error wraps exactly one of them.
var (
	ErrInvalidFieldNumber    = errors.New("invalid field number")
	ErrInvalidEnumDefinition = errors.New("invalid enum definition")
	ErrInvalidStringLiteral  = errors.New("invalid string literal")
	ErrDuplicateDeclaration  = errors.New("duplicate declaration")
	ErrUnsupportedSyntax     = errors.New("unsupported syntax")

	// ErrMalformedTree means the tree does not have the shape the proto3
	// grammar produces. It points at a bug, not at bad input.
	ErrMalformedTree = errors.New("malformed syntax tree")
)

var (
	errFirstEnumValue = errors.New("the first value must be zero")
	errEmptyEnum      = errors.New("no values")
)

// Error is a reduction failure tied to a position in the source.
type Error struct {
	Kind error
	Pos  parse.Position
	Decl string // enclosing message or enum, if any
	Name string // offending identifier
	Err  error  // details, may be nil
}

func (e *Error) Error() string {
	var sb strings.Builder
	if e.Pos.Line > 0 {
		sb.WriteString(e.Pos.String())
		sb.WriteString(": ")
	}
	sb.WriteString(e.Kind.Error())

	subject := e.Name
	if e.Decl != "" && e.Name != "" {
		subject = e.Decl + "." + e.Name
	} else if e.Decl != "" {
		subject = e.Decl
	}
	if subject != "" {
		sb.WriteString(": ")
		sb.WriteString(subject)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func (e *Error) GetPosition() parse.Position {
	return e.Pos
}

// EscapeError describes a malformed escape sequence inside a string literal.
type EscapeError struct {
	Offset int    // byte offset of the backslash, counted from the opening quote
	Text   string // the escape sequence as written, possibly truncated
	Reason string
}

func (e *EscapeError) Error() string {
	return fmt.Sprintf("%s %q at offset %d", e.Reason, e.Text, e.Offset)
}

func (e *EscapeError) Unwrap() error {
	return ErrInvalidStringLiteral
}

func malformed(n *parse.Node, format string, args ...any) *Error {
	e := &Error{
		Kind: ErrMalformedTree,
		Err:  fmt.Errorf(format, args...),
	}
	if n != nil {
		e.Pos = n.Span.Start
	}
	return e
}
