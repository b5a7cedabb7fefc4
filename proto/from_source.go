package proto

import (
	"errors"
	"strings"

	"github.com/dhamidi/protopojo/ebnf/parse"
	"github.com/dhamidi/protopojo/proto/parser"
)

// ParseAndReduce parses proto3 source and reduces it to a ProtoModel.
func ParseAndReduce(src []byte, opts ...parser.Option) (*ProtoModel, error) {
	tree, err := parser.Parse(src, opts...)
	if err != nil {
		return nil, err
	}
	return Reduce(tree)
}

// Reduce builds a ProtoModel from a tree produced by parser.Parse. It stops
// at the first problem and returns it as an *Error.
func Reduce(tree *parse.Node) (*ProtoModel, error) {
	if tree == nil || tree.Kind != parser.RuleProto {
		return nil, malformed(tree, "expected %s at the root", parser.RuleProto)
	}

	r := &reducer{
		model: &ProtoModel{},
		types: make(map[string]bool),
	}
	if err := r.file(tree); err != nil {
		return nil, err
	}
	return r.model, nil
}

type reducer struct {
	model      *ProtoModel
	types      map[string]bool
	hasPackage bool
	scopes     []scope // enclosing messages, innermost last
}

// scope is a message body and the types declared directly inside it.
type scope struct {
	name   string
	nested map[string]bool
}

func (r *reducer) file(n *parse.Node) error {
	for _, c := range n.Children {
		var err error
		switch c.Kind {
		case parser.RuleSyntaxStatement:
			err = r.syntax(c)
		case parser.RuleTopLevelStatement:
			err = r.topLevel(c)
		case parser.RuleEOF:
		default:
			err = malformed(c, "unexpected %s in file", c.Kind)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *reducer) syntax(n *parse.Node) error {
	lit := n.Child(parser.RuleStringValue)
	if lit == nil {
		return malformed(n, "syntax statement without a value")
	}
	value, err := r.stringValue(lit, "")
	if err != nil {
		return err
	}
	if value != "proto3" {
		return &Error{Kind: ErrUnsupportedSyntax, Pos: lit.Span.Start, Name: value}
	}
	return nil
}

func (r *reducer) pkg(n *parse.Node) error {
	ident := n.Child(parser.RuleFullIdent)
	name, err := fullIdent(ident, n)
	if err != nil {
		return err
	}
	if r.hasPackage {
		return &Error{Kind: ErrDuplicateDeclaration, Pos: ident.Span.Start, Name: "package " + name}
	}
	r.model.Package = name
	r.hasPackage = true
	return nil
}

func (r *reducer) topLevel(n *parse.Node) error {
	inner, err := unwrap(n)
	if err != nil {
		return err
	}
	switch inner.Kind {
	case parser.RuleMessageBlock:
		return r.message(inner)
	case parser.RuleEnumBlock:
		return r.enum(inner)
	case parser.RulePackageStatement:
		return r.pkg(inner)
	case parser.RuleImportStatement, parser.RuleOptionStatement:
		return r.strings(inner, "")
	case parser.RuleEmptyStatement:
		return nil
	}
	return malformed(inner, "unexpected %s in %s", inner.Kind, n.Kind)
}

// qualify returns the name of a type declared as simple in the innermost
// enclosing message.
func (r *reducer) qualify(simple string) string {
	if len(r.scopes) == 0 {
		return simple
	}
	return r.scopes[len(r.scopes)-1].name + "." + simple
}

// declare adds decl to the model. A nested type may not share its simple
// name with an enclosing message, since Java forbids that.
func (r *reducer) declare(decl TypeDecl, name *parse.Node) error {
	qualified := decl.DeclName()
	if r.types[qualified] {
		return &Error{Kind: ErrDuplicateDeclaration, Pos: name.Span.Start, Name: qualified}
	}
	for _, s := range r.scopes {
		if SimpleName(s.name) == name.Text {
			return &Error{Kind: ErrDuplicateDeclaration, Pos: name.Span.Start, Name: qualified}
		}
	}
	r.types[qualified] = true
	r.model.Types = append(r.model.Types, decl)
	return nil
}

// resolve qualifies a type reference that names a type nested in one of
// the enclosing messages, searching from the innermost outwards. Other
// references are returned unchanged.
func (r *reducer) resolve(ref string) string {
	first, _, _ := strings.Cut(ref, ".")
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if r.scopes[i].nested[first] {
			return r.scopes[i].name + "." + ref
		}
	}
	return ref
}

// nestedNames returns the names of the messages and enums declared directly
// in a message body.
func nestedNames(body *parse.Node) map[string]bool {
	names := make(map[string]bool)
	for _, el := range body.ChildrenOf(parser.RuleMessageElement) {
		if m := el.Child(parser.RuleMessageBlock); m != nil {
			if n := m.Child(parser.RuleMessageName); n != nil {
				names[n.Text] = true
			}
		}
		if e := el.Child(parser.RuleEnumBlock); e != nil {
			if n := e.Child(parser.RuleEnumName); n != nil {
				names[n.Text] = true
			}
		}
	}
	return names
}

func (r *reducer) message(n *parse.Node) error {
	nameNode := n.Child(parser.RuleMessageName)
	body := n.Child(parser.RuleMessageBody)
	if nameNode == nil || body == nil {
		return malformed(n, "message without name or body")
	}

	msg := &Message{Name: r.qualify(nameNode.Text)}
	if err := r.declare(msg, nameNode); err != nil {
		return err
	}

	r.scopes = append(r.scopes, scope{name: msg.Name, nested: nestedNames(body)})
	defer func() { r.scopes = r.scopes[:len(r.scopes)-1] }()

	seen := make(map[string]bool)
	add := func(f Field, at *parse.Node) error {
		if seen[f.Name] {
			return &Error{Kind: ErrDuplicateDeclaration, Pos: at.Span.Start, Decl: msg.Name, Name: f.Name}
		}
		seen[f.Name] = true
		msg.Fields = append(msg.Fields, f)
		return nil
	}

	for _, el := range body.ChildrenOf(parser.RuleMessageElement) {
		inner, err := unwrap(el)
		if err != nil {
			return err
		}
		switch inner.Kind {
		case parser.RuleField:
			f, err := r.field(msg.Name, inner)
			if err != nil {
				return err
			}
			if err := add(f, inner.Child(parser.RuleFieldName)); err != nil {
				return err
			}
		case parser.RuleOneof:
			for _, oe := range inner.ChildrenOf(parser.RuleOneofElement) {
				member, err := unwrap(oe)
				if err != nil {
					return err
				}
				switch member.Kind {
				case parser.RuleOneofField:
					f, err := r.field(msg.Name, member)
					if err != nil {
						return err
					}
					if err := add(f, member.Child(parser.RuleFieldName)); err != nil {
						return err
					}
				case parser.RuleOptionStatement:
					if err := r.strings(member, msg.Name); err != nil {
						return err
					}
				case parser.RuleEmptyStatement:
				default:
					return malformed(member, "unexpected %s in oneof", member.Kind)
				}
			}
		case parser.RuleMessageBlock:
			if err := r.message(inner); err != nil {
				return err
			}
		case parser.RuleEnumBlock:
			if err := r.enum(inner); err != nil {
				return err
			}
		case parser.RuleOptionStatement, parser.RuleReservedStatement:
			if err := r.strings(inner, msg.Name); err != nil {
				return err
			}
		case parser.RuleEmptyStatement:
		default:
			return malformed(inner, "unexpected %s in message", inner.Kind)
		}
	}
	return nil
}

// field reduces a Field or OneofField node.
func (r *reducer) field(decl string, n *parse.Node) (Field, error) {
	nameNode := n.Child(parser.RuleFieldName)
	typeNode := n.Child(parser.RuleTypeReference)
	numberNode := n.Child(parser.RuleFieldNumber)
	if nameNode == nil || typeNode == nil || numberNode == nil {
		return Field{}, malformed(n, "field without name, type or number")
	}

	f := Field{Name: nameNode.Text}
	if mod := n.Child(parser.RuleFieldModifier); mod != nil {
		f.Modifier = FieldModifier(mod.Text)
	}

	ty, err := typeReference(typeNode)
	if err != nil {
		return Field{}, err
	}
	if !ty.IsScalar() && !isAbsolute(typeNode) {
		ty.Custom = r.resolve(ty.Custom)
	}
	f.Type = ty

	text := leafText(numberNode)
	order, err := checkFieldNumber(text)
	if err != nil {
		return Field{}, &Error{
			Kind: ErrInvalidFieldNumber,
			Pos:  numberNode.Span.Start,
			Decl: decl,
			Name: f.Name,
			Err:  err,
		}
	}
	f.Order = order

	if opts := n.Child(parser.RuleFieldOptions); opts != nil {
		if err := r.strings(opts, decl); err != nil {
			return Field{}, err
		}
	}
	return f, nil
}

func typeReference(n *parse.Node) (FieldType, error) {
	if s := n.Child(parser.RuleScalarType); s != nil {
		scalar, ok := LookupScalar(s.Text)
		if !ok {
			return FieldType{}, malformed(s, "unknown scalar type %q", s.Text)
		}
		return Scalar(scalar), nil
	}
	name, err := fullIdent(n.Child(parser.RuleFullIdent), n)
	if err != nil {
		return FieldType{}, err
	}
	return Custom(name), nil
}

// isAbsolute reports whether a type reference starts with a dot.
func isAbsolute(n *parse.Node) bool {
	return len(n.Children) > 0 && n.Children[0].IsToken() && n.Children[0].Text == "."
}

func (r *reducer) enum(n *parse.Node) error {
	nameNode := n.Child(parser.RuleEnumName)
	body := n.Child(parser.RuleEnumBody)
	if nameNode == nil || body == nil {
		return malformed(n, "enum without name or body")
	}

	e := &Enum{Name: r.qualify(nameNode.Text)}
	if err := r.declare(e, nameNode); err != nil {
		return err
	}

	seen := make(map[string]bool)
	for _, el := range body.ChildrenOf(parser.RuleEnumElement) {
		inner, err := unwrap(el)
		if err != nil {
			return err
		}
		switch inner.Kind {
		case parser.RuleEnumValue:
			v, err := r.enumValue(e.Name, inner)
			if err != nil {
				return err
			}
			if len(e.Values) == 0 && v.Number != 0 {
				return &Error{
					Kind: ErrInvalidEnumDefinition,
					Pos:  inner.Span.Start,
					Decl: e.Name,
					Name: v.Name,
					Err:  errFirstEnumValue,
				}
			}
			if seen[v.Name] {
				return &Error{Kind: ErrDuplicateDeclaration, Pos: inner.Span.Start, Decl: e.Name, Name: v.Name}
			}
			seen[v.Name] = true
			e.Values = append(e.Values, v)
		case parser.RuleOptionStatement, parser.RuleReservedStatement:
			if err := r.strings(inner, e.Name); err != nil {
				return err
			}
		case parser.RuleEmptyStatement:
		default:
			return malformed(inner, "unexpected %s in enum", inner.Kind)
		}
	}

	if len(e.Values) == 0 {
		return &Error{Kind: ErrInvalidEnumDefinition, Pos: nameNode.Span.Start, Name: e.Name, Err: errEmptyEnum}
	}
	return nil
}

func (r *reducer) enumValue(decl string, n *parse.Node) (EnumValue, error) {
	nameNode := n.Child(parser.RuleEnumValueName)
	numberNode := n.Child(parser.RuleEnumNumber)
	if nameNode == nil || numberNode == nil {
		return EnumValue{}, malformed(n, "enum value without name or number")
	}

	number, err := checkEnumNumber(leafText(numberNode))
	if err != nil {
		return EnumValue{}, &Error{
			Kind: ErrInvalidEnumDefinition,
			Pos:  numberNode.Span.Start,
			Decl: decl,
			Name: nameNode.Text,
			Err:  err,
		}
	}
	if opts := n.Child(parser.RuleFieldOptions); opts != nil {
		if err := r.strings(opts, decl); err != nil {
			return EnumValue{}, err
		}
	}
	return EnumValue{Name: nameNode.Text, Number: number}, nil
}

// strings decodes every string literal below n, so that malformed escapes
// are reported even where the value itself is not used.
func (r *reducer) strings(n *parse.Node, decl string) error {
	var err error
	n.Walk(func(c *parse.Node) bool {
		if err != nil {
			return false
		}
		if c.Kind == parser.RuleStringValue {
			_, err = r.stringValue(c, decl)
			return false
		}
		return true
	})
	return err
}

func (r *reducer) stringValue(n *parse.Node, decl string) (string, error) {
	value, err := DecodeString(n.Text)
	if err == nil {
		return value, nil
	}

	pos := n.Span.Start
	var esc *EscapeError
	if errors.As(err, &esc) {
		// string literals never span lines
		pos.Offset += esc.Offset
		pos.Column += esc.Offset
	}
	return "", &Error{Kind: ErrInvalidStringLiteral, Pos: pos, Decl: decl, Err: err}
}

// unwrap returns the single production wrapped by a choice node such as
// MessageElement.
func unwrap(n *parse.Node) (*parse.Node, error) {
	inner := n.Productions()
	if len(inner) != 1 {
		return nil, malformed(n, "%s wraps %d productions", n.Kind, len(inner))
	}
	return inner[0], nil
}

func fullIdent(n, parent *parse.Node) (string, error) {
	if n == nil {
		return "", malformed(parent, "%s without a name", parent.Kind)
	}
	var parts []string
	for _, c := range n.ChildrenOf(parser.RuleIdent) {
		parts = append(parts, c.Text)
	}
	if len(parts) == 0 {
		return "", malformed(n, "empty name")
	}
	return strings.Join(parts, "."), nil
}

// leafText joins the text of all leaves below n, dropping the trivia that
// may separate a sign from its number.
func leafText(n *parse.Node) string {
	var sb strings.Builder
	n.Walk(func(c *parse.Node) bool {
		if c.IsLeaf() {
			sb.WriteString(c.Text)
		}
		return true
	})
	return sb.String()
}
