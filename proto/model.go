// Package proto holds the intermediate representation of a proto3 file and
// the reducer that builds it from a syntax tree.
package proto

import "strings"

type ScalarType string

const (
	ScalarDouble   ScalarType = "double"
	ScalarFloat    ScalarType = "float"
	ScalarInt32    ScalarType = "int32"
	ScalarInt64    ScalarType = "int64"
	ScalarUint32   ScalarType = "uint32"
	ScalarUint64   ScalarType = "uint64"
	ScalarSint32   ScalarType = "sint32"
	ScalarSint64   ScalarType = "sint64"
	ScalarFixed32  ScalarType = "fixed32"
	ScalarFixed64  ScalarType = "fixed64"
	ScalarSfixed32 ScalarType = "sfixed32"
	ScalarSfixed64 ScalarType = "sfixed64"
	ScalarBool     ScalarType = "bool"
	ScalarString   ScalarType = "string"
	ScalarBytes    ScalarType = "bytes"
)

// ScalarTypes lists every scalar type in the order the protobuf language
// guide documents them.
var ScalarTypes = []ScalarType{
	ScalarDouble, ScalarFloat,
	ScalarInt32, ScalarInt64,
	ScalarUint32, ScalarUint64,
	ScalarSint32, ScalarSint64,
	ScalarFixed32, ScalarFixed64,
	ScalarSfixed32, ScalarSfixed64,
	ScalarBool, ScalarString, ScalarBytes,
}

// LookupScalar returns the scalar type spelled by keyword. The match is exact
// and case-sensitive.
func LookupScalar(keyword string) (ScalarType, bool) {
	for _, s := range ScalarTypes {
		if string(s) == keyword {
			return s, true
		}
	}
	return "", false
}

type FieldModifier string

const (
	ModifierNone     FieldModifier = ""
	ModifierOptional FieldModifier = "optional"
	ModifierRequired FieldModifier = "required"
	ModifierRepeated FieldModifier = "repeated"
)

// FieldType is either a scalar or a reference to a message or enum by name.
// Exactly one of Scalar and Custom is set.
type FieldType struct {
	Scalar ScalarType
	Custom string // as written, without a leading dot
}

func Scalar(s ScalarType) FieldType {
	return FieldType{Scalar: s}
}

func Custom(name string) FieldType {
	return FieldType{Custom: name}
}

func (t FieldType) IsScalar() bool {
	return t.Scalar != ""
}

func (t FieldType) String() string {
	if t.IsScalar() {
		return string(t.Scalar)
	}
	return t.Custom
}

type Field struct {
	Type     FieldType
	Name     string
	Order    uint32 // tag number as written in the source
	Modifier FieldModifier
}

func (f Field) Repeated() bool {
	return f.Modifier == ModifierRepeated
}

// TypeDecl is a declaration: *Message or *Enum. Types nested in a message
// are named by their path from the top level, as in "Order.Status".
type TypeDecl interface {
	DeclName() string
	typeDecl()
}

type Message struct {
	Name   string
	Fields []Field
}

func (m *Message) DeclName() string { return m.Name }
func (*Message) typeDecl()          {}

type EnumValue struct {
	Name   string
	Number int32
}

type Enum struct {
	Name   string
	Values []EnumValue
}

func (e *Enum) DeclName() string { return e.Name }
func (*Enum) typeDecl()          {}

// ProtoModel is the reduced form of one proto3 file. Types are listed in the
// order their declarations open in the source; nested declarations follow
// the message that encloses them.
//
// References to nested types are qualified the same way, so a field of type
// Status declared inside message Order, next to a nested enum Status, has
// type Order.Status.
type ProtoModel struct {
	Package string // empty when the file declares no package
	Types   []TypeDecl
}

// Lookup returns the declaration with the given name, or nil.
func (m *ProtoModel) Lookup(name string) TypeDecl {
	for _, t := range m.Types {
		if t.DeclName() == name {
			return t
		}
	}
	return nil
}

func (m *ProtoModel) Messages() []*Message {
	var out []*Message
	for _, t := range m.Types {
		if msg, ok := t.(*Message); ok {
			out = append(out, msg)
		}
	}
	return out
}

func (m *ProtoModel) Enums() []*Enum {
	var out []*Enum
	for _, t := range m.Types {
		if e, ok := t.(*Enum); ok {
			out = append(out, e)
		}
	}
	return out
}

// SimpleName returns the last component of a type name.
func SimpleName(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

// Parent returns the name of the message enclosing the named type, or ""
// for top-level types.
func Parent(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return ""
}
