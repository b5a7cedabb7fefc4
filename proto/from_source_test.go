package proto

import (
	"errors"
	"testing"

	"github.com/dhamidi/protopojo/ebnf/parse"
	"github.com/dhamidi/protopojo/proto/parser"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reduceString(t *testing.T, src string) *ProtoModel {
	t.Helper()
	model, err := ParseAndReduce([]byte(src), parser.WithFile("test.proto"))
	require.NoError(t, err)
	return model
}

func reduceError(t *testing.T, src string) error {
	t.Helper()
	model, err := ParseAndReduce([]byte(src), parser.WithFile("m.proto"))
	require.Error(t, err)
	assert.Nil(t, model)
	return err
}

func assertModel(t *testing.T, want, got *ProtoModel) {
	t.Helper()
	if diff := cmp.Diff(want, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("model mismatch (-want +got):\n%s", diff)
	}
}

func TestReduce_Order(t *testing.T) {
	model := reduceString(t, `
message Order {
  int32 id = 1;
  string customer = 2;
  repeated string items = 3;
}
`)

	assertModel(t, &ProtoModel{
		Types: []TypeDecl{
			&Message{Name: "Order", Fields: []Field{
				{Type: Scalar(ScalarInt32), Name: "id", Order: 1},
				{Type: Scalar(ScalarString), Name: "customer", Order: 2},
				{Type: Scalar(ScalarString), Name: "items", Order: 3, Modifier: ModifierRepeated},
			}},
		},
	}, model)
}

func TestReduce_PreservesDeclarationOrder(t *testing.T) {
	model := reduceString(t, `
syntax = "proto3";
package shop.v1;

enum Status { STATUS_UNKNOWN = 0; STATUS_PAID = 2; STATUS_NEW = 1; }
message Zebra {
  string b = 5;
  int32 a = 2;
  .google.protobuf.Timestamp at = 9;
  Status status = 3;
}
message Apple {}
`)

	assertModel(t, &ProtoModel{
		Package: "shop.v1",
		Types: []TypeDecl{
			&Enum{Name: "Status", Values: []EnumValue{
				{Name: "STATUS_UNKNOWN", Number: 0},
				{Name: "STATUS_PAID", Number: 2},
				{Name: "STATUS_NEW", Number: 1},
			}},
			&Message{Name: "Zebra", Fields: []Field{
				{Type: Scalar(ScalarString), Name: "b", Order: 5},
				{Type: Scalar(ScalarInt32), Name: "a", Order: 2},
				{Type: Custom("google.protobuf.Timestamp"), Name: "at", Order: 9},
				{Type: Custom("Status"), Name: "status", Order: 3},
			}},
			&Message{Name: "Apple"},
		},
	}, model)
}

func TestReduce_FlattensNestedTypesAndOneofs(t *testing.T) {
	model := reduceString(t, `
message Outer {
  message Inner { int32 x = 1; }
  Inner inner = 1;
  oneof choice {
    string name = 2;
    Kind kind = 3;
  }
  enum Kind { KIND_UNKNOWN = 0; }
  bool flag = 4;
}
enum Top { TOP_ZERO = 0; TOP_ONE = 1; }
`)

	assertModel(t, &ProtoModel{
		Types: []TypeDecl{
			&Message{Name: "Outer", Fields: []Field{
				{Type: Custom("Outer.Inner"), Name: "inner", Order: 1},
				{Type: Scalar(ScalarString), Name: "name", Order: 2},
				{Type: Custom("Outer.Kind"), Name: "kind", Order: 3},
				{Type: Scalar(ScalarBool), Name: "flag", Order: 4},
			}},
			&Message{Name: "Outer.Inner", Fields: []Field{
				{Type: Scalar(ScalarInt32), Name: "x", Order: 1},
			}},
			&Enum{Name: "Outer.Kind", Values: []EnumValue{{Name: "KIND_UNKNOWN", Number: 0}}},
			&Enum{Name: "Top", Values: []EnumValue{
				{Name: "TOP_ZERO", Number: 0},
				{Name: "TOP_ONE", Number: 1},
			}},
		},
	}, model)

	assert.Len(t, model.Messages(), 2)
	assert.Len(t, model.Enums(), 2)
	assert.Equal(t, "Outer.Kind", model.Lookup("Outer.Kind").DeclName())
	assert.Nil(t, model.Lookup("Kind"))
}

func TestReduce_SameNestedNameInTwoMessages(t *testing.T) {
	model := reduceString(t, `
message A { enum Status { S_A = 0; } Status s = 1; }
message B { enum Status { S_B = 0; } Status s = 1; }
`)

	assertModel(t, &ProtoModel{
		Types: []TypeDecl{
			&Message{Name: "A", Fields: []Field{{Type: Custom("A.Status"), Name: "s", Order: 1}}},
			&Enum{Name: "A.Status", Values: []EnumValue{{Name: "S_A", Number: 0}}},
			&Message{Name: "B", Fields: []Field{{Type: Custom("B.Status"), Name: "s", Order: 1}}},
			&Enum{Name: "B.Status", Values: []EnumValue{{Name: "S_B", Number: 0}}},
		},
	}, model)
}

func TestReduce_ResolvesNestedReferences(t *testing.T) {
	model := reduceString(t, `
enum Status { STATUS_UNKNOWN = 0; }
message Order {
  enum Status { ORDER_STATUS_UNKNOWN = 0; }
  message Line {
    Status status = 1;
    .Status global = 2;
    Line.Detail detail = 3;
    message Detail { string note = 1; }
  }
  Line.Detail first = 1;
  Other other = 2;
}
message Other { Order.Line line = 1; Status status = 2; }
`)

	types := func(name string) []string {
		var out []string
		for _, f := range model.Lookup(name).(*Message).Fields {
			out = append(out, f.Type.String())
		}
		return out
	}
	assert.Equal(t, []string{"Order.Status", "Status", "Order.Line.Detail"}, types("Order.Line"))
	assert.Equal(t, []string{"Order.Line.Detail", "Other"}, types("Order"))
	assert.Equal(t, []string{"Order.Line", "Status"}, types("Other"))
}

func TestReduce_Package(t *testing.T) {
	model := reduceString(t, "message A {}\npackage foo.bar;\n")
	assert.Equal(t, "foo.bar", model.Package)

	err := reduceError(t, "package a;\nmessage M {}\npackage b;\n")
	assert.ErrorIs(t, err, ErrDuplicateDeclaration)
	assert.Equal(t, "m.proto:3:9: duplicate declaration: package b", err.Error())
}

func TestReduce_AllScalarTypes(t *testing.T) {
	model := reduceString(t, `
message AllScalars {
  double f1 = 1;
  float f2 = 2;
  int32 f3 = 3;
  int64 f4 = 4;
  uint32 f5 = 5;
  uint64 f6 = 6;
  sint32 f7 = 7;
  sint64 f8 = 8;
  fixed32 f9 = 9;
  fixed64 f10 = 10;
  sfixed32 f11 = 11;
  sfixed64 f12 = 12;
  bool f13 = 13;
  string f14 = 14;
  bytes f15 = 15;
}
`)

	msg := model.Types[0].(*Message)
	require.Len(t, msg.Fields, len(ScalarTypes))
	for i, f := range msg.Fields {
		assert.Equal(t, Scalar(ScalarTypes[i]), f.Type, f.Name)
	}
}

func TestReduce_FieldModifiers(t *testing.T) {
	model := reduceString(t, `
message M {
  optional string a = 1;
  required int32 b = 2;
  repeated bytes c = 3;
  bool d = 4;
}
`)

	msg := model.Types[0].(*Message)
	var mods []FieldModifier
	for _, f := range msg.Fields {
		mods = append(mods, f.Modifier)
	}
	// required is accepted and kept, even though proto3 has no use for it
	assert.Equal(t, []FieldModifier{ModifierOptional, ModifierRequired, ModifierRepeated, ModifierNone}, mods)
	assert.True(t, msg.Fields[2].Repeated())
	assert.False(t, msg.Fields[1].Repeated())
}

func TestReduce_FieldNumbers(t *testing.T) {
	valid := map[string]uint32{
		"1":         1,
		"536870911": 536870911,
		"0x10":      16,
		"010":       8,
		"18999":     18999,
		"20000":     20000,
	}
	for text, want := range valid {
		t.Run(text, func(t *testing.T) {
			model := reduceString(t, "message M { int32 a = "+text+"; }")
			assert.Equal(t, want, model.Types[0].(*Message).Fields[0].Order)
		})
	}

	invalid := []string{"0", "-1", "536870912", "0x20000000", "19000", "19999", "99999999999999999999"}
	for _, text := range invalid {
		t.Run(text, func(t *testing.T) {
			err := reduceError(t, "message M { int32 a = "+text+"; }")
			assert.ErrorIs(t, err, ErrInvalidFieldNumber)
		})
	}
}

func TestReduce_InvalidFieldNumberMessage(t *testing.T) {
	err := reduceError(t, "message M {\n  int32 a = 0;\n}\n")

	var reduceErr *Error
	require.ErrorAs(t, err, &reduceErr)
	assert.Equal(t, "M", reduceErr.Decl)
	assert.Equal(t, "a", reduceErr.Name)
	assert.Equal(t, "m.proto:2:13: invalid field number: M.a: 0 is out of range 1..536870911", err.Error())
}

func TestReduce_EnumZeroRule(t *testing.T) {
	err := reduceError(t, "enum E {\n  E_ONE = 1;\n  E_ZERO = 0;\n}\n")
	assert.ErrorIs(t, err, ErrInvalidEnumDefinition)
	assert.Equal(t, "m.proto:2:3: invalid enum definition: E.E_ONE: the first value must be zero", err.Error())

	model := reduceString(t, "enum E {\n  E_ZERO = 0;\n  E_ONE = 1;\n}\n")
	assert.Len(t, model.Types[0].(*Enum).Values, 2)
}

func TestReduce_EnumNumbers(t *testing.T) {
	model := reduceString(t, "enum E { A = 0; B = -2147483648; C = 2147483647; D = -0x10; }")
	assert.Equal(t, []EnumValue{
		{Name: "A", Number: 0},
		{Name: "B", Number: -2147483648},
		{Name: "C", Number: 2147483647},
		{Name: "D", Number: -16},
	}, model.Types[0].(*Enum).Values)

	err := reduceError(t, "enum E { A = 0; B = 2147483648; }")
	assert.ErrorIs(t, err, ErrInvalidEnumDefinition)
}

func TestReduce_EmptyEnum(t *testing.T) {
	err := reduceError(t, "enum E { option allow_alias = true; }")
	assert.ErrorIs(t, err, ErrInvalidEnumDefinition)
}

func TestReduce_Duplicates(t *testing.T) {
	tests := []struct {
		name string
		src  string
		msg  string
	}{
		{
			"field",
			"message M {\n  int32 a = 1;\n  string a = 2;\n}\n",
			"m.proto:3:10: duplicate declaration: M.a",
		},
		{
			"oneof member",
			"message M {\n  int32 a = 1;\n  oneof o { string a = 2; }\n}\n",
			"m.proto:3:20: duplicate declaration: M.a",
		},
		{
			"enum value",
			"enum E {\n  A = 0;\n  A = 1;\n}\n",
			"m.proto:3:3: duplicate declaration: E.A",
		},
		{
			"type",
			"message M {}\nenum M { A = 0; }\n",
			"m.proto:2:6: duplicate declaration: M",
		},
		{
			"nested type",
			"message M {\n  enum E { A = 0; }\n  message E {}\n}\n",
			"m.proto:3:11: duplicate declaration: M.E",
		},
		{
			"nested type named like its parent",
			"message M {\n  message M {}\n}\n",
			"m.proto:2:11: duplicate declaration: M.M",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := reduceError(t, tt.src)
			assert.ErrorIs(t, err, ErrDuplicateDeclaration)
			assert.Equal(t, tt.msg, err.Error())
		})
	}
}

func TestReduce_InvalidStringLiteral(t *testing.T) {
	err := reduceError(t, `option x = "ab\xG1";`)
	assert.ErrorIs(t, err, ErrInvalidStringLiteral)

	var reduceErr *Error
	require.ErrorAs(t, err, &reduceErr)
	assert.Equal(t, parse.Position{Filename: "m.proto", Offset: 14, Line: 1, Column: 15}, reduceErr.Pos)

	var escErr *EscapeError
	require.ErrorAs(t, err, &escErr)
	assert.Equal(t, `\xG`, escErr.Text)
}

func TestReduce_StringsInIgnoredStatements(t *testing.T) {
	sources := []string{
		`import "a\q.proto";`,
		`message M { reserved "\400"; }`,
		`message M { int32 a = 1 [json_name = "\u12"]; }`,
		`enum E { A = 0 [(x) = 1]; }`,
	}
	for _, src := range sources[:3] {
		err := reduceError(t, src)
		assert.ErrorIs(t, err, ErrInvalidStringLiteral, src)
	}

	// custom options are rejected by the grammar
	err := reduceError(t, sources[3])
	assert.ErrorIs(t, err, parse.ErrSyntax)
}

func TestReduce_Syntax(t *testing.T) {
	reduceString(t, `syntax = "proto3";`)
	reduceString(t, `syntax = 'proto3';`)

	err := reduceError(t, `syntax = "proto2";`)
	assert.ErrorIs(t, err, ErrUnsupportedSyntax)
}

func TestReduce_SyntaxErrorsPassThrough(t *testing.T) {
	err := reduceError(t, "message { int32 id = 1; }")
	assert.ErrorIs(t, err, parse.ErrSyntax)

	var reduceErr *Error
	assert.False(t, errors.As(err, &reduceErr))
}

func TestReduce_MalformedTree(t *testing.T) {
	_, err := Reduce(&parse.Node{Kind: "Bogus"})
	assert.ErrorIs(t, err, ErrMalformedTree)

	_, err = Reduce(nil)
	assert.ErrorIs(t, err, ErrMalformedTree)

	pkg := func(name string) *parse.Node {
		return &parse.Node{Kind: parser.RulePackageStatement, Children: []*parse.Node{
			{Kind: parse.TokenKind, Text: "package"},
			{Kind: parser.RuleFullIdent, Children: []*parse.Node{{Kind: parser.RuleIdent, Text: name}}},
			{Kind: parse.TokenKind, Text: ";"},
		}}
	}
	tree := &parse.Node{Kind: parser.RuleProto, Children: []*parse.Node{pkg("a"), pkg("b")}}
	_, err = Reduce(tree)
	assert.ErrorIs(t, err, ErrMalformedTree)

	tree = &parse.Node{Kind: parser.RuleProto, Children: []*parse.Node{
		{Kind: parser.RuleTopLevelStatement},
	}}
	_, err = Reduce(tree)
	assert.ErrorIs(t, err, ErrMalformedTree)
}
