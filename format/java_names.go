package format

import "github.com/dhamidi/protopojo/proto"

var javaScalars = map[proto.ScalarType]string{
	proto.ScalarDouble:   "double",
	proto.ScalarFloat:    "float",
	proto.ScalarInt32:    "int",
	proto.ScalarSint32:   "int",
	proto.ScalarSfixed32: "int",
	proto.ScalarInt64:    "long",
	proto.ScalarSint64:   "long",
	proto.ScalarSfixed64: "long",
	proto.ScalarUint32:   "long",
	proto.ScalarFixed32:  "long",
	proto.ScalarUint64:   "long",
	proto.ScalarFixed64:  "long",
	proto.ScalarBool:     "boolean",
	proto.ScalarString:   "String",
	proto.ScalarBytes:    "byte[]",
}

var boxed = map[string]string{
	"int":     "Integer",
	"long":    "Long",
	"double":  "Double",
	"float":   "Float",
	"boolean": "Boolean",
}

// JavaType returns the declared Java type of f. Repeated fields are
// java.util.List values of the boxed element type.
func JavaType(f proto.Field) string {
	return javaType(f, func(name string) string { return name })
}

// javaType is JavaType with lang applied to every java.lang type name.
func javaType(f proto.Field, lang func(string) string) string {
	t := elementType(f.Type, lang)
	if !f.Repeated() {
		return t
	}
	if b, ok := boxed[t]; ok {
		t = lang(b)
	}
	return "java.util.List<" + t + ">"
}

func elementType(t proto.FieldType, lang func(string) string) string {
	if !t.IsScalar() {
		return t.Custom
	}
	java := javaScalars[t.Scalar]
	if java == "String" {
		return lang(java)
	}
	return java
}

var javaKeywords = map[string]bool{
	"abstract": true, "assert": true, "boolean": true, "break": true,
	"byte": true, "case": true, "catch": true, "char": true,
	"class": true, "const": true, "continue": true, "default": true,
	"do": true, "double": true, "else": true, "enum": true,
	"extends": true, "final": true, "finally": true, "float": true,
	"for": true, "goto": true, "if": true, "implements": true,
	"import": true, "instanceof": true, "int": true, "interface": true,
	"long": true, "native": true, "new": true, "package": true,
	"private": true, "protected": true, "public": true, "return": true,
	"short": true, "static": true, "strictfp": true, "super": true,
	"switch": true, "synchronized": true, "this": true, "throw": true,
	"throws": true, "transient": true, "try": true, "void": true,
	"volatile": true, "while": true,
	"true": true, "false": true, "null": true, "_": true,
}

// Getters that would clash with methods every class inherits.
var objectMethods = map[string]bool{
	"getClass": true,
}

// javaIdentifier returns name, or fallback when name is empty, with an
// underscore appended if the result is reserved in Java.
func javaIdentifier(name, fallback string) string {
	if name == "" {
		name = fallback
	}
	if javaKeywords[name] {
		return name + "_"
	}
	return name
}
