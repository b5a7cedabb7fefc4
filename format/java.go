package format

import (
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/dhamidi/protopojo/proto"
	"github.com/iancoleman/strcase"
)

const indent = "    "

// continuation indents the second and later lines of a wrapped expression.
const continuation = indent + indent + indent + indent

// JavaFile is one rendered compilation unit.
type JavaFile struct {
	Path   string // slash-separated, relative to the output root
	Source string
}

type JavaOption func(*javaOptions)

type javaOptions struct {
	pkg     string
	setPkg  bool
	setters bool
	header  string
}

// WithSetters renders a setter after every getter.
func WithSetters() JavaOption {
	return func(o *javaOptions) {
		o.setters = true
	}
}

// WithJavaPackage overrides the Java package, which defaults to the proto
// package.
func WithJavaPackage(pkg string) JavaOption {
	return func(o *javaOptions) {
		o.pkg = pkg
		o.setPkg = true
	}
}

// WithHeader prepends text as a line comment to every file.
func WithHeader(text string) JavaOption {
	return func(o *javaOptions) {
		o.header = text
	}
}

// RenderJava renders one Java file per top-level declaration in model, in
// model order. Nested messages and enums become static members of the class
// that encloses them. The output depends only on the model and the options.
func RenderJava(model *proto.ProtoModel, opts ...JavaOption) []JavaFile {
	o := javaOptions{pkg: model.Package}
	for _, opt := range opts {
		opt(&o)
	}

	nested := make(map[string][]proto.TypeDecl)
	for _, decl := range model.Types {
		if parent := proto.Parent(decl.DeclName()); parent != "" {
			nested[parent] = append(nested[parent], decl)
		}
	}

	u := newJavaUnit(o, nested)
	for _, decl := range model.Types {
		u.hide(proto.SimpleName(decl.DeclName()))
		u.hideReferences(decl)
	}

	var files []JavaFile
	for _, decl := range model.Types {
		if proto.Parent(decl.DeclName()) != "" {
			continue
		}
		files = append(files, JavaFile{
			Path:   JavaFilePath(o.pkg, decl.DeclName()),
			Source: u.render(decl),
		})
	}
	return files
}

// JavaFilePath returns the conventional location of a top-level Java type.
func JavaFilePath(pkg, name string) string {
	file := name + ".java"
	if pkg == "" {
		return file
	}
	return path.Join(strings.ReplaceAll(pkg, ".", "/"), file)
}

// JavaEncoder renders a single message or enum as a Java compilation unit.
// Without the rest of the model it cannot see nested types, so a nested
// declaration is rendered on its own under its simple name.
type JavaEncoder struct {
	w    io.Writer
	opts javaOptions
	decl proto.TypeDecl
}

func NewJavaEncoder(w io.Writer, opts ...JavaOption) *JavaEncoder {
	e := &JavaEncoder{w: w}
	for _, opt := range opts {
		opt(&e.opts)
	}
	return e
}

func (e *JavaEncoder) Encode(decl proto.TypeDecl) error {
	e.decl = decl
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *JavaEncoder) MarshalText() ([]byte, error) {
	if e.decl == nil {
		return nil, errors.New("java: nothing to encode")
	}
	u := newJavaUnit(e.opts, nil)
	u.hide(proto.SimpleName(e.decl.DeclName()))
	u.hideReferences(e.decl)
	return []byte(u.render(e.decl)), nil
}

// javaUnit renders compilation units for one package.
type javaUnit struct {
	o      javaOptions
	nested map[string][]proto.TypeDecl // by enclosing message

	// local holds simple names of generated or referenced types. They hide
	// the java.lang type of the same name.
	local map[string]bool
}

func newJavaUnit(o javaOptions, nested map[string][]proto.TypeDecl) *javaUnit {
	return &javaUnit{o: o, nested: nested, local: make(map[string]bool)}
}

func (u *javaUnit) hide(name string) {
	u.local[name] = true
}

// hideReferences hides the first component of every type decl refers to.
func (u *javaUnit) hideReferences(decl proto.TypeDecl) {
	m, ok := decl.(*proto.Message)
	if !ok {
		return
	}
	for _, f := range m.Fields {
		if !f.Type.IsScalar() {
			first, _, _ := strings.Cut(f.Type.Custom, ".")
			u.hide(first)
		}
	}
}

// lang returns name, qualified when a local type hides java.lang.name.
func (u *javaUnit) lang(name string) string {
	if u.local[name] {
		return "java.lang." + name
	}
	return name
}

func (u *javaUnit) render(decl proto.TypeDecl) string {
	var sb strings.Builder
	writePreamble(&sb, u.o)
	sb.WriteString(u.typeDecl(decl, false))
	return sb.String()
}

// typeDecl renders decl and the types nested in it.
func (u *javaUnit) typeDecl(decl proto.TypeDecl, member bool) string {
	switch d := decl.(type) {
	case *proto.Message:
		return u.message(d, member)
	case *proto.Enum:
		return u.enum(d)
	}
	return ""
}

func writePreamble(sb *strings.Builder, o javaOptions) {
	if o.header != "" {
		for _, line := range strings.Split(strings.TrimRight(o.header, "\n"), "\n") {
			if line == "" {
				sb.WriteString("//\n")
				continue
			}
			sb.WriteString("// ")
			sb.WriteString(line)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	if o.pkg != "" {
		fmt.Fprintf(sb, "package %s;\n\n", o.pkg)
	}
}

// javaField is a proto field as it appears in the generated class.
type javaField struct {
	member   string // field and parameter name
	accessor string // suffix of getter and setter names
	typ      string
	equals   string // format for comparing this.%[1]s with other.%[1]s
	hash     string
	show     string
}

func (u *javaUnit) newJavaField(f proto.Field) javaField {
	member := javaIdentifier(strcase.ToLowerCamel(f.Name), f.Name)
	accessor := strcase.ToCamel(f.Name)
	if accessor == "" {
		accessor = f.Name
	}
	if objectMethods["get"+accessor] {
		accessor += "_"
	}

	jf := javaField{
		member:   member,
		accessor: accessor,
		typ:      javaType(f, u.lang),
		equals:   "java.util.Objects.equals(this.%[1]s, other.%[1]s)",
		hash:     "%s",
		show:     "%s",
	}
	if f.Repeated() {
		if elementType(f.Type, u.lang) == "byte[]" {
			jf.equals = "(this.%[1]s == null ? other.%[1]s == null : other.%[1]s != null\n" +
				continuation + indent + "&& java.util.Arrays.deepEquals(this.%[1]s.toArray(), other.%[1]s.toArray()))"
			jf.hash = "(%[1]s == null ? 0 : java.util.Arrays.deepHashCode(%[1]s.toArray()))"
			jf.show = "(%[1]s == null ? \"null\" : java.util.Arrays.deepToString(%[1]s.toArray()))"
		}
		return jf
	}
	switch jf.typ {
	case "int", "long", "boolean":
		jf.equals = "this.%[1]s == other.%[1]s"
	case "double":
		jf.equals = u.lang("Double") + ".compare(this.%[1]s, other.%[1]s) == 0"
	case "float":
		jf.equals = u.lang("Float") + ".compare(this.%[1]s, other.%[1]s) == 0"
	case "byte[]":
		jf.equals = "java.util.Arrays.equals(this.%[1]s, other.%[1]s)"
		jf.hash = "java.util.Arrays.hashCode(%s)"
		jf.show = "java.util.Arrays.toString(%s)"
	}
	return jf
}

// javaFields converts the fields of m. Fields whose Java names collide with
// an earlier field get their tag number appended.
func (u *javaUnit) javaFields(m *proto.Message) []javaField {
	members := make(map[string]bool)
	accessors := make(map[string]bool)
	fields := make([]javaField, len(m.Fields))
	for i, f := range m.Fields {
		jf := u.newJavaField(f)
		if members[jf.member] || accessors[jf.accessor] {
			suffix := fmt.Sprintf("_%d", f.Order)
			for members[jf.member+suffix] || accessors[jf.accessor+suffix] {
				suffix += "_"
			}
			jf.member += suffix
			jf.accessor += suffix
		}
		members[jf.member] = true
		accessors[jf.accessor] = true
		fields[i] = jf
	}
	return fields
}

func (u *javaUnit) override() string {
	return indent + "@" + u.lang("Override") + "\n"
}

func (u *javaUnit) message(m *proto.Message, member bool) string {
	name := proto.SimpleName(m.Name)
	fields := u.javaFields(m)

	var blocks []string
	if len(fields) > 0 {
		var b strings.Builder
		for i, f := range fields {
			if i > 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "%sprivate %s %s;", indent, f.typ, f.member)
		}
		blocks = append(blocks, b.String())
	}

	blocks = append(blocks, fmt.Sprintf("%[1]spublic %[2]s() {\n%[1]s}", indent, name))
	if len(fields) > 0 {
		blocks = append(blocks, allArgsConstructor(name, fields))
	}

	for _, f := range fields {
		blocks = append(blocks, fmt.Sprintf("%[1]spublic %[2]s get%[3]s() {\n%[1]s%[1]sreturn %[4]s;\n%[1]s}",
			indent, f.typ, f.accessor, f.member))
		if u.o.setters {
			blocks = append(blocks, fmt.Sprintf("%[1]spublic void set%[2]s(%[3]s %[4]s) {\n%[1]s%[1]sthis.%[4]s = %[4]s;\n%[1]s}",
				indent, f.accessor, f.typ, f.member))
		}
	}

	blocks = append(blocks, u.equalsMethod(name, fields), u.hashCodeMethod(fields), u.toStringMethod(name, fields))

	for _, decl := range u.nested[m.Name] {
		blocks = append(blocks, indentLines(u.typeDecl(decl, true)))
	}

	var sb strings.Builder
	if member {
		fmt.Fprintf(&sb, "public static class %s {\n", name)
	} else {
		fmt.Fprintf(&sb, "public class %s {\n", name)
	}
	sb.WriteString(strings.Join(blocks, "\n\n"))
	sb.WriteString("\n}\n")
	return sb.String()
}

// indentLines indents every non-empty line of a rendered type by one level
// and drops the trailing newline.
func indentLines(s string) string {
	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	for i, line := range lines {
		if line != "" {
			lines[i] = indent + line
		}
	}
	return strings.Join(lines, "\n")
}

func allArgsConstructor(name string, fields []javaField) string {
	var b strings.Builder
	params := make([]string, len(fields))
	for i, f := range fields {
		params[i] = f.typ + " " + f.member
	}
	fmt.Fprintf(&b, "%spublic %s(%s) {\n", indent, name, strings.Join(params, ", "))
	for _, f := range fields {
		fmt.Fprintf(&b, "%[1]s%[1]sthis.%[2]s = %[2]s;\n", indent, f.member)
	}
	b.WriteString(indent + "}")
	return b.String()
}

func (u *javaUnit) equalsMethod(name string, fields []javaField) string {
	var b strings.Builder
	in2 := indent + indent
	b.WriteString(u.override())
	fmt.Fprintf(&b, "%spublic boolean equals(%s o) {\n", indent, u.lang("Object"))
	b.WriteString(in2 + "if (this == o) {\n")
	b.WriteString(in2 + indent + "return true;\n")
	b.WriteString(in2 + "}\n")
	b.WriteString(in2 + "if (o == null || getClass() != o.getClass()) {\n")
	b.WriteString(in2 + indent + "return false;\n")
	b.WriteString(in2 + "}\n")
	if len(fields) == 0 {
		b.WriteString(in2 + "return true;\n")
	} else {
		fmt.Fprintf(&b, "%s%s other = (%s) o;\n", in2, name, name)
		for i, f := range fields {
			cmp := fmt.Sprintf(f.equals, f.member)
			if i == 0 {
				b.WriteString(in2 + "return " + cmp)
			} else {
				b.WriteString("\n" + continuation + "&& " + cmp)
			}
		}
		b.WriteString(";\n")
	}
	b.WriteString(indent + "}")
	return b.String()
}

func (u *javaUnit) hashCodeMethod(fields []javaField) string {
	body := "0"
	if len(fields) > 0 {
		args := make([]string, len(fields))
		for i, f := range fields {
			args[i] = fmt.Sprintf(f.hash, f.member)
		}
		body = "java.util.Objects.hash(" + strings.Join(args, ", ") + ")"
	}
	return fmt.Sprintf("%[2]s%[1]spublic int hashCode() {\n%[1]s%[1]sreturn %[3]s;\n%[1]s}", indent, u.override(), body)
}

func (u *javaUnit) toStringMethod(name string, fields []javaField) string {
	var b strings.Builder
	b.WriteString(u.override())
	fmt.Fprintf(&b, "%spublic %s toString() {\n", indent, u.lang("String"))
	if len(fields) == 0 {
		fmt.Fprintf(&b, "%s%sreturn \"%s{}\";\n", indent, indent, name)
	} else {
		fmt.Fprintf(&b, "%s%sreturn \"%s{\"\n", indent, indent, name)
		for i, f := range fields {
			sep := ", "
			if i == 0 {
				sep = ""
			}
			fmt.Fprintf(&b, "%s+ \"%s%s=\" + %s\n", continuation, sep, f.member, fmt.Sprintf(f.show, f.member))
		}
		fmt.Fprintf(&b, "%s+ \"}\";\n", continuation)
	}
	b.WriteString(indent + "}")
	return b.String()
}

// enumConstants returns the Java constant names for the values of e. They
// avoid keywords, the generated number field and each other.
func enumConstants(e *proto.Enum) []string {
	used := map[string]bool{"number": true}
	names := make([]string, len(e.Values))
	for i, v := range e.Values {
		name := javaIdentifier(v.Name, v.Name)
		for used[name] {
			name += "_"
		}
		used[name] = true
		names[i] = name
	}
	return names
}

func (u *javaUnit) enum(e *proto.Enum) string {
	var sb strings.Builder
	name := proto.SimpleName(e.Name)
	fmt.Fprintf(&sb, "public enum %s {\n", name)
	constants := enumConstants(e)
	for i, v := range e.Values {
		sep := ","
		if i == len(e.Values)-1 {
			sep = ";"
		}
		fmt.Fprintf(&sb, "%s%s(%d)%s\n", indent, constants[i], v.Number, sep)
	}
	if len(e.Values) == 0 {
		sb.WriteString(indent + ";\n")
	}
	in2 := indent + indent
	sb.WriteString("\n")
	sb.WriteString(indent + "private final int number;\n\n")
	fmt.Fprintf(&sb, "%s%s(int number) {\n%sthis.number = number;\n%s}\n\n", indent, name, in2, indent)
	fmt.Fprintf(&sb, "%spublic int getNumber() {\n%sreturn number;\n%s}\n\n", indent, in2, indent)
	fmt.Fprintf(&sb, "%spublic static %s forNumber(int number) {\n", indent, name)
	fmt.Fprintf(&sb, "%sfor (%s value : values()) {\n", in2, name)
	fmt.Fprintf(&sb, "%s%sif (value.number == number) {\n", in2, indent)
	fmt.Fprintf(&sb, "%s%sreturn value;\n", in2, in2)
	fmt.Fprintf(&sb, "%s%s}\n", in2, indent)
	fmt.Fprintf(&sb, "%s}\n", in2)
	fmt.Fprintf(&sb, "%sreturn null;\n", in2)
	sb.WriteString(indent + "}\n")
	sb.WriteString("}\n")
	return sb.String()
}
