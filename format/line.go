package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/protopojo/proto"
)

// LineEncoder writes one tab-separated record per declaration, field and
// enum value, suitable for grep and cut.
type LineEncoder struct {
	w     io.Writer
	model *proto.ProtoModel
}

func NewLineEncoder(w io.Writer) *LineEncoder {
	return &LineEncoder{w: w}
}

func (e *LineEncoder) Encode(model *proto.ProtoModel) error {
	e.model = model
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *LineEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	m := e.model

	if m.Package != "" {
		fmt.Fprintf(&sb, "package\t%s\n", m.Package)
	}
	for _, decl := range m.Types {
		switch d := decl.(type) {
		case *proto.Message:
			fmt.Fprintf(&sb, "message\t%s\n", d.Name)
			for _, f := range d.Fields {
				fmt.Fprintf(&sb, "field\t%s\t%s\t%d\t%s\t%s\n",
					d.Name,
					f.Name,
					f.Order,
					f.Type,
					orDash(string(f.Modifier)),
				)
			}
		case *proto.Enum:
			fmt.Fprintf(&sb, "enum\t%s\n", d.Name)
			for _, v := range d.Values {
				fmt.Fprintf(&sb, "value\t%s\t%s\t%d\n", d.Name, v.Name, v.Number)
			}
		}
	}

	return []byte(sb.String()), nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
