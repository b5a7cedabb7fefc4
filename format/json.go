package format

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/dhamidi/protopojo/proto"
)

type JSONEncoder struct {
	w     io.Writer
	model *proto.ProtoModel
}

func NewJSONEncoder(w io.Writer) *JSONEncoder {
	return &JSONEncoder{w: w}
}

func (e *JSONEncoder) Encode(model *proto.ProtoModel) error {
	e.model = model
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *JSONEncoder) MarshalText() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e.buildModelData()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type jsonModel struct {
	Package string     `json:"package,omitempty"`
	Types   []jsonType `json:"types"`
}

type jsonType struct {
	Kind   string          `json:"kind"`
	Name   string          `json:"name"`
	Fields []jsonField     `json:"fields,omitempty"`
	Values []jsonEnumValue `json:"values,omitempty"`
}

type jsonField struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Scalar   bool   `json:"scalar"`
	Order    uint32 `json:"order"`
	Modifier string `json:"modifier,omitempty"`
	JavaType string `json:"javaType"`
}

type jsonEnumValue struct {
	Name   string `json:"name"`
	Number int32  `json:"number"`
}

func (e *JSONEncoder) buildModelData() jsonModel {
	data := jsonModel{
		Package: e.model.Package,
		Types:   make([]jsonType, 0, len(e.model.Types)),
	}
	for _, decl := range e.model.Types {
		switch d := decl.(type) {
		case *proto.Message:
			t := jsonType{Kind: "message", Name: d.Name}
			for _, f := range d.Fields {
				t.Fields = append(t.Fields, jsonField{
					Name:     f.Name,
					Type:     f.Type.String(),
					Scalar:   f.Type.IsScalar(),
					Order:    f.Order,
					Modifier: string(f.Modifier),
					JavaType: JavaType(f),
				})
			}
			data.Types = append(data.Types, t)
		case *proto.Enum:
			t := jsonType{Kind: "enum", Name: d.Name}
			for _, v := range d.Values {
				t.Values = append(t.Values, jsonEnumValue{Name: v.Name, Number: v.Number})
			}
			data.Types = append(data.Types, t)
		}
	}
	return data
}
