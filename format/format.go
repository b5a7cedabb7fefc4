package format

import (
	"encoding"

	"github.com/dhamidi/protopojo/proto"
)

// Encoder writes a whole ProtoModel in some textual form.
type Encoder interface {
	encoding.TextMarshaler
	Encode(model *proto.ProtoModel) error
}
