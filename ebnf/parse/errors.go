package parse

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSyntax is the error wrapped by every SyntaxError.
var ErrSyntax = errors.New("syntax error")

// SyntaxError reports the furthest position the parser could not get past
// and what it would have accepted there.
type SyntaxError struct {
	Pos      Position
	Expected []string // sorted labels: quoted tokens or production names
	Found    string   // text at Pos, or "end of input"
}

func (e *SyntaxError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: syntax error: unexpected %s", e.Pos, e.Found)
	if len(e.Expected) > 0 {
		sb.WriteString(", expected ")
		sb.WriteString(joinExpected(e.Expected))
	}
	return sb.String()
}

func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

// GetPosition returns the location the error refers to.
func (e *SyntaxError) GetPosition() Position {
	return e.Pos
}

func joinExpected(labels []string) string {
	switch len(labels) {
	case 1:
		return labels[0]
	case 2:
		return labels[0] + " or " + labels[1]
	}
	return strings.Join(labels[:len(labels)-1], ", ") + " or " + labels[len(labels)-1]
}
