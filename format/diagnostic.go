package format

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dhamidi/protopojo/ebnf/parse"
	"github.com/fatih/color"
	"github.com/rivo/uniseg"
)

const tabWidth = 4

// positioned is implemented by errors that know where in the source they
// happened.
type positioned interface {
	GetPosition() parse.Position
}

// DiagnosticEncoder renders an error together with the offending source
// line and a caret under the reported column.
type DiagnosticEncoder struct {
	w      io.Writer
	source []byte
	err    error

	label, gutter, caret *color.Color
}

// NewDiagnosticEncoder renders errors against source. Colour is off until
// Colorize is called.
func NewDiagnosticEncoder(w io.Writer, source []byte) *DiagnosticEncoder {
	e := &DiagnosticEncoder{
		w:      w,
		source: source,
		label:  color.New(color.FgRed, color.Bold),
		gutter: color.New(color.FgBlue, color.Bold),
		caret:  color.New(color.FgRed, color.Bold),
	}
	e.Colorize(false)
	return e
}

func (e *DiagnosticEncoder) Colorize(on bool) *DiagnosticEncoder {
	for _, c := range []*color.Color{e.label, e.gutter, e.caret} {
		if on {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return e
}

func (e *DiagnosticEncoder) Encode(err error) error {
	e.err = err
	text, merr := e.MarshalText()
	if merr != nil {
		return merr
	}
	_, werr := e.w.Write(text)
	return werr
}

func (e *DiagnosticEncoder) MarshalText() ([]byte, error) {
	if e.err == nil {
		return nil, errors.New("diagnostic: nothing to encode")
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", e.label.Sprint("error:"), e.err.Error())

	var p positioned
	if !errors.As(e.err, &p) {
		return []byte(sb.String()), nil
	}
	pos := p.GetPosition()
	line, ok := sourceLine(e.source, pos.Line)
	if !ok {
		return []byte(sb.String()), nil
	}

	number := strconv.Itoa(pos.Line)
	pad := strings.Repeat(" ", len(number))
	fmt.Fprintf(&sb, "%s\n", e.gutter.Sprintf("%s |", pad))
	fmt.Fprintf(&sb, "%s %s\n", e.gutter.Sprintf("%s |", number), expandTabs(line))
	fmt.Fprintf(&sb, "%s %s%s\n", e.gutter.Sprintf("%s |", pad),
		strings.Repeat(" ", displayWidth(line, pos.Column-1)), e.caret.Sprint("^"))
	return []byte(sb.String()), nil
}

// sourceLine returns the 1-based line n of src without its terminator.
func sourceLine(src []byte, n int) (string, bool) {
	if n < 1 {
		return "", false
	}
	lines := strings.Split(string(src), "\n")
	if n > len(lines) {
		return "", false
	}
	return strings.TrimSuffix(lines[n-1], "\r"), true
}

func expandTabs(line string) string {
	var sb strings.Builder
	col := 0
	state := -1
	for line != "" {
		var cluster string
		var width int
		cluster, line, width, state = uniseg.FirstGraphemeClusterInString(line, state)
		if cluster == "\t" {
			n := tabWidth - col%tabWidth
			sb.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		sb.WriteString(cluster)
		col += width
	}
	return sb.String()
}

// displayWidth returns the terminal width of the first n bytes of line after
// tab expansion.
func displayWidth(line string, n int) int {
	if n > len(line) {
		n = len(line)
	}
	if n < 0 {
		n = 0
	}
	prefix := line[:n]
	col := 0
	state := -1
	for prefix != "" {
		var cluster string
		var width int
		cluster, prefix, width, state = uniseg.FirstGraphemeClusterInString(prefix, state)
		if cluster == "\t" {
			col += tabWidth - col%tabWidth
			continue
		}
		col += width
	}
	return col
}
