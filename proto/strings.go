package proto

import (
	"unicode/utf16"
	"unicode/utf8"
)

type decodeState int

const (
	stateNormal decodeState = iota
	stateEscape
	stateHex
	stateOctal
	stateUnicode
)

var simpleEscapes = map[byte]byte{
	'a':  '\a',
	'b':  '\b',
	'f':  '\f',
	'n':  '\n',
	'r':  '\r',
	't':  '\t',
	'v':  '\v',
	'\\': '\\',
	'\'': '\'',
	'"':  '"',
	'?':  '?',
}

// DecodeString decodes a quoted string literal as written in proto source.
//
// Hexadecimal (\xH, \xHH) and octal (\O, \OO, \OOO) escapes produce raw
// bytes; \uHHHH and \UHHHHHHHH produce the UTF-8 encoding of a code point.
// A high surrogate written as \u must be followed by a \u low surrogate.
// Malformed escapes fail with an *EscapeError.
func DecodeString(lit string) (string, error) {
	if len(lit) < 2 || (lit[0] != '"' && lit[0] != '\'') || lit[len(lit)-1] != lit[0] {
		return "", &EscapeError{Text: lit, Reason: "unquoted literal"}
	}
	d := &stringDecoder{lit: lit, end: len(lit) - 1}
	return d.decode()
}

type stringDecoder struct {
	lit string
	end int // offset of the closing quote
	out []byte

	state  decodeState
	start  int // offset of the backslash of the current escape
	digits int
	max    int
	value  uint32

	high   rune // pending high surrogate
	highAt int
}

func (d *stringDecoder) decode() (string, error) {
	i := 1
	for i < d.end {
		c := d.lit[i]
		switch d.state {
		case stateNormal:
			if c == '\\' {
				d.state, d.start = stateEscape, i
				i++
				continue
			}
			if err := d.put(c); err != nil {
				return "", err
			}
			i++

		case stateEscape:
			d.digits, d.value = 0, 0
			switch {
			case c == 'x' || c == 'X':
				d.state, d.max = stateHex, 2
			case c >= '0' && c <= '7':
				d.state, d.max = stateOctal, 3
				d.digits, d.value = 1, uint32(c-'0')
			case c == 'u':
				d.state, d.max = stateUnicode, 4
			case c == 'U':
				d.state, d.max = stateUnicode, 8
			default:
				b, ok := simpleEscapes[c]
				if !ok {
					return "", d.fail(i+1, "unknown escape")
				}
				d.state = stateNormal
				if err := d.put(b); err != nil {
					return "", err
				}
			}
			i++

		case stateHex:
			if v, ok := hexValue(c); ok && d.digits < d.max {
				d.value = d.value<<4 | v
				d.digits++
				i++
				continue
			}
			if err := d.finishHex(i); err != nil {
				return "", err
			}

		case stateOctal:
			if c >= '0' && c <= '7' && d.digits < d.max {
				d.value = d.value<<3 | uint32(c-'0')
				d.digits++
				i++
				continue
			}
			if err := d.finishOctal(i); err != nil {
				return "", err
			}

		case stateUnicode:
			v, ok := hexValue(c)
			if !ok {
				return "", d.fail(i, "incomplete unicode escape")
			}
			d.value = d.value<<4 | v
			d.digits++
			i++
			if d.digits == d.max {
				if err := d.finishUnicode(i); err != nil {
					return "", err
				}
			}
		}
	}

	switch d.state {
	case stateEscape:
		return "", d.fail(d.end, "truncated escape")
	case stateHex:
		if err := d.finishHex(d.end); err != nil {
			return "", err
		}
	case stateOctal:
		if err := d.finishOctal(d.end); err != nil {
			return "", err
		}
	case stateUnicode:
		return "", d.fail(d.end, "incomplete unicode escape")
	}
	if d.high != 0 {
		return "", &EscapeError{Offset: d.highAt, Text: d.lit[d.highAt : d.highAt+6], Reason: "unpaired surrogate"}
	}
	return string(d.out), nil
}

// finishHex ends a hex escape whose digits stop before offset i.
func (d *stringDecoder) finishHex(i int) error {
	if d.digits == 0 {
		end := i
		if end < d.end {
			end++
		}
		return d.fail(end, "invalid hex escape")
	}
	d.state = stateNormal
	return d.put(byte(d.value))
}

func (d *stringDecoder) finishOctal(i int) error {
	if d.value > 0377 {
		return d.fail(i, "octal escape out of range")
	}
	d.state = stateNormal
	return d.put(byte(d.value))
}

func (d *stringDecoder) finishUnicode(i int) error {
	d.state = stateNormal
	if d.value > utf8.MaxRune {
		return d.fail(i, "unicode escape out of range")
	}
	r := rune(d.value)
	switch {
	case utf16.IsSurrogate(r) && r < 0xdc00:
		if d.high != 0 {
			return &EscapeError{Offset: d.highAt, Text: d.lit[d.highAt:i], Reason: "unpaired surrogate"}
		}
		d.high, d.highAt = r, d.start
		return nil
	case utf16.IsSurrogate(r):
		if d.high == 0 {
			return d.fail(i, "unpaired surrogate")
		}
		r = utf16.DecodeRune(d.high, r)
		d.high = 0
	}
	d.out = utf8.AppendRune(d.out, r)
	return nil
}

func (d *stringDecoder) put(b byte) error {
	if d.high != 0 {
		return &EscapeError{Offset: d.highAt, Text: d.lit[d.highAt : d.highAt+6], Reason: "unpaired surrogate"}
	}
	d.out = append(d.out, b)
	return nil
}

// fail reports the escape that started at d.start and ends before offset end.
func (d *stringDecoder) fail(end int, reason string) *EscapeError {
	return &EscapeError{Offset: d.start, Text: d.lit[d.start:end], Reason: reason}
}

func hexValue(c byte) (uint32, bool) {
	switch {
	case c >= '0' && c <= '9':
		return uint32(c - '0'), true
	case c >= 'a' && c <= 'f':
		return uint32(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return uint32(c-'A') + 10, true
	}
	return 0, false
}
