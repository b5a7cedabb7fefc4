package parse

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"strconv"
	"unicode/utf8"

	"github.com/tliron/commonlog"
	"golang.org/x/exp/ebnf"
)

const endOfInput = "end of input"

type Option func(*Parser)

// WithFile sets the file name reported in positions.
func WithFile(name string) Option {
	return func(p *Parser) {
		p.file = name
	}
}

// WithTrivia names the lexical production skipped before every token and
// lexical reference inside syntactic productions.
func WithTrivia(name string) Option {
	return func(p *Parser) {
		p.trivia = name
	}
}

// WithEndMarker names an empty production that only matches at the end of
// the input.
func WithEndMarker(name string) Option {
	return func(p *Parser) {
		p.endMarker = name
	}
}

func WithLogger(log commonlog.Logger) Option {
	return func(p *Parser) {
		p.log = log
	}
}

// Parser matches input against an EBNF grammar with PEG semantics:
// alternatives are ordered and the first one that matches wins, options and
// repetitions are greedy, and production results are memoized per offset.
//
// A Parser holds no per-input state and can be shared between goroutines.
type Parser struct {
	grammar   ebnf.Grammar
	file      string
	trivia    string
	endMarker string
	log       commonlog.Logger
}

// NewParser creates a parser for the given grammar.
func NewParser(g ebnf.Grammar, opts ...Option) *Parser {
	p := &Parser{
		grammar: g,
		log:     commonlog.MOCK_LOGGER,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse matches the whole input against the start production.
// It fails with a *SyntaxError unless the match consumes all input,
// trailing trivia included.
func (p *Parser) Parse(input []byte, start string) (*Node, error) {
	if p.grammar[start] == nil {
		return nil, fmt.Errorf("production %q not found in grammar", start)
	}

	r := newRun(p, input)
	end, nodes, ok := r.matchName(start, 0, false)
	if ok {
		end = r.skip(end)
		if end == len(input) && len(nodes) == 1 {
			p.log.Debugf("parsed %d bytes as %s (%d memo entries)", len(input), start, len(r.memo))
			return nodes[0], nil
		}
		r.fail(end, endOfInput)
	}

	err := r.syntaxError()
	p.log.Debugf("parse failed: %v", err)
	return nil, err
}

type memoKey struct {
	name   string
	offset int
}

type memoEntry struct {
	end  int
	node *Node
	ok   bool
}

// run holds the state of a single Parse call.
type run struct {
	*Parser
	input    []byte
	lines    []int // offsets at which lines start
	memo     map[memoKey]memoEntry
	visiting map[memoKey]bool // left recursion guard
	skipped  map[int]int      // trivia end per offset
	atomic   int              // depth inside lexical productions
	furthest int
	expected map[string]bool
}

func newRun(p *Parser, input []byte) *run {
	lines := []int{0}
	for i, b := range input {
		if b == '\n' {
			lines = append(lines, i+1)
		}
	}
	return &run{
		Parser:   p,
		input:    input,
		lines:    lines,
		memo:     make(map[memoKey]memoEntry),
		visiting: make(map[memoKey]bool),
		skipped:  make(map[int]int),
		expected: make(map[string]bool),
	}
}

// match attempts to match an expression at the given offset. Inside
// lexical productions no trivia is skipped and no nodes are built.
func (r *run) match(expr ebnf.Expression, pos int, lexical bool) (int, []*Node, bool) {
	switch e := expr.(type) {
	case nil:
		return pos, nil, true

	case *ebnf.Token:
		return r.matchToken(e.String, pos, lexical)

	case *ebnf.Range:
		return r.matchRange(e, pos, lexical)

	case ebnf.Sequence:
		var nodes []*Node
		at := pos
		for _, item := range e {
			end, n, ok := r.match(item, at, lexical)
			if !ok {
				return pos, nil, false
			}
			nodes = append(nodes, n...)
			at = end
		}
		return at, nodes, true

	case ebnf.Alternative:
		for _, alt := range e {
			if end, n, ok := r.match(alt, pos, lexical); ok {
				return end, n, true
			}
		}
		return pos, nil, false

	case *ebnf.Option:
		if end, n, ok := r.match(e.Body, pos, lexical); ok {
			return end, n, true
		}
		return pos, nil, true

	case *ebnf.Repetition:
		var nodes []*Node
		at := pos
		for {
			end, n, ok := r.match(e.Body, at, lexical)
			if !ok || end == at {
				break
			}
			nodes = append(nodes, n...)
			at = end
		}
		return at, nodes, true

	case *ebnf.Group:
		return r.match(e.Body, pos, lexical)

	case *ebnf.Name:
		return r.matchName(e.String, pos, lexical)
	}

	return pos, nil, false
}

func (r *run) matchName(name string, pos int, lexical bool) (int, []*Node, bool) {
	start := pos
	if !lexical {
		start = r.skip(pos)
	}

	if name == r.endMarker {
		if start == len(r.input) {
			return start, []*Node{r.leaf(name, start, start)}, true
		}
		r.fail(start, name)
		return pos, nil, false
	}

	prod := r.grammar[name]
	if prod == nil {
		r.fail(start, name)
		return pos, nil, false
	}

	// Productions nested inside a lexical production are matched for
	// their extent only.
	inner := r.atomic > 0
	key := memoKey{name: name, offset: start}
	if !inner {
		if m, ok := r.memo[key]; ok {
			if !m.ok {
				return pos, nil, false
			}
			return m.end, nodeList(m.node), true
		}
	}
	if r.visiting[key] {
		return pos, nil, false
	}

	r.visiting[key] = true
	var (
		end      int
		children []*Node
		ok       bool
	)
	lexicalProd := IsLexical(name)
	if lexicalProd {
		r.atomic++
		end, _, ok = r.match(prod.Expr, start, true)
		r.atomic--
	} else {
		end, children, ok = r.match(prod.Expr, start, false)
	}
	delete(r.visiting, key)

	if inner {
		return end, nil, ok
	}
	if !ok {
		if lexicalProd {
			r.fail(start, name)
		}
		r.memo[key] = memoEntry{}
		return pos, nil, false
	}

	var node *Node
	if name != r.trivia {
		node = &Node{
			Kind:     name,
			Children: children,
			Text:     string(r.input[start:end]),
			Span:     r.span(start, end),
		}
	}
	r.memo[key] = memoEntry{end: end, node: node, ok: true}
	return end, nodeList(node), true
}

func (r *run) matchToken(tok string, pos int, lexical bool) (int, []*Node, bool) {
	start := pos
	if !lexical {
		start = r.skip(pos)
	}
	end := start + len(tok)
	if end > len(r.input) || string(r.input[start:end]) != tok || (!lexical && !r.atBoundary(tok, end)) {
		r.fail(start, strconv.Quote(tok))
		return pos, nil, false
	}
	if lexical {
		return end, nil, true
	}
	return end, []*Node{r.leaf(TokenKind, start, end)}, true
}

func (r *run) matchRange(e *ebnf.Range, pos int, lexical bool) (int, []*Node, bool) {
	start := pos
	if !lexical {
		start = r.skip(pos)
	}
	lo, _ := utf8.DecodeRuneInString(e.Begin.String)
	hi, _ := utf8.DecodeRuneInString(e.End.String)
	if start < len(r.input) {
		ch, size := utf8.DecodeRune(r.input[start:])
		if ch >= lo && ch <= hi {
			if lexical {
				return start + size, nil, true
			}
			return start + size, []*Node{r.leaf(TokenKind, start, start+size)}, true
		}
	}
	r.fail(start, strconv.Quote(e.Begin.String)+"…"+strconv.Quote(e.End.String))
	return pos, nil, false
}

// atBoundary reports whether a keyword-like token ending at end is not
// immediately followed by another identifier character.
func (r *run) atBoundary(tok string, end int) bool {
	if tok == "" || !isIdentByte(tok[len(tok)-1]) {
		return true
	}
	return end >= len(r.input) || !isIdentByte(r.input[end])
}

func (r *run) skip(pos int) int {
	if r.trivia == "" {
		return pos
	}
	if end, ok := r.skipped[pos]; ok {
		return end
	}
	end := pos
	if prod := r.grammar[r.trivia]; prod != nil {
		r.atomic++
		if e, _, ok := r.match(prod.Expr, pos, true); ok {
			end = e
		}
		r.atomic--
	}
	r.skipped[pos] = end
	return end
}

// fail records that label was expected at pos. Only the furthest failure
// position is kept; failures inside lexical productions are reported by
// the enclosing lexical production instead.
func (r *run) fail(pos int, label string) {
	if r.atomic > 0 {
		return
	}
	switch {
	case pos > r.furthest:
		r.furthest = pos
		r.expected = map[string]bool{label: true}
	case pos == r.furthest:
		r.expected[label] = true
	}
}

func (r *run) syntaxError() *SyntaxError {
	labels := make(map[string]bool, len(r.expected))
	for l := range r.expected {
		if l == r.endMarker {
			l = endOfInput
		}
		labels[l] = true
	}
	return &SyntaxError{
		Pos:      r.position(r.furthest),
		Expected: slices.Sorted(maps.Keys(labels)),
		Found:    r.found(r.furthest),
	}
}

func (r *run) found(pos int) string {
	if pos >= len(r.input) {
		return endOfInput
	}
	if isIdentByte(r.input[pos]) {
		end := pos
		for end < len(r.input) && isIdentByte(r.input[end]) {
			end++
		}
		return strconv.Quote(string(r.input[pos:end]))
	}
	ch, _ := utf8.DecodeRune(r.input[pos:])
	return strconv.Quote(string(ch))
}

func (r *run) leaf(kind string, start, end int) *Node {
	return &Node{
		Kind: kind,
		Text: string(r.input[start:end]),
		Span: r.span(start, end),
	}
}

func (r *run) span(start, end int) Span {
	return Span{Start: r.position(start), End: r.position(end)}
}

func (r *run) position(offset int) Position {
	line := sort.Search(len(r.lines), func(i int) bool { return r.lines[i] > offset })
	return Position{
		Filename: r.file,
		Offset:   offset,
		Line:     line,
		Column:   offset - r.lines[line-1] + 1,
	}
}

func nodeList(n *Node) []*Node {
	if n == nil {
		return nil
	}
	return []*Node{n}
}

func isIdentByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
