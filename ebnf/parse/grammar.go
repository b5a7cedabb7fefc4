package parse

import (
	"fmt"
	"io"
	"os"
	"unicode"
	"unicode/utf8"

	"golang.org/x/exp/ebnf"
)

// LoadGrammar loads an EBNF grammar from a file.
func LoadGrammar(filename string) (ebnf.Grammar, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("open grammar: %w", err)
	}
	defer f.Close()

	return ParseGrammar(filename, f)
}

// ParseGrammar reads a set of EBNF productions from r.
func ParseGrammar(filename string, r io.Reader) (ebnf.Grammar, error) {
	g, err := ebnf.Parse(filename, r)
	if err != nil {
		return nil, fmt.Errorf("parse grammar: %w", err)
	}
	return g, nil
}

// VerifyGrammar checks that every production is defined, reachable from
// start, and that lexical productions only refer to lexical productions.
func VerifyGrammar(g ebnf.Grammar, start string) error {
	if err := ebnf.Verify(g, start); err != nil {
		return fmt.Errorf("verify grammar: %w", err)
	}
	return nil
}

// IsLexical reports whether the production name denotes a lexical
// production. Lexical productions match verbatim, with no trivia skipped.
func IsLexical(name string) bool {
	ch, _ := utf8.DecodeRuneInString(name)
	return !unicode.IsUpper(ch)
}
