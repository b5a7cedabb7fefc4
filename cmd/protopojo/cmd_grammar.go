package main

import (
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/dhamidi/protopojo/ebnf/parse"
	"github.com/dhamidi/protopojo/proto/parser"
	"github.com/spf13/cobra"
	"golang.org/x/exp/ebnf"
)

func (a *app) newGrammarCmd() *cobra.Command {
	var verify bool
	var startProduction string

	cmd := &cobra.Command{
		Use:   "grammar [file]",
		Short: "Print or verify the proto3 grammar",
		Long: `Print the embedded proto3 grammar in EBNF.

With --verify the grammar is parsed and checked instead: every production
must be defined and reachable from the start production. A file argument
verifies that grammar instead of the embedded one.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !verify {
				_, err := io.WriteString(a.stdout, parser.GrammarSource())
				return err
			}

			var grammar ebnf.Grammar
			var err error
			if len(args) == 0 {
				grammar, err = parser.Grammar()
			} else {
				grammar, err = a.loadGrammar(args[0])
				if err == nil {
					err = parse.VerifyGrammar(grammar, startProduction)
				}
			}
			if err != nil {
				a.printErrors(err)
				return fmt.Errorf("grammar is invalid")
			}

			fmt.Fprintf(a.stdout, "ok: %d productions\n", len(grammar))
			return nil
		},
	}

	cmd.Flags().BoolVar(&verify, "verify", false, "verify instead of printing")
	cmd.Flags().StringVar(&startProduction, "start", parser.RuleProto, "start production for verifying a grammar file")

	return cmd
}

func (a *app) loadGrammar(name string) (ebnf.Grammar, error) {
	f, err := a.fs.Open(a.abs(name))
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()
	return parse.ParseGrammar(name, f)
}

// printErrors prints each element of an error list on its own line.
func (a *app) printErrors(err error) {
	for e := err; e != nil; e = errors.Unwrap(e) {
		v := reflect.ValueOf(e)
		if v.Kind() != reflect.Slice {
			continue
		}
		for i := 0; i < v.Len(); i++ {
			fmt.Fprintln(a.stderr, v.Index(i).Interface())
		}
		return
	}
	fmt.Fprintln(a.stderr, err)
}
