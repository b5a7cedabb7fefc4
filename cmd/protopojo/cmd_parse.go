package main

import (
	"fmt"

	"github.com/dhamidi/protopojo/ebnf/parse"
	"github.com/dhamidi/protopojo/format"
	"github.com/dhamidi/protopojo/project"
	"github.com/dhamidi/protopojo/proto"
	"github.com/dhamidi/protopojo/proto/parser"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func (a *app) newParseCmd() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse a .proto file and dump the syntax tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, _, err := a.parseFile(args[0])
			if err != nil {
				return err
			}

			enc := format.NewTreeEncoder(a.stdout)
			switch outputFormat {
			case "text":
			case "json":
				enc.JSON()
			default:
				return fmt.Errorf("unknown format: %s (expected text or json)", outputFormat)
			}
			if err := enc.Encode(tree); err != nil {
				return fmt.Errorf("encode tree: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "output format (text, json)")

	return cmd
}

// parseFile reads and parses one proto file. Syntax errors come back as
// *project.FileError so they are reported with an excerpt.
func (a *app) parseFile(name string) (*parse.Node, []byte, error) {
	data, err := afero.ReadFile(a.fs, a.abs(name))
	if err != nil {
		return nil, nil, fmt.Errorf("read proto file: %w", err)
	}
	tree, err := parser.Parse(data, parser.WithFile(name))
	if err != nil {
		return nil, nil, &project.FileError{Path: name, Source: data, Err: err}
	}
	return tree, data, nil
}

func (a *app) reduceFile(name string) (*proto.ProtoModel, error) {
	tree, data, err := a.parseFile(name)
	if err != nil {
		return nil, err
	}
	model, err := proto.Reduce(tree)
	if err != nil {
		return nil, &project.FileError{Path: name, Source: data, Err: err}
	}
	return model, nil
}
