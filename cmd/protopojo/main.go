package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dhamidi/protopojo/format"
	"github.com/dhamidi/protopojo/project"
	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

const version = "0.1.0"

// app carries what commands need from the outside world.
type app struct {
	fs     afero.Fs
	root   string
	stdout io.Writer
	stderr io.Writer
	color  bool
}

func main() {
	root, err := os.Getwd()
	if err != nil {
		root = "."
	}
	a := &app{
		fs:     afero.NewOsFs(),
		root:   root,
		stdout: os.Stdout,
		stderr: os.Stderr,
		color:  !color.NoColor,
	}
	if err := a.rootCmd().Execute(); err != nil {
		a.reportError(err)
		os.Exit(1)
	}
}

func (a *app) rootCmd() *cobra.Command {
	var verbose int
	var logFile string

	rootCmd := &cobra.Command{
		Use:           "protopojo",
		Short:         "Generate plain Java classes from proto3 files",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			var path *string
			if logFile != "" {
				path = &logFile
			}
			// warnings by default, each -v raises the level by one
			commonlog.Configure(verbose-1, path)
		},
	}
	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)

	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "increase log verbosity (repeatable)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file instead of stderr")

	rootCmd.AddCommand(a.newGenerateCmd())
	rootCmd.AddCommand(a.newCheckCmd())
	rootCmd.AddCommand(a.newParseCmd())
	rootCmd.AddCommand(a.newDumpCmd())
	rootCmd.AddCommand(a.newGrammarCmd())
	rootCmd.AddCommand(a.newInitCmd())
	rootCmd.AddCommand(a.newLSPCmd())

	return rootCmd
}

// reportError prints err, with a source excerpt when it came from a proto
// file.
func (a *app) reportError(err error) {
	var fileErr *project.FileError
	if errors.As(err, &fileErr) {
		enc := format.NewDiagnosticEncoder(a.stderr, fileErr.Source).Colorize(a.color)
		if encErr := enc.Encode(fileErr.Err); encErr == nil {
			return
		}
	}
	fmt.Fprintf(a.stderr, "error: %s\n", err)
}
