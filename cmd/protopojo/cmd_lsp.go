package main

import (
	"github.com/dhamidi/protopojo/codebase"
	"github.com/spf13/cobra"
)

func (a *app) newLSPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			server := codebase.NewLSPServer(a.fs, version)
			return server.RunStdio()
		},
	}
}
