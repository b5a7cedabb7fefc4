package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errOutOfDate = errors.New("generated files are out of date")

func (a *app) newCheckCmd() *cobra.Command {
	var flags projectFlags

	cmd := &cobra.Command{
		Use:   "check [files...]",
		Short: "Verify that generated Java files are up to date",
		Long: `Render Java in memory and compare it with the files in the output
directory. Differences are printed as unified diffs and the command exits
with a non-zero status.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.loadProject(cmd, &flags)
			if err != nil {
				return err
			}
			srcs, err := a.sources(p, args)
			if err != nil {
				return err
			}

			diffs, err := p.Check(cmd.Context(), srcs)
			if err != nil {
				return err
			}
			for _, d := range diffs {
				fmt.Fprint(a.stdout, d.Unified)
			}
			if len(diffs) > 0 {
				return fmt.Errorf("%w: %d file(s) differ", errOutOfDate, len(diffs))
			}
			return nil
		},
	}

	flags.register(cmd)

	return cmd
}
