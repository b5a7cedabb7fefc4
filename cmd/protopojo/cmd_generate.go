package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/dhamidi/protopojo/codebase"
	"github.com/dhamidi/protopojo/project"
	"github.com/spf13/cobra"
)

func (a *app) newGenerateCmd() *cobra.Command {
	var flags projectFlags
	var watch bool
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "generate [files...]",
		Short: "Generate Java classes for proto files",
		Long: `Generate one Java file per message and enum.

Without arguments every file matching the configured source patterns is
processed. Files whose contents would not change are left untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.loadProject(cmd, &flags)
			if err != nil {
				return err
			}

			if err := a.generate(cmd.Context(), p, args); err != nil {
				if !watch {
					return err
				}
				a.reportError(err)
			}
			if !watch {
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return a.watch(ctx, p, args, interval)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "regenerate whenever a source changes")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "polling interval for --watch")

	return cmd
}

func (a *app) generate(ctx context.Context, p *project.Project, args []string) error {
	srcs, err := a.sources(p, args)
	if err != nil {
		return err
	}
	res, err := p.Generate(ctx, srcs)
	if err != nil {
		return err
	}
	for _, path := range res.Written {
		fmt.Fprintf(a.stdout, "wrote %s\n", path)
	}
	return nil
}

func (a *app) watch(ctx context.Context, p *project.Project, args []string, interval time.Duration) error {
	w := codebase.NewFileWatcher(codebase.New(p.Fs(), p.Root))
	w.SetInterval(interval)

	// record the current state so that only later edits trigger a run
	w.Scan()
	w.OnChange(func(changed []string) {
		if err := a.generate(ctx, p, args); err != nil {
			a.reportError(err)
		}
	})

	fmt.Fprintf(a.stderr, "watching %s for changes\n", p.Root)
	w.Start()
	defer w.Stop()

	<-ctx.Done()
	return nil
}
