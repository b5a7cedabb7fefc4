package main

import (
	"fmt"
	"path/filepath"

	"github.com/dhamidi/protopojo/project"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func (a *app) newInitCmd() *cobra.Command {
	var force bool
	var flags projectFlags

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Write a default " + project.ConfigFile,
		Long: `Write a default ` + project.ConfigFile + ` into the given directory, or the
current directory. The generation flags set the corresponding keys.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := a.root
			if len(args) == 1 {
				dir = a.abs(args[0])
			}
			path := filepath.Join(dir, project.ConfigFile)

			exists, err := afero.Exists(a.fs, path)
			if err != nil {
				return err
			}
			if exists && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			conf := project.Default()
			flags.apply(cmd, conf)
			if err := conf.Validate(); err != nil {
				return err
			}

			if err := a.fs.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create %s: %w", dir, err)
			}
			if err := conf.Save(a.fs, path); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Fprintf(a.stdout, "wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration")
	flags.registerJava(cmd)

	return cmd
}
