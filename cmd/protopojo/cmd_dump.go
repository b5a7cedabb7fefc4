package main

import (
	"fmt"

	"github.com/dhamidi/protopojo/format"
	"github.com/spf13/cobra"
)

func (a *app) newDumpCmd() *cobra.Command {
	var dumpFormat string
	var setters bool
	var javaPackage string

	cmd := &cobra.Command{
		Use:   "dump <file>",
		Short: "Dump the model reduced from a .proto file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model, err := a.reduceFile(args[0])
			if err != nil {
				return err
			}

			switch dumpFormat {
			case "json":
				if err := format.NewJSONEncoder(a.stdout).Encode(model); err != nil {
					return fmt.Errorf("encode json: %w", err)
				}
			case "line":
				if err := format.NewLineEncoder(a.stdout).Encode(model); err != nil {
					return fmt.Errorf("encode line: %w", err)
				}
			case "java":
				var opts []format.JavaOption
				if setters {
					opts = append(opts, format.WithSetters())
				}
				if javaPackage != "" {
					opts = append(opts, format.WithJavaPackage(javaPackage))
				}
				for i, f := range format.RenderJava(model, opts...) {
					if i > 0 {
						fmt.Fprintln(a.stdout)
					}
					fmt.Fprintf(a.stdout, "// %s\n%s", f.Path, f.Source)
				}
			default:
				return fmt.Errorf("unknown format: %s (expected json, line, or java)", dumpFormat)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&dumpFormat, "format", "f", "line", "output format (json, line, java)")
	cmd.Flags().BoolVar(&setters, "setters", false, "render setters (java format)")
	cmd.Flags().StringVar(&javaPackage, "java-package", "", "override the Java package (java format)")

	return cmd
}
