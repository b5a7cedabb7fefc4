package main

import (
	"path/filepath"

	"github.com/dhamidi/protopojo/project"
	"github.com/spf13/cobra"
)

// projectFlags override individual protopojo.yaml settings.
type projectFlags struct {
	config      string
	out         string
	javaPackage string
	setters     bool
	header      string
}

func (f *projectFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.config, "config", "c", "", "configuration file (default: "+project.ConfigFile+" in the current directory)")
	f.registerJava(cmd)
}

func (f *projectFlags) registerJava(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "output directory for generated Java")
	cmd.Flags().StringVar(&f.javaPackage, "java-package", "", "Java package for generated classes (default: proto package)")
	cmd.Flags().BoolVar(&f.setters, "setters", false, "generate setters")
	cmd.Flags().StringVar(&f.header, "header", "", "comment placed at the top of every generated file")
}

// apply copies the flags the user set onto conf.
func (f *projectFlags) apply(cmd *cobra.Command, conf *project.Config) {
	flags := cmd.Flags()
	if flags.Changed("out") {
		conf.Out = f.out
	}
	if flags.Changed("java-package") {
		conf.Java.Package = f.javaPackage
	}
	if flags.Changed("setters") {
		conf.Java.Setters = f.setters
	}
	if flags.Changed("header") {
		conf.Java.Header = f.header
	}
}

func (a *app) loadProject(cmd *cobra.Command, f *projectFlags) (*project.Project, error) {
	var p *project.Project
	if f.config != "" {
		path := a.abs(f.config)
		conf, err := project.LoadConfig(a.fs, path)
		if err != nil {
			return nil, err
		}
		p = project.New(a.fs, filepath.Dir(path), conf)
	} else {
		var err error
		p, err = project.Load(a.fs, a.root)
		if err != nil {
			return nil, err
		}
	}

	f.apply(cmd, p.Config)
	if err := p.Config.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// abs resolves path against the working directory.
func (a *app) abs(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(a.root, path)
}

// sources returns args relative to the project root, or every discovered
// source when args is empty.
func (a *app) sources(p *project.Project, args []string) ([]string, error) {
	if len(args) == 0 {
		return p.Discover()
	}
	out := make([]string, len(args))
	for i, arg := range args {
		rel, err := filepath.Rel(p.Root, a.abs(arg))
		if err != nil {
			return nil, err
		}
		out[i] = filepath.ToSlash(rel)
	}
	return out, nil
}
