package project

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dhamidi/protopojo/format"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// ConfigFile is the name of the project configuration file.
const ConfigFile = "protopojo.yaml"

// Config describes where proto sources live and how Java is generated from
// them.
type Config struct {
	// Sources are doublestar globs, relative to the project root.
	Sources []string   `yaml:"sources"`
	Out     string     `yaml:"out"`
	Java    JavaConfig `yaml:"java"`
}

type JavaConfig struct {
	Package string `yaml:"package,omitempty"`
	Setters bool   `yaml:"setters,omitempty"`
	Header  string `yaml:"header,omitempty"`
}

func Default() *Config {
	return &Config{
		Sources: []string{"**/*.proto"},
		Out:     "build/generated/java",
		Java: JavaConfig{
			Header: "Code generated by protopojo. DO NOT EDIT.",
		},
	}
}

// LoadConfig reads a configuration file. Keys missing from the file keep
// their default values; unknown keys are rejected.
func LoadConfig(fsys afero.Fs, path string) (*Config, error) {
	conf := Default()

	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, err
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(conf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return conf, nil
}

// Save writes the configuration to path.
func (c *Config) Save(fsys afero.Fs, path string) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return afero.WriteFile(fsys, path, buf.Bytes(), 0o644)
}

func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return errors.New("no sources configured")
	}
	for _, pattern := range c.Sources {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid source pattern %q", pattern)
		}
	}
	if c.Out == "" {
		return errors.New("no output directory configured")
	}
	return nil
}

// JavaOptions translates the java section into renderer options.
func (c *Config) JavaOptions() []format.JavaOption {
	var opts []format.JavaOption
	if c.Java.Package != "" {
		opts = append(opts, format.WithJavaPackage(c.Java.Package))
	}
	if c.Java.Setters {
		opts = append(opts, format.WithSetters())
	}
	if c.Java.Header != "" {
		opts = append(opts, format.WithHeader(c.Java.Header))
	}
	return opts
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
