package project

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dhamidi/protopojo/format"
	"github.com/dhamidi/protopojo/proto"
	"github.com/dhamidi/protopojo/proto/parser"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/afero"
	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"
)

// Project is a directory of proto sources plus the configuration used to
// turn them into Java.
type Project struct {
	Root   string
	Config *Config

	fs  afero.Fs
	log commonlog.Logger
}

func New(fsys afero.Fs, root string, conf *Config) *Project {
	return &Project{
		Root:   root,
		Config: conf,
		fs:     fsys,
		log:    commonlog.GetLogger("protopojo.project"),
	}
}

// Load opens the project rooted at root. Without a configuration file the
// defaults apply.
func Load(fsys afero.Fs, root string) (*Project, error) {
	conf, err := LoadConfig(fsys, filepath.Join(root, ConfigFile))
	if isNotExist(err) {
		conf, err = Default(), nil
	}
	if err != nil {
		return nil, err
	}
	return New(fsys, root, conf), nil
}

// Fs returns the filesystem the project reads from and writes to.
func (p *Project) Fs() afero.Fs {
	return p.fs
}

// OutDir returns the directory generated files are written to.
func (p *Project) OutDir() string {
	if filepath.IsAbs(p.Config.Out) {
		return p.Config.Out
	}
	return filepath.Join(p.Root, p.Config.Out)
}

// Discover returns the slash-separated paths, relative to the root, of all
// files matching one of the configured source patterns. Hidden directories
// and the output directory are skipped.
func (p *Project) Discover() ([]string, error) {
	outDir := filepath.Clean(p.OutDir())
	var found []string
	err := afero.Walk(p.fs, p.Root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != p.Root && (strings.HasPrefix(info.Name(), ".") || filepath.Clean(path) == outDir) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(p.Root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if p.matches(rel) {
			found = append(found, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover sources: %w", err)
	}
	slices.Sort(found)
	return found, nil
}

func (p *Project) matches(rel string) bool {
	for _, pattern := range p.Config.Sources {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// Output is the Java rendered from one proto source.
type Output struct {
	Source string
	Files  []format.JavaFile
}

// FileError is a failure to turn one source into Java. Source holds the
// file contents so callers can show an excerpt.
type FileError struct {
	Path   string
	Source []byte
	Err    error
}

func (e *FileError) Error() string {
	return e.Err.Error()
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// ErrOutputConflict is returned when two declarations would be written to the
// same Java file.
var ErrOutputConflict = errors.New("conflicting output")

// Render parses, reduces and renders every source concurrently. Outputs are
// returned in the order of sources.
func (p *Project) Render(ctx context.Context, sources []string) ([]Output, error) {
	outputs := make([]Output, len(sources))
	opts := p.Config.JavaOptions()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, source := range sources {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			files, err := p.renderFile(source, opts)
			if err != nil {
				return err
			}
			outputs[i] = Output{Source: source, Files: files}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	owners := make(map[string]string)
	for _, out := range outputs {
		for _, f := range out.Files {
			if prev, ok := owners[f.Path]; ok {
				return nil, fmt.Errorf("%w: %s is produced by both %s and %s", ErrOutputConflict, f.Path, prev, out.Source)
			}
			owners[f.Path] = out.Source
		}
	}
	return outputs, nil
}

func (p *Project) renderFile(source string, opts []format.JavaOption) ([]format.JavaFile, error) {
	data, err := afero.ReadFile(p.fs, filepath.Join(p.Root, filepath.FromSlash(source)))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", source, err)
	}
	model, err := proto.ParseAndReduce(data, parser.WithFile(source))
	if err != nil {
		return nil, &FileError{Path: source, Source: data, Err: err}
	}
	files := format.RenderJava(model, opts...)
	p.log.Debugf("rendered %s: %d types", source, len(files))
	return files, nil
}

// Result summarises a Generate run. Paths are relative to the output
// directory.
type Result struct {
	Written   []string
	Unchanged []string
}

// Generate renders sources and writes the Java files below the output
// directory. Files whose contents already match are left alone.
func (p *Project) Generate(ctx context.Context, sources []string) (*Result, error) {
	outputs, err := p.Render(ctx, sources)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	outDir := p.OutDir()
	for _, out := range outputs {
		for _, f := range out.Files {
			dest := filepath.Join(outDir, filepath.FromSlash(f.Path))
			current, err := afero.ReadFile(p.fs, dest)
			if err == nil && string(current) == f.Source {
				res.Unchanged = append(res.Unchanged, f.Path)
				continue
			}
			if err := p.fs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
				return nil, fmt.Errorf("create %s: %w", filepath.Dir(dest), err)
			}
			if err := afero.WriteFile(p.fs, dest, []byte(f.Source), 0o644); err != nil {
				return nil, fmt.Errorf("write %s: %w", dest, err)
			}
			p.log.Infof("wrote %s", dest)
			res.Written = append(res.Written, f.Path)
		}
	}
	return res, nil
}

// Diff is a generated file whose contents on disk are out of date.
type Diff struct {
	Path    string // relative to the output directory
	Missing bool
	Unified string
}

// Check renders sources in memory and compares the result with the files
// in the output directory.
func (p *Project) Check(ctx context.Context, sources []string) ([]Diff, error) {
	outputs, err := p.Render(ctx, sources)
	if err != nil {
		return nil, err
	}

	var diffs []Diff
	outDir := p.OutDir()
	for _, out := range outputs {
		for _, f := range out.Files {
			current, err := afero.ReadFile(p.fs, filepath.Join(outDir, filepath.FromSlash(f.Path)))
			missing := isNotExist(err)
			if err != nil && !missing {
				return nil, fmt.Errorf("read %s: %w", f.Path, err)
			}
			if string(current) == f.Source && !missing {
				continue
			}

			from := "a/" + f.Path
			if missing {
				from = "/dev/null"
			}
			unified, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
				A:        difflib.SplitLines(string(current)),
				B:        difflib.SplitLines(f.Source),
				FromFile: from,
				ToFile:   "b/" + f.Path,
				Context:  3,
			})
			if err != nil {
				return nil, err
			}
			diffs = append(diffs, Diff{Path: f.Path, Missing: missing, Unified: unified})
		}
	}
	return diffs, nil
}
