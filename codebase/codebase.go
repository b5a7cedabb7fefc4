// Package codebase keeps parsed proto files in memory for long-running
// consumers: the language server and the generator's watch mode.
package codebase

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/dhamidi/protopojo/ebnf/parse"
	"github.com/dhamidi/protopojo/proto"
	"github.com/dhamidi/protopojo/proto/parser"
	"github.com/spf13/afero"
)

const protoExt = ".proto"

type Codebase struct {
	mu      sync.RWMutex
	fs      afero.Fs
	rootDir string
	files   map[string]*FileInfo
}

// FileInfo is the latest state of one source file. At most one of Model
// and Err is set.
type FileInfo struct {
	Path    string
	Content []byte
	Tree    *parse.Node
	Model   *proto.ProtoModel
	Err     error
}

func New(fsys afero.Fs, rootDir string) *Codebase {
	return &Codebase{
		fs:      fsys,
		rootDir: rootDir,
		files:   make(map[string]*FileInfo),
	}
}

func (c *Codebase) RootDir() string {
	return c.rootDir
}

func (c *Codebase) ScanAll() error {
	return c.walk(func(path string, _ os.FileInfo) {
		c.ScanFile(path)
	})
}

// walk calls fn for every .proto file below the root, skipping hidden
// directories. Unreadable entries are ignored.
func (c *Codebase) walk(fn func(path string, info os.FileInfo)) error {
	return afero.Walk(c.fs, c.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if path != c.rootDir && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) == protoExt {
			fn(path, info)
		}
		return nil
	})
}

func (c *Codebase) ScanFile(path string) error {
	content, err := afero.ReadFile(c.fs, path)
	if err != nil {
		return err
	}
	c.UpdateFile(path, content)
	return nil
}

func (c *Codebase) UpdateFile(path string, content []byte) *FileInfo {
	info := &FileInfo{Path: path, Content: content}

	tree, err := parser.Parse(content, parser.WithFile(c.displayName(path)))
	if err != nil {
		info.Err = err
	} else {
		info.Tree = tree
		info.Model, info.Err = proto.Reduce(tree)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.files[path] = info
	return info
}

// displayName returns path relative to the root when it lies below it.
func (c *Codebase) displayName(path string) string {
	rel, err := filepath.Rel(c.rootDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}

func (c *Codebase) RemoveFile(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.files, path)
}

func (c *Codebase) GetFile(path string) *FileInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.files[path]
}

// Paths returns the known file paths in sorted order.
func (c *Codebase) Paths() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	paths := make([]string, 0, len(c.files))
	for p := range c.files {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// Errors returns the files that currently fail to parse or reduce.
func (c *Codebase) Errors() []*FileInfo {
	var out []*FileInfo
	for _, p := range c.Paths() {
		if f := c.GetFile(p); f != nil && f.Err != nil {
			out = append(out, f)
		}
	}
	return out
}

// FindType returns the declaration called name and the package it belongs
// to, searching files in path order. When no declaration has that exact
// name, a nested type with that simple name is returned.
func (c *Codebase) FindType(name string) (proto.TypeDecl, string) {
	var nested proto.TypeDecl
	var nestedPkg string
	for _, p := range c.Paths() {
		f := c.GetFile(p)
		if f == nil || f.Model == nil {
			continue
		}
		if decl := f.Model.Lookup(name); decl != nil {
			return decl, f.Model.Package
		}
		if nested != nil {
			continue
		}
		for _, t := range f.Model.Types {
			if proto.SimpleName(t.DeclName()) == name {
				nested, nestedPkg = t, f.Model.Package
				break
			}
		}
	}
	return nested, nestedPkg
}

// TypeNames returns every declared type name across all files, sorted and
// without duplicates.
func (c *Codebase) TypeNames() []string {
	var names []string
	for _, p := range c.Paths() {
		f := c.GetFile(p)
		if f == nil || f.Model == nil {
			continue
		}
		for _, t := range f.Model.Types {
			names = append(names, t.DeclName())
		}
	}
	slices.Sort(names)
	return slices.Compact(names)
}

// Diagnostic is a problem in a file. Line and Column are 1-based.
type Diagnostic struct {
	Line    int
	Column  int
	Length  int
	Message string
}

type positioned interface {
	GetPosition() parse.Position
}

// Diagnostics describes the file's error, if any, as a list suitable for an
// editor.
func (f *FileInfo) Diagnostics() []Diagnostic {
	if f == nil || f.Err == nil {
		return nil
	}
	d := Diagnostic{Line: 1, Column: 1, Message: f.Err.Error()}

	var p positioned
	if errors.As(f.Err, &p) {
		pos := p.GetPosition()
		d.Line, d.Column = max(pos.Line, 1), max(pos.Column, 1)
		d.Message = strings.TrimPrefix(d.Message, pos.String()+": ")
		d.Length = tokenLength(f.Content, pos.Offset)
	}
	return []Diagnostic{d}
}

// tokenLength returns the length of the identifier or number at offset, or
// 1 for anything else.
func tokenLength(content []byte, offset int) int {
	n := 0
	for i := offset; i >= 0 && i < len(content); i++ {
		c := content[i]
		if c != '_' && c != '.' && (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			break
		}
		n++
	}
	return max(n, 1)
}

// CompletionItem is a type name that may appear in a field declaration.
type CompletionItem struct {
	Label  string
	Detail string
}

// Completions lists scalar types followed by the types declared anywhere in
// the codebase.
func (c *Codebase) Completions() []CompletionItem {
	var items []CompletionItem
	for _, s := range proto.ScalarTypes {
		items = append(items, CompletionItem{Label: string(s), Detail: "scalar"})
	}
	for _, name := range c.TypeNames() {
		detail := "message"
		if decl, _ := c.FindType(name); decl != nil {
			if _, ok := decl.(*proto.Enum); ok {
				detail = "enum"
			}
		}
		items = append(items, CompletionItem{Label: name, Detail: detail})
	}
	return items
}
