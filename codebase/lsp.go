package codebase

import (
	"bytes"
	"net/url"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/dhamidi/protopojo/format"
	"github.com/spf13/afero"
	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	_ "github.com/tliron/commonlog/simple"
)

const lsName = "protopojo"

// LSPServer reports syntax and reduction errors for .proto files, completes
// field types and previews the generated Java on hover.
type LSPServer struct {
	codebase *Codebase
	fs       afero.Fs
	handler  protocol.Handler
	server   *server.Server
	version  string
	log      commonlog.Logger
}

func NewLSPServer(fsys afero.Fs, version string) *LSPServer {
	ls := &LSPServer{
		fs:      fsys,
		version: version,
		log:     commonlog.GetLogger("protopojo.lsp"),
	}

	ls.handler = protocol.Handler{
		Initialize:             ls.initialize,
		Initialized:            ls.initialized,
		Shutdown:               ls.shutdown,
		SetTrace:               ls.setTrace,
		TextDocumentDidOpen:    ls.textDocumentDidOpen,
		TextDocumentDidChange:  ls.textDocumentDidChange,
		TextDocumentDidClose:   ls.textDocumentDidClose,
		TextDocumentDidSave:    ls.textDocumentDidSave,
		TextDocumentCompletion: ls.textDocumentCompletion,
		TextDocumentHover:      ls.textDocumentHover,
	}

	ls.server = server.NewServer(&ls.handler, lsName, false)

	return ls
}

func (ls *LSPServer) RunStdio() error {
	return ls.server.RunStdio()
}

func (ls *LSPServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	rootDir := "."
	if params.RootPath != nil && *params.RootPath != "" {
		rootDir = *params.RootPath
	} else if params.RootURI != nil && *params.RootURI != "" {
		if path, err := uriToPath(*params.RootURI); err == nil {
			rootDir = path
		}
	}

	ls.codebase = New(ls.fs, rootDir)

	capabilities := ls.handler.CreateServerCapabilities()

	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    syncKindPtr(protocol.TextDocumentSyncKindFull),
		Save: &protocol.SaveOptions{
			IncludeText: boolPtr(true),
		},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &ls.version,
		},
	}, nil
}

func (ls *LSPServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	if err := ls.codebase.ScanAll(); err != nil {
		ls.log.Warningf("scan %s: %s", ls.codebase.RootDir(), err)
	}
	for _, f := range ls.codebase.Errors() {
		ls.publish(ctx, f)
	}
	return nil
}

func (ls *LSPServer) shutdown(ctx *glsp.Context) error {
	return nil
}

func (ls *LSPServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (ls *LSPServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	ls.publish(ctx, ls.codebase.UpdateFile(path, []byte(params.TextDocument.Text)))
	return nil
}

func (ls *LSPServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	if len(params.ContentChanges) > 0 {
		change := params.ContentChanges[len(params.ContentChanges)-1]
		if textChange, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
			ls.publish(ctx, ls.codebase.UpdateFile(path, []byte(textChange.Text)))
		}
	}
	return nil
}

func (ls *LSPServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	return nil
}

func (ls *LSPServer) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	if params.Text != nil {
		ls.publish(ctx, ls.codebase.UpdateFile(path, []byte(*params.Text)))
		return nil
	}
	if err := ls.codebase.ScanFile(path); err != nil {
		ls.log.Errorf("rescan %s: %s", path, err)
		return nil
	}
	ls.publish(ctx, ls.codebase.GetFile(path))
	return nil
}

func (ls *LSPServer) publish(ctx *glsp.Context, f *FileInfo) {
	if f == nil {
		return
	}
	ls.log.Debugf("publishing diagnostics for %s", f.Path)
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         pathToURI(f.Path),
		Diagnostics: toProtocolDiagnostics(f),
	})
}

func (ls *LSPServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	var items []protocol.CompletionItem
	for _, c := range ls.codebase.Completions() {
		kind := toProtocolKind(c.Detail)
		detail := c.Detail
		items = append(items, protocol.CompletionItem{
			Label:  c.Label,
			Kind:   &kind,
			Detail: &detail,
		})
	}
	return items, nil
}

func (ls *LSPServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil, nil
	}
	file := ls.codebase.GetFile(path)
	if file == nil {
		return nil, nil
	}

	word := wordAt(file.Content, int(params.Position.Line), int(params.Position.Character))
	if word == "" {
		return nil, nil
	}
	return ls.codebase.hover(word), nil
}

// hover previews the Java rendered for the type called name.
func (c *Codebase) hover(name string) *protocol.Hover {
	decl, pkg := c.FindType(name)
	if decl == nil {
		return nil
	}
	var buf bytes.Buffer
	if err := format.NewJavaEncoder(&buf, format.WithJavaPackage(pkg)).Encode(decl); err != nil {
		return nil
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: "```java\n" + buf.String() + "```",
		},
	}
}

func toProtocolDiagnostics(f *FileInfo) []protocol.Diagnostic {
	out := []protocol.Diagnostic{}
	source := lsName
	severity := protocol.DiagnosticSeverityError
	for _, d := range f.Diagnostics() {
		line := uint32(d.Line - 1)
		start := utf16Column(f.Content, d.Line, d.Column)
		end := utf16Column(f.Content, d.Line, d.Column+d.Length)
		out = append(out, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: line, Character: start},
				End:   protocol.Position{Line: line, Character: end},
			},
			Severity: &severity,
			Source:   &source,
			Message:  d.Message,
		})
	}
	return out
}

func lineAt(content []byte, line int) string {
	lines := strings.Split(string(content), "\n")
	if line < 0 || line >= len(lines) {
		return ""
	}
	return strings.TrimSuffix(lines[line], "\r")
}

// utf16Column converts a 1-based byte column on a 1-based line into the
// 0-based UTF-16 offset editors expect.
func utf16Column(content []byte, line, column int) uint32 {
	text := lineAt(content, line-1)
	n := min(max(column-1, 0), len(text))
	var units uint32
	for _, r := range text[:n] {
		if r >= 0x10000 {
			units += 2
		} else {
			units++
		}
	}
	return units
}

// wordAt returns the dotted identifier under a 0-based line and UTF-16
// character position, with any leading package qualifier removed.
func wordAt(content []byte, line, character int) string {
	text := lineAt(content, line)

	offset, units := 0, 0
	for offset < len(text) && units < character {
		r, size := utf8.DecodeRuneInString(text[offset:])
		offset += size
		units++
		if r >= 0x10000 {
			units++
		}
	}

	start, end := offset, offset
	for start > 0 && isWordByte(text[start-1]) {
		start--
	}
	for end < len(text) && isWordByte(text[end]) {
		end++
	}
	word := strings.Trim(text[start:end], ".")
	if i := strings.LastIndexByte(word, '.'); i >= 0 {
		word = word[i+1:]
	}
	return word
}

func isWordByte(c byte) bool {
	return c == '_' || c == '.' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

func toProtocolKind(detail string) protocol.CompletionItemKind {
	switch detail {
	case "scalar":
		return protocol.CompletionItemKindKeyword
	case "enum":
		return protocol.CompletionItemKindEnum
	default:
		return protocol.CompletionItemKindClass
	}
}

func uriToPath(uri string) (string, error) {
	if strings.HasPrefix(uri, "file://") {
		parsed, err := url.Parse(uri)
		if err != nil {
			return "", err
		}
		return filepath.Clean(parsed.Path), nil
	}
	return uri, nil
}

func pathToURI(path string) string {
	if !filepath.IsAbs(path) {
		return path
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

func boolPtr(b bool) *bool {
	return &b
}

func syncKindPtr(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
