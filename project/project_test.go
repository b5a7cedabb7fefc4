package project

import (
	"context"
	"errors"
	"testing"

	"github.com/dhamidi/protopojo/proto"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const root = "/work"

const orderProto = `syntax = "proto3";
package shop;

message Order {
  int64 id = 1;
}
`

const statusProto = `syntax = "proto3";
package shop;

enum Status {
  UNKNOWN = 0;
}
`

func newFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fsys := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fsys, root+"/"+name, []byte(content), 0o644))
	}
	return fsys
}

func readFile(t *testing.T, fsys afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fsys, path)
	require.NoError(t, err)
	return string(data)
}

func TestLoad_DefaultsWithoutConfig(t *testing.T) {
	p, err := Load(newFs(t, nil), root)
	require.NoError(t, err)
	assert.Equal(t, Default(), p.Config)
	assert.Equal(t, "/work/build/generated/java", p.OutDir())
}

func TestLoadConfig(t *testing.T) {
	fsys := newFs(t, map[string]string{
		ConfigFile: "sources:\n  - api/**/*.proto\nout: gen\njava:\n  package: com.example\n  setters: true\n",
	})

	conf, err := LoadConfig(fsys, root+"/"+ConfigFile)
	require.NoError(t, err)
	assert.Equal(t, []string{"api/**/*.proto"}, conf.Sources)
	assert.Equal(t, "gen", conf.Out)
	assert.Equal(t, "com.example", conf.Java.Package)
	assert.True(t, conf.Java.Setters)
	assert.Equal(t, Default().Java.Header, conf.Java.Header, "missing keys keep defaults")
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := map[string]string{
		"unknown key":    "srcs: [a]\n",
		"bad pattern":    "sources: ['a/[b']\n",
		"empty sources":  "sources: []\n",
		"empty out":      "out: ''\n",
		"malformed yaml": "sources: [\n",
		"wrong type":     "java: 3\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			fsys := newFs(t, map[string]string{ConfigFile: content})
			_, err := LoadConfig(fsys, root+"/"+ConfigFile)
			assert.Error(t, err)
		})
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	fsys := afero.NewMemMapFs()
	conf := Default()
	conf.Java.Package = "com.example"
	conf.Java.Setters = true
	require.NoError(t, conf.Save(fsys, "/protopojo.yaml"))

	text := readFile(t, fsys, "/protopojo.yaml")
	assert.Contains(t, text, "sources:\n  - '**/*.proto'\n")

	loaded, err := LoadConfig(fsys, "/protopojo.yaml")
	require.NoError(t, err)
	assert.Equal(t, conf, loaded)
}

func TestDiscover(t *testing.T) {
	fsys := newFs(t, map[string]string{
		"api/order.proto":                "",
		"api/v1/status.proto":            "",
		"api/readme.md":                  "",
		".git/hooks/x.proto":             "",
		"build/generated/java/old.proto": "",
		"top.proto":                      "",
	})
	p := New(fsys, root, Default())

	found, err := p.Discover()
	require.NoError(t, err)
	assert.Equal(t, []string{"api/order.proto", "api/v1/status.proto", "top.proto"}, found)

	p.Config.Sources = []string{"api/*.proto"}
	found, err = p.Discover()
	require.NoError(t, err)
	assert.Equal(t, []string{"api/order.proto"}, found)
}

func TestGenerate(t *testing.T) {
	fsys := newFs(t, map[string]string{
		"order.proto":  orderProto,
		"status.proto": statusProto,
	})
	p := New(fsys, root, Default())
	p.Config.Java.Header = ""

	res, err := p.Generate(context.Background(), []string{"order.proto", "status.proto"})
	require.NoError(t, err)
	assert.Equal(t, []string{"shop/Order.java", "shop/Status.java"}, res.Written)
	assert.Empty(t, res.Unchanged)

	order := readFile(t, fsys, "/work/build/generated/java/shop/Order.java")
	assert.Contains(t, order, "package shop;\n")
	assert.Contains(t, order, "public class Order {")

	res, err = p.Generate(context.Background(), []string{"order.proto", "status.proto"})
	require.NoError(t, err)
	assert.Empty(t, res.Written)
	assert.Equal(t, []string{"shop/Order.java", "shop/Status.java"}, res.Unchanged)
}

func TestGenerate_JavaOptions(t *testing.T) {
	fsys := newFs(t, map[string]string{"order.proto": orderProto})
	p := New(fsys, root, &Config{
		Sources: []string{"*.proto"},
		Out:     "/out",
		Java:    JavaConfig{Package: "com.acme", Setters: true, Header: "hello"},
	})

	res, err := p.Generate(context.Background(), []string{"order.proto"})
	require.NoError(t, err)
	assert.Equal(t, []string{"com/acme/Order.java"}, res.Written)

	order := readFile(t, fsys, "/out/com/acme/Order.java")
	assert.Contains(t, order, "// hello\n\npackage com.acme;\n")
	assert.Contains(t, order, "public void setId(long id) {")
}

func TestRender_FileError(t *testing.T) {
	src := "message M {\n  int32 a = 0;\n}\n"
	fsys := newFs(t, map[string]string{
		"good.proto": orderProto,
		"bad.proto":  src,
	})
	p := New(fsys, root, Default())

	_, err := p.Render(context.Background(), []string{"good.proto", "bad.proto"})
	require.Error(t, err)

	var fileErr *FileError
	require.ErrorAs(t, err, &fileErr)
	assert.Equal(t, "bad.proto", fileErr.Path)
	assert.Equal(t, src, string(fileErr.Source))
	assert.ErrorIs(t, err, proto.ErrInvalidFieldNumber)
	assert.Contains(t, err.Error(), "bad.proto:2:13")
}

func TestRender_MissingSource(t *testing.T) {
	p := New(afero.NewMemMapFs(), root, Default())
	_, err := p.Render(context.Background(), []string{"nope.proto"})
	require.Error(t, err)
	assert.True(t, isNotExist(err))
}

func TestRender_OutputConflict(t *testing.T) {
	fsys := newFs(t, map[string]string{
		"a.proto": orderProto,
		"b.proto": orderProto,
	})
	p := New(fsys, root, Default())

	_, err := p.Render(context.Background(), []string{"a.proto", "b.proto"})
	assert.True(t, errors.Is(err, ErrOutputConflict))
}

func TestCheck(t *testing.T) {
	fsys := newFs(t, map[string]string{
		"order.proto":  orderProto,
		"status.proto": statusProto,
	})
	p := New(fsys, root, Default())
	sources := []string{"order.proto", "status.proto"}

	diffs, err := p.Check(context.Background(), sources)
	require.NoError(t, err)
	require.Len(t, diffs, 2)
	assert.True(t, diffs[0].Missing)
	assert.Contains(t, diffs[0].Unified, "--- /dev/null\n+++ b/shop/Order.java\n")

	_, err = p.Generate(context.Background(), sources)
	require.NoError(t, err)

	diffs, err = p.Check(context.Background(), sources)
	require.NoError(t, err)
	assert.Empty(t, diffs)

	path := "/work/build/generated/java/shop/Order.java"
	edited := readFile(t, fsys, path) + "// local edit\n"
	require.NoError(t, afero.WriteFile(fsys, path, []byte(edited), 0o644))

	diffs, err = p.Check(context.Background(), sources)
	require.NoError(t, err)
	require.Len(t, diffs, 1)
	assert.Equal(t, "shop/Order.java", diffs[0].Path)
	assert.False(t, diffs[0].Missing)
	assert.Contains(t, diffs[0].Unified, "--- a/shop/Order.java\n+++ b/shop/Order.java\n")
	assert.Contains(t, diffs[0].Unified, "-// local edit\n")
}
