package main

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dhamidi/protopojo/project"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const orderProto = `syntax = "proto3";
package shop;

message Order {
  int64 id = 1;
  Status status = 2;
}

enum Status {
  STATUS_UNKNOWN = 0;
}
`

type testApp struct {
	*app
	out *bytes.Buffer
	err *bytes.Buffer
}

func newTestApp(t *testing.T, files map[string]string) *testApp {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, "/work/"+path, []byte(content), 0o644))
	}
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return &testApp{
		app: &app{fs: fs, root: "/work", stdout: out, stderr: errOut},
		out: out,
		err: errOut,
	}
}

func (a *testApp) run(args ...string) error {
	a.out.Reset()
	a.err.Reset()
	cmd := a.rootCmd()
	cmd.SetArgs(args)
	return cmd.Execute()
}

func TestGenerateAndCheck(t *testing.T) {
	a := newTestApp(t, map[string]string{"proto/order.proto": orderProto})

	require.NoError(t, a.run("generate"))
	assert.Equal(t, "wrote shop/Order.java\nwrote shop/Status.java\n", a.out.String())

	exists, err := afero.Exists(a.fs, "/work/build/generated/java/shop/Order.java")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, a.run("generate"))
	assert.Empty(t, a.out.String())

	require.NoError(t, a.run("check"))
	assert.Empty(t, a.out.String())

	require.NoError(t, afero.WriteFile(a.fs, "/work/build/generated/java/shop/Order.java", []byte("stale\n"), 0o644))
	err = a.run("check")
	require.ErrorIs(t, err, errOutOfDate)
	assert.Contains(t, a.out.String(), "--- a/shop/Order.java")
	assert.Contains(t, a.out.String(), "-stale")
}

func TestGenerate_Flags(t *testing.T) {
	a := newTestApp(t, map[string]string{"order.proto": orderProto})

	require.NoError(t, a.run("generate", "--out", "gen", "--java-package", "com.acme", "order.proto"))
	assert.Equal(t, "wrote com/acme/Order.java\nwrote com/acme/Status.java\n", a.out.String())

	data, err := afero.ReadFile(a.fs, "/work/gen/com/acme/Order.java")
	require.NoError(t, err)
	assert.Contains(t, string(data), "package com.acme;")
}

func TestGenerate_SyntaxError(t *testing.T) {
	a := newTestApp(t, map[string]string{"bad.proto": "syntax = \"proto3\";\nmessage {\n"})

	err := a.run("generate")
	require.Error(t, err)

	a.reportError(err)
	assert.Contains(t, a.err.String(), "2 | message {")
}

func TestInit(t *testing.T) {
	a := newTestApp(t, nil)

	require.NoError(t, a.run("init", "--setters", "--java-package", "com.acme"))
	assert.Equal(t, "wrote /work/protopojo.yaml\n", a.out.String())

	data, err := afero.ReadFile(a.fs, "/work/protopojo.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(data), "package: com.acme")
	assert.Contains(t, string(data), "setters: true")

	err = a.run("init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	require.NoError(t, a.run("init", "--force"))
}

func TestDump(t *testing.T) {
	a := newTestApp(t, map[string]string{"order.proto": orderProto})

	require.NoError(t, a.run("dump", "order.proto"))
	assert.Equal(t, `package	shop
message	Order
field	Order	id	1	int64	-
field	Order	status	2	Status	-
enum	Status
value	Status	STATUS_UNKNOWN	0
`, a.out.String())

	require.NoError(t, a.run("dump", "--format", "java", "order.proto"))
	assert.Contains(t, a.out.String(), "// shop/Order.java\n")
	assert.Contains(t, a.out.String(), "public enum Status {")

	require.Error(t, a.run("dump", "--format", "xml", "order.proto"))
}

func TestParse(t *testing.T) {
	a := newTestApp(t, map[string]string{"order.proto": orderProto})

	require.NoError(t, a.run("parse", "order.proto"))
	assert.Contains(t, a.out.String(), "Proto")

	require.NoError(t, a.run("parse", "--format", "json", "order.proto"))
	assert.Contains(t, a.out.String(), `"kind": "Proto"`)
}

func TestGrammar(t *testing.T) {
	a := newTestApp(t, map[string]string{
		"ok.ebnf":  "Start = \"a\" B .\nB = \"b\" .\n",
		"bad.ebnf": "Start = Missing .\n",
	})

	require.NoError(t, a.run("grammar"))
	assert.Contains(t, a.out.String(), "Proto =")

	require.NoError(t, a.run("grammar", "--verify"))
	assert.Contains(t, a.out.String(), "ok: ")

	require.NoError(t, a.run("grammar", "--verify", "--start", "Start", "ok.ebnf"))
	assert.Equal(t, "ok: 2 productions\n", a.out.String())

	require.Error(t, a.run("grammar", "--start", "Start", "bad.ebnf"))
	assert.Contains(t, a.err.String(), "Missing")
}

// syncBuffer is written by the watcher goroutine and read by the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatch_FirstChangeInEmptyProject(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/work", 0o755))
	out, errOut := &syncBuffer{}, &syncBuffer{}
	a := &app{fs: fs, root: "/work", stdout: out, stderr: errOut}

	p, err := project.Load(fs, "/work")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- a.watch(ctx, p, nil, 10*time.Millisecond)
	}()

	require.Eventually(t, func() bool {
		return errOut.String() != ""
	}, 5*time.Second, 5*time.Millisecond, "watcher did not start")

	require.NoError(t, afero.WriteFile(fs, "/work/a.proto", []byte("message A {}\n"), 0o644))
	require.Eventually(t, func() bool {
		ok, _ := afero.Exists(fs, "/work/build/generated/java/A.java")
		return ok
	}, 5*time.Second, 10*time.Millisecond, "first change was not generated")
	assert.Eventually(t, func() bool {
		return out.String() == "wrote A.java\n"
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
