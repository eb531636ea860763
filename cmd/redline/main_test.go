package main_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	main "github.com/fwojciec/redline/cmd/redline"
	"github.com/fwojciec/redline/engine"
	"github.com/fwojciec/redline/godiff"
	"github.com/fwojciec/redline/memory"
	"github.com/fwojciec/redline/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const patchTemplate = `diff --git a/main.go b/main.go
index 1111111..2222222 100644
--- a/main.go
+++ b/main.go
@@ -1,3 +1,3 @@
 a
-b
+X
 c
`

// newApp builds an App over a temp working tree with injected engine and
// buffer so the test's viewer can drive resolutions.
func newApp(t *testing.T) (*main.App, *engine.Engine, string) {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("a\nb\nc\n"), 0o644))

	cfgPath := filepath.Join(dir, "config.toml")
	journal := filepath.Join(dir, "decisions.jsonl")
	require.NoError(t, os.WriteFile(cfgPath, []byte("journal_path = '"+journal+"'\n"), 0o644))

	buf := memory.NewBuffer()
	eng := engine.New(buf, godiff.New(),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	buf.OnChange(eng.Realign)

	app := &main.App{
		ConfigPath: cfgPath,
		Stdout:     &bytes.Buffer{},
		Stderr:     &bytes.Buffer{},
		Buffer:     buf,
		Engine:     eng,
		Log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return app, eng, dir
}

func TestApp_Run_PatchAcceptAll(t *testing.T) {
	app, eng, dir := newApp(t)
	app.Input = strings.NewReader(patchTemplate)
	app.Viewer = &mock.Viewer{
		ReviewFn: func(_ context.Context, uri string) error {
			res, err := eng.AcceptFile(uri)
			require.NoError(t, err)
			require.True(t, res.Ok())
			return nil
		},
	}

	require.NoError(t, app.Run(context.Background()))

	content, err := os.ReadFile(filepath.Join(dir, "main.go"))
	require.NoError(t, err)
	assert.Equal(t, "a\nX\nc\n", string(content))
	assert.Contains(t, app.Stdout.(*bytes.Buffer).String(), "main.go: saved")
}

func TestApp_Run_PatchRejectAll(t *testing.T) {
	app, eng, dir := newApp(t)
	app.Input = strings.NewReader(patchTemplate)
	app.Viewer = &mock.Viewer{
		ReviewFn: func(_ context.Context, uri string) error {
			_, err := eng.RejectFile(uri)
			return err
		},
	}

	require.NoError(t, app.Run(context.Background()))

	content, err := os.ReadFile(filepath.Join(dir, "main.go"))
	require.NoError(t, err)
	assert.Equal(t, "a\nb\nc\n", string(content))
}

func TestApp_Run_ReadsPatchFromFile(t *testing.T) {
	app, eng, dir := newApp(t)
	patchPath := filepath.Join(dir, "change.patch")
	require.NoError(t, os.WriteFile(patchPath, []byte(patchTemplate), 0o644))
	app.PatchPath = patchPath
	app.Viewer = &mock.Viewer{
		ReviewFn: func(_ context.Context, uri string) error {
			_, err := eng.AcceptFile(uri)
			return err
		},
	}

	require.NoError(t, app.Run(context.Background()))

	content, err := os.ReadFile(filepath.Join(dir, "main.go"))
	require.NoError(t, err)
	assert.Equal(t, "a\nX\nc\n", string(content))
}

func TestApp_Run_EmptyPatch(t *testing.T) {
	app, _, _ := newApp(t)
	app.Input = strings.NewReader("")
	app.Viewer = &mock.Viewer{
		ReviewFn: func(context.Context, string) error {
			t.Error("viewer should not run with nothing to review")
			return nil
		},
	}

	err := app.Run(context.Background())
	assert.ErrorIs(t, err, main.ErrNoChanges)
}

func TestApp_Run_MissingPatchFile(t *testing.T) {
	app, _, _ := newApp(t)
	app.PatchPath = "/nonexistent/change.patch"
	app.Viewer = &mock.Viewer{ReviewFn: func(context.Context, string) error { return nil }}

	err := app.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such file")
}

func TestApp_Run_NothingRequested(t *testing.T) {
	app, _, _ := newApp(t)
	app.Viewer = &mock.Viewer{ReviewFn: func(context.Context, string) error { return nil }}

	err := app.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "-patch or -m")
}

func TestApp_Run_ProposeStreamsRewrite(t *testing.T) {
	app, eng, dir := newApp(t)
	app.Instruction = "capitalize the middle line"
	app.Paths = []string{filepath.Join(dir, "main.go")}
	app.Proposer = &mock.Proposer{
		ProposeFn: func(_ context.Context, _, content, instruction string, fn func(string) error) error {
			assert.Equal(t, "a\nb\nc\n", content)
			assert.Equal(t, "capitalize the middle line", instruction)
			// Stream in two chunks, prefix first.
			if err := fn("a\nX\n"); err != nil {
				return err
			}
			return fn("a\nX\nc\n")
		},
	}
	app.Viewer = &mock.Viewer{
		ReviewFn: func(_ context.Context, uri string) error {
			_, err := eng.AcceptFile(uri)
			return err
		},
	}

	require.NoError(t, app.Run(context.Background()))

	content, err := os.ReadFile(filepath.Join(dir, "main.go"))
	require.NoError(t, err)
	assert.Equal(t, "a\nX\nc\n", string(content))
}

func TestApp_Run_ProposerFailureAbandons(t *testing.T) {
	app, eng, dir := newApp(t)
	app.Instruction = "do something"
	path := filepath.Join(dir, "main.go")
	app.Paths = []string{path}
	app.Proposer = &mock.Proposer{
		ProposeFn: func(_ context.Context, _, _, _ string, fn func(string) error) error {
			if err := fn("a\nX\n"); err != nil {
				return err
			}
			return errors.New("model unavailable")
		},
	}
	app.Viewer = &mock.Viewer{
		ReviewFn: func(context.Context, string) error {
			t.Error("viewer should not run after a failed proposal")
			return nil
		},
	}

	err := app.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model unavailable")

	// The partial stream was rolled back.
	assert.Zero(t, eng.DiffCount(path))
	text, rerr := app.Buffer.Read(path)
	require.NoError(t, rerr)
	assert.Equal(t, "a\nb\nc\n", text)
}

func TestApp_Run_ViewerErrorPropagates(t *testing.T) {
	app, _, _ := newApp(t)
	app.Input = strings.NewReader(patchTemplate)
	app.Viewer = &mock.Viewer{
		ReviewFn: func(context.Context, string) error {
			return errors.New("terminal gone")
		},
	}

	err := app.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "terminal gone")
}
