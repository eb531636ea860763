package fsnotify_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/redline/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher(t *testing.T) {
	t.Parallel()

	t.Run("rewrite on disk reaches the handler", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "main.go")
		require.NoError(t, os.WriteFile(path, []byte("a\nb\nc\n"), 0o644))

		var mu sync.Mutex
		var got string
		w, err := fsnotify.New(func(p, content string) {
			mu.Lock()
			defer mu.Unlock()
			got = content
		}, slog.New(slog.NewTextHandler(io.Discard, nil)))
		require.NoError(t, err)
		defer w.Close()
		require.NoError(t, w.Add(path))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() { _ = w.Run(ctx) }()

		require.NoError(t, os.WriteFile(path, []byte("a\nX\nc\n"), 0o644))

		require.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return got == "a\nX\nc\n"
		}, 5*time.Second, 10*time.Millisecond)
	})

	t.Run("watching a missing file fails", func(t *testing.T) {
		t.Parallel()
		w, err := fsnotify.New(func(string, string) {}, nil)
		require.NoError(t, err)
		defer w.Close()

		err = w.Add(filepath.Join(t.TempDir(), "missing.go"))
		assert.Error(t, err)
	})

	t.Run("run stops on context cancellation", func(t *testing.T) {
		t.Parallel()
		w, err := fsnotify.New(func(string, string) {}, nil)
		require.NoError(t, err)
		defer w.Close()

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- w.Run(ctx) }()
		cancel()

		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(5 * time.Second):
			t.Fatal("watcher did not stop")
		}
	})
}
