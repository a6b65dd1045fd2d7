package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	mu      sync.Mutex
	changes []Change
}

func (r *recorder) add(c Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
}

func (r *recorder) has(k Kind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.changes {
		if c.Kind == k {
			return true
		}
	}
	return false
}

func TestWatcherReportsChanges(t *testing.T) {
	root := t.TempDir()
	userDir := filepath.Join(root, "User")
	extDir := filepath.Join(root, "extensions")
	require.NoError(t, os.MkdirAll(userDir, 0o755))
	require.NoError(t, os.MkdirAll(extDir, 0o755))
	userFile := filepath.Join(userDir, "keybindings.json")

	w := &Watcher{UserFile: userFile, ExtensionsDir: extDir, Log: zaptest.NewLogger(t)}
	rec := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, rec.add) }()

	require.Eventually(t, func() bool {
		_ = os.WriteFile(filepath.Join(userDir, "settings.json"), []byte("{}"), 0o644)
		_ = os.WriteFile(userFile, []byte("[]"), 0o644)
		return rec.has(KindUserKeybindings)
	}, 5*time.Second, 50*time.Millisecond)

	require.Eventually(t, func() bool {
		_ = os.MkdirAll(filepath.Join(extDir, "acme.tools-1.0.0"), 0o755)
		_ = os.WriteFile(filepath.Join(extDir, "extensions.json"), []byte("[]"), 0o644)
		return rec.has(KindExtensions)
	}, 5*time.Second, 50*time.Millisecond)

	rec.mu.Lock()
	for _, c := range rec.changes {
		require.NotEqual(t, filepath.Join(userDir, "settings.json"), c.Path)
	}
	rec.mu.Unlock()

	cancel()
	require.NoError(t, <-done)
}

func TestWatcherMissingExtensionsDir(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w := &Watcher{ExtensionsDir: filepath.Join(t.TempDir(), "missing")}
	require.NoError(t, w.Run(ctx, func(Change) {}))
}

func TestDebouncerCollapsesBursts(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(50*time.Millisecond, func() { calls.Add(1) })
	for i := 0; i < 5; i++ {
		d.Trigger()
		time.Sleep(5 * time.Millisecond)
	}
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	require.EqualValues(t, 1, calls.Load())

	d.Trigger()
	d.Stop()
	d.Trigger()
	time.Sleep(100 * time.Millisecond)
	require.EqualValues(t, 1, calls.Load())
}

func TestRequestsCoalesce(t *testing.T) {
	r := NewRequests()
	r.Notify()
	r.Notify()
	r.Notify()

	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	var errs atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- r.Serve(ctx, func(context.Context) error {
			if calls.Add(1) == 2 {
				return errors.New("boom")
			}
			return nil
		}, func(error) { errs.Add(1) })
	}()

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	r.Notify()
	require.Eventually(t, func() bool { return errs.Load() == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	require.EqualValues(t, 2, calls.Load())
}
