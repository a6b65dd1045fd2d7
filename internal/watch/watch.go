// Package watch turns filesystem notifications about the binding sources
// into reload requests.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

type Kind int

const (
	// KindUserKeybindings is a change to the user's keybindings file.
	KindUserKeybindings Kind = iota
	// KindExtensions is an extension being installed, removed or updated.
	KindExtensions
)

func (k Kind) String() string {
	if k == KindExtensions {
		return "extensions"
	}
	return "user_keybindings"
}

type Change struct {
	Kind Kind
	Path string
}

// Watcher reports changes to the user keybindings file and to the top level
// of the extensions directory. Either path may be empty.
type Watcher struct {
	UserFile      string
	ExtensionsDir string
	Log           *zap.Logger
}

// Run watches until ctx is done, calling onChange from its own goroutine
// for every relevant event.
func (w *Watcher) Run(ctx context.Context, onChange func(Change)) error {
	log := w.Log
	if log == nil {
		log = zap.NewNop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	// The file itself is replaced on save by many editors, so its directory
	// is watched and events are filtered by name.
	var userDir string
	if w.UserFile != "" {
		userDir = filepath.Dir(w.UserFile)
		if err := fw.Add(userDir); err != nil {
			log.Warn("cannot watch keybindings directory", zap.String("path", userDir), zap.Error(err))
		}
	}
	extDir := filepath.Clean(w.ExtensionsDir)
	if w.ExtensionsDir != "" {
		if err := fw.Add(extDir); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("watch %s: %w", extDir, err)
			}
			log.Warn("extensions directory missing", zap.String("path", extDir))
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			switch {
			case w.UserFile != "" && filepath.Clean(ev.Name) == filepath.Clean(w.UserFile):
				log.Debug("keybindings file changed", zap.String("op", ev.Op.String()))
				onChange(Change{Kind: KindUserKeybindings, Path: ev.Name})
			case w.ExtensionsDir != "" && filepath.Dir(ev.Name) == extDir:
				log.Debug("extensions changed", zap.String("path", ev.Name), zap.String("op", ev.Op.String()))
				onChange(Change{Kind: KindExtensions, Path: ev.Name})
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", zap.Error(err))
		}
	}
}

// Debouncer calls fn once after calls to Trigger have stopped for delay.
type Debouncer struct {
	delay time.Duration
	fn    func()

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

func NewDebouncer(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fn)
}

// Stop drops a pending call. Later triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}

// Requests coalesces reload requests: any number of Notify calls made while
// a reload is pending collapse into one.
type Requests struct {
	ch chan struct{}
}

func NewRequests() *Requests {
	return &Requests{ch: make(chan struct{}, 1)}
}

func (r *Requests) Notify() {
	select {
	case r.ch <- struct{}{}:
	default:
	}
}

// Serve runs reload once per pending request until ctx is done. Reload
// errors are passed to onError and do not stop the loop.
func (r *Requests) Serve(ctx context.Context, reload func(context.Context) error, onError func(error)) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-r.ch:
			if err := reload(ctx); err != nil && onError != nil {
				onError(err)
			}
		}
	}
}
