// Package watch re-runs a handler whenever a file changes. It backs the
// "solveplot watch" command, which re-renders the chart each time the solver
// rewrites its output.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
)

// Handler is invoked with the watched path after a change settles.
type Handler func(ctx context.Context, path string) error

// Watcher monitors a single file. Handler calls never overlap.
type Watcher struct {
	path       string
	handler    Handler
	debounce   time.Duration
	initialRun bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets how long the file must stay quiet before the handler runs.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithInitialRun runs the handler once at start when the file exists.
func WithInitialRun(on bool) Option {
	return func(w *Watcher) { w.initialRun = on }
}

// New creates a watcher for path.
func New(path string, handler Handler, opts ...Option) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve watch path: %w", err)
	}
	w := &Watcher{path: absPath, handler: handler, debounce: 300 * time.Millisecond}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run watches until ctx is canceled. Handler errors are logged and watching
// continues.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	// Watch the directory: atomic replacements swap the inode under a file watch.
	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}
	slog.Info("Watching artifact", "path", w.path)

	triggers := make(chan struct{}, 1)
	if w.initialRun {
		if _, err := os.Stat(w.path); err == nil {
			triggers <- struct{}{}
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		return fw.Close()
	})
	g.Go(func() error {
		w.watchLoop(gctx, fw, triggers)
		return nil
	})
	g.Go(func() error {
		w.handleLoop(gctx, triggers)
		return nil
	})
	return g.Wait()
}

func (w *Watcher) watchLoop(ctx context.Context, fw *fsnotify.Watcher, triggers chan<- struct{}) {
	name := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			switch {
			case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
				slog.Debug("Artifact change detected", "file", event.Name, "op", event.Op.String())
				select {
				case triggers <- struct{}{}:
				default: // already pending
				}
			case event.Has(fsnotify.Remove):
				slog.Warn("Artifact removed", "file", event.Name)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			slog.Error("Artifact watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleLoop(ctx context.Context, triggers <-chan struct{}) {
	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-triggers:
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			if err := w.handler(ctx, w.path); err != nil && ctx.Err() == nil {
				slog.Error("Artifact handler failed", "path", w.path, "error", err)
			}
		}
	}
}
