// Package watch turns file system notifications into events.
//
// A Watcher observes a directory with fsnotify and hands FileCreated,
// FileWritten, FileRemoved and FileRenamed events to a Sink, typically a
// dispatcher's Dispatch method.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/eventcore/internal/event"
)

// Errors returned by the watcher.
var (
	ErrWatcherClosed = errors.New("watcher is closed")
	ErrPathNotExist  = errors.New("path does not exist")
	ErrNotDirectory  = errors.New("path is not a directory")
)

// Sink receives the events produced by a Watcher.
type Sink func(ctx context.Context, e event.Event) error

// ErrorHandler is called with watcher and sink errors. Run keeps going
// after reporting them.
type ErrorHandler func(err error)

// Option configures a Watcher.
type Option func(*Watcher)

// WithRecursive watches subdirectories, including ones created later.
func WithRecursive(recursive bool) Option {
	return func(w *Watcher) { w.recursive = recursive }
}

// WithIgnorePatterns skips paths matching any of patterns.
func WithIgnorePatterns(patterns ...string) Option {
	return func(w *Watcher) { w.patterns = append(w.patterns, patterns...) }
}

// WithErrorHandler sets the handler for non-fatal errors.
func WithErrorHandler(h ErrorHandler) Option {
	return func(w *Watcher) { w.onError = h }
}

// Stats holds watcher statistics.
type Stats struct {
	WatchedPaths int
	Events       int64
	SinkErrors   int64
	Errors       int64
}

// Watcher publishes file events for a directory tree.
type Watcher struct {
	root      string
	recursive bool
	patterns  []string
	onError   ErrorHandler

	fsw    *fsnotify.Watcher
	ignore *ignoreSet

	mu     sync.Mutex
	paths  map[string]bool
	closed bool

	events     atomic.Int64
	sinkErrors atomic.Int64
	failures   atomic.Int64
}

// New creates a watcher for dir. Nothing is observed until Run is called.
func New(dir string, opts ...Option) (*Watcher, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrPathNotExist, dir)
		}
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}

	w := &Watcher{
		root:  root,
		paths: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(w)
	}

	if w.ignore, err = newIgnoreSet(root, w.patterns); err != nil {
		return nil, fmt.Errorf("ignore patterns: %w", err)
	}

	if w.fsw, err = fsnotify.NewWatcher(); err != nil {
		return nil, err
	}
	if err := w.add(root); err != nil {
		_ = w.fsw.Close()
		return nil, err
	}
	return w, nil
}

// Root returns the absolute path of the watched directory.
func (w *Watcher) Root() string {
	return w.root
}

// Run delivers events to sink until ctx is done or Close is called.
// Sink errors are reported to the error handler and do not stop Run.
func (w *Watcher) Run(ctx context.Context, sink Sink) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case fsEvent, ok := <-w.fsw.Events:
			if !ok {
				return ErrWatcherClosed
			}
			w.handle(ctx, fsEvent, sink)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return ErrWatcherClosed
			}
			w.report(err)
		}
	}
}

// Close stops the watcher. Run returns ErrWatcherClosed afterwards.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()
	return w.fsw.Close()
}

// Stats returns watcher statistics.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	n := len(w.paths)
	w.mu.Unlock()

	return Stats{
		WatchedPaths: n,
		Events:       w.events.Load(),
		SinkErrors:   w.sinkErrors.Load(),
		Errors:       w.failures.Load(),
	}
}

// add watches dir, and its subdirectories when recursive.
func (w *Watcher) add(dir string) error {
	if !w.recursive {
		return w.watch(dir)
	}
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return err
			}
			return nil // Skip unreadable entries, continue walking
		}
		if !d.IsDir() {
			return nil
		}
		if p != w.root && w.ignore.match(p, true) {
			return filepath.SkipDir
		}
		if err := w.watch(p); err != nil {
			if p == dir {
				return err
			}
			w.report(err)
		}
		return nil
	})
}

func (w *Watcher) watch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if w.paths[path] {
		return nil
	}
	if err := w.fsw.Add(path); err != nil {
		return err
	}
	w.paths[path] = true
	return nil
}

func (w *Watcher) forget(path string) {
	w.mu.Lock()
	delete(w.paths, path)
	w.mu.Unlock()
}

// handle converts an fsnotify event and hands the results to sink.
func (w *Watcher) handle(ctx context.Context, fsEvent fsnotify.Event, sink Sink) {
	isDir := false
	if fsEvent.Has(fsnotify.Create) {
		if info, err := os.Lstat(fsEvent.Name); err == nil && info.IsDir() {
			isDir = true
		}
	}
	if w.ignore.match(fsEvent.Name, isDir) {
		return
	}

	// New directories are watched before their own events are delivered,
	// so files created right after are not missed.
	if isDir && w.recursive {
		if err := w.add(fsEvent.Name); err != nil {
			w.report(err)
		}
	}
	if fsEvent.Has(fsnotify.Remove) || fsEvent.Has(fsnotify.Rename) {
		w.forget(fsEvent.Name)
	}

	for _, e := range convert(fsEvent, isDir) {
		w.events.Add(1)
		if err := sink(ctx, e); err != nil {
			w.sinkErrors.Add(1)
			w.report(fmt.Errorf("%T %s: %w", e, fsEvent.Name, err))
		}
	}
}

// convert maps an fsnotify event to file events. Combined operations
// produce one event each, in create, write, remove, rename order. Chmod
// is not reported.
func convert(fsEvent fsnotify.Event, isDir bool) []event.Event {
	var out []event.Event
	if fsEvent.Has(fsnotify.Create) {
		out = append(out, FileCreated{Metadata: event.NewMetadata(Source), Path: fsEvent.Name, IsDir: isDir})
	}
	if fsEvent.Has(fsnotify.Write) {
		out = append(out, FileWritten{Metadata: event.NewMetadata(Source), Path: fsEvent.Name})
	}
	if fsEvent.Has(fsnotify.Remove) {
		out = append(out, FileRemoved{Metadata: event.NewMetadata(Source), Path: fsEvent.Name})
	}
	if fsEvent.Has(fsnotify.Rename) {
		out = append(out, FileRenamed{Metadata: event.NewMetadata(Source), Path: fsEvent.Name})
	}
	return out
}

func (w *Watcher) report(err error) {
	w.failures.Add(1)
	if w.onError != nil {
		w.onError(err)
	}
}
