package main

import (
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 300 * time.Millisecond

// Watcher is a Vault that reports changes through fsnotify. Writes are
// coalesced into a single resolved notification. Removals and renames are
// held for the same delay and reported per document only if the file is
// still gone, so editors that save by rename do not drop the document.
type Watcher struct {
	*Vault

	watcher   *fsnotify.Watcher
	debouncer *Debouncer
	removals  *Debouncer
	logger    *log.Logger

	mu       sync.Mutex
	nextID   int
	resolved map[int]func()
	deleted  map[int]func(string)
	pending  map[string]struct{}

	done chan struct{}
	wg   sync.WaitGroup
}

// NewWatcher creates a new file watcher for the vault and starts listening
func NewWatcher(vault *Vault, delay time.Duration, logger *log.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		Vault:    vault,
		watcher:  fw,
		logger:   logger,
		resolved: make(map[int]func()),
		deleted:  make(map[int]func(string)),
		pending:  make(map[string]struct{}),
		done:     make(chan struct{}),
	}
	w.debouncer = NewDebouncer(delay, w.emitResolved)
	w.removals = NewDebouncer(delay, w.flushRemovals)

	w.addTree(vault.Root())

	w.wg.Add(1)
	go w.loop()

	return w, nil
}

// addTree watches dir and its non-hidden subdirectories
func (w *Watcher) addTree(dir string) {
	filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != w.Root() {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("cannot watch directory", "path", path, "err", err)
		}
		return nil
	})
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "err", err)

		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	removed := event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)

	if !isMarkdown(event.Name) {
		if event.Has(fsnotify.Create) {
			w.addTree(event.Name)
		}
		// A removed directory takes its documents with it; the next
		// refresh drops them from the index
		if removed || event.Has(fsnotify.Create) {
			w.debouncer.Trigger()
		}
		return
	}

	if removed {
		w.mu.Lock()
		w.pending[w.rel(event.Name)] = struct{}{}
		w.mu.Unlock()
		w.removals.Trigger()
		return
	}

	w.debouncer.Trigger()
}

// flushRemovals reports pending removals whose file is really gone. A path
// that exists again was replaced, so it is refreshed instead.
func (w *Watcher) flushRemovals() {
	w.mu.Lock()
	paths := slices.Sorted(maps.Keys(w.pending))
	clear(w.pending)
	w.mu.Unlock()

	replaced := false
	for _, path := range paths {
		if _, err := os.Stat(w.abs(path)); err == nil {
			w.logger.Debug("document replaced", "path", path)
			replaced = true
			continue
		}
		w.emitDeleted(path)
	}

	if replaced {
		w.debouncer.Trigger()
	}
}

// OnResolved registers fn for coalesced change notifications
func (w *Watcher) OnResolved(fn func()) func() {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.nextID
	w.nextID++
	w.resolved[id] = fn

	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.resolved, id)
	}
}

// OnDeleted registers fn for document removals
func (w *Watcher) OnDeleted(fn func(path string)) func() {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.nextID
	w.nextID++
	w.deleted[id] = fn

	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.deleted, id)
	}
}

func (w *Watcher) emitResolved() {
	w.mu.Lock()
	handlers := make([]func(), 0, len(w.resolved))
	for _, fn := range w.resolved {
		handlers = append(handlers, fn)
	}
	w.mu.Unlock()

	for _, fn := range handlers {
		fn()
	}
}

func (w *Watcher) emitDeleted(path string) {
	w.mu.Lock()
	handlers := make([]func(string), 0, len(w.deleted))
	for _, fn := range w.deleted {
		handlers = append(handlers, fn)
	}
	w.mu.Unlock()

	for _, fn := range handlers {
		fn(path)
	}
}

// Close stops the watcher
func (w *Watcher) Close() error {
	w.debouncer.Stop()
	w.removals.Stop()
	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

// Debouncer coalesces rapid triggers into a single call of fn
type Debouncer struct {
	mu       sync.Mutex
	timer    *time.Timer
	duration time.Duration
	fn       func()
	stopped  bool
}

// NewDebouncer creates a new debouncer with the given delay duration
func NewDebouncer(d time.Duration, fn func()) *Debouncer {
	return &Debouncer{duration: d, fn: fn}
}

// Trigger starts or resets the debounce timer
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.duration, d.fn)
}

// Stop cancels a pending call and ignores later triggers
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}
