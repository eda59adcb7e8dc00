// Package watch re-runs a handler whenever a deck list file changes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

const (
	DefaultDebounce     = 250 * time.Millisecond
	DefaultPollInterval = 2 * time.Second
)

// Handler receives the file contents after each change.
type Handler func(ctx context.Context, content string) error

// Options configures a Watcher.
type Options struct {
	// Debounce collapses bursts of events (editors often write a file in
	// several steps) into one handler call.
	Debounce time.Duration

	// PollInterval is the backup stat polling interval in case file events
	// are missed. Zero disables polling.
	PollInterval time.Duration

	Logger *log.Logger
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		Debounce:     DefaultDebounce,
		PollInterval: DefaultPollInterval,
	}
}

// Watcher calls a handler with the contents of a file once at start and
// again whenever the contents change.
type Watcher struct {
	path         string
	handler      Handler
	debounce     time.Duration
	pollInterval time.Duration
	logger       *log.Logger

	stopChan chan struct{}
	stopOnce sync.Once

	last    string
	hasLast bool
	modTime time.Time
	size    int64
}

// New creates a watcher for the file at path.
func New(path string, handler Handler, opts Options) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	return &Watcher{
		path:         abs,
		handler:      handler,
		debounce:     debounce,
		pollInterval: opts.PollInterval,
		logger:       logger,
		stopChan:     make(chan struct{}),
	}, nil
}

// Path returns the absolute path of the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// Run handles the current contents and then blocks, handling every change,
// until ctx is done or Stop is called.
func (w *Watcher) Run(ctx context.Context) (err error) {
	if _, statErr := os.Stat(w.path); statErr != nil {
		return fmt.Errorf("failed to watch %s: %w", w.path, statErr)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() {
		if closeErr := watcher.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	// Editors commonly save by renaming a temp file over the original, which
	// drops a watch on the file itself. Watching the directory survives that.
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch directory of %s: %w", w.path, err)
	}

	w.reload(ctx)

	debounce := time.NewTimer(w.debounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	var poll <-chan time.Time
	if w.pollInterval > 0 {
		ticker := time.NewTicker(w.pollInterval)
		defer ticker.Stop()
		poll = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopChan:
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				w.logger.Debug("deck list changed", "path", w.path, "op", event.Op.String())
				debounce.Reset(w.debounce)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "err", err)
		case <-debounce.C:
			w.reload(ctx)
		case <-poll:
			if w.statChanged() {
				w.reload(ctx)
			}
		}
	}
}

// Stop stops a running watcher.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stopChan) })
}

func (w *Watcher) statChanged() bool {
	info, err := os.Stat(w.path)
	if err != nil {
		return false
	}
	return !info.ModTime().Equal(w.modTime) || info.Size() != w.size
}

// reload calls the handler when the contents differ from the last call.
func (w *Watcher) reload(ctx context.Context) {
	info, err := os.Stat(w.path)
	if err != nil {
		w.logger.Debug("deck list unavailable", "path", w.path, "err", err)
		return
	}
	data, err := os.ReadFile(w.path)
	if err != nil {
		w.logger.Debug("deck list unreadable", "path", w.path, "err", err)
		return
	}
	w.modTime = info.ModTime()
	w.size = info.Size()

	content := string(data)
	if w.hasLast && content == w.last {
		return
	}
	w.last = content
	w.hasLast = true

	if err := w.handler(ctx, content); err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		w.logger.Warn("deck list handler failed", "path", w.path, "err", err)
	}
}
