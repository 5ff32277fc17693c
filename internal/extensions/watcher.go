package extensions

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"capstan/pkg/logging"
)

// DefaultDebounceInterval is how long the watcher waits for further changes
// before reporting a batch.
const DefaultDebounceInterval = 500 * time.Millisecond

// ChangeFunc receives the YAML files that changed during one debounce
// window, sorted by path.
type ChangeFunc func(files []string)

// Watcher reports changes to YAML files in a set of directories.
//
// Bursts of events (editors often write a file several times) are collapsed
// into a single callback once the directories have been quiet for the
// debounce interval.
type Watcher struct {
	mu sync.Mutex

	dirs             []string
	debounceInterval time.Duration
	onChange         ChangeFunc

	watcher *fsnotify.Watcher

	// pending holds the files seen since the last callback
	pending map[string]fsnotify.Op
	timer   *time.Timer

	stopCh  chan struct{}
	running bool
}

// NewWatcher creates a watcher over dirs. A zero interval selects
// DefaultDebounceInterval.
func NewWatcher(dirs []string, debounceInterval time.Duration, onChange ChangeFunc) *Watcher {
	if debounceInterval == 0 {
		debounceInterval = DefaultDebounceInterval
	}
	return &Watcher{
		dirs:             dirs,
		debounceInterval: debounceInterval,
		onChange:         onChange,
		pending:          make(map[string]fsnotify.Op),
		stopCh:           make(chan struct{}),
	}
}

// Start begins watching. Directories that do not exist are skipped with a
// warning. Calling Start on a running watcher is a no-op.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}

	w.watcher = watcher
	w.running = true
	w.stopCh = make(chan struct{})

	watched := 0
	for _, dir := range w.dirs {
		if err := watcher.Add(dir); err != nil {
			logging.Warn("ExtensionWatcher", "Failed to watch %s: %v", dir, err)
			continue
		}
		watched++
		logging.Debug("ExtensionWatcher", "Watching directory: %s", dir)
	}
	w.mu.Unlock()

	go w.processEvents(ctx, watcher)

	logging.Info("ExtensionWatcher", "Started watching %d directories for extension changes", watched)
	return nil
}

func (w *Watcher) processEvents(ctx context.Context, watcher *fsnotify.Watcher) {
	w.mu.Lock()
	stopCh := w.stopCh
	w.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			w.cancelPending()
			return

		case <-stopCh:
			w.cancelPending()
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logging.Error("ExtensionWatcher", err, "Filesystem watcher error")
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !isYAMLFile(event.Name) {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	w.pending[event.Name] |= event.Op
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounceInterval, w.flush)
}

// flush hands the pending batch to the callback.
func (w *Watcher) flush() {
	w.mu.Lock()
	if len(w.pending) == 0 || !w.running {
		w.mu.Unlock()
		return
	}
	files := make([]string, 0, len(w.pending))
	for name := range w.pending {
		files = append(files, name)
	}
	w.pending = make(map[string]fsnotify.Op)
	w.timer = nil
	onChange := w.onChange
	w.mu.Unlock()

	sort.Strings(files)
	logging.Info("ExtensionWatcher", "Detected changes in %d extension files", len(files))

	if onChange == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logging.Error("ExtensionWatcher", nil, "Change callback panicked: %v", r)
		}
	}()
	onChange(files)
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.pending = make(map[string]fsnotify.Op)
}

// Stop ends watching and drops any pending batch.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	w.running = false
	close(w.stopCh)

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}

	var err error
	if w.watcher != nil {
		err = w.watcher.Close()
		if err != nil {
			logging.Error("ExtensionWatcher", err, "Error closing filesystem watcher")
		}
		w.watcher = nil
	}

	logging.Info("ExtensionWatcher", "Stopped extension watcher")
	return err
}
