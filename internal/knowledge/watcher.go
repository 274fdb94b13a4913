package knowledge

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"streetfood-backend/internal/shared/telemetry"
)

const defaultDebounce = 250 * time.Millisecond

// Watcher invalidates a Store when its backing file changes on disk and
// notifies an optional callback once per burst of events.
type Watcher struct {
	store    *Store
	onChange func()
	target   string
	debounce time.Duration

	fs *fsnotify.Watcher

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewWatcher creates a watcher for store. onChange may be nil.
func NewWatcher(store *Store, onChange func()) (*Watcher, error) {
	if store == nil {
		return nil, errors.New("knowledge watcher requires a store")
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	target, err := filepath.Abs(store.Path())
	if err != nil {
		target = filepath.Clean(store.Path())
	}
	return &Watcher{
		store:    store,
		onChange: onChange,
		target:   target,
		debounce: defaultDebounce,
		fs:       fw,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// SetDebounce overrides the quiet period before a change is applied. Call before Start.
func (w *Watcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.debounce = d
	}
}

// Start watches the document's directory so editor rename-and-replace saves
// are observed too. It returns immediately.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}
	if err := w.fs.Add(filepath.Dir(w.target)); err != nil {
		return err
	}
	w.running = true
	go w.run(ctx)
	telemetry.Info("knowledge.watch", map[string]any{"path": w.target})
	return nil
}

// Close stops the event loop and releases the underlying watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	running := w.running
	w.running = false
	w.mu.Unlock()

	if running {
		close(w.stopCh)
		<-w.doneCh
	}
	return w.fs.Close()
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

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
		case <-w.stopCh:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			telemetry.Warn("knowledge.watch_error", map[string]any{"error": err.Error()})
		case <-fire:
			fire = nil
			w.store.Invalidate()
			telemetry.Info("knowledge.changed", map[string]any{"path": w.target})
			if w.onChange != nil {
				w.onChange()
			}
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	name, err := filepath.Abs(ev.Name)
	if err != nil {
		name = filepath.Clean(ev.Name)
	}
	if name != w.target {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) ||
		ev.Has(fsnotify.Rename) || ev.Has(fsnotify.Remove)
}
