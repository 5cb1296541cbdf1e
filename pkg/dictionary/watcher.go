package dictionary

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reloads the active dictionary when its file changes on disk.
type Watcher struct {
	store     *Store
	fsWatcher *fsnotify.Watcher
	debounce  time.Duration

	reloads chan string
	wg      sync.WaitGroup
}

// NewWatcher watches the store's data dir. debounce <= 0 uses DefaultDebounce.
func NewWatcher(store *Store, debounce time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsWatcher.Add(store.Dir()); err != nil {
		fsWatcher.Close()
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		store:     store,
		fsWatcher: fsWatcher,
		debounce:  debounce,
		reloads:   make(chan string, 8),
	}, nil
}

// Reloads receives the name of every dictionary reloaded successfully.
// Sends are dropped when nobody is listening.
func (w *Watcher) Reloads() <-chan string {
	return w.reloads
}

// Start runs the event loop until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
}

// Wait blocks until the event loop has exited and the fs watcher is closed.
func (w *Watcher) Wait() {
	w.wg.Wait()
}

func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()
	defer w.fsWatcher.Close()

	var timer *time.Timer
	fire := make(chan struct{}, 1)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.affectsActive(event) {
				continue
			}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, func() {
					select {
					case fire <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(w.debounce)
			}

		case <-fire:
			name := w.store.ActiveName()
			if w.store.Reload() {
				select {
				case w.reloads <- name:
				default:
				}
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.Warnf("Dictionary watcher error: %v", err)
		}
	}
}

func (w *Watcher) affectsActive(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	if !IsDictionaryFile(event.Name) {
		return false
	}
	active := w.store.ActiveName()
	if active == "" || NameFromPath(event.Name) != active {
		return false
	}
	log.Debugf("Dictionary file changed: %s (%s)", filepath.Base(event.Name), event.Op)
	return true
}
