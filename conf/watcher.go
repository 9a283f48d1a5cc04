package conf

import (
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/negamartin/osu2sm/errors"
	"github.com/negamartin/osu2sm/logger"
)

// Watcher watches the config file and reports changes, debounced so
// editors that write in several steps trigger one reload.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	debounce *time.Timer
	changes  chan struct{}
	done     chan struct{}
}

const debouncePeriod = 500 * time.Millisecond

// NewWatcher starts watching the config file at path.
func NewWatcher(path string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "creating fsnotify watcher")
	}
	if err := fw.Add(path); err != nil {
		fw.Close()
		return nil, errors.Wrapf(err, "watching %s", path)
	}
	w := &Watcher{
		path:    path,
		watcher: fw,
		changes: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Changes delivers one value per (debounced) config file change.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.mu.Lock()
			if w.debounce != nil {
				w.debounce.Stop()
			}
			w.debounce = time.AfterFunc(debouncePeriod, func() {
				logger.Infof("config file %s changed", w.path)
				select {
				case w.changes <- struct{}{}:
				default:
				}
			})
			w.mu.Unlock()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warnf("config watcher: %v", err)
		}
	}
}
