package store

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// dirWatcher reports debounced filesystem activity in a single directory.
type dirWatcher struct {
	watcher   *fsnotify.Watcher
	debouncer *changeDebouncer
	filter    func(name string) bool
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// watchDir starts watching dir. Base names accepted by filter are batched and
// handed to onChange after delay of quiet.
func watchDir(dir string, delay time.Duration, filter func(name string) bool, onChange func(names []string)) (*dirWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	w := &dirWatcher{
		watcher:   watcher,
		debouncer: newChangeDebouncer(delay, onChange),
		filter:    filter,
		done:      make(chan struct{}),
	}
	w.wg.Add(1)
	go w.eventLoop()

	slog.Debug("watching store directory", "dir", dir)
	return w, nil
}

func (w *dirWatcher) eventLoop() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			name := filepath.Base(event.Name)
			if w.filter(name) {
				w.debouncer.Add(name)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("store watch error", "error", err)

		case <-w.done:
			return
		}
	}
}

// Close stops the event loop and drops pending notifications.
func (w *dirWatcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
		w.wg.Wait()
		w.debouncer.Stop()
	})
	return err
}
