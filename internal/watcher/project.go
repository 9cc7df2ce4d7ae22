package watcher

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"commander/internal/event"
)

// ProjectWatcher watches the project scan root, non-recursively, for
// removals. Project roots are immediate children of the scan path, so seeing
// the top level is enough to know a project folder disappeared. Any burst of
// removals collapses into a single stale signal.
type ProjectWatcher struct {
	root    string
	options Options
	fsw     *fsnotify.Watcher
	pending *pendingFlag
	bus     *event.Bus[event.WatchEvent]
	done    chan struct{}

	closeOnce sync.Once
	closeErr  error
}

func NewProjectWatcher(root string, options Options) (*ProjectWatcher, error) {
	options.normalize()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(root); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	bus := options.Bus
	if bus == nil {
		bus = event.NewBus[event.WatchEvent](context.Background(), event.BusOptions{
			Name:     "watch_events",
			Registry: options.Registry,
		})
	}

	watcher := &ProjectWatcher{
		root:    root,
		options: options,
		fsw:     fsw,
		pending: &pendingFlag{},
		bus:     bus,
		done:    make(chan struct{}),
	}

	go watcher.run()

	options.Logger.Info("project watcher started", withWatcherFields(map[string]string{
		"path": root,
	}))
	return watcher, nil
}

func (watcher *ProjectWatcher) Events() *event.Bus[event.WatchEvent] {
	return watcher.bus
}

func (watcher *ProjectWatcher) Close() error {
	watcher.closeOnce.Do(func() {
		close(watcher.done)
		watcher.closeErr = watcher.fsw.Close()
	})
	return watcher.closeErr
}

func (watcher *ProjectWatcher) run() {
	ticker := time.NewTicker(watcher.options.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-watcher.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&fsnotify.Remove != 0 {
				watcher.pending.raise()
			}
		case err, ok := <-watcher.fsw.Errors:
			if !ok {
				return
			}
			watcher.options.Logger.Warn("project watcher error", withWatcherFields(map[string]string{
				"error": err.Error(),
			}))
		case <-ticker.C:
			watcher.options.Registry.IncWatcherSweep()
			if watcher.pending.consume() {
				watcher.bus.Publish(event.NewWatchEvent(event.ProjectsStale, ""))
			}
		case <-watcher.done:
			return
		}
	}
}
