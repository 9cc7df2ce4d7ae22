package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"commander/internal/event"
)

// Only assistant data files feed the pipeline.
var watchedExtensions = map[string]struct{}{
	".json":  {},
	".jsonl": {},
	".md":    {},
}

// classify maps a changed path to its domain event by substring. Paths that
// match nothing are dropped.
func classify(path string) (string, bool) {
	switch {
	case strings.Contains(path, "tasks"):
		return event.TasksChanged, true
	case strings.Contains(path, "plans"):
		return event.PlansChanged, true
	case strings.Contains(path, "projects"):
		return event.SessionsChanged, true
	}
	return "", false
}

// AssistantWatcher follows the assistant's data directory recursively and
// publishes one classified event per path once that path has been quiet for
// the debounce window.
type AssistantWatcher struct {
	root    string
	options Options
	fsw     *fsnotify.Watcher
	pending *pendingSet
	bus     *event.Bus[event.WatchEvent]
	done    chan struct{}

	closeOnce sync.Once
	closeErr  error
}

func NewAssistantWatcher(root string, options Options) (*AssistantWatcher, error) {
	options.normalize()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	bus := options.Bus
	if bus == nil {
		bus = event.NewBus[event.WatchEvent](context.Background(), event.BusOptions{
			Name:     "watch_events",
			Registry: options.Registry,
		})
	}

	watcher := &AssistantWatcher{
		root:    root,
		options: options,
		fsw:     fsw,
		pending: newPendingSet(),
		bus:     bus,
		done:    make(chan struct{}),
	}

	if err := watcher.addTree(root); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	go watcher.run()

	options.Logger.Info("assistant watcher started", withWatcherFields(map[string]string{
		"path": root,
	}))
	return watcher, nil
}

// Events exposes the bus carrying classified change events.
func (watcher *AssistantWatcher) Events() *event.Bus[event.WatchEvent] {
	return watcher.bus
}

func (watcher *AssistantWatcher) Close() error {
	watcher.closeOnce.Do(func() {
		close(watcher.done)
		watcher.closeErr = watcher.fsw.Close()
	})
	return watcher.closeErr
}

func (watcher *AssistantWatcher) run() {
	ticker := time.NewTicker(watcher.options.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-watcher.fsw.Events:
			if !ok {
				return
			}
			watcher.handleEvent(ev, time.Now())
		case err, ok := <-watcher.fsw.Errors:
			if !ok {
				return
			}
			watcher.options.Logger.Warn("assistant watcher error", withWatcherFields(map[string]string{
				"error": err.Error(),
			}))
		case now := <-ticker.C:
			watcher.sweep(now)
		case <-watcher.done:
			return
		}
	}
}

func (watcher *AssistantWatcher) handleEvent(ev fsnotify.Event, now time.Time) {
	if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	// fsnotify has no recursive mode; new directories join the watch set as
	// they appear.
	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := watcher.addTree(ev.Name); err != nil {
				watcher.options.Logger.Warn("watch add failed", withWatcherFields(map[string]string{
					"path":  ev.Name,
					"error": err.Error(),
				}))
			}
			return
		}
	}

	if _, ok := watchedExtensions[filepath.Ext(ev.Name)]; !ok {
		watcher.options.Registry.IncWatcherSkipped()
		return
	}

	watcher.pending.mark(ev.Name, now)
}

func (watcher *AssistantWatcher) sweep(now time.Time) {
	watcher.options.Registry.IncWatcherSweep()

	for _, path := range watcher.pending.sweep(now, watcher.options.Debounce) {
		eventType, ok := classify(path)
		if !ok {
			watcher.options.Registry.IncWatcherSkipped()
			continue
		}
		watcher.bus.Publish(event.NewWatchEvent(eventType, path))
		watcher.options.Logger.Debug("change event", withWatcherFields(map[string]string{
			"event": eventType,
			"path":  path,
		}))
	}
}

func (watcher *AssistantWatcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !entry.IsDir() {
			return nil
		}
		return watcher.fsw.Add(path)
	})
}
