package watcher

import (
	"sync"
	"time"
)

// pendingSet holds the last-seen time per changed path. A path is released by
// sweep once it has been quiet for the debounce window; further events before
// that simply refresh its timestamp.
type pendingSet struct {
	mu    sync.Mutex
	paths map[string]time.Time
}

func newPendingSet() *pendingSet {
	return &pendingSet{paths: make(map[string]time.Time)}
}

func (set *pendingSet) mark(path string, seen time.Time) {
	set.mu.Lock()
	set.paths[path] = seen
	set.mu.Unlock()
}

func (set *pendingSet) sweep(now time.Time, debounce time.Duration) []string {
	set.mu.Lock()
	defer set.mu.Unlock()

	var ready []string
	for path, seen := range set.paths {
		if now.Sub(seen) >= debounce {
			ready = append(ready, path)
			delete(set.paths, path)
		}
	}
	return ready
}

func (set *pendingSet) len() int {
	set.mu.Lock()
	defer set.mu.Unlock()
	return len(set.paths)
}

// pendingFlag is the coarse variant: any number of removals collapses into a
// single signal per sweep.
type pendingFlag struct {
	mu  sync.Mutex
	set bool
}

func (flag *pendingFlag) raise() {
	flag.mu.Lock()
	flag.set = true
	flag.mu.Unlock()
}

func (flag *pendingFlag) consume() bool {
	flag.mu.Lock()
	defer flag.mu.Unlock()
	was := flag.set
	flag.set = false
	return was
}
