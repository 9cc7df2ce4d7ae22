package watcher

import (
	"time"

	"commander/internal/event"
	"commander/internal/logging"
	"commander/internal/metrics"
)

const (
	// defaultPollInterval is how often the sweep loop wakes up.
	defaultPollInterval = 100 * time.Millisecond
	// defaultDebounce is how long a path must stay quiet before its event
	// fires.
	defaultDebounce = 500 * time.Millisecond
)

// Options controls both watcher variants. Zero values fall back to the
// defaults above.
type Options struct {
	PollInterval time.Duration
	Debounce     time.Duration
	Logger       *logging.Logger
	Registry     *metrics.Registry
	Bus          *event.Bus[event.WatchEvent]
}

func (options *Options) normalize() {
	if options.PollInterval <= 0 {
		options.PollInterval = defaultPollInterval
	}
	if options.Debounce <= 0 {
		options.Debounce = defaultDebounce
	}
	if options.Logger == nil {
		options.Logger = logging.NewLoggerWithOutput(logging.NewBuffer(logging.DefaultBufferSize), logging.LevelInfo, nil)
	}
	if options.Registry == nil {
		options.Registry = metrics.Default
	}
}

func withWatcherFields(fields map[string]string) map[string]string {
	merged := make(map[string]string, len(fields)+1)
	merged["commander.category"] = "watcher"
	for key, value := range fields {
		merged[key] = value
	}
	return merged
}
