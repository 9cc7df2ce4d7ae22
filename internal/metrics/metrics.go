package metrics

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
)

// Registry collects process-wide counters. The zero value is usable; Default
// is shared by components that are not handed an explicit registry.
type Registry struct {
	sessionsCreated atomic.Int64
	sessionsKilled  atomic.Int64
	sessionsExited  atomic.Int64
	watcherSweeps   atomic.Int64
	watcherSkipped  atomic.Int64
	buses           sync.Map
}

type busStats struct {
	published   atomic.Int64
	dropped     atomic.Int64
	subscribers atomic.Int64
}

var Default = &Registry{}

func (r *Registry) IncSessionCreated() {
	if r == nil {
		return
	}
	r.sessionsCreated.Add(1)
}

func (r *Registry) IncSessionKilled() {
	if r == nil {
		return
	}
	r.sessionsKilled.Add(1)
}

func (r *Registry) IncSessionExited() {
	if r == nil {
		return
	}
	r.sessionsExited.Add(1)
}

func (r *Registry) IncWatcherSweep() {
	if r == nil {
		return
	}
	r.watcherSweeps.Add(1)
}

// IncWatcherSkipped counts events swallowed by the skip-and-continue policy.
func (r *Registry) IncWatcherSkipped() {
	if r == nil {
		return
	}
	r.watcherSkipped.Add(1)
}

func (r *Registry) IncEventPublished(bus string) {
	if r == nil {
		return
	}
	r.busStats(bus).published.Add(1)
}

func (r *Registry) IncEventDropped(bus string) {
	if r == nil {
		return
	}
	r.busStats(bus).dropped.Add(1)
}

func (r *Registry) SetEventSubscribers(bus string, count int) {
	if r == nil {
		return
	}
	r.busStats(bus).subscribers.Store(int64(count))
}

func (r *Registry) WritePrometheus(writer io.Writer) error {
	if r == nil {
		return nil
	}

	writeCounter(writer, "commander_terminal_sessions_created_total", "Total terminal sessions created", r.sessionsCreated.Load())
	writeCounter(writer, "commander_terminal_sessions_killed_total", "Total terminal sessions killed", r.sessionsKilled.Load())
	writeCounter(writer, "commander_terminal_sessions_exited_total", "Total terminal sessions whose child exited", r.sessionsExited.Load())
	writeCounter(writer, "commander_watcher_sweeps_total", "Total debounce sweeps", r.watcherSweeps.Load())
	writeCounter(writer, "commander_watcher_skipped_total", "Total watcher events skipped", r.watcherSkipped.Load())

	busNames := r.busNames()
	sort.Strings(busNames)

	writeHelp(writer, "commander_events_published_total", "Events published per bus")
	fmt.Fprintln(writer, "# TYPE commander_events_published_total counter")
	writeHelp(writer, "commander_events_dropped_total", "Events dropped per bus")
	fmt.Fprintln(writer, "# TYPE commander_events_dropped_total counter")
	writeHelp(writer, "commander_event_subscribers", "Current subscribers per bus")
	fmt.Fprintln(writer, "# TYPE commander_event_subscribers gauge")

	for _, name := range busNames {
		stats := r.busStats(name)
		label := formatLabel(name)
		fmt.Fprintf(writer, "commander_events_published_total{bus=%s} %d\n", label, stats.published.Load())
		fmt.Fprintf(writer, "commander_events_dropped_total{bus=%s} %d\n", label, stats.dropped.Load())
		fmt.Fprintf(writer, "commander_event_subscribers{bus=%s} %d\n", label, stats.subscribers.Load())
	}

	return nil
}

func (r *Registry) busStats(name string) *busStats {
	if strings.TrimSpace(name) == "" {
		name = "unknown"
	}
	value, _ := r.buses.LoadOrStore(name, &busStats{})
	return value.(*busStats)
}

func (r *Registry) busNames() []string {
	if r == nil {
		return nil
	}
	var names []string
	r.buses.Range(func(key, value interface{}) bool {
		if name, ok := key.(string); ok {
			names = append(names, name)
		}
		return true
	})
	return names
}

func writeHelp(writer io.Writer, metric, help string) {
	fmt.Fprintf(writer, "# HELP %s %s\n", metric, help)
}

func writeCounter(writer io.Writer, metric, help string, value int64) {
	writeHelp(writer, metric, help)
	fmt.Fprintf(writer, "# TYPE %s counter\n", metric)
	fmt.Fprintf(writer, "%s %d\n", metric, value)
}

func formatLabel(value string) string {
	escaped := strings.ReplaceAll(value, "\\", "\\\\")
	escaped = strings.ReplaceAll(escaped, "\"", "\\\"")
	return fmt.Sprintf("\"%s\"", escaped)
}
