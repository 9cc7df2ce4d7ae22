package event

import "time"

// Event is implemented by every payload published on a Bus.
type Event interface {
	Type() string
	Timestamp() time.Time
}

// Terminal event types emitted by the PTY session layer.
const (
	TerminalOutput = "output"
	TerminalExit   = "exit"
)

// Watch event types emitted by the filesystem watchers.
const (
	TasksChanged    = "tasks-changed"
	PlansChanged    = "plans-changed"
	SessionsChanged = "sessions-changed"
	ProjectsStale   = "projects-stale"
)

// TerminalEvent carries output bytes or an exit notice for one session.
type TerminalEvent struct {
	EventType  string
	SessionID  string
	Data       []byte
	OccurredAt time.Time
}

func NewTerminalOutput(sessionID string, data []byte) TerminalEvent {
	return TerminalEvent{
		EventType:  TerminalOutput,
		SessionID:  sessionID,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	}
}

func NewTerminalExit(sessionID string) TerminalEvent {
	return TerminalEvent{
		EventType:  TerminalExit,
		SessionID:  sessionID,
		OccurredAt: time.Now().UTC(),
	}
}

func (e TerminalEvent) Type() string {
	return e.EventType
}

func (e TerminalEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// WatchEvent carries a debounced filesystem change notification. Path is
// empty for the coarse projects-stale variant.
type WatchEvent struct {
	EventType  string
	Path       string
	OccurredAt time.Time
}

func NewWatchEvent(eventType, path string) WatchEvent {
	return WatchEvent{
		EventType:  eventType,
		Path:       path,
		OccurredAt: time.Now().UTC(),
	}
}

func (e WatchEvent) Type() string {
	return e.EventType
}

func (e WatchEvent) Timestamp() time.Time {
	return e.OccurredAt
}
