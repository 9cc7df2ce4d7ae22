package api

import (
	"net/http"
	"time"

	"commander/internal/event"
	"commander/internal/logging"
)

// EventsHandler pushes debounced watcher notifications to the UI as
// JSON text frames. The client side is read-only; incoming frames are
// drained solely to detect the close.
type EventsHandler struct {
	Bus            *event.Bus[event.WatchEvent]
	Logger         *logging.Logger
	AuthToken      string
	AllowedOrigins []string
}

type watchEventPayload struct {
	Type      string `json:"type"`
	Path      string `json:"path,omitempty"`
	Timestamp string `json:"timestamp"`
}

func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !validateToken(r, h.AuthToken) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if h.Bus == nil {
		http.Error(w, "event bus unavailable", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgradeWebSocket(w, r, h.AllowedOrigins)
	if err != nil {
		return
	}
	defer conn.Close()

	events, cancel := h.Bus.Subscribe()
	defer cancel()

	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				payload := watchEventPayload{
					Type:      ev.EventType,
					Path:      ev.Path,
					Timestamp: ev.OccurredAt.Format(time.RFC3339Nano),
				}
				if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
					return
				}
				if err := conn.WriteJSON(payload); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
