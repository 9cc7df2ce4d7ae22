package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"commander/internal/event"
	"commander/internal/logging"
	"commander/internal/terminal"

	"github.com/gorilla/websocket"
)

const (
	wsReadBufferSize  = 1024
	wsWriteBufferSize = 1024
	wsWriteTimeout    = 10 * time.Second
)

// TerminalHandler bridges one pty session onto a websocket. Output
// arrives as binary frames; input frames of either kind are written to
// the pty, except JSON text frames carrying a resize control message.
type TerminalHandler struct {
	Manager        *terminal.Manager
	Logger         *logging.Logger
	AuthToken      string
	AllowedOrigins []string
}

type controlMessage struct {
	Type string `json:"type"`
	Cols uint16 `json:"cols"`
	Rows uint16 `json:"rows"`
}

func (h *TerminalHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !validateToken(r, h.AuthToken) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	if h.Manager == nil {
		http.Error(w, "terminal manager unavailable", http.StatusInternalServerError)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/ws/terminal/")
	if id == "" || id == r.URL.Path {
		http.Error(w, "missing terminal id", http.StatusBadRequest)
		return
	}

	if _, ok := h.Manager.Get(id); !ok {
		http.Error(w, "terminal not found", http.StatusNotFound)
		return
	}

	conn, err := upgradeWebSocket(w, r, h.AllowedOrigins)
	if err != nil {
		return
	}
	defer conn.Close()

	output, cancel := h.Manager.Events().SubscribeFiltered(func(ev event.TerminalEvent) bool {
		return ev.SessionID == id
	})
	defer cancel()

	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			select {
			case ev, ok := <-output:
				if !ok {
					return
				}
				if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
					return
				}
				if ev.EventType == event.TerminalExit {
					deadline := time.Now().Add(wsWriteTimeout)
					_ = conn.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session exited"), deadline)
					return
				}
				if err := conn.WriteMessage(websocket.BinaryMessage, ev.Data); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		msgType, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}

		switch msgType {
		case websocket.TextMessage:
			if control, ok := parseControlMessage(msg); ok {
				if control.Type == "resize" {
					if err := h.Manager.Resize(id, control.Cols, control.Rows); err != nil {
						return
					}
				}
				continue
			}
			if err := h.Manager.Write(id, msg); err != nil {
				return
			}
		case websocket.BinaryMessage:
			if err := h.Manager.Write(id, msg); err != nil {
				return
			}
		}
	}
}

func parseControlMessage(data []byte) (controlMessage, bool) {
	var msg controlMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return controlMessage{}, false
	}

	if msg.Type != "resize" {
		return msg, false
	}
	if msg.Cols == 0 || msg.Rows == 0 {
		return msg, false
	}

	return msg, true
}

func upgradeWebSocket(w http.ResponseWriter, r *http.Request, allowedOrigins []string) (*websocket.Conn, error) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  wsReadBufferSize,
		WriteBufferSize: wsWriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			return isOriginAllowed(r, allowedOrigins)
		},
	}
	return upgrader.Upgrade(w, r, nil)
}
