package api

import (
	"net/http"
	"strconv"

	"commander/internal/logging"
)

func (h *RestHandler) handleLogs(w http.ResponseWriter, r *http.Request) *apiError {
	if h.LogBuffer == nil {
		return &apiError{Status: http.StatusServiceUnavailable, Message: "log buffer unavailable"}
	}
	if r.Method != http.MethodGet {
		return methodNotAllowed(w, "GET")
	}

	entries := h.LogBuffer.List()

	if level := r.URL.Query().Get("level"); level != "" {
		filtered := make([]logging.Entry, 0, len(entries))
		for _, entry := range entries {
			if string(entry.Level) == level {
				filtered = append(filtered, entry)
			}
		}
		entries = filtered
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return &apiError{Status: http.StatusBadRequest, Message: "invalid limit"}
		}
		if len(entries) > limit {
			entries = entries[len(entries)-limit:]
		}
	}

	writeJSON(w, http.StatusOK, entries)
	return nil
}

func (h *RestHandler) handleMetrics(w http.ResponseWriter, r *http.Request) *apiError {
	if r.Method != http.MethodGet {
		return methodNotAllowed(w, "GET")
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	if err := h.Registry.WritePrometheus(w); err != nil {
		return internalError(err)
	}
	return nil
}
