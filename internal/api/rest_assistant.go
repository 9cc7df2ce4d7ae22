package api

import (
	"errors"
	"net/http"
	"os"
	"strings"

	"commander/internal/assistant"
)

func (h *RestHandler) handleAssistantTasks(w http.ResponseWriter, r *http.Request) *apiError {
	if err := h.requireAssistant(); err != nil {
		return err
	}
	if r.Method != http.MethodGet {
		return methodNotAllowed(w, "GET")
	}
	groups, err := h.Assistant.Tasks()
	if err != nil {
		return internalError(err)
	}
	writeJSON(w, http.StatusOK, groups)
	return nil
}

func (h *RestHandler) handleAssistantPlans(w http.ResponseWriter, r *http.Request) *apiError {
	if err := h.requireAssistant(); err != nil {
		return err
	}
	if r.Method != http.MethodGet {
		return methodNotAllowed(w, "GET")
	}
	plans, err := h.Assistant.Plans()
	if err != nil {
		return internalError(err)
	}
	writeJSON(w, http.StatusOK, plans)
	return nil
}

func (h *RestHandler) handleAssistantPlan(w http.ResponseWriter, r *http.Request) *apiError {
	if err := h.requireAssistant(); err != nil {
		return err
	}
	if r.Method != http.MethodGet {
		return methodNotAllowed(w, "GET")
	}

	filename := strings.TrimPrefix(r.URL.Path, "/api/assistant/plans/")
	content, err := h.Assistant.Plan(filename)
	if err != nil {
		return assistantError(err, "plan not found")
	}
	writeJSON(w, http.StatusOK, planContentResponse{Filename: filename, Content: content})
	return nil
}

func (h *RestHandler) handleAssistantSessions(w http.ResponseWriter, r *http.Request) *apiError {
	if err := h.requireAssistant(); err != nil {
		return err
	}
	if r.Method != http.MethodGet {
		return methodNotAllowed(w, "GET")
	}
	sessions, err := h.Assistant.Sessions()
	if err != nil {
		return internalError(err)
	}
	writeJSON(w, http.StatusOK, sessions)
	return nil
}

// handleAssistantSession serves /api/assistant/sessions/{key}/{id} and
// /api/assistant/sessions/{key}/{id}/messages.
func (h *RestHandler) handleAssistantSession(w http.ResponseWriter, r *http.Request) *apiError {
	if err := h.requireAssistant(); err != nil {
		return err
	}
	if r.Method != http.MethodGet {
		return methodNotAllowed(w, "GET")
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/assistant/sessions/")
	parts := strings.Split(rest, "/")

	switch {
	case len(parts) == 2:
		detail, err := h.Assistant.SessionDetail(parts[0], parts[1])
		if err != nil {
			return assistantError(err, "session not found")
		}
		writeJSON(w, http.StatusOK, detail)
		return nil
	case len(parts) == 3 && parts[2] == "messages":
		messages, err := h.Assistant.SessionMessages(parts[0], parts[1])
		if err != nil {
			return assistantError(err, "session not found")
		}
		writeJSON(w, http.StatusOK, messages)
		return nil
	default:
		return &apiError{Status: http.StatusNotFound, Message: "not found"}
	}
}

func assistantError(err error, notFound string) *apiError {
	switch {
	case errors.Is(err, assistant.ErrInvalidName):
		return &apiError{Status: http.StatusBadRequest, Message: err.Error()}
	case os.IsNotExist(err):
		return &apiError{Status: http.StatusNotFound, Message: notFound}
	default:
		return internalError(err)
	}
}
