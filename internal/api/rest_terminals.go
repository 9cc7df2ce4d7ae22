package api

import (
	"errors"
	"net/http"
	"strings"

	"commander/internal/terminal"
)

func (h *RestHandler) handleTerminals(w http.ResponseWriter, r *http.Request) *apiError {
	if err := h.requireManager(); err != nil {
		return err
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.Manager.List())
		return nil
	case http.MethodPost:
		return h.createTerminal(w, r)
	default:
		return methodNotAllowed(w, "GET, POST")
	}
}

func (h *RestHandler) createTerminal(w http.ResponseWriter, r *http.Request) *apiError {
	var req createTerminalRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}

	session, err := h.Manager.Create(req.Cwd, req.Cols, req.Rows)
	if err != nil {
		var dims *terminal.InvalidDimensionsError
		if errors.As(err, &dims) {
			return &apiError{Status: http.StatusBadRequest, Message: err.Error()}
		}
		return internalError(err)
	}
	writeJSON(w, http.StatusCreated, session.Info())
	return nil
}

// handleTerminal serves /api/terminals/{id} and /api/terminals/{id}/resize.
func (h *RestHandler) handleTerminal(w http.ResponseWriter, r *http.Request) *apiError {
	if err := h.requireManager(); err != nil {
		return err
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/terminals/")
	parts := strings.Split(rest, "/")
	id := parts[0]
	if id == "" {
		return &apiError{Status: http.StatusBadRequest, Message: "missing terminal id"}
	}

	switch {
	case len(parts) == 1:
		switch r.Method {
		case http.MethodGet:
			session, ok := h.Manager.Get(id)
			if !ok {
				return &apiError{Status: http.StatusNotFound, Message: "terminal not found"}
			}
			writeJSON(w, http.StatusOK, session.Info())
			return nil
		case http.MethodDelete:
			// Killing an unknown terminal succeeds; the result is the same.
			if err := h.Manager.Kill(id); err != nil {
				return internalError(err)
			}
			w.WriteHeader(http.StatusNoContent)
			return nil
		default:
			return methodNotAllowed(w, "GET, DELETE")
		}
	case len(parts) == 2 && parts[1] == "resize":
		if r.Method != http.MethodPost {
			return methodNotAllowed(w, "POST")
		}
		return h.resizeTerminal(w, r, id)
	default:
		return &apiError{Status: http.StatusNotFound, Message: "not found"}
	}
}

func (h *RestHandler) resizeTerminal(w http.ResponseWriter, r *http.Request, id string) *apiError {
	var req resizeTerminalRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if err := h.Manager.Resize(id, req.Cols, req.Rows); err != nil {
		if errors.Is(err, terminal.ErrSessionNotFound) {
			return &apiError{Status: http.StatusNotFound, Message: "terminal not found"}
		}
		return internalError(err)
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
