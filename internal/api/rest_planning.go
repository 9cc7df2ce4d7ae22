package api

import (
	"errors"
	"net/http"
	"strings"

	"commander/internal/store"
)

func (h *RestHandler) handlePlanningItems(w http.ResponseWriter, r *http.Request) *apiError {
	if err := h.requirePlanning(); err != nil {
		return err
	}

	switch r.Method {
	case http.MethodGet:
		projectID := r.URL.Query().Get("project_id")
		if projectID == "" {
			return &apiError{Status: http.StatusBadRequest, Message: "missing project_id"}
		}
		items, err := h.Planning.ListByProject(r.Context(), projectID)
		if err != nil {
			return internalError(err)
		}
		writeJSON(w, http.StatusOK, items)
		return nil
	case http.MethodPost:
		return h.createPlanningItem(w, r)
	default:
		return methodNotAllowed(w, "GET, POST")
	}
}

func (h *RestHandler) createPlanningItem(w http.ResponseWriter, r *http.Request) *apiError {
	var req createPlanningItemRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.Subject) == "" {
		return &apiError{Status: http.StatusBadRequest, Message: "missing subject"}
	}

	item := &store.PlanningItem{
		ProjectID:   req.ProjectID,
		Subject:     req.Subject,
		Description: req.Description,
		Status:      req.Status,
	}
	if err := h.Planning.Create(r.Context(), item); err != nil {
		return planningError(err)
	}
	writeJSON(w, http.StatusCreated, item)
	return nil
}

// handlePlanningItem serves /api/planning/{id} and /api/planning/{id}/move.
func (h *RestHandler) handlePlanningItem(w http.ResponseWriter, r *http.Request) *apiError {
	if err := h.requirePlanning(); err != nil {
		return err
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/planning/")
	parts := strings.Split(rest, "/")
	id := parts[0]
	if id == "" {
		return &apiError{Status: http.StatusBadRequest, Message: "missing item id"}
	}

	switch {
	case len(parts) == 1:
		switch r.Method {
		case http.MethodGet:
			item, err := h.Planning.Get(r.Context(), id)
			if err != nil {
				return planningError(err)
			}
			writeJSON(w, http.StatusOK, item)
			return nil
		case http.MethodPatch:
			return h.updatePlanningItem(w, r, id)
		case http.MethodDelete:
			if err := h.Planning.Delete(r.Context(), id); err != nil {
				return planningError(err)
			}
			w.WriteHeader(http.StatusNoContent)
			return nil
		default:
			return methodNotAllowed(w, "GET, PATCH, DELETE")
		}
	case len(parts) == 2 && parts[1] == "move":
		if r.Method != http.MethodPost {
			return methodNotAllowed(w, "POST")
		}
		return h.movePlanningItem(w, r, id)
	default:
		return &apiError{Status: http.StatusNotFound, Message: "not found"}
	}
}

func (h *RestHandler) updatePlanningItem(w http.ResponseWriter, r *http.Request, id string) *apiError {
	var req updatePlanningItemRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if err := h.Planning.Update(r.Context(), id, req.Subject, req.Description); err != nil {
		return planningError(err)
	}
	item, err := h.Planning.Get(r.Context(), id)
	if err != nil {
		return planningError(err)
	}
	writeJSON(w, http.StatusOK, item)
	return nil
}

func (h *RestHandler) movePlanningItem(w http.ResponseWriter, r *http.Request, id string) *apiError {
	var req movePlanningItemRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	if err := h.Planning.Move(r.Context(), id, req.Status, req.SortOrder); err != nil {
		return planningError(err)
	}
	item, err := h.Planning.Get(r.Context(), id)
	if err != nil {
		return planningError(err)
	}
	writeJSON(w, http.StatusOK, item)
	return nil
}

func planningError(err error) *apiError {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return &apiError{Status: http.StatusNotFound, Message: "planning item not found"}
	case errors.Is(err, store.ErrInvalidStatus):
		return &apiError{Status: http.StatusBadRequest, Message: err.Error()}
	default:
		return internalError(err)
	}
}
