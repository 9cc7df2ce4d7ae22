package api

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"commander/internal/fsutil"
	"commander/internal/store"
)

func (h *RestHandler) handleProjects(w http.ResponseWriter, r *http.Request) *apiError {
	if err := h.requireProjects(); err != nil {
		return err
	}

	switch r.Method {
	case http.MethodGet:
		projects, err := h.Projects.List(r.Context())
		if err != nil {
			return internalError(err)
		}
		writeJSON(w, http.StatusOK, projects)
		return nil
	case http.MethodPost:
		return h.createProject(w, r)
	default:
		return methodNotAllowed(w, "GET, POST")
	}
}

func (h *RestHandler) createProject(w http.ResponseWriter, r *http.Request) *apiError {
	var req createProjectRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	path, err := fsutil.ValidateHomePath(req.Path)
	if err != nil {
		if errors.Is(err, fsutil.ErrOutsideHome) {
			return &apiError{Status: http.StatusBadRequest, Message: "path must be inside the home directory"}
		}
		return &apiError{Status: http.StatusBadRequest, Message: "invalid project path"}
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = filepath.Base(path)
	}

	proj := &store.Project{Name: name, Path: path, Tags: req.Tags}
	if err := h.Projects.Create(r.Context(), proj); err != nil {
		return internalError(err)
	}
	writeJSON(w, http.StatusCreated, proj)
	return nil
}

func (h *RestHandler) handleArchivedProjects(w http.ResponseWriter, r *http.Request) *apiError {
	if err := h.requireProjects(); err != nil {
		return err
	}
	if r.Method != http.MethodGet {
		return methodNotAllowed(w, "GET")
	}
	projects, err := h.Projects.ListArchived(r.Context())
	if err != nil {
		return internalError(err)
	}
	writeJSON(w, http.StatusOK, projects)
	return nil
}

func (h *RestHandler) handlePurgeArchived(w http.ResponseWriter, r *http.Request) *apiError {
	if err := h.requireProjects(); err != nil {
		return err
	}
	if r.Method != http.MethodPost {
		return methodNotAllowed(w, "POST")
	}
	purged, err := h.Projects.PurgeArchived(r.Context())
	if err != nil {
		return internalError(err)
	}
	writeJSON(w, http.StatusOK, purgeResponse{Purged: purged})
	return nil
}

func (h *RestHandler) handleProjectsSync(w http.ResponseWriter, r *http.Request) *apiError {
	if h.Syncer == nil {
		return &apiError{Status: http.StatusServiceUnavailable, Message: "project sync unavailable"}
	}
	if r.Method != http.MethodPost {
		return methodNotAllowed(w, "POST")
	}
	result, err := h.Syncer.Sync(r.Context())
	if err != nil {
		return internalError(err)
	}
	writeJSON(w, http.StatusOK, result)
	return nil
}

// handleProject serves /api/projects/{id} and its sub-resources:
// {id}/restore and {id}/sessions[/{session_id}].
func (h *RestHandler) handleProject(w http.ResponseWriter, r *http.Request) *apiError {
	if err := h.requireProjects(); err != nil {
		return err
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/projects/")
	parts := strings.Split(rest, "/")
	id := parts[0]
	if id == "" {
		return &apiError{Status: http.StatusBadRequest, Message: "missing project id"}
	}

	switch {
	case len(parts) == 1:
		if r.Method != http.MethodDelete {
			return methodNotAllowed(w, "DELETE")
		}
		return h.archiveProject(w, r, id)
	case len(parts) == 2 && parts[1] == "restore":
		if r.Method != http.MethodPost {
			return methodNotAllowed(w, "POST")
		}
		return h.restoreProject(w, r, id)
	case len(parts) == 2 && parts[1] == "sessions":
		return h.handleProjectSessions(w, r, id)
	case len(parts) == 3 && parts[1] == "sessions":
		return h.unlinkProjectSession(w, r, id, parts[2])
	default:
		return &apiError{Status: http.StatusNotFound, Message: "not found"}
	}
}

func (h *RestHandler) archiveProject(w http.ResponseWriter, r *http.Request, id string) *apiError {
	if err := h.Projects.SetArchived(r.Context(), id, true); err != nil {
		return projectError(err)
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "archived"})
	return nil
}

func (h *RestHandler) restoreProject(w http.ResponseWriter, r *http.Request, id string) *apiError {
	if err := h.Projects.SetArchived(r.Context(), id, false); err != nil {
		return projectError(err)
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "active"})
	return nil
}

func (h *RestHandler) handleProjectSessions(w http.ResponseWriter, r *http.Request, id string) *apiError {
	if h.Links == nil {
		return &apiError{Status: http.StatusServiceUnavailable, Message: "session links unavailable"}
	}

	switch r.Method {
	case http.MethodGet:
		sessions, err := h.Links.SessionsForProject(r.Context(), id)
		if err != nil {
			return internalError(err)
		}
		writeJSON(w, http.StatusOK, sessions)
		return nil
	case http.MethodPost:
		var req linkSessionRequest
		if err := decodeJSON(r, &req); err != nil {
			return err
		}
		if req.SessionID == "" {
			return &apiError{Status: http.StatusBadRequest, Message: "missing session_id"}
		}
		if err := h.Links.Link(r.Context(), req.SessionID, id); err != nil {
			return internalError(err)
		}
		writeJSON(w, http.StatusCreated, map[string]string{"session_id": req.SessionID, "project_id": id})
		return nil
	default:
		return methodNotAllowed(w, "GET, POST")
	}
}

func (h *RestHandler) unlinkProjectSession(w http.ResponseWriter, r *http.Request, id, sessionID string) *apiError {
	if h.Links == nil {
		return &apiError{Status: http.StatusServiceUnavailable, Message: "session links unavailable"}
	}
	if r.Method != http.MethodDelete {
		return methodNotAllowed(w, "DELETE")
	}
	if err := h.Links.Unlink(r.Context(), sessionID, id); err != nil {
		return internalError(err)
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func projectError(err error) *apiError {
	if errors.Is(err, store.ErrNotFound) {
		return &apiError{Status: http.StatusNotFound, Message: "project not found"}
	}
	return internalError(err)
}

func internalError(err error) *apiError {
	return &apiError{Status: http.StatusInternalServerError, Message: err.Error()}
}
