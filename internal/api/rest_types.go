package api

import (
	"net/http"

	"commander/internal/assistant"
	"commander/internal/git"
	"commander/internal/logging"
	"commander/internal/metrics"
	"commander/internal/project"
	"commander/internal/store"
	"commander/internal/terminal"
)

type RestHandler struct {
	Projects  *store.ProjectRepo
	Planning  *store.PlanningRepo
	Links     *store.LinkRepo
	Syncer    *project.Syncer
	Assistant *assistant.Reader
	Git       git.Reader
	Manager   *terminal.Manager
	Logger    *logging.Logger
	LogBuffer *logging.Buffer
	Registry  *metrics.Registry
}

type createProjectRequest struct {
	Path string   `json:"path"`
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}

type linkSessionRequest struct {
	SessionID string `json:"session_id"`
}

type createPlanningItemRequest struct {
	ProjectID   string `json:"project_id"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

type updatePlanningItemRequest struct {
	Subject     string `json:"subject"`
	Description string `json:"description"`
}

type movePlanningItemRequest struct {
	Status    string `json:"status"`
	SortOrder int64  `json:"sort_order"`
}

type createTerminalRequest struct {
	Cwd  string `json:"cwd"`
	Cols uint16 `json:"cols"`
	Rows uint16 `json:"rows"`
}

type resizeTerminalRequest struct {
	Cols uint16 `json:"cols"`
	Rows uint16 `json:"rows"`
}

type planContentResponse struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

type purgeResponse struct {
	Purged int64 `json:"purged"`
}

func (h *RestHandler) requireProjects() *apiError {
	if h.Projects == nil {
		return &apiError{Status: http.StatusServiceUnavailable, Message: "project store unavailable"}
	}
	return nil
}

func (h *RestHandler) requirePlanning() *apiError {
	if h.Planning == nil {
		return &apiError{Status: http.StatusServiceUnavailable, Message: "planning store unavailable"}
	}
	return nil
}

func (h *RestHandler) requireAssistant() *apiError {
	if h.Assistant == nil {
		return &apiError{Status: http.StatusServiceUnavailable, Message: "assistant data unavailable"}
	}
	return nil
}

func (h *RestHandler) requireManager() *apiError {
	if h.Manager == nil {
		return &apiError{Status: http.StatusServiceUnavailable, Message: "terminal manager unavailable"}
	}
	return nil
}
