package api

import (
	"net/http"
	"strings"

	"commander/internal/assistant"
	"commander/internal/store"
)

// Every category caps its hits independently.
const searchResultLimit = 5

type searchResults struct {
	Projects      []*store.Project              `json:"projects"`
	PlanningItems []*store.PlanningSearchResult `json:"planning_items"`
	Plans         []assistant.Plan              `json:"plans"`
	Tasks         []assistant.TaskHit           `json:"tasks"`
}

// handleSearch runs one query across projects, planning items, plan
// files, and task files. A blank query returns empty categories rather
// than an error.
func (h *RestHandler) handleSearch(w http.ResponseWriter, r *http.Request) *apiError {
	if r.Method != http.MethodGet {
		return methodNotAllowed(w, http.MethodGet)
	}
	if err := h.requireProjects(); err != nil {
		return err
	}
	if err := h.requirePlanning(); err != nil {
		return err
	}
	if err := h.requireAssistant(); err != nil {
		return err
	}

	results := searchResults{
		Projects:      []*store.Project{},
		PlanningItems: []*store.PlanningSearchResult{},
		Plans:         []assistant.Plan{},
		Tasks:         []assistant.TaskHit{},
	}

	query := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))
	if query == "" {
		writeJSON(w, http.StatusOK, results)
		return nil
	}

	projects, err := h.Projects.Search(r.Context(), query, searchResultLimit)
	if err != nil {
		return internalError(err)
	}
	results.Projects = projects

	items, err := h.Planning.Search(r.Context(), query, searchResultLimit)
	if err != nil {
		return internalError(err)
	}
	results.PlanningItems = items

	plans, err := h.Assistant.SearchPlans(query, searchResultLimit)
	if err != nil {
		return internalError(err)
	}
	results.Plans = plans

	tasks, err := h.Assistant.SearchTasks(query, searchResultLimit)
	if err != nil {
		return internalError(err)
	}
	results.Tasks = tasks

	writeJSON(w, http.StatusOK, results)
	return nil
}
