package api

import (
	"net/http"

	"commander/internal/assistant"
	"commander/internal/event"
	"commander/internal/git"
	"commander/internal/logging"
	"commander/internal/metrics"
	"commander/internal/project"
	"commander/internal/store"
	"commander/internal/terminal"
)

// Options carries everything the HTTP surface serves. Nil fields turn
// the corresponding routes into 503 responses rather than panics.
type Options struct {
	Projects  *store.ProjectRepo
	Planning  *store.PlanningRepo
	Links     *store.LinkRepo
	Syncer    *project.Syncer
	Assistant *assistant.Reader
	Git       git.Reader
	Manager   *terminal.Manager
	WatchBus  *event.Bus[event.WatchEvent]

	Logger    *logging.Logger
	LogBuffer *logging.Buffer
	Registry  *metrics.Registry

	AuthToken      string
	AllowedOrigins []string
}

// RegisterRoutes wires every handler onto mux.
func RegisterRoutes(mux *http.ServeMux, opts Options) {
	if opts.Logger == nil {
		opts.Logger = logging.NewLogger(logging.NewBuffer(logging.DefaultBufferSize), logging.LevelInfo)
	}
	if opts.Registry == nil {
		opts.Registry = metrics.Default
	}
	if opts.Git == nil {
		opts.Git = git.CmdReader{}
	}

	rest := &RestHandler{
		Projects:  opts.Projects,
		Planning:  opts.Planning,
		Links:     opts.Links,
		Syncer:    opts.Syncer,
		Assistant: opts.Assistant,
		Git:       opts.Git,
		Manager:   opts.Manager,
		Logger:    opts.Logger,
		LogBuffer: opts.LogBuffer,
		Registry:  opts.Registry,
	}

	token := opts.AuthToken
	logger := opts.Logger
	handle := func(route string, handler apiHandler) {
		mux.Handle(route, restHandler(token, logger, handler))
	}

	handle("/api/projects", rest.handleProjects)
	handle("/api/projects/archived", rest.handleArchivedProjects)
	handle("/api/projects/archived/purge", rest.handlePurgeArchived)
	handle("/api/projects/sync", rest.handleProjectsSync)
	handle("/api/projects/", rest.handleProject)

	handle("/api/planning", rest.handlePlanningItems)
	handle("/api/planning/", rest.handlePlanningItem)

	handle("/api/assistant/tasks", rest.handleAssistantTasks)
	handle("/api/assistant/plans", rest.handleAssistantPlans)
	handle("/api/assistant/plans/", rest.handleAssistantPlan)
	handle("/api/assistant/sessions", rest.handleAssistantSessions)
	handle("/api/assistant/sessions/", rest.handleAssistantSession)

	handle("/api/search", rest.handleSearch)

	handle("/api/git/status", rest.handleGitStatus)
	handle("/api/git/log", rest.handleGitLog)
	handle("/api/git/branches", rest.handleGitBranches)

	handle("/api/terminals", rest.handleTerminals)
	handle("/api/terminals/", rest.handleTerminal)

	handle("/api/logs", rest.handleLogs)
	handle("/api/metrics", rest.handleMetrics)

	mux.Handle("/ws/terminal/", &TerminalHandler{
		Manager:        opts.Manager,
		Logger:         opts.Logger,
		AuthToken:      token,
		AllowedOrigins: opts.AllowedOrigins,
	})
	mux.Handle("/ws/events", &EventsHandler{
		Bus:            opts.WatchBus,
		Logger:         opts.Logger,
		AuthToken:      token,
		AllowedOrigins: opts.AllowedOrigins,
	})

	mux.Handle("/api/", restHandler(token, logger, func(http.ResponseWriter, *http.Request) *apiError {
		return &apiError{Status: http.StatusNotFound, Message: "not found"}
	}))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		setSecurityHeaders(w, cacheControlNoStore)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("commander ok\n"))
	})
}
