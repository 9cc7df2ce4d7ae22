package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"commander/internal/api"
	"commander/internal/assistant"
	"commander/internal/config"
	"commander/internal/event"
	"commander/internal/logging"
	"commander/internal/metrics"
	"commander/internal/project"
	"commander/internal/store"
	"commander/internal/terminal"
	"commander/internal/watcher"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default ~/.commander/config.yaml)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		logging.NewLogger(nil, logging.LevelError).Error("config load failed", map[string]string{
			"error": err.Error(),
		})
		return err
	}

	logBuffer := logging.NewBuffer(logging.DefaultBufferSize)
	logger := logging.NewLogger(logBuffer, logging.Level(cfg.LogLevel))
	registry := metrics.Default

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg.DatabasePath)
	if err != nil {
		logger.Error("store open failed", map[string]string{
			"commander.category": "store",
			"path":               cfg.DatabasePath,
			"error":              err.Error(),
		})
		return err
	}
	defer st.Close()

	manager := terminal.NewManager(terminal.ManagerOptions{
		Logger:   logger,
		Registry: registry,
	})
	defer manager.Close()

	watchBus := event.NewBus[event.WatchEvent](ctx, event.BusOptions{
		Name:     "watch_events",
		Registry: registry,
	})
	defer watchBus.Close()

	stopWatchers := startWatchers(cfg, logger, registry, watchBus)
	defer stopWatchers()

	projects := store.NewProjectRepo(st.SQL())
	syncer := project.NewSyncer(projects, cfg.ScanRoot, logger)
	if _, err := syncer.Sync(ctx); err != nil {
		logger.Warn("initial project sync failed", map[string]string{
			"commander.category": "project",
			"error":              err.Error(),
		})
	}

	mux := http.NewServeMux()
	api.RegisterRoutes(mux, api.Options{
		Projects:       projects,
		Planning:       store.NewPlanningRepo(st.SQL()),
		Links:          store.NewLinkRepo(st.SQL()),
		Syncer:         syncer,
		Assistant:      assistant.NewReader(cfg.DataDir, logger),
		Manager:        manager,
		WatchBus:       watchBus,
		Logger:         logger,
		LogBuffer:      logBuffer,
		Registry:       registry,
		AuthToken:      cfg.Token,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("commander listening", map[string]string{
			"commander.category": "server",
			"addr":               server.Addr,
		})
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server stopped", map[string]string{
				"commander.category": "server",
				"error":              err.Error(),
			})
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received", nil)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown incomplete", map[string]string{
			"commander.category": "server",
			"error":              err.Error(),
		})
	}
	return nil
}

// startWatchers brings up the two filesystem watchers and returns a func
// that closes whichever of them started. Both are best-effort: a missing
// directory or an fsnotify failure downgrades to a warning and the server
// runs without change notifications.
func startWatchers(cfg *config.Config, logger *logging.Logger, registry *metrics.Registry, bus *event.Bus[event.WatchEvent]) func() {
	options := watcher.Options{
		Logger:   logger,
		Registry: registry,
		Bus:      bus,
	}

	var closers []func() error

	if _, err := os.Stat(cfg.DataDir); err != nil {
		logger.Warn("assistant data dir missing; change notifications disabled", map[string]string{
			"commander.category": "watcher",
			"path":               cfg.DataDir,
		})
	} else if aw, err := watcher.NewAssistantWatcher(cfg.DataDir, options); err != nil {
		logger.Warn("assistant watcher failed to start", map[string]string{
			"commander.category": "watcher",
			"path":               cfg.DataDir,
			"error":              err.Error(),
		})
	} else {
		closers = append(closers, aw.Close)
	}

	if pw, err := watcher.NewProjectWatcher(cfg.ScanRoot, options); err != nil {
		logger.Warn("project watcher failed to start", map[string]string{
			"commander.category": "watcher",
			"path":               cfg.ScanRoot,
			"error":              err.Error(),
		})
	} else {
		closers = append(closers, pw.Close)
	}

	return func() {
		for _, stop := range closers {
			_ = stop()
		}
	}
}
