package project

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"commander/internal/logging"
	"commander/internal/store"
)

// SyncResult reports what one reconcile pass did.
type SyncResult struct {
	Added     []*store.Project `json:"added"`
	Unchanged int              `json:"unchanged_count"`
	Archived  int              `json:"archived_count"`
}

// Syncer reconciles scanned folders against stored project records. Records
// are matched by path: new paths are inserted, stored paths that vanished
// from disk (or fell outside the scan root) are archived, never hard-deleted.
type Syncer struct {
	projects *store.ProjectRepo
	scanRoot string
	logger   *logging.Logger
}

func NewSyncer(projects *store.ProjectRepo, scanRoot string, logger *logging.Logger) *Syncer {
	if logger == nil {
		logger = logging.NewLoggerWithOutput(logging.NewBuffer(logging.DefaultBufferSize), logging.LevelInfo, nil)
	}
	return &Syncer{
		projects: projects,
		scanRoot: scanRoot,
		logger:   logger,
	}
}

// DefaultScanRoot is where projects live when no root is configured.
func DefaultScanRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine home dir: %w", err)
	}
	return filepath.Join(home, "cv"), nil
}

func (syncer *Syncer) Sync(ctx context.Context) (SyncResult, error) {
	scanned, err := Scan(syncer.scanRoot)
	if err != nil {
		return SyncResult{}, fmt.Errorf("scan %q: %w", syncer.scanRoot, err)
	}

	active, err := syncer.projects.List(ctx)
	if err != nil {
		return SyncResult{}, err
	}
	archived, err := syncer.projects.ListArchived(ctx)
	if err != nil {
		return SyncResult{}, err
	}

	byPath := make(map[string]*store.Project, len(active)+len(archived))
	for _, project := range active {
		byPath[project.Path] = project
	}
	for _, project := range archived {
		byPath[project.Path] = project
	}

	result := SyncResult{Added: []*store.Project{}}
	matched := make(map[string]struct{})

	for _, candidate := range scanned {
		if existing, ok := byPath[candidate.Path]; ok {
			matched[existing.ID] = struct{}{}
			result.Unchanged++
			continue
		}

		project := &store.Project{
			Name: candidate.Name,
			Path: candidate.Path,
		}
		if err := syncer.projects.Create(ctx, project); err != nil {
			return SyncResult{}, err
		}
		result.Added = append(result.Added, project)
	}

	for _, project := range active {
		if _, ok := matched[project.ID]; ok {
			continue
		}
		if syncer.stillPresent(project.Path) {
			continue
		}
		if err := syncer.projects.SetArchived(ctx, project.ID, true); err != nil {
			return SyncResult{}, err
		}
		result.Archived++
	}

	syncer.logger.Info("project sync complete", map[string]string{
		"commander.category": "projects",
		"added":              strconv.Itoa(len(result.Added)),
		"unchanged":          strconv.Itoa(result.Unchanged),
		"archived":           strconv.Itoa(result.Archived),
	})
	return result, nil
}

// stillPresent reports whether a stored path survives the current scan
// scope: it must exist on disk and live under the scan root.
func (syncer *Syncer) stillPresent(path string) bool {
	if _, err := os.Stat(path); err != nil {
		return false
	}
	rel, err := filepath.Rel(syncer.scanRoot, path)
	if err != nil {
		return false
	}
	return !strings.HasPrefix(rel, "..")
}
