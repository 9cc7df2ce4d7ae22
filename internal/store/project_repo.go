package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

var ErrNotFound = errors.New("record not found")

type ProjectRepo struct {
	db *sql.DB
}

func NewProjectRepo(db *sql.DB) *ProjectRepo {
	return &ProjectRepo{db: db}
}

func (r *ProjectRepo) Create(ctx context.Context, project *Project) error {
	if project.ID == "" {
		project.ID = NewID()
	}
	if project.CreatedAt.IsZero() {
		project.CreatedAt = nowUTC()
	}

	tags, err := encodeTags(project.Tags)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO projects (id, name, path, tags, color, sort_order, is_archived, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, project.ID, project.Name, project.Path, tags, project.Color, project.SortOrder, boolToInt(project.IsArchived), formatTimestamp(project.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

func (r *ProjectRepo) Get(ctx context.Context, id string) (*Project, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, path, tags, color, sort_order, is_archived, created_at
FROM projects WHERE id = ?
`, id)
	return scanProject(row)
}

func (r *ProjectRepo) GetByPath(ctx context.Context, path string) (*Project, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, path, tags, color, sort_order, is_archived, created_at
FROM projects WHERE path = ?
`, path)
	return scanProject(row)
}

// List returns active projects ordered for display.
func (r *ProjectRepo) List(ctx context.Context) ([]*Project, error) {
	return r.list(ctx, 0)
}

// ListArchived returns soft-deleted projects.
func (r *ProjectRepo) ListArchived(ctx context.Context) ([]*Project, error) {
	return r.list(ctx, 1)
}

func (r *ProjectRepo) list(ctx context.Context, archived int) ([]*Project, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, path, tags, color, sort_order, is_archived, created_at
FROM projects WHERE is_archived = ?
ORDER BY sort_order ASC, name ASC
`, archived)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := []*Project{}
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

// Search matches active projects whose name, path, or tags contain the
// query, case-insensitively.
func (r *ProjectRepo) Search(ctx context.Context, query string, limit int) ([]*Project, error) {
	like := "%" + strings.ToLower(query) + "%"
	rows, err := r.db.QueryContext(ctx, `
SELECT id, name, path, tags, color, sort_order, is_archived, created_at
FROM projects WHERE is_archived = 0
AND (LOWER(name) LIKE ? OR LOWER(path) LIKE ? OR LOWER(COALESCE(tags, '')) LIKE ?)
ORDER BY sort_order ASC, name ASC
LIMIT ?
`, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search projects: %w", err)
	}
	defer rows.Close()

	projects := []*Project{}
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

func (r *ProjectRepo) Update(ctx context.Context, project *Project) error {
	tags, err := encodeTags(project.Tags)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `
UPDATE projects SET name = ?, tags = ?, color = ?, sort_order = ? WHERE id = ?
`, project.Name, tags, project.Color, project.SortOrder, project.ID)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	return requireRow(result)
}

// UpdatePath records a rename or relocation detected during sync.
func (r *ProjectRepo) UpdatePath(ctx context.Context, id, path, name string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE projects SET path = ?, name = ? WHERE id = ?
`, path, name, id)
	if err != nil {
		return fmt.Errorf("failed to update project path: %w", err)
	}
	return requireRow(result)
}

func (r *ProjectRepo) SetArchived(ctx context.Context, id string, archived bool) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE projects SET is_archived = ? WHERE id = ?
`, boolToInt(archived), id)
	if err != nil {
		return fmt.Errorf("failed to set archived: %w", err)
	}
	return requireRow(result)
}

func (r *ProjectRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return requireRow(result)
}

// PurgeArchived hard-deletes every archived project and returns the count.
func (r *ProjectRepo) PurgeArchived(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE is_archived = 1`)
	if err != nil {
		return 0, fmt.Errorf("failed to purge archived projects: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged projects: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProject(row rowScanner) (*Project, error) {
	var (
		project      Project
		tagsRaw      string
		archivedFlag int
		createdRaw   string
	)
	err := row.Scan(&project.ID, &project.Name, &project.Path, &tagsRaw, &project.Color, &project.SortOrder, &archivedFlag, &createdRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan project: %w", err)
	}

	if project.Tags, err = decodeTags(tagsRaw); err != nil {
		return nil, err
	}
	if project.CreatedAt, err = parseTimestamp(createdRaw); err != nil {
		return nil, err
	}
	project.IsArchived = archivedFlag != 0
	return &project, nil
}

func requireRow(result sql.Result) error {
	count, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to count affected rows: %w", err)
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
