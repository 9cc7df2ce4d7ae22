package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

type PlanningRepo struct {
	db *sql.DB
}

func NewPlanningRepo(db *sql.DB) *PlanningRepo {
	return &PlanningRepo{db: db}
}

func (r *PlanningRepo) Create(ctx context.Context, item *PlanningItem) error {
	if item.ID == "" {
		item.ID = NewID()
	}
	if item.Status == "" {
		item.Status = PlanningStatusBacklog
	}
	if !ValidPlanningStatus(item.Status) {
		return fmt.Errorf("%w %q", ErrInvalidStatus, item.Status)
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = nowUTC()
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = item.CreatedAt
	}

	_, err := r.db.ExecContext(ctx, `
INSERT INTO planning_items (id, project_id, subject, description, status, priority, sort_order, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`, item.ID, nullableID(item.ProjectID), item.Subject, item.Description, item.Status, item.Priority, item.SortOrder, formatTimestamp(item.CreatedAt), formatTimestamp(item.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to create planning item: %w", err)
	}
	return nil
}

// ListByProject returns a project's items grouped by status order.
func (r *PlanningRepo) ListByProject(ctx context.Context, projectID string) ([]*PlanningItem, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, project_id, subject, description, status, priority, sort_order, created_at, updated_at
FROM planning_items WHERE project_id = ?
ORDER BY status ASC, sort_order ASC, created_at ASC
`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list planning items: %w", err)
	}
	defer rows.Close()

	items := []*PlanningItem{}
	for rows.Next() {
		item, err := scanPlanningItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// PlanningSearchResult is a planning item hit carrying its project's
// name for display.
type PlanningSearchResult struct {
	ID          string `json:"id"`
	ProjectID   string `json:"project_id"`
	ProjectName string `json:"project_name"`
	Subject     string `json:"subject"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
}

// Search matches items whose subject or description contain the query,
// case-insensitively, most recently updated first.
func (r *PlanningRepo) Search(ctx context.Context, query string, limit int) ([]*PlanningSearchResult, error) {
	like := "%" + strings.ToLower(query) + "%"
	rows, err := r.db.QueryContext(ctx, `
SELECT pi.id, pi.project_id, COALESCE(p.name, ''), pi.subject, COALESCE(pi.description, ''), pi.status
FROM planning_items pi
LEFT JOIN projects p ON pi.project_id = p.id
WHERE LOWER(pi.subject) LIKE ? OR LOWER(COALESCE(pi.description, '')) LIKE ?
ORDER BY pi.updated_at DESC
LIMIT ?
`, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search planning items: %w", err)
	}
	defer rows.Close()

	results := []*PlanningSearchResult{}
	for rows.Next() {
		result := &PlanningSearchResult{}
		if err := rows.Scan(&result.ID, &result.ProjectID, &result.ProjectName, &result.Subject, &result.Description, &result.Status); err != nil {
			return nil, fmt.Errorf("failed to scan planning search result: %w", err)
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

func (r *PlanningRepo) Get(ctx context.Context, id string) (*PlanningItem, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, project_id, subject, description, status, priority, sort_order, created_at, updated_at
FROM planning_items WHERE id = ?
`, id)
	return scanPlanningItem(row)
}

func (r *PlanningRepo) Update(ctx context.Context, id, subject, description string) error {
	result, err := r.db.ExecContext(ctx, `
UPDATE planning_items SET subject = ?, description = ?, updated_at = ? WHERE id = ?
`, subject, description, formatTimestamp(nowUTC()), id)
	if err != nil {
		return fmt.Errorf("failed to update planning item: %w", err)
	}
	return requireRow(result)
}

// Move changes an item's status column and position inside it.
func (r *PlanningRepo) Move(ctx context.Context, id, status string, sortOrder int64) error {
	if !ValidPlanningStatus(status) {
		return fmt.Errorf("%w %q", ErrInvalidStatus, status)
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE planning_items SET status = ?, sort_order = ?, updated_at = ? WHERE id = ?
`, status, sortOrder, formatTimestamp(nowUTC()), id)
	if err != nil {
		return fmt.Errorf("failed to move planning item: %w", err)
	}
	return requireRow(result)
}

func (r *PlanningRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM planning_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete planning item: %w", err)
	}
	return requireRow(result)
}

func scanPlanningItem(row rowScanner) (*PlanningItem, error) {
	var (
		item       PlanningItem
		projectID  sql.NullString
		createdRaw string
		updatedRaw string
	)
	err := row.Scan(&item.ID, &projectID, &item.Subject, &item.Description, &item.Status, &item.Priority, &item.SortOrder, &createdRaw, &updatedRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan planning item: %w", err)
	}

	item.ProjectID = projectID.String
	if item.CreatedAt, err = parseTimestamp(createdRaw); err != nil {
		return nil, err
	}
	if item.UpdatedAt, err = parseTimestamp(updatedRaw); err != nil {
		return nil, err
	}
	return &item, nil
}

func nullableID(id string) any {
	if id == "" {
		return nil
	}
	return id
}
