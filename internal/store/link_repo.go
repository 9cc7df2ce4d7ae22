package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// LinkRepo maintains the session to project pinning table.
type LinkRepo struct {
	db *sql.DB
}

func NewLinkRepo(db *sql.DB) *LinkRepo {
	return &LinkRepo{db: db}
}

func (r *LinkRepo) Link(ctx context.Context, sessionID, projectID string) error {
	_, err := r.db.ExecContext(ctx, `
INSERT OR IGNORE INTO session_project_links (session_id, project_id) VALUES (?, ?)
`, sessionID, projectID)
	if err != nil {
		return fmt.Errorf("failed to link session: %w", err)
	}
	return nil
}

func (r *LinkRepo) Unlink(ctx context.Context, sessionID, projectID string) error {
	_, err := r.db.ExecContext(ctx, `
DELETE FROM session_project_links WHERE session_id = ? AND project_id = ?
`, sessionID, projectID)
	if err != nil {
		return fmt.Errorf("failed to unlink session: %w", err)
	}
	return nil
}

// SessionsForProject lists session ids pinned to a project.
func (r *LinkRepo) SessionsForProject(ctx context.Context, projectID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT session_id FROM session_project_links WHERE project_id = ? ORDER BY session_id ASC
`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list session links: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session link: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ProjectForSession resolves the project a session is pinned to, if any.
func (r *LinkRepo) ProjectForSession(ctx context.Context, sessionID string) (string, error) {
	var projectID string
	err := r.db.QueryRowContext(ctx, `
SELECT project_id FROM session_project_links WHERE session_id = ? LIMIT 1
`, sessionID).Scan(&projectID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve session link: %w", err)
	}
	return projectID, nil
}
