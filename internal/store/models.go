package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Project struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	Tags       []string  `json:"tags"`
	Color      string    `json:"color"`
	SortOrder  int64     `json:"sort_order"`
	IsArchived bool      `json:"is_archived"`
	CreatedAt  time.Time `json:"created_at"`
}

// ErrInvalidStatus is returned when a planning status is outside the
// allowed set.
var ErrInvalidStatus = errors.New("invalid planning status")

const (
	PlanningStatusBacklog    = "backlog"
	PlanningStatusTodo       = "todo"
	PlanningStatusInProgress = "in_progress"
	PlanningStatusDone       = "done"
)

var planningStatuses = map[string]struct{}{
	PlanningStatusBacklog:    {},
	PlanningStatusTodo:       {},
	PlanningStatusInProgress: {},
	PlanningStatusDone:       {},
}

func ValidPlanningStatus(status string) bool {
	_, ok := planningStatuses[status]
	return ok
}

type PlanningItem struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	Subject     string    `json:"subject"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Priority    int64     `json:"priority"`
	SortOrder   int64     `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SessionLink pins an assistant session to a project.
type SessionLink struct {
	SessionID string `json:"session_id"`
	ProjectID string `json:"project_id"`
}

func NewID() string {
	return uuid.NewString()
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		ts = nowUTC()
	}
	return ts.UTC().Format(time.RFC3339)
}

func parseTimestamp(v string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", v, err)
	}
	return ts, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	buf, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to encode tags: %w", err)
	}
	return string(buf), nil
}

func decodeTags(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags %q: %w", raw, err)
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}
