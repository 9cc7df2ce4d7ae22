package assistant

import (
	"os"
	"path/filepath"
	"testing"

	"commander/internal/logging"
)

func newTestReader(t *testing.T) (*Reader, string) {
	t.Helper()
	root := t.TempDir()
	logger := logging.NewLoggerWithOutput(logging.NewBuffer(16), logging.LevelDebug, nil)
	return NewReader(root, logger), root
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestTasksMissingDirectory(t *testing.T) {
	reader, _ := newTestReader(t)
	groups, err := reader.Tasks()
	if err != nil {
		t.Fatalf("Tasks: %v", err)
	}
	if len(groups) != 0 {
		t.Fatalf("expected no groups, got %d", len(groups))
	}
}

func TestTasksReadsTeamDirectories(t *testing.T) {
	reader, root := newTestReader(t)
	writeFile(t, filepath.Join(root, "tasks", "team-a", "task-1.json"), `{
		"teamName": "Team A",
		"subject": "Wire the scanner",
		"description": "walk the scan root",
		"status": "in_progress",
		"owner": "sam",
		"activeForm": "Wiring the scanner",
		"createdAt": "2025-01-01T00:00:00Z",
		"updatedAt": "2025-01-02T00:00:00Z"
	}`)
	writeFile(t, filepath.Join(root, "tasks", "team-a", "notes.txt"), "not a task")

	groups, err := reader.Tasks()
	if err != nil {
		t.Fatalf("Tasks: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("expected one group, got %d", len(groups))
	}
	group := groups[0]
	if group.TeamID != "team-a" {
		t.Fatalf("TeamID = %q", group.TeamID)
	}
	if len(group.Tasks) != 1 {
		t.Fatalf("expected one task, got %d", len(group.Tasks))
	}
	task := group.Tasks[0]
	if task.ID != "task-1" {
		t.Errorf("ID = %q", task.ID)
	}
	if task.TeamName != "Team A" || task.Owner != "sam" {
		t.Errorf("unexpected metadata: %+v", task)
	}
	if task.Subject != "Wire the scanner" || task.Status != "in_progress" {
		t.Errorf("unexpected subject/status: %+v", task)
	}
	if task.ActiveForm != "Wiring the scanner" {
		t.Errorf("ActiveForm = %q", task.ActiveForm)
	}
}

func TestTasksDefaultsForSparseFiles(t *testing.T) {
	reader, root := newTestReader(t)
	writeFile(t, filepath.Join(root, "tasks", "solo", "bare.json"), `{}`)

	groups, err := reader.Tasks()
	if err != nil {
		t.Fatalf("Tasks: %v", err)
	}
	task := groups[0].Tasks[0]
	if task.Subject != "Untitled Task" {
		t.Errorf("Subject = %q", task.Subject)
	}
	if task.Status != "pending" {
		t.Errorf("Status = %q", task.Status)
	}
}

func TestTasksSkipsMalformedFiles(t *testing.T) {
	reader, root := newTestReader(t)
	writeFile(t, filepath.Join(root, "tasks", "team", "broken.json"), `{not json`)
	writeFile(t, filepath.Join(root, "tasks", "team", "good.json"), `{"subject": "ok"}`)

	groups, err := reader.Tasks()
	if err != nil {
		t.Fatalf("Tasks: %v", err)
	}
	if len(groups) != 1 || len(groups[0].Tasks) != 1 {
		t.Fatalf("expected the one well-formed task, got %+v", groups)
	}
	if groups[0].Tasks[0].Subject != "ok" {
		t.Errorf("Subject = %q", groups[0].Tasks[0].Subject)
	}
}
