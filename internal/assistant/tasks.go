package assistant

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultTaskSubject = "Untitled Task"
	defaultTaskStatus  = "pending"
)

// Task is one task file under tasks/<team>/<id>.json. The id is the
// file stem; every other field comes from the JSON body.
type Task struct {
	ID          string `json:"id"`
	TeamName    string `json:"team_name,omitempty"`
	Subject     string `json:"subject"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	Owner       string `json:"owner,omitempty"`
	ActiveForm  string `json:"active_form,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// TaskGroup is one team directory with its tasks.
type TaskGroup struct {
	TeamID string `json:"team_id"`
	Tasks  []Task `json:"tasks"`
}

// Tasks reads every team directory under tasks/. Unreadable or
// malformed task files are skipped with a warning so one broken file
// cannot hide the rest. A missing tasks directory yields an empty
// result.
func (r *Reader) Tasks() ([]TaskGroup, error) {
	tasksDir := filepath.Join(r.root, "tasks")
	entries, err := os.ReadDir(tasksDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []TaskGroup{}, nil
		}
		return nil, err
	}

	groups := make([]TaskGroup, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		teamDir := filepath.Join(tasksDir, entry.Name())
		taskEntries, err := os.ReadDir(teamDir)
		if err != nil {
			continue
		}

		group := TaskGroup{TeamID: entry.Name(), Tasks: []Task{}}
		for _, taskEntry := range taskEntries {
			name := taskEntry.Name()
			if taskEntry.IsDir() || !strings.HasSuffix(name, ".json") {
				continue
			}
			path := filepath.Join(teamDir, name)
			task, ok := r.readTask(path)
			if !ok {
				continue
			}
			group.Tasks = append(group.Tasks, task)
		}
		groups = append(groups, group)
	}
	return groups, nil
}

func (r *Reader) readTask(path string) (Task, bool) {
	content, err := os.ReadFile(path)
	if err != nil {
		r.logger.Warn("failed to read task file", map[string]string{
			"path":  path,
			"error": err.Error(),
		})
		return Task{}, false
	}

	var body map[string]any
	if err := json.Unmarshal(content, &body); err != nil {
		r.logger.Warn("skipped malformed task file", map[string]string{
			"path":  path,
			"error": err.Error(),
		})
		return Task{}, false
	}

	task := Task{
		ID:      strings.TrimSuffix(filepath.Base(path), ".json"),
		Subject: defaultTaskSubject,
		Status:  defaultTaskStatus,
	}
	if subject, ok := stringField(body, "subject"); ok {
		task.Subject = subject
	}
	if status, ok := stringField(body, "status"); ok {
		task.Status = status
	}
	task.TeamName, _ = stringField(body, "teamName")
	task.Description, _ = stringField(body, "description")
	task.Owner, _ = stringField(body, "owner")
	task.ActiveForm, _ = stringField(body, "activeForm")
	task.CreatedAt, _ = stringField(body, "createdAt")
	task.UpdatedAt, _ = stringField(body, "updatedAt")
	return task, true
}
