package assistant

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Plan matching reads the title plus the leading content so huge plans
// are not scanned end to end.
const searchableHeadRunes = 500

// TaskHit is a task search hit tagged with its team directory.
type TaskHit struct {
	Task
	TeamID string `json:"team_id"`
}

// SearchPlans returns plans whose title or leading content contain the
// query, case-insensitively. Content is left out of the hits; matching
// stops once limit hits are collected.
func (r *Reader) SearchPlans(query string, limit int) ([]Plan, error) {
	q := strings.ToLower(query)
	plansDir := filepath.Join(r.root, "plans")
	entries, err := os.ReadDir(plansDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Plan{}, nil
		}
		return nil, err
	}

	hits := []Plan{}
	for _, entry := range entries {
		if len(hits) >= limit {
			break
		}
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".md") {
			continue
		}
		content, err := os.ReadFile(filepath.Join(plansDir, name))
		if err != nil {
			continue
		}

		plan := Plan{
			ID:       strings.TrimSuffix(name, ".md"),
			Filename: name,
		}
		plan.Title, plan.Preview = summarizePlan(string(content), plan.ID)
		if !planMatches(q, plan.Title, string(content)) {
			continue
		}
		if info, err := entry.Info(); err == nil {
			plan.ModifiedAt = info.ModTime().UTC().Format(time.RFC3339)
		}
		hits = append(hits, plan)
	}
	return hits, nil
}

func planMatches(q, title, content string) bool {
	if runes := []rune(content); len(runes) > searchableHeadRunes {
		content = string(runes[:searchableHeadRunes])
	}
	return strings.Contains(strings.ToLower(title), q) ||
		strings.Contains(strings.ToLower(content), q)
}

// SearchTasks returns tasks across every team whose subject or
// description contain the query, case-insensitively. Matching stops
// once limit hits are collected.
func (r *Reader) SearchTasks(query string, limit int) ([]TaskHit, error) {
	q := strings.ToLower(query)
	tasksDir := filepath.Join(r.root, "tasks")
	entries, err := os.ReadDir(tasksDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []TaskHit{}, nil
		}
		return nil, err
	}

	hits := []TaskHit{}
outer:
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		teamDir := filepath.Join(tasksDir, entry.Name())
		taskEntries, err := os.ReadDir(teamDir)
		if err != nil {
			continue
		}
		for _, taskEntry := range taskEntries {
			if len(hits) >= limit {
				break outer
			}
			name := taskEntry.Name()
			if taskEntry.IsDir() || !strings.HasSuffix(name, ".json") {
				continue
			}
			task, ok := r.readTask(filepath.Join(teamDir, name))
			if !ok {
				continue
			}
			if !strings.Contains(strings.ToLower(task.Subject), q) &&
				!strings.Contains(strings.ToLower(task.Description), q) {
				continue
			}
			hits = append(hits, TaskHit{Task: task, TeamID: entry.Name()})
		}
	}
	return hits, nil
}
