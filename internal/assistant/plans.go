package assistant

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	planPreviewLines = 3
	planPreviewRunes = 200
)

// Plan is one markdown note under plans/. The title comes from the
// first level-one heading, falling back to the file stem.
type Plan struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	Title      string `json:"title"`
	Preview    string `json:"preview"`
	Content    string `json:"content"`
	ModifiedAt string `json:"modified_at,omitempty"`
}

// Plans lists every .md file under plans/, newest first. A missing
// plans directory yields an empty result.
func (r *Reader) Plans() ([]Plan, error) {
	plansDir := filepath.Join(r.root, "plans")
	entries, err := os.ReadDir(plansDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Plan{}, nil
		}
		return nil, err
	}

	plans := make([]Plan, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".md") {
			continue
		}
		path := filepath.Join(plansDir, name)
		content, err := os.ReadFile(path)
		if err != nil {
			continue
		}

		plan := Plan{
			ID:       strings.TrimSuffix(name, ".md"),
			Filename: name,
			Content:  string(content),
		}
		plan.Title, plan.Preview = summarizePlan(plan.Content, plan.ID)
		if info, err := entry.Info(); err == nil {
			plan.ModifiedAt = info.ModTime().UTC().Format(time.RFC3339)
		}
		plans = append(plans, plan)
	}

	sort.Slice(plans, func(i, j int) bool {
		return plans[i].ModifiedAt > plans[j].ModifiedAt
	})
	return plans, nil
}

// Plan returns the raw markdown of a single plan file.
func (r *Reader) Plan(filename string) (string, error) {
	if err := checkName(filename); err != nil {
		return "", err
	}
	content, err := os.ReadFile(filepath.Join(r.root, "plans", filename))
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// summarizePlan extracts the title from the first "# " heading and
// builds a short preview from the first non-heading, non-empty lines.
func summarizePlan(content, fallbackTitle string) (title, preview string) {
	title = fallbackTitle
	previewLines := make([]string, 0, planPreviewLines)
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "# ") && title == fallbackTitle {
			title = strings.TrimPrefix(line, "# ")
			continue
		}
		if len(previewLines) < planPreviewLines && line != "" && !strings.HasPrefix(line, "#") {
			previewLines = append(previewLines, line)
		}
	}
	preview = strings.Join(previewLines, " ")
	if runes := []rune(preview); len(runes) > planPreviewRunes {
		preview = string(runes[:planPreviewRunes])
	}
	return title, preview
}
