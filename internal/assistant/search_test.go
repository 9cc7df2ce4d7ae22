package assistant

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestSearchPlansMatchesTitleAndHead(t *testing.T) {
	reader, root := newTestReader(t)
	writeFile(t, filepath.Join(root, "plans", "rollout.md"),
		"# Rollout Plan\n\nShip the watcher first.\n")
	writeFile(t, filepath.Join(root, "plans", "cleanup.md"),
		"# Cleanup\n\nRemove the rollout shims.\n")
	writeFile(t, filepath.Join(root, "plans", "other.md"),
		"# Something Else\n\nUnrelated notes.\n")

	hits, err := reader.SearchPlans("rollout", 5)
	if err != nil {
		t.Fatalf("SearchPlans: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d: %+v", len(hits), hits)
	}
	for _, hit := range hits {
		if hit.Content != "" {
			t.Errorf("hit %q carries content", hit.ID)
		}
		if hit.ID == "other" {
			t.Errorf("unexpected hit %q", hit.ID)
		}
	}
}

func TestSearchPlansIgnoresLateContent(t *testing.T) {
	reader, root := newTestReader(t)
	body := "# Big Plan\n\n" + strings.Repeat("filler ", 200) + "\nneedle appears here\n"
	writeFile(t, filepath.Join(root, "plans", "big.md"), body)

	hits, err := reader.SearchPlans("needle", 5)
	if err != nil {
		t.Fatalf("SearchPlans: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("match beyond the head should be skipped: %+v", hits)
	}
}

func TestSearchPlansMissingDirectory(t *testing.T) {
	reader, _ := newTestReader(t)
	hits, err := reader.SearchPlans("anything", 5)
	if err != nil {
		t.Fatalf("SearchPlans: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits, got %d", len(hits))
	}
}

func TestSearchTasksMatchesAcrossTeams(t *testing.T) {
	reader, root := newTestReader(t)
	writeFile(t, filepath.Join(root, "tasks", "alpha", "t1.json"),
		`{"subject":"Investigate flaky watcher","status":"pending"}`)
	writeFile(t, filepath.Join(root, "tasks", "beta", "t2.json"),
		`{"subject":"cleanup","description":"the watcher test is flaky"}`)
	writeFile(t, filepath.Join(root, "tasks", "beta", "t3.json"),
		`{"subject":"write docs"}`)

	hits, err := reader.SearchTasks("flaky", 5)
	if err != nil {
		t.Fatalf("SearchTasks: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d: %+v", len(hits), hits)
	}
	teams := map[string]bool{}
	for _, hit := range hits {
		teams[hit.TeamID] = true
		if hit.ID == "t3" {
			t.Errorf("unexpected hit %+v", hit)
		}
	}
	if !teams["alpha"] || !teams["beta"] {
		t.Fatalf("teams = %v", teams)
	}
}

func TestSearchTasksHonorsLimit(t *testing.T) {
	reader, root := newTestReader(t)
	for _, name := range []string{"t1", "t2", "t3"} {
		writeFile(t, filepath.Join(root, "tasks", "alpha", name+".json"),
			`{"subject":"deploy commander"}`)
	}

	hits, err := reader.SearchTasks("deploy", 2)
	if err != nil {
		t.Fatalf("SearchTasks: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
}
