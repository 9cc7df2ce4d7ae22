package project

import (
	"os"
	"path/filepath"
	"testing"
)

func mkProject(t *testing.T, root, name, marker string) string {
	t.Helper()
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	markerPath := filepath.Join(dir, marker)
	if marker == ".git" {
		if err := os.MkdirAll(markerPath, 0o755); err != nil {
			t.Fatalf("mkdir marker: %v", err)
		}
	} else {
		if err := os.WriteFile(markerPath, []byte("{}"), 0o644); err != nil {
			t.Fatalf("write marker: %v", err)
		}
	}
	return dir
}

func TestScanFindsMarkedDirectories(t *testing.T) {
	root := t.TempDir()
	mkProject(t, root, "beta", "Cargo.toml")
	mkProject(t, root, "alpha", "package.json")
	mkProject(t, root, "delta", "go.mod")
	mkProject(t, root, "gamma", ".git")

	// A plain directory without markers is not a project.
	if err := os.MkdirAll(filepath.Join(root, "notes"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	candidates, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(candidates) != 4 {
		t.Fatalf("found %d candidates, want 4: %+v", len(candidates), candidates)
	}
	// Sorted by name.
	for i, want := range []string{"alpha", "beta", "delta", "gamma"} {
		if candidates[i].Name != want {
			t.Fatalf("candidate %d = %q, want %q", i, candidates[i].Name, want)
		}
	}
}

func TestScanFindsNestedProjects(t *testing.T) {
	root := t.TempDir()
	group := filepath.Join(root, "group")
	if err := os.MkdirAll(group, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	mkProject(t, group, "nested", "package.json")

	candidates, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(candidates) != 1 || candidates[0].Name != "nested" {
		t.Fatalf("candidates = %+v", candidates)
	}
}

func TestScanStopsAtDepthTwo(t *testing.T) {
	root := t.TempDir()
	deep := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(deep, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	mkProject(t, deep, "too-deep", "package.json")

	candidates, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("depth-3 project should be ignored: %+v", candidates)
	}
}

func TestScanSkipsBuildInternals(t *testing.T) {
	root := t.TempDir()
	modules := filepath.Join(root, "node_modules")
	if err := os.MkdirAll(modules, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	mkProject(t, modules, "leftpad", "package.json")

	candidates, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("node_modules content should be skipped: %+v", candidates)
	}
}

func TestScanMissingRoot(t *testing.T) {
	candidates, err := Scan(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("candidates = %+v, want none", candidates)
	}
}

func TestScanReadsGitMeta(t *testing.T) {
	root := t.TempDir()
	dir := mkProject(t, root, "repo", ".git")
	if err := os.WriteFile(filepath.Join(dir, ".git", "HEAD"), []byte("ref: refs/heads/main\n"), 0o644); err != nil {
		t.Fatalf("write HEAD: %v", err)
	}

	candidates, err := Scan(root)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("candidates = %+v", candidates)
	}
	if candidates[0].Branch != "main" {
		t.Fatalf("branch = %q, want main", candidates[0].Branch)
	}
}
