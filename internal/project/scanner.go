// Package project discovers project folders on disk and reconciles them with
// the store.
package project

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"commander/internal/git"
)

// Project roots are directories carrying one of these markers.
var projectMarkers = []string{"package.json", "Cargo.toml", "go.mod", ".git"}

// Directories that look like projects but are build or VCS internals.
var skipFragments = []string{"node_modules", "/.git", "/target", "/.cargo"}

const maxScanDepth = 2

// Candidate is a directory that looks like a project root.
type Candidate struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Branch string `json:"branch,omitempty"`
	Origin string `json:"origin,omitempty"`
}

// Scan walks root up to two levels deep and returns marker-bearing
// directories sorted by name. A missing root yields an empty result.
func Scan(root string) ([]Candidate, error) {
	if _, err := os.Stat(root); err != nil {
		if os.IsNotExist(err) {
			return []Candidate{}, nil
		}
		return nil, err
	}

	candidates := []Candidate{}
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if !entry.IsDir() || path == root {
			return nil
		}
		if depthBelow(root, path) > maxScanDepth {
			return fs.SkipDir
		}
		if shouldSkip(path) {
			return fs.SkipDir
		}
		if !hasProjectMarker(path) {
			return nil
		}

		candidate := Candidate{
			Name: filepath.Base(path),
			Path: path,
		}
		if meta, ok := git.ReadMeta(path); ok {
			candidate.Branch = meta.Branch
			candidate.Origin = meta.Origin
		}
		candidates = append(candidates, candidate)
		// Project roots are not scanned further; nested checkouts inside a
		// project are almost always vendored code.
		return fs.SkipDir
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Name < candidates[j].Name
	})
	return candidates, nil
}

func depthBelow(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

func shouldSkip(path string) bool {
	slashed := filepath.ToSlash(path)
	for _, fragment := range skipFragments {
		if strings.Contains(slashed, fragment) {
			return true
		}
	}
	return false
}

func hasProjectMarker(path string) bool {
	for _, marker := range projectMarkers {
		if _, err := os.Stat(filepath.Join(path, marker)); err == nil {
			return true
		}
	}
	return false
}
