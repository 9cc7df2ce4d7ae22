// Package fsutil holds path validation shared by components that accept
// user-supplied filesystem locations.
package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrOutsideHome = errors.New("path must be within home directory")

// ValidateHomePath resolves path and verifies it sits under the user's home
// directory. Paths that do not exist yet are accepted by resolving the parent
// instead, so files about to be created still validate.
func ValidateHomePath(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		parent := filepath.Dir(path)
		resolvedParent, parentErr := filepath.EvalSymlinks(parent)
		if parentErr != nil {
			return "", fmt.Errorf("resolve path %q: %w", path, parentErr)
		}
		resolved = filepath.Join(resolvedParent, filepath.Base(path))
	}

	abs, err := filepath.Abs(resolved)
	if err != nil {
		return "", fmt.Errorf("resolve path %q: %w", path, err)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine home dir: %w", err)
	}

	if !withinDir(abs, home) {
		return "", ErrOutsideHome
	}
	return abs, nil
}

func withinDir(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel))
}
