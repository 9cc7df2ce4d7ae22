package fsutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestValidateHomePathAcceptsHomeChild(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}

	got, err := ValidateHomePath(home)
	if err != nil {
		t.Fatalf("ValidateHomePath(home) error = %v", err)
	}
	if got == "" {
		t.Fatalf("expected resolved path")
	}
}

func TestValidateHomePathAcceptsMissingLeaf(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}

	candidate := filepath.Join(home, "commander-test-does-not-exist-12345")
	got, err := ValidateHomePath(candidate)
	if err != nil {
		t.Fatalf("ValidateHomePath(%q) error = %v", candidate, err)
	}
	if filepath.Base(got) != filepath.Base(candidate) {
		t.Fatalf("resolved %q, want leaf %q", got, filepath.Base(candidate))
	}
}

func TestValidateHomePathRejectsOutsideHome(t *testing.T) {
	if _, err := os.UserHomeDir(); err != nil {
		t.Skipf("no home dir: %v", err)
	}

	if _, err := ValidateHomePath("/etc"); !errors.Is(err, ErrOutsideHome) {
		t.Fatalf("expected ErrOutsideHome, got %v", err)
	}
}
