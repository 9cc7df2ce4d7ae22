// Package assistant reads the AI assistant's on-disk data directory:
// task files, plan notes, and recorded sessions. Everything here is a
// read path; the assistant owns the files and this package never
// writes them.
package assistant

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"commander/internal/logging"
)

// ErrInvalidName is returned when a caller-supplied file or directory
// name would escape the data directory.
var ErrInvalidName = errors.New("assistant: invalid file name")

// Reader exposes the assistant data directory as typed collections.
type Reader struct {
	root   string
	logger *logging.Logger
}

// NewReader returns a Reader rooted at dir. A nil logger falls back to
// the package default.
func NewReader(dir string, logger *logging.Logger) *Reader {
	if logger == nil {
		logger = logging.NewLogger(logging.NewBuffer(logging.DefaultBufferSize), logging.LevelInfo)
	}
	return &Reader{
		root:   dir,
		logger: logger.With(map[string]string{"commander.category": "assistant"}),
	}
}

// DefaultDataDir is the assistant data directory under the user's home,
// falling back to /tmp when the home directory cannot be resolved.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "/tmp"
	}
	return filepath.Join(home, ".claude")
}

// Root returns the directory the reader was opened on.
func (r *Reader) Root() string {
	return r.root
}

// checkName rejects names that contain path separators or traversal
// elements. Task, plan and session names all come from HTTP callers.
func checkName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return ErrInvalidName
	}
	return nil
}

func stringField(m map[string]any, key string) (string, bool) {
	value, ok := m[key].(string)
	return value, ok
}
