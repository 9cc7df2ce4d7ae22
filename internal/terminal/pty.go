package terminal

import "os/exec"

type Pty interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	Resize(cols, rows uint16) error
}

// StartSpec describes the child process a new PTY session runs.
type StartSpec struct {
	Command string
	Args    []string
	Dir     string
	Env     []string
	Cols    uint16
	Rows    uint16
}

type PtyFactory interface {
	Start(spec StartSpec) (Pty, *exec.Cmd, error)
}

type defaultPtyFactory struct{}

func (defaultPtyFactory) Start(spec StartSpec) (Pty, *exec.Cmd, error) {
	return startPty(spec)
}

func DefaultPtyFactory() PtyFactory {
	return defaultPtyFactory{}
}
