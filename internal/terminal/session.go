package terminal

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"
)

var ErrSessionClosed = errors.New("terminal session closed")

type Session struct {
	ID          string
	ProjectPath string
	Command     string
	Cols        uint16
	Rows        uint16
	CreatedAt   time.Time

	pty Pty
	cmd *exec.Cmd

	// controlMu serializes resize against the master handle; data writes
	// stay under the manager's table lock.
	controlMu sync.Mutex
	exitOnce  sync.Once
	exited    uint32
}

type SessionInfo struct {
	ID          string    `json:"id"`
	ProjectPath string    `json:"project_path"`
	Command     string    `json:"command"`
	CreatedAt   time.Time `json:"created_at"`
	Status      string    `json:"status"`
}

func (s *Session) Info() SessionInfo {
	status := "running"
	if s.Exited() {
		status = "exited"
	}
	return SessionInfo{
		ID:          s.ID,
		ProjectPath: s.ProjectPath,
		Command:     s.Command,
		CreatedAt:   s.CreatedAt,
		Status:      status,
	}
}

func (s *Session) Exited() bool {
	return atomic.LoadUint32(&s.exited) == 1
}

func (s *Session) write(data []byte) error {
	if _, err := s.pty.Write(data); err != nil {
		return fmt.Errorf("write pty: %w", err)
	}
	return nil
}

func (s *Session) resize(cols, rows uint16) error {
	s.controlMu.Lock()
	defer s.controlMu.Unlock()
	if err := s.pty.Resize(cols, rows); err != nil {
		return fmt.Errorf("resize pty: %w", err)
	}
	return nil
}

// closePty closes the master fd. The child's process group gets SIGHUP from
// the kernel once the slave side loses its controlling terminal.
func (s *Session) closePty() error {
	err := s.pty.Close()
	if err != nil && !errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("close pty: %w", err)
	}
	return nil
}

// readLoop drains the master fd until EOF or error, handing each chunk to
// onOutput. onExit fires exactly once, after the last chunk.
func (s *Session) readLoop(onOutput func([]byte), onExit func()) {
	buf := make([]byte, 4096)
	for {
		n, err := s.pty.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			onOutput(chunk)
		}
		if err != nil {
			s.markExited(onExit)
			return
		}
	}
}

func (s *Session) markExited(onExit func()) {
	s.exitOnce.Do(func() {
		atomic.StoreUint32(&s.exited, 1)
		s.reap()
		if onExit != nil {
			onExit()
		}
	})
}

// reap waits on the child so it does not linger as a zombie.
func (s *Session) reap() {
	if s.cmd == nil || s.cmd.Process == nil || s.cmd.ProcessState != nil {
		return
	}
	_ = s.cmd.Wait()
}
