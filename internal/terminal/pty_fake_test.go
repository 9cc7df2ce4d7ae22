package terminal

import (
	"io"
	"os/exec"
	"sync"
)

// scriptedPty is a hand-driven Pty: tests feed output with Emit and observe
// writes and resizes through the mutex-guarded slices.
type scriptedPty struct {
	mu      sync.Mutex
	writes  [][]byte
	resizes [][2]uint16
	closed  bool

	chunks  chan []byte
	done    chan struct{}
	pending []byte

	closeOnce sync.Once
}

func newScriptedPty() *scriptedPty {
	return &scriptedPty{
		chunks: make(chan []byte, 16),
		done:   make(chan struct{}),
	}
}

func (pty *scriptedPty) Read(data []byte) (int, error) {
	if len(pty.pending) > 0 {
		n := copy(data, pty.pending)
		pty.pending = pty.pending[n:]
		return n, nil
	}
	select {
	case chunk := <-pty.chunks:
		n := copy(data, chunk)
		pty.pending = chunk[n:]
		return n, nil
	case <-pty.done:
		return 0, io.EOF
	}
}

func (pty *scriptedPty) Write(data []byte) (int, error) {
	pty.mu.Lock()
	defer pty.mu.Unlock()
	pty.writes = append(pty.writes, append([]byte(nil), data...))
	return len(data), nil
}

func (pty *scriptedPty) Close() error {
	pty.closeOnce.Do(func() {
		pty.mu.Lock()
		pty.closed = true
		pty.mu.Unlock()
		close(pty.done)
	})
	return nil
}

func (pty *scriptedPty) Resize(cols, rows uint16) error {
	pty.mu.Lock()
	defer pty.mu.Unlock()
	pty.resizes = append(pty.resizes, [2]uint16{cols, rows})
	return nil
}

func (pty *scriptedPty) Emit(text string) {
	pty.chunks <- []byte(text)
}

func (pty *scriptedPty) Writes() [][]byte {
	pty.mu.Lock()
	defer pty.mu.Unlock()
	return append([][]byte(nil), pty.writes...)
}

func (pty *scriptedPty) Resizes() [][2]uint16 {
	pty.mu.Lock()
	defer pty.mu.Unlock()
	return append([][2]uint16(nil), pty.resizes...)
}

func (pty *scriptedPty) Closed() bool {
	pty.mu.Lock()
	defer pty.mu.Unlock()
	return pty.closed
}

// scriptedFactory hands out scripted PTYs in order and records each spec.
type scriptedFactory struct {
	mu    sync.Mutex
	ptys  []*scriptedPty
	specs []StartSpec
}

func (factory *scriptedFactory) Start(spec StartSpec) (Pty, *exec.Cmd, error) {
	factory.mu.Lock()
	defer factory.mu.Unlock()
	pty := newScriptedPty()
	factory.ptys = append(factory.ptys, pty)
	factory.specs = append(factory.specs, spec)
	return pty, nil, nil
}

func (factory *scriptedFactory) last() (*scriptedPty, StartSpec) {
	factory.mu.Lock()
	defer factory.mu.Unlock()
	if len(factory.ptys) == 0 {
		return nil, StartSpec{}
	}
	return factory.ptys[len(factory.ptys)-1], factory.specs[len(factory.specs)-1]
}
