package terminal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"commander/internal/event"
	"commander/internal/logging"
	"commander/internal/metrics"
)

var ErrSessionNotFound = errors.New("terminal session not found")

// MaxDimension bounds the size of a freshly created PTY. Resize requests are
// passed through to the kernel unchecked.
const MaxDimension = 500

type InvalidDimensionsError struct {
	Cols uint16
	Rows uint16
}

func (e *InvalidDimensionsError) Error() string {
	return fmt.Sprintf("invalid pty dimensions: %dx%d (max %dx%d)", e.Cols, e.Rows, MaxDimension, MaxDimension)
}

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

type ManagerOptions struct {
	// Command overrides binary resolution; empty means resolve per session.
	Command     string
	PtyFactory  PtyFactory
	Clock       Clock
	IDGenerator func() string
	BaseEnv     []string
	Logger      *logging.Logger
	Registry    *metrics.Registry
	Bus         *event.Bus[event.TerminalEvent]
}

// Manager owns the session table. One mutex guards the table and serializes
// data writes; per-session resize takes the session's own control lock.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	command  string
	factory  PtyFactory
	clock    Clock
	newID    func() string
	baseEnv  []string
	logger   *logging.Logger
	registry *metrics.Registry
	bus      *event.Bus[event.TerminalEvent]
}

func NewManager(opts ManagerOptions) *Manager {
	factory := opts.PtyFactory
	if factory == nil {
		factory = DefaultPtyFactory()
	}

	clock := opts.Clock
	if clock == nil {
		clock = realClock{}
	}

	newID := opts.IDGenerator
	if newID == nil {
		newID = uuid.NewString
	}

	baseEnv := opts.BaseEnv
	if baseEnv == nil {
		baseEnv = os.Environ()
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.NewLoggerWithOutput(logging.NewBuffer(logging.DefaultBufferSize), logging.LevelInfo, nil)
	}

	registry := opts.Registry
	if registry == nil {
		registry = metrics.Default
	}

	bus := opts.Bus
	if bus == nil {
		bus = event.NewBus[event.TerminalEvent](context.Background(), event.BusOptions{
			Name:     "terminal_events",
			Registry: registry,
		})
	}

	return &Manager{
		sessions: make(map[string]*Session),
		command:  opts.Command,
		factory:  factory,
		clock:    clock,
		newID:    newID,
		baseEnv:  baseEnv,
		logger:   logger,
		registry: registry,
		bus:      bus,
	}
}

// Events exposes the bus carrying output and exit events for all sessions.
func (m *Manager) Events() *event.Bus[event.TerminalEvent] {
	return m.bus
}

// Create spawns the assistant (or the user's shell) inside a new PTY rooted
// at projectPath and starts its reader loop. Dimensions are validated here
// only.
func (m *Manager) Create(projectPath string, cols, rows uint16) (*Session, error) {
	if cols == 0 || rows == 0 || cols > MaxDimension || rows > MaxDimension {
		return nil, &InvalidDimensionsError{Cols: cols, Rows: rows}
	}

	command := m.command
	if command == "" {
		command = ResolveCommand()
	}

	pty, cmd, err := m.factory.Start(StartSpec{
		Command: command,
		Dir:     projectPath,
		Env:     SessionEnv(m.baseEnv),
		Cols:    cols,
		Rows:    rows,
	})
	if err != nil {
		return nil, fmt.Errorf("start pty: %w", err)
	}

	session := &Session{
		ID:          m.newID(),
		ProjectPath: projectPath,
		Command:     command,
		Cols:        cols,
		Rows:        rows,
		CreatedAt:   m.clock.Now().UTC(),
		pty:         pty,
		cmd:         cmd,
	}

	m.mu.Lock()
	m.sessions[session.ID] = session
	m.mu.Unlock()

	go session.readLoop(
		func(chunk []byte) {
			m.bus.Publish(event.NewTerminalOutput(session.ID, chunk))
		},
		func() {
			m.registry.IncSessionExited()
			m.bus.Publish(event.NewTerminalExit(session.ID))
			m.logger.Info("terminal session exited", map[string]string{
				"commander.category": "terminal",
				"session_id":         session.ID,
			})
		},
	)

	m.registry.IncSessionCreated()
	m.logger.Info("terminal session created", map[string]string{
		"commander.category": "terminal",
		"session_id":         session.ID,
		"command":            command,
		"project_path":       projectPath,
	})

	return session, nil
}

// Write sends data to a session's PTY. Writes across all sessions are
// serialized by the table lock.
func (m *Manager) Write(sessionID string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	return session.write(data)
}

func (m *Manager) Resize(sessionID string, cols, rows uint16) error {
	m.mu.Lock()
	session, ok := m.sessions[sessionID]
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	return session.resize(cols, rows)
}

// Kill removes the session and closes its master fd; the kernel hangs up the
// child's process group. Killing an unknown session is a no-op.
func (m *Manager) Kill(sessionID string) error {
	m.mu.Lock()
	session, ok := m.sessions[sessionID]
	if ok {
		delete(m.sessions, sessionID)
	}
	m.mu.Unlock()

	if !ok {
		return nil
	}

	err := session.closePty()
	m.registry.IncSessionKilled()
	m.logger.Info("terminal session killed", map[string]string{
		"commander.category": "terminal",
		"session_id":         sessionID,
	})
	return err
}

func (m *Manager) Get(sessionID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[sessionID]
	return session, ok
}

func (m *Manager) List() []SessionInfo {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}
	m.mu.Unlock()

	infos := make([]SessionInfo, 0, len(sessions))
	for _, session := range sessions {
		infos = append(infos, session.Info())
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

// Close kills every remaining session. Used at shutdown.
func (m *Manager) Close() error {
	m.mu.Lock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	var errs []error
	for _, id := range ids {
		if err := m.Kill(id); err != nil {
			errs = append(errs, err)
		}
	}
	m.bus.Close()
	return errors.Join(errs...)
}
