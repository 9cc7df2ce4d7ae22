package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"commander/internal/assistant"
	"commander/internal/event"
	"commander/internal/logging"
	"commander/internal/metrics"
	"commander/internal/project"
	"commander/internal/store"
	"commander/internal/terminal"
)

const testToken = "test-token"

// fakePty is the api-level stand-in for a real pty: reads block until
// Emit or Close, writes and resizes are recorded.
type fakePty struct {
	mu      sync.Mutex
	writes  [][]byte
	resizes [][2]uint16

	chunks  chan []byte
	done    chan struct{}
	pending []byte

	closeOnce sync.Once
}

func newFakePty() *fakePty {
	return &fakePty{
		chunks: make(chan []byte, 16),
		done:   make(chan struct{}),
	}
}

func (pty *fakePty) Read(data []byte) (int, error) {
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

func (pty *fakePty) Write(data []byte) (int, error) {
	pty.mu.Lock()
	defer pty.mu.Unlock()
	pty.writes = append(pty.writes, append([]byte(nil), data...))
	return len(data), nil
}

func (pty *fakePty) Close() error {
	pty.closeOnce.Do(func() { close(pty.done) })
	return nil
}

func (pty *fakePty) Resize(cols, rows uint16) error {
	pty.mu.Lock()
	defer pty.mu.Unlock()
	pty.resizes = append(pty.resizes, [2]uint16{cols, rows})
	return nil
}

func (pty *fakePty) Emit(text string) {
	pty.chunks <- []byte(text)
}

func (pty *fakePty) Resizes() [][2]uint16 {
	pty.mu.Lock()
	defer pty.mu.Unlock()
	return append([][2]uint16(nil), pty.resizes...)
}

func (pty *fakePty) Writes() [][]byte {
	pty.mu.Lock()
	defer pty.mu.Unlock()
	return append([][]byte(nil), pty.writes...)
}

type fakeFactory struct {
	mu   sync.Mutex
	ptys []*fakePty
}

func (f *fakeFactory) Start(spec terminal.StartSpec) (terminal.Pty, *exec.Cmd, error) {
	pty := newFakePty()
	f.mu.Lock()
	f.ptys = append(f.ptys, pty)
	f.mu.Unlock()
	return pty, nil, nil
}

func (f *fakeFactory) last() *fakePty {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.ptys) == 0 {
		return nil
	}
	return f.ptys[len(f.ptys)-1]
}

// testEnv builds a fully wired mux over temp storage and a fake pty
// factory. HOME is pointed at a temp dir so home-path validation has a
// stable root.
type testEnv struct {
	mux      *http.ServeMux
	store    *store.Store
	factory  *fakeFactory
	manager  *terminal.Manager
	watchBus *event.Bus[event.WatchEvent]
	dataDir  string
	home     string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)

	st, err := store.Open(context.Background(), filepath.Join(home, ".commander", "commander.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	logger := logging.NewLoggerWithOutput(logging.NewBuffer(64), logging.LevelDebug, nil)
	registry := &metrics.Registry{}
	factory := &fakeFactory{}
	manager := terminal.NewManager(terminal.ManagerOptions{
		Command:    "/bin/fake-shell",
		PtyFactory: factory,
		BaseEnv:    []string{"PATH=/usr/bin"},
		Logger:     logger,
		Registry:   registry,
	})
	t.Cleanup(func() { manager.Close() })

	watchBus := event.NewBus[event.WatchEvent](context.Background(), event.BusOptions{
		Name:     "watch_events",
		Registry: registry,
	})
	t.Cleanup(watchBus.Close)

	dataDir := filepath.Join(home, ".claude")
	projects := store.NewProjectRepo(st.SQL())

	mux := http.NewServeMux()
	RegisterRoutes(mux, Options{
		Projects:  projects,
		Planning:  store.NewPlanningRepo(st.SQL()),
		Links:     store.NewLinkRepo(st.SQL()),
		Syncer:    project.NewSyncer(projects, filepath.Join(home, "cv"), logger),
		Assistant: assistant.NewReader(dataDir, logger),
		Manager:   manager,
		WatchBus:  watchBus,
		Logger:    logger,
		LogBuffer: logger.Buffer(),
		Registry:  registry,
		AuthToken: testToken,
	})

	return &testEnv{
		mux:      mux,
		store:    st,
		factory:  factory,
		manager:  manager,
		watchBus: watchBus,
		dataDir:  dataDir,
		home:     home,
	}
}

func (env *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+testToken)
	recorder := httptest.NewRecorder()
	env.mux.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()
	var value T
	if err := json.NewDecoder(recorder.Body).Decode(&value); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return value
}

func writeFixture(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
