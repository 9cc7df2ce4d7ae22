package terminal

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"commander/internal/event"
	"commander/internal/metrics"
)

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

func sequentialIDs() func() string {
	next := 0
	return func() string {
		next++
		return fmt.Sprintf("session-%d", next)
	}
}

func newTestManager(t *testing.T) (*Manager, *scriptedFactory) {
	t.Helper()
	factory := &scriptedFactory{}
	manager := NewManager(ManagerOptions{
		Command:     "/bin/fake-shell",
		PtyFactory:  factory,
		Clock:       fixedClock{now: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)},
		IDGenerator: sequentialIDs(),
		BaseEnv:     []string{"PATH=/usr/bin", "HOME=/home/u"},
		Registry:    &metrics.Registry{},
	})
	t.Cleanup(func() {
		_ = manager.Close()
	})
	return manager, factory
}

func TestManagerCreateValidatesDimensions(t *testing.T) {
	manager, _ := newTestManager(t)

	cases := []struct {
		cols, rows uint16
	}{
		{0, 24},
		{80, 0},
		{501, 24},
		{80, 501},
	}
	for _, tc := range cases {
		_, err := manager.Create("/tmp/project", tc.cols, tc.rows)
		var dims *InvalidDimensionsError
		if !errors.As(err, &dims) {
			t.Fatalf("create %dx%d: expected InvalidDimensionsError, got %v", tc.cols, tc.rows, err)
		}
		if dims.Cols != tc.cols || dims.Rows != tc.rows {
			t.Fatalf("error reports %dx%d, want %dx%d", dims.Cols, dims.Rows, tc.cols, tc.rows)
		}
		if !strings.Contains(dims.Error(), "500") {
			t.Fatalf("error %q should name the bound", dims.Error())
		}
	}

	if _, err := manager.Create("/tmp/project", 500, 500); err != nil {
		t.Fatalf("create at the bound: %v", err)
	}
}

func TestManagerCreateSpawnsWithSpec(t *testing.T) {
	manager, factory := newTestManager(t)

	session, err := manager.Create("/tmp/project", 80, 24)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if session.ID != "session-1" {
		t.Fatalf("session id = %q, want session-1", session.ID)
	}

	_, spec := factory.last()
	if spec.Command != "/bin/fake-shell" {
		t.Fatalf("command = %q", spec.Command)
	}
	if spec.Dir != "/tmp/project" {
		t.Fatalf("dir = %q", spec.Dir)
	}
	if spec.Cols != 80 || spec.Rows != 24 {
		t.Fatalf("size = %dx%d", spec.Cols, spec.Rows)
	}

	env := strings.Join(spec.Env, "\n")
	if !strings.Contains(env, "TERM=xterm-256color") {
		t.Fatalf("env missing TERM: %q", env)
	}
	if !strings.Contains(env, "COLORTERM=truecolor") {
		t.Fatalf("env missing COLORTERM: %q", env)
	}
	if !strings.Contains(env, "PATH=/usr/bin:/opt/homebrew/bin:/usr/local/bin:/usr/bin:/bin") {
		t.Fatalf("env missing augmented PATH: %q", env)
	}
}

func TestManagerWriteReachesPty(t *testing.T) {
	manager, factory := newTestManager(t)

	session, err := manager.Create("/tmp/project", 80, 24)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	pty, _ := factory.last()

	if err := manager.Write(session.ID, []byte("ls\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	writes := pty.Writes()
	if len(writes) != 1 || string(writes[0]) != "ls\n" {
		t.Fatalf("pty writes = %q", writes)
	}
}

func TestManagerWriteUnknownSession(t *testing.T) {
	manager, _ := newTestManager(t)

	if err := manager.Write("missing", []byte("x")); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if err := manager.Resize("missing", 80, 24); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestManagerResizePassesThroughUnchecked(t *testing.T) {
	manager, factory := newTestManager(t)

	session, err := manager.Create("/tmp/project", 80, 24)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	pty, _ := factory.last()

	// Unlike create, resize does not validate dimensions.
	if err := manager.Resize(session.ID, 9000, 0); err != nil {
		t.Fatalf("resize: %v", err)
	}

	resizes := pty.Resizes()
	if len(resizes) != 1 || resizes[0] != [2]uint16{9000, 0} {
		t.Fatalf("pty resizes = %v", resizes)
	}
}

func TestManagerKillRemovesSessionAndClosesPty(t *testing.T) {
	manager, factory := newTestManager(t)

	session, err := manager.Create("/tmp/project", 80, 24)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	pty, _ := factory.last()

	if err := manager.Kill(session.ID); err != nil {
		t.Fatalf("kill: %v", err)
	}
	if !pty.Closed() {
		t.Fatalf("expected master fd closed after kill")
	}
	if err := manager.Write(session.ID, []byte("x")); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after kill, got %v", err)
	}

	// Killing again, or killing an unknown id, is a no-op.
	if err := manager.Kill(session.ID); err != nil {
		t.Fatalf("second kill: %v", err)
	}
	if err := manager.Kill("missing"); err != nil {
		t.Fatalf("kill unknown: %v", err)
	}
}

func TestManagerPublishesOutputThenExit(t *testing.T) {
	manager, factory := newTestManager(t)

	ch, cancel := manager.Events().Subscribe()
	defer cancel()

	session, err := manager.Create("/tmp/project", 80, 24)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	pty, _ := factory.last()

	pty.Emit("hello")
	got := receiveTerminalEvent(t, ch)
	if got.EventType != event.TerminalOutput || got.SessionID != session.ID || string(got.Data) != "hello" {
		t.Fatalf("unexpected event %#v", got)
	}

	_ = pty.Close()
	got = receiveTerminalEvent(t, ch)
	if got.EventType != event.TerminalExit || got.SessionID != session.ID {
		t.Fatalf("expected exit event, got %#v", got)
	}

	// EOF must produce exactly one exit event.
	select {
	case extra := <-ch:
		t.Fatalf("unexpected extra event %#v", extra)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestManagerKeepsExitedSessionsListed(t *testing.T) {
	manager, factory := newTestManager(t)

	ch, cancel := manager.Events().SubscribeTypes(event.TerminalExit)
	defer cancel()

	session, err := manager.Create("/tmp/project", 80, 24)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	pty, _ := factory.last()

	_ = pty.Close()
	receiveTerminalEvent(t, ch)

	// The table entry survives exit; only Kill removes it.
	infos := manager.List()
	if len(infos) != 1 {
		t.Fatalf("sessions listed = %d, want 1", len(infos))
	}
	if infos[0].Status != "exited" {
		t.Fatalf("status = %q, want exited", infos[0].Status)
	}
	if _, ok := manager.Get(session.ID); !ok {
		t.Fatalf("expected exited session to remain in table")
	}
}

func TestManagerListSortsByCreation(t *testing.T) {
	factory := &scriptedFactory{}
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := &steppingClock{now: now}
	manager := NewManager(ManagerOptions{
		Command:     "/bin/fake-shell",
		PtyFactory:  factory,
		Clock:       clock,
		IDGenerator: sequentialIDs(),
		BaseEnv:     []string{"PATH=/usr/bin"},
		Registry:    &metrics.Registry{},
	})
	t.Cleanup(func() {
		_ = manager.Close()
	})

	for i := 0; i < 3; i++ {
		if _, err := manager.Create("/tmp/project", 80, 24); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	infos := manager.List()
	if len(infos) != 3 {
		t.Fatalf("listed %d sessions, want 3", len(infos))
	}
	for i, info := range infos {
		want := fmt.Sprintf("session-%d", i+1)
		if info.ID != want {
			t.Fatalf("position %d = %q, want %q", i, info.ID, want)
		}
	}
}

type steppingClock struct {
	now time.Time
}

func (c *steppingClock) Now() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

func receiveTerminalEvent(t *testing.T, ch <-chan event.TerminalEvent) event.TerminalEvent {
	t.Helper()
	select {
	case ev, ok := <-ch:
		if !ok {
			t.Fatalf("event channel closed")
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for terminal event")
	}
	return event.TerminalEvent{}
}
