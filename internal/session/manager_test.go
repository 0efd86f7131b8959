package session

import (
	"context"
	"sync"
	"testing"
	"time"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestManager(t *testing.T, idle time.Duration) (*Manager, *stepClock) {
	t.Helper()
	deps, _, _ := testDeps(t, newStubFunds())
	m := NewManager(deps, idle)
	clock := &stepClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	m.now = clock.Now
	t.Cleanup(m.Close)
	return m, clock
}

func TestManager_GetOrCreate(t *testing.T) {
	m, _ := newTestManager(t, time.Minute)

	s, created := m.GetOrCreate("")
	if !created {
		t.Fatal("expected a new session for empty id")
	}
	again, created := m.GetOrCreate(s.ID())
	if created || again != s {
		t.Error("expected existing session to be returned")
	}
	other, created := m.GetOrCreate("no-such-session")
	if !created || other.ID() == "no-such-session" {
		t.Error("expected unknown id to get a fresh session with its own id")
	}
	if m.Len() != 2 {
		t.Errorf("expected 2 sessions, got %d", m.Len())
	}
}

func TestManager_ReapSkipsConnectedSessions(t *testing.T) {
	m, clock := newTestManager(t, time.Minute)

	idle := m.Create()
	connected := m.Create()
	subID, _ := connected.Subscribe()

	clock.Advance(30 * time.Second)
	if n := m.Reap(); n != 0 {
		t.Fatalf("expected nothing reaped before timeout, got %d", n)
	}

	clock.Advance(time.Minute)
	if n := m.Reap(); n != 1 {
		t.Fatalf("expected 1 reaped, got %d", n)
	}
	if _, ok := m.Get(idle.ID()); ok {
		t.Error("expected idle session to be gone")
	}
	if _, ok := m.Get(connected.ID()); !ok {
		t.Error("expected connected session to survive")
	}

	connected.Unsubscribe(subID)
	clock.Advance(2 * time.Minute)
	if n := m.Reap(); n != 1 {
		t.Errorf("expected disconnected session reaped, got %d", n)
	}
}

func TestManager_ActivityDefersReap(t *testing.T) {
	m, clock := newTestManager(t, time.Minute)
	s := m.Create()

	clock.Advance(50 * time.Second)
	if err := s.Handle(context.Background(), Event{Type: EventSync}); err != nil {
		t.Fatal(err)
	}
	clock.Advance(50 * time.Second)
	if n := m.Reap(); n != 0 {
		t.Errorf("expected recently active session kept, got %d reaped", n)
	}
}

func TestManager_EvictsLeastRecentlyUsed(t *testing.T) {
	m, clock := newTestManager(t, time.Hour)
	m.maxSessions = 2

	first := m.Create()
	clock.Advance(time.Second)
	second := m.Create()
	clock.Advance(time.Second)
	m.Get(first.ID())
	clock.Advance(time.Second)

	third := m.Create()
	if m.Len() != 2 {
		t.Fatalf("expected 2 sessions, got %d", m.Len())
	}
	if _, ok := m.Get(second.ID()); ok {
		t.Error("expected least recently used session evicted")
	}
	for _, s := range []*Session{first, third} {
		if _, ok := m.Get(s.ID()); !ok {
			t.Errorf("expected session %s kept", s.ID())
		}
	}
}

func TestManager_PublishAll(t *testing.T) {
	m, _ := newTestManager(t, time.Minute)
	a := m.Create()
	b := m.Create()
	_, chA := a.Subscribe()
	_, chB := b.Subscribe()

	m.PublishAll()

	if len(drain(chA)) != 1 || len(drain(chB)) != 1 {
		t.Error("expected one update per session")
	}
}

func TestManager_RunStopsOnCancel(t *testing.T) {
	m, _ := newTestManager(t, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
