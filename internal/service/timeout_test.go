package service

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time      { return c.t }
func (c *fakeClock) Add(d time.Duration) { c.t = c.t.Add(d) }

func TestExpireIdleSessions(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := NewManager(Options{Setup: &fakeSetup{}, Now: clock.Now}, 10*time.Minute)

	idle := m.Create()
	clock.Add(6 * time.Minute)
	active := m.Create()
	clock.Add(5 * time.Minute)

	if n := m.ExpireIdleSessions(clock.Now()); n != 1 {
		t.Fatalf("expected one expired session, got %d", n)
	}
	if _, ok := m.Get(idle.ID()); ok {
		t.Fatalf("idle session should have been removed")
	}
	if _, ok := m.Get(active.ID()); !ok {
		t.Fatalf("active session should remain")
	}
	if _, err := idle.SelectMove(0); err != ErrClosed {
		t.Fatalf("expired session should be closed, got %v", err)
	}
}

func TestExpireKeepsTouchedSessions(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := NewManager(Options{Setup: &fakeSetup{}, Now: clock.Now}, 10*time.Minute)
	s := m.Create()
	clock.Add(9 * time.Minute)
	_, _ = s.SelectMove(0)
	clock.Add(9 * time.Minute)
	if n := m.ExpireIdleSessions(clock.Now()); n != 0 {
		t.Fatalf("recently used session must not expire, expired %d", n)
	}
}

func TestExpireKeepsWatchedSessions(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	m := NewManager(Options{Setup: &fakeSetup{}, Now: clock.Now}, 10*time.Minute)
	s := m.Create()
	_, cancel := s.Subscribe()

	clock.Add(time.Hour)
	if n := m.ExpireIdleSessions(clock.Now()); n != 0 {
		t.Fatalf("a session with an open stream must not expire, expired %d", n)
	}

	cancel()
	clock.Add(9 * time.Minute)
	if n := m.ExpireIdleSessions(clock.Now()); n != 0 {
		t.Fatalf("idle time counts from the stream closing, expired %d", n)
	}
	clock.Add(2 * time.Minute)
	if n := m.ExpireIdleSessions(clock.Now()); n != 1 {
		t.Fatalf("expected the unwatched session to expire, expired %d", n)
	}
}

func TestManagerCreateGetRemove(t *testing.T) {
	m := NewManager(Options{Setup: &fakeSetup{}}, time.Minute)
	s := m.Create()
	if got, ok := m.Get(s.ID()); !ok || got != s {
		t.Fatalf("expected to find created session")
	}
	if m.Len() != 1 {
		t.Fatalf("expected one session, got %d", m.Len())
	}
	if !m.Remove(s.ID()) || m.Remove(s.ID()) {
		t.Fatalf("remove should succeed exactly once")
	}
	m.Create()
	m.Create()
	m.CloseAll()
	if m.Len() != 0 {
		t.Fatalf("expected no sessions after CloseAll")
	}
}
