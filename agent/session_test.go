package agent

import (
	"testing"
	"time"
)

func TestSessionStoreRoundTrip(t *testing.T) {
	s := NewSessionStore(time.Hour)
	s.Update("u1", CategoryEmailSend, Params{"to_email": "a@b.com"}, "send an email")

	entry := s.Get("u1")
	if entry.LastIntent != CategoryEmailSend {
		t.Fatalf("intent = %q", entry.LastIntent)
	}
	if entry.LastParameters.String("to_email") != "a@b.com" {
		t.Fatalf("params = %#v", entry.LastParameters)
	}
	if len(entry.History) != 1 || entry.History[0] != "send an email" {
		t.Fatalf("history = %#v", entry.History)
	}
}

func TestSessionStoreOverwrites(t *testing.T) {
	s := NewSessionStore(time.Hour)
	s.Update("u1", CategoryEmailSend, Params{}, "first")
	s.Update("u1", CategoryImageCreate, Params{"prompt": "cat"}, "second")

	entry := s.Get("u1")
	if entry.LastIntent != CategoryImageCreate {
		t.Fatalf("intent = %q, want last write", entry.LastIntent)
	}
	if len(entry.History) != 2 {
		t.Fatalf("history = %#v", entry.History)
	}
}

func TestSessionStoreHistoryCap(t *testing.T) {
	s := NewSessionStore(time.Hour)
	for i := 0; i < sessionHistoryLimit+5; i++ {
		s.Update("u1", CategoryGeneralChat, Params{}, "turn")
	}
	if got := len(s.Get("u1").History); got != sessionHistoryLimit {
		t.Fatalf("history length = %d, want %d", got, sessionHistoryLimit)
	}
}

func TestSessionStoreTTLEviction(t *testing.T) {
	s := NewSessionStore(time.Hour)
	current := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return current }

	s.Update("old", CategoryGeneralChat, Params{}, "hi")
	current = current.Add(2 * time.Hour)

	if entry := s.Get("old"); entry.LastIntent != "" {
		t.Fatalf("expired entry still readable: %#v", entry)
	}

	// The next write sweeps the expired entry out of the map.
	s.Update("new", CategoryGeneralChat, Params{}, "hello")
	if got := s.Len(); got != 1 {
		t.Fatalf("entries = %d, want 1", got)
	}
}

func TestSessionStoreGetReturnsCopy(t *testing.T) {
	s := NewSessionStore(time.Hour)
	s.Update("u1", CategoryGeneralChat, Params{}, "one")

	entry := s.Get("u1")
	entry.History[0] = "mutated"

	if got := s.Get("u1").History[0]; got != "one" {
		t.Fatalf("store history mutated through copy: %q", got)
	}
}
