package agent

import (
	"sync"
	"time"
)

// SessionEntry is the per-user conversation context. It is overwritten,
// not appended, on each turn; concurrent turns from the same user are
// last-write-wins.
type SessionEntry struct {
	LastIntent     Category
	LastParameters Params
	History        []string
	UpdatedAt      time.Time
}

const sessionHistoryLimit = 20

// SessionStore keeps per-user context in memory with TTL eviction.
// Entries older than the TTL are swept opportunistically on writes, which
// bounds growth without a background goroutine.
type SessionStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]*SessionEntry
	now     func() time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionStore{
		ttl:     ttl,
		entries: make(map[string]*SessionEntry),
		now:     time.Now,
	}
}

// Get returns a copy of the user's entry, or a zero entry if none exists
// or it expired.
func (s *SessionStore) Get(userID string) SessionEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[userID]
	if !ok || s.now().Sub(entry.UpdatedAt) > s.ttl {
		return SessionEntry{}
	}
	out := *entry
	out.History = append([]string(nil), entry.History...)
	return out
}

// Update records the turn's outcome for the user, carrying history forward
// capped at sessionHistoryLimit turns, and sweeps expired entries.
func (s *SessionStore) Update(userID string, intent Category, params Params, userText string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	history := []string(nil)
	if prev, ok := s.entries[userID]; ok && now.Sub(prev.UpdatedAt) <= s.ttl {
		history = prev.History
	}
	if userText != "" {
		history = append(history, userText)
		if len(history) > sessionHistoryLimit {
			history = history[len(history)-sessionHistoryLimit:]
		}
	}
	s.entries[userID] = &SessionEntry{
		LastIntent:     intent,
		LastParameters: params,
		History:        history,
		UpdatedAt:      now,
	}

	for id, entry := range s.entries {
		if now.Sub(entry.UpdatedAt) > s.ttl {
			delete(s.entries, id)
		}
	}
}

// Len reports the number of live entries; used by the health endpoint.
func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
