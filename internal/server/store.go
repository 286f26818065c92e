package server

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alpaka/formengine/pkg/session"
)

var (
	// ErrSessionNotFound is returned for unknown or expired session ids.
	ErrSessionNotFound = errors.New("server: session not found")
	// ErrStoreFull is returned when the store holds its maximum number of
	// live sessions.
	ErrStoreFull = errors.New("server: session limit reached")
)

type storeEntry struct {
	session *session.Session
	expires time.Time
	// token guards HTML form posts against cross-site submission.
	token string
}

// Store keeps sessions in memory under random ids. Every successful Get
// extends the entry's lifetime by the TTL.
type Store struct {
	mu      sync.Mutex
	ttl     time.Duration
	max     int
	now     func() time.Time
	entries map[string]*storeEntry
}

// NewStore returns a store evicting sessions idle for ttl. max <= 0 means no
// limit.
func NewStore(ttl time.Duration, max int) *Store {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Store{
		ttl:     ttl,
		max:     max,
		now:     time.Now,
		entries: make(map[string]*storeEntry),
	}
}

// Put stores s and returns its new id.
func (st *Store) Put(s *session.Session) (string, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	if st.max > 0 && len(st.entries) >= st.max {
		st.sweepLocked(now)
		if len(st.entries) >= st.max {
			return "", ErrStoreFull
		}
	}
	id := uuid.NewString()
	st.entries[id] = &storeEntry{session: s, expires: now.Add(st.ttl), token: uuid.NewString()}
	return id, nil
}

// Get returns the live session stored under id.
func (st *Store) Get(id string) (*session.Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrSessionNotFound
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	entry, ok := st.entries[id]
	now := st.now()
	if !ok || !now.Before(entry.expires) {
		delete(st.entries, id)
		return nil, ErrSessionNotFound
	}
	entry.expires = now.Add(st.ttl)
	return entry.session, nil
}

// FormToken returns the form token issued with the session stored under id,
// or "" for unknown ids.
func (st *Store) FormToken(id string) string {
	st.mu.Lock()
	defer st.mu.Unlock()
	if entry, ok := st.entries[id]; ok {
		return entry.token
	}
	return ""
}

// Delete drops id; unknown ids are ignored.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	delete(st.entries, id)
	st.mu.Unlock()
}

// Sweep evicts expired sessions and reports how many were removed.
func (st *Store) Sweep() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.sweepLocked(st.now())
}

func (st *Store) sweepLocked(now time.Time) int {
	removed := 0
	for id, entry := range st.entries {
		if !now.Before(entry.expires) {
			delete(st.entries, id)
			removed++
		}
	}
	return removed
}

// Len reports the number of stored sessions, expired or not.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.entries)
}
