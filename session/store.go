package session

import (
	"sync"
	"time"
)

// Store is the per-user session store contract. Implementations must be
// safe for concurrent use by webhook deliveries for different users, and
// UserLock must return the same mutex for the same user for the lifetime
// of the store so one user's messages serialize.
type Store interface {
	Get(userID string) (*Session, bool)
	Put(userID string, s *Session)
	Delete(userID string)
	Count() int
	UserLock(userID string) *sync.Mutex
}

// Compile-time check to ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)

// MemoryStore is a map-backed Store with global mutual exclusion on the
// map and per-user locks so one user's messages are applied in arrival
// order while different users proceed in parallel.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	locks    map[string]*sync.Mutex
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		locks:    make(map[string]*sync.Mutex),
	}
}

// Get returns the session for a user, if any.
func (m *MemoryStore) Get(userID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	return s, ok
}

// Put stores the session for a user and stamps its update time.
func (m *MemoryStore) Put(userID string, s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s.UpdatedAt = time.Now()
	m.sessions[userID] = s
}

// Delete removes the session for a user.
func (m *MemoryStore) Delete(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

// Count returns the number of live sessions.
func (m *MemoryStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// UserLock returns the mutex serializing one user's message handling,
// creating it on first use. Same double-checked pattern as the per-client
// rate limiter buckets.
func (m *MemoryStore) UserLock(userID string) *sync.Mutex {
	m.mu.RLock()
	lock, exists := m.locks[userID]
	m.mu.RUnlock()

	if !exists {
		m.mu.Lock()
		if lock, exists = m.locks[userID]; !exists {
			lock = &sync.Mutex{}
			m.locks[userID] = lock
		}
		m.mu.Unlock()
	}

	return lock
}

// SweepExpired deletes sessions idle for longer than ttl and returns how
// many were removed. A non-positive ttl disables expiry. User locks are
// kept: a handler may be holding one while its session expires, and
// dropping the entry would hand the next message a fresh mutex, letting
// two handlers for the same user run at once.
func (m *MemoryStore) SweepExpired(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-ttl)
	removed := 0
	for userID, s := range m.sessions {
		if s.UpdatedAt.Before(cutoff) {
			delete(m.sessions, userID)
			removed++
		}
	}
	return removed
}
