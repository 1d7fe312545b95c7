package session

import (
	"sync"
	"time"

	"github.com/Conceptual-Machines/bidrohi/internal/presenter"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	DefaultSize = 1024
	DefaultTTL  = 1 * time.Hour
)

// Store keeps presenter sessions in a bounded in-memory cache.
// Idle sessions expire after the TTL; nothing is persisted.
// A session evicted mid-cycle is pinned until it is looked up again,
// so the same id never gets a second Session while a cycle runs.
type Store struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, *presenter.Session]

	// pinMu is taken from the eviction callback, which runs under the cache's own lock
	pinMu  sync.Mutex
	pinned map[string]*presenter.Session
}

func NewStore(size int, ttl time.Duration) *Store {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Store{pinned: make(map[string]*presenter.Session)}
	s.cache = expirable.NewLRU[string, *presenter.Session](size, s.onEvict, ttl)
	return s
}

func (s *Store) onEvict(id string, sess *presenter.Session) {
	s.pinMu.Lock()
	defer s.pinMu.Unlock()

	for pinnedID, p := range s.pinned {
		if !p.Active() {
			delete(s.pinned, pinnedID)
		}
	}
	if sess.Active() {
		s.pinned[id] = sess
	}
}

func (s *Store) takePinned(id string) (*presenter.Session, bool) {
	s.pinMu.Lock()
	defer s.pinMu.Unlock()

	sess, ok := s.pinned[id]
	if ok {
		delete(s.pinned, id)
	}
	return sess, ok
}

// GetOrCreate returns the session for id, creating it on first use
func (s *Store) GetOrCreate(id string) *presenter.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.cache.Get(id); ok {
		return sess
	}
	sess, ok := s.takePinned(id)
	if !ok {
		sess = presenter.NewSession(id)
	}
	s.cache.Add(id, sess)
	return sess
}

// Get returns an existing session
func (s *Store) Get(id string) (*presenter.Session, bool) {
	if sess, ok := s.cache.Get(id); ok {
		return sess, true
	}
	s.pinMu.Lock()
	defer s.pinMu.Unlock()
	sess, ok := s.pinned[id]
	return sess, ok
}

// Remove drops a session
func (s *Store) Remove(id string) {
	s.cache.Remove(id)
	s.pinMu.Lock()
	delete(s.pinned, id)
	s.pinMu.Unlock()
}

// Len returns the number of live sessions
func (s *Store) Len() int {
	return s.cache.Len()
}
