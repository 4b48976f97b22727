package wizard

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Manager keeps one Session per login session in memory. Idle sessions
// expire after ttl and the least recently used ones are evicted beyond size.
type Manager struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, *Session]
	ai    Assistant
	opts  Options
}

// NewManager creates a Manager. size <= 0 means no bound on the number of sessions.
func NewManager(ai Assistant, opts Options, size int, ttl time.Duration) *Manager {
	if size < 0 {
		size = 0
	}
	return &Manager{
		cache: expirable.NewLRU[string, *Session](size, nil, ttl),
		ai:    ai,
		opts:  opts,
	}
}

// Get returns the session for key, creating it on first use. Every access
// renews the idle timeout.
func (m *Manager) Get(key string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.cache.Get(key)
	if !ok {
		s = NewSession(m.ai, m.opts)
	}
	m.cache.Add(key, s)
	return s
}

// Peek returns the session for key without creating one.
func (m *Manager) Peek(key string) (*Session, bool) {
	return m.cache.Peek(key)
}

// Drop forgets the session for key, e.g. on logout.
func (m *Manager) Drop(key string) {
	m.cache.Remove(key)
}

// Len reports how many sessions are held.
func (m *Manager) Len() int {
	return m.cache.Len()
}
