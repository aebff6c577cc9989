// Package cache provides a generic TTL cache used to avoid repeating market
// lookups between reports.
package cache

import (
	"log/slog"
	"sync"
	"time"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Cleaner is implemented by caches that can drop expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager periodically cleans the registered caches.
type Manager struct {
	mu          sync.Mutex
	caches      []Cleaner
	stopCleanup chan struct{}
	cleanupDone chan struct{}
	started     bool
}

func NewManager() *Manager {
	return &Manager{
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

func (m *Manager) Register(c Cleaner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches = append(m.caches, c)
}

// StartCleanup begins periodic cleanup of all registered caches.
func (m *Manager) StartCleanup(interval time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return
	}
	m.started = true
	go m.cleanup(interval)
}

// CleanNow runs one cleanup pass and returns the number of removed entries.
func (m *Manager) CleanNow() int {
	m.mu.Lock()
	caches := append([]Cleaner(nil), m.caches...)
	m.mu.Unlock()

	total := 0
	for _, c := range caches {
		total += c.CleanExpired()
	}
	return total
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := m.CleanNow(); n > 0 {
				slog.Debug("Expired cache entries removed", "count", n)
			}
		case <-m.stopCleanup:
			return
		}
	}
}

// Stop ends the cleanup routine and waits for it to exit.
func (m *Manager) Stop() {
	m.mu.Lock()
	started := m.started
	m.started = false
	m.mu.Unlock()
	if !started {
		return
	}
	close(m.stopCleanup)
	<-m.cleanupDone
}
