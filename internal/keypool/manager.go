package keypool

import (
	"fmt"
	"sort"
	"sync"
)

// poolHandle is the type-erased view of a Pool the manager needs for
// status reporting and administrative resets.
type poolHandle interface {
	Snapshot() Snapshot
	ResetAll()
}

// Manager owns the named pools for a process. It is constructed once at
// startup and injected into whatever needs status or reset access; there
// is deliberately no package-level singleton.
type Manager struct {
	mu    sync.RWMutex
	pools map[string]poolHandle
}

// NewManager returns an empty manager.
func NewManager() *Manager {
	return &Manager{pools: make(map[string]poolHandle)}
}

// Register adds a pool under a service name, replacing any previous
// registration for that name.
func (m *Manager) Register(service string, pool poolHandle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pools[service] = pool
}

// Names returns the registered service names, sorted.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.pools))
	for name := range m.pools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Status returns a health snapshot for every registered service. Each
// pool's snapshot takes only that pool's short-lived lock, so Status is
// safe to call concurrently with in-flight operations.
func (m *Manager) Status() map[string]Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]Snapshot, len(m.pools))
	for name, pool := range m.pools {
		out[name] = pool.Snapshot()
	}
	return out
}

// Reset clears quarantine state for one service, or for every service
// when the name is empty.
func (m *Manager) Reset(service string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if service == "" {
		for _, pool := range m.pools {
			pool.ResetAll()
		}
		return nil
	}

	pool, ok := m.pools[service]
	if !ok {
		return fmt.Errorf("keypool: unknown service %q", service)
	}
	pool.ResetAll()
	return nil
}
