package pending

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the single-instance fallback used when Redis is not
// configured.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]Authorization
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]Authorization),
		now:   time.Now,
	}
}

func (m *MemoryStore) Put(_ context.Context, a Authorization) error {
	if _, err := validate(a); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()
	m.items[a.State] = a
	return nil
}

func (m *MemoryStore) Take(_ context.Context, state string) (*Authorization, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.items[state]
	if !ok {
		return nil, ErrNotFound
	}
	delete(m.items, state)
	if !m.now().Before(a.ExpiresAt) {
		return nil, ErrNotFound
	}
	return &a, nil
}

// sweep drops expired entries; callers hold mu.
func (m *MemoryStore) sweep() {
	now := m.now()
	for k, a := range m.items {
		if !now.Before(a.ExpiresAt) {
			delete(m.items, k)
		}
	}
}

var _ Store = (*MemoryStore)(nil)
