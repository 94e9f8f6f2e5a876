package counter

import (
	"context"
	"sync"

	"minkyc/internal/identity/models"
	"minkyc/pkg/domain"
)

// InMemoryStore holds per-owner counters. Absent counters read as zero and are
// only persisted by Save.
type InMemoryStore struct {
	mu       sync.RWMutex
	counters map[domain.Address]models.IdentityCounter
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{counters: make(map[domain.Address]models.IdentityCounter)}
}

func (s *InMemoryStore) LoadForUpdate(_ context.Context, addr domain.Address, owner domain.OwnerID) (*models.IdentityCounter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.counters[addr]; ok {
		return &c, nil
	}
	return models.NewIdentityCounter(addr, owner), nil
}

func (s *InMemoryStore) Save(_ context.Context, c *models.IdentityCounter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[c.Address] = *c
	return nil
}
