package identity

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"minkyc/internal/identity/models"
	"minkyc/pkg/domain"
	"minkyc/pkg/platform/sentinel"
)

// InMemoryStore keeps identity records in a map. Records are copied in and out so
// callers never share state with the store.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[domain.Address]models.IdentityRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[domain.Address]models.IdentityRecord)}
}

func (s *InMemoryStore) CreateIfAbsent(_ context.Context, record *models.IdentityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.Address]; ok {
		return fmt.Errorf("identity %s: %w", record.Address, sentinel.ErrAlreadyUsed)
	}
	s.records[record.Address] = *record
	return nil
}

func (s *InMemoryStore) FindByAddress(_ context.Context, addr domain.Address) (*models.IdentityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[addr]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &rec, nil
}

// FindForUpdate relies on the caller's sharded lock for exclusivity.
func (s *InMemoryStore) FindForUpdate(ctx context.Context, addr domain.Address) (*models.IdentityRecord, error) {
	return s.FindByAddress(ctx, addr)
}

func (s *InMemoryStore) Update(_ context.Context, record *models.IdentityRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.Address]; !ok {
		return sentinel.ErrNotFound
	}
	s.records[record.Address] = *record
	return nil
}

func (s *InMemoryStore) ListByOwner(_ context.Context, owner domain.OwnerID) ([]*models.IdentityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.IdentityRecord{}
	for _, rec := range s.records {
		if rec.Owner == owner {
			out = append(out, &rec)
		}
	}
	slices.SortFunc(out, func(a, b *models.IdentityRecord) int {
		switch {
		case a.Index < b.Index:
			return -1
		case a.Index > b.Index:
			return 1
		}
		return 0
	})
	return out, nil
}
