package receipt

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"minkyc/internal/identity/models"
	"minkyc/pkg/domain"
	"minkyc/pkg/platform/sentinel"
)

// InMemoryStore is an append-only receipt ledger.
type InMemoryStore struct {
	mu       sync.RWMutex
	receipts map[domain.Address]models.ProofReceipt
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{receipts: make(map[domain.Address]models.ProofReceipt)}
}

func (s *InMemoryStore) CreateIfAbsent(_ context.Context, r *models.ProofReceipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.receipts[r.Address]; ok {
		return fmt.Errorf("receipt %s: %w", r.Address, sentinel.ErrAlreadyUsed)
	}
	s.receipts[r.Address] = *r
	return nil
}

func (s *InMemoryStore) FindByAddress(_ context.Context, addr domain.Address) (*models.ProofReceipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.receipts[addr]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &r, nil
}

func (s *InMemoryStore) ListByIdentity(_ context.Context, identity domain.Address) ([]*models.ProofReceipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.ProofReceipt{}
	for _, r := range s.receipts {
		if r.Identity == identity {
			out = append(out, &r)
		}
	}
	sortBySequence(out)
	return out, nil
}

func (s *InMemoryStore) FindConsumed(_ context.Context, addrs []domain.Address) ([]*models.ProofReceipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*models.ProofReceipt{}
	seen := make(map[domain.Address]struct{}, len(addrs))
	for _, a := range addrs {
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		if r, ok := s.receipts[a]; ok {
			out = append(out, &r)
		}
	}
	sortBySequence(out)
	return out, nil
}

func sortBySequence(rs []*models.ProofReceipt) {
	slices.SortFunc(rs, func(a, b *models.ProofReceipt) int {
		switch {
		case a.Sequence < b.Sequence:
			return -1
		case a.Sequence > b.Sequence:
			return 1
		}
		return 0
	})
}
