package service

import (
	"context"

	"minkyc/internal/identity/address"
	"minkyc/internal/identity/models"
	"minkyc/pkg/domain"
	dErrors "minkyc/pkg/domain-errors"
)

// maxConsumedLookup bounds batch receipt lookups.
const maxConsumedLookup = 100

func (s *Service) GetIdentity(ctx context.Context, identity domain.Address) (*models.IdentityRecord, error) {
	rec, err := s.identities.FindByAddress(ctx, identity)
	if err != nil {
		return nil, storeError(err, "identity")
	}
	return rec, nil
}

// ListIdentities returns the owner's identities ordered by index.
func (s *Service) ListIdentities(ctx context.Context, owner domain.OwnerID) ([]*models.IdentityRecord, error) {
	if owner.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authenticated owner required")
	}
	recs, err := s.identities.ListByOwner(ctx, owner)
	if err != nil {
		return nil, storeError(err, "identity")
	}
	return recs, nil
}

// GetReceipt looks up the receipt for one proof hash against an identity.
func (s *Service) GetReceipt(ctx context.Context, identity domain.Address, proofHash domain.Digest) (*models.ProofReceipt, error) {
	r, err := s.receipts.FindByAddress(ctx, address.Receipt(identity, proofHash))
	if err != nil {
		return nil, storeError(err, "proof receipt")
	}
	return r, nil
}

// ListReceipts returns every proof consumed against an identity, by sequence.
func (s *Service) ListReceipts(ctx context.Context, identity domain.Address) ([]*models.ProofReceipt, error) {
	if _, err := s.GetIdentity(ctx, identity); err != nil {
		return nil, err
	}
	rs, err := s.receipts.ListByIdentity(ctx, identity)
	if err != nil {
		return nil, storeError(err, "proof receipt")
	}
	return rs, nil
}

// ConsumedProofs returns the receipts for those proof hashes already consumed.
func (s *Service) ConsumedProofs(ctx context.Context, identity domain.Address, proofHashes []domain.Digest) ([]*models.ProofReceipt, error) {
	if len(proofHashes) == 0 {
		return []*models.ProofReceipt{}, nil
	}
	if len(proofHashes) > maxConsumedLookup {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "too many proof hashes")
	}
	addrs := make([]domain.Address, 0, len(proofHashes))
	for _, h := range proofHashes {
		addrs = append(addrs, address.Receipt(identity, h))
	}
	rs, err := s.receipts.FindConsumed(ctx, addrs)
	if err != nil {
		return nil, storeError(err, "proof receipt")
	}
	return rs, nil
}
