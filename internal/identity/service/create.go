package service

import (
	"context"
	"errors"
	"time"

	"minkyc/internal/identity/address"
	"minkyc/internal/identity/models"
	"minkyc/pkg/domain"
	dErrors "minkyc/pkg/domain-errors"
	"minkyc/pkg/platform/audit"
	"minkyc/pkg/platform/sentinel"
	"minkyc/pkg/requestcontext"
)

// CreateIdentity binds a new fresh identity to owner at the next derived address.
//
// In multi-identity mode the owner's counter supplies the index and advances by
// exactly one, in the same unit as the record insert. A failed creation never
// advances the counter.
func (s *Service) CreateIdentity(ctx context.Context, owner domain.OwnerID, commitment domain.Digest) (*models.IdentityRecord, error) {
	start := time.Now()
	defer s.metrics.ObserveOperation("create_identity", start)
	ctx, span := s.tracer.Start(ctx, "identity.CreateIdentity")
	defer span.End()

	if owner.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authenticated owner required")
	}
	now := requestcontext.Now(ctx)

	var record *models.IdentityRecord
	err := s.tx.RunInTx(ctx, s.creationLockKey(owner), func(ctx context.Context) error {
		if s.mode == address.ModeSingle {
			record = models.NewIdentityRecord(address.SingleIdentity(owner), owner, 0, commitment, now)
			return s.insertIdentity(ctx, record)
		}

		counter, err := s.counters.LoadForUpdate(ctx, address.Counter(owner), owner)
		if err != nil {
			return storeError(err, "identity counter")
		}
		if err := counter.CanAdvance(); err != nil {
			return err
		}

		index := counter.Count
		record = models.NewIdentityRecord(address.Identity(owner, index), owner, index, commitment, now)
		if err := s.insertIdentity(ctx, record); err != nil {
			return err
		}

		counter.Advance()
		if err := s.counters.Save(ctx, counter); err != nil {
			return storeError(err, "identity counter")
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, txError(err)
	}

	s.metrics.IncrementIdentitiesCreated()
	s.logger.InfoContext(ctx, "identity created",
		"identity", record.Address.String(),
		"owner", owner.String(),
		"index", record.Index,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emitAudit(ctx, audit.EventIdentityCreated, record, owner, "")
	return record, nil
}

func (s *Service) insertIdentity(ctx context.Context, record *models.IdentityRecord) error {
	if err := s.identities.CreateIfAbsent(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return dErrors.New(dErrors.CodeConflict, "identity already exists")
		}
		return storeError(err, "identity")
	}
	return nil
}

// creationLockKey serializes creations per owner. In single mode it is the
// identity address itself so creation and later mutations share a lock.
func (s *Service) creationLockKey(owner domain.OwnerID) string {
	if s.mode == address.ModeSingle {
		return address.SingleIdentity(owner).String()
	}
	return address.Counter(owner).String()
}
