package service

import (
	"context"
	"time"

	"minkyc/internal/identity/models"
	"minkyc/pkg/domain"
	dErrors "minkyc/pkg/domain-errors"
	"minkyc/pkg/platform/audit"
	"minkyc/pkg/requestcontext"
)

// RegisterCommitment overwrites the commitment of a fresh identity. Only the owner
// may call it; verified identities are immutable and revoked ones are closed.
func (s *Service) RegisterCommitment(ctx context.Context, identity domain.Address, commitment domain.Digest, caller domain.OwnerID) (*models.IdentityRecord, error) {
	start := time.Now()
	defer s.metrics.ObserveOperation("register_commitment", start)
	ctx, span := s.tracer.Start(ctx, "identity.RegisterCommitment")
	defer span.End()

	if caller.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authenticated caller required")
	}
	now := requestcontext.Now(ctx)

	var record *models.IdentityRecord
	err := s.tx.RunInTx(ctx, identity.String(), func(ctx context.Context) error {
		rec, err := s.identities.FindForUpdate(ctx, identity)
		if err != nil {
			return storeError(err, "identity")
		}
		if err := rec.CanRegisterCommitment(caller); err != nil {
			record = rec
			return err
		}
		rec.ApplyCommitment(commitment, now)
		if err := s.identities.Update(ctx, rec); err != nil {
			return storeError(err, "identity")
		}
		record = rec
		return nil
	})
	if err != nil {
		span.RecordError(err)
		s.auditOwnershipViolation(ctx, err, record, caller)
		return nil, txError(err)
	}

	s.metrics.IncrementCommitmentsUpdated()
	s.logger.InfoContext(ctx, "commitment registered",
		"identity", identity.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emitAudit(ctx, audit.EventCommitmentRegistered, record, caller, "")
	return record, nil
}

// RevokeIdentity moves an identity to the terminal revoked state. Commitment,
// verification count and receipts are retained. Repeating it fails.
func (s *Service) RevokeIdentity(ctx context.Context, identity domain.Address, caller domain.OwnerID) (*models.IdentityRecord, error) {
	start := time.Now()
	defer s.metrics.ObserveOperation("revoke_identity", start)
	ctx, span := s.tracer.Start(ctx, "identity.RevokeIdentity")
	defer span.End()

	if caller.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authenticated caller required")
	}
	now := requestcontext.Now(ctx)

	var record *models.IdentityRecord
	err := s.tx.RunInTx(ctx, identity.String(), func(ctx context.Context) error {
		rec, err := s.identities.FindForUpdate(ctx, identity)
		if err != nil {
			return storeError(err, "identity")
		}
		if err := rec.CanRevoke(caller); err != nil {
			record = rec
			return err
		}
		rec.ApplyRevoke(now)
		if err := s.identities.Update(ctx, rec); err != nil {
			return storeError(err, "identity")
		}
		record = rec
		return nil
	})
	if err != nil {
		span.RecordError(err)
		s.auditOwnershipViolation(ctx, err, record, caller)
		return nil, txError(err)
	}

	s.metrics.IncrementIdentitiesRevoked()
	s.logger.InfoContext(ctx, "identity revoked",
		"identity", identity.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emitAudit(ctx, audit.EventIdentityRevoked, record, caller, "")
	return record, nil
}

func (s *Service) auditOwnershipViolation(ctx context.Context, err error, record *models.IdentityRecord, caller domain.OwnerID) {
	if record == nil || !dErrors.HasCode(err, dErrors.CodeForbidden) {
		return
	}
	s.logger.WarnContext(ctx, "caller does not own identity",
		"identity", record.Address.String(),
		"caller", caller.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emitAudit(ctx, audit.EventOwnershipViolation, record, caller, string(dErrors.CodeForbidden))
}

// emitAudit records an audit event; failures are logged and never fail the operation.
func (s *Service) emitAudit(ctx context.Context, action audit.AuditEvent, record *models.IdentityRecord, actor domain.OwnerID, reason string) {
	if s.auditor == nil || record == nil {
		return
	}
	event := audit.Event{
		Category:  action.Category(),
		Timestamp: requestcontext.Now(ctx),
		Owner:     record.Owner,
		Identity:  record.Address.String(),
		Action:    string(action),
		Reason:    reason,
		RequestID: requestcontext.RequestID(ctx),
		ClientIP:  requestcontext.ClientIP(ctx),
		Device:    requestcontext.Device(ctx),
	}
	if actor != record.Owner {
		event.ActorID = actor.String()
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", string(action),
			"identity", record.Address.String(),
			"error", err,
		)
	}
}
