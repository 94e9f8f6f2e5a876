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

// VerifyProof consumes proof against identity exactly once.
//
// Checks run in order: revoked identity, predicate, prior consumption of the same
// proof, count overflow. On success the receipt and the identity update commit
// together; the verification event is published afterwards and a publish failure
// does not undo the verification.
func (s *Service) VerifyProof(ctx context.Context, identity domain.Address, proof []byte, requirementHash domain.Digest, caller domain.OwnerID) (*models.ProofReceipt, error) {
	start := time.Now()
	defer s.metrics.ObserveOperation("verify_proof", start)
	ctx, span := s.tracer.Start(ctx, "identity.VerifyProof")
	defer span.End()

	if caller.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authenticated caller required")
	}
	now := requestcontext.Now(ctx)
	proofHash := domain.SumDigest(proof)
	receiptAddr := address.Receipt(identity, proofHash)

	var (
		record  *models.IdentityRecord
		receipt *models.ProofReceipt
	)
	err := s.tx.RunInTx(ctx, identity.String(), func(ctx context.Context) error {
		rec, err := s.identities.FindForUpdate(ctx, identity)
		if err != nil {
			return storeError(err, "identity")
		}
		record = rec
		if err := rec.CanVerify(); err != nil {
			return err
		}

		ok, err := s.verifier.Verify(ctx, proof, rec.Commitment, requirementHash)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "proof verifier failed")
		}
		if !ok {
			return dErrors.New(dErrors.CodeInvalidProof, "proof rejected")
		}

		if _, err := s.receipts.FindByAddress(ctx, receiptAddr); err == nil {
			return dErrors.New(dErrors.CodeProofAlreadyUsed, "proof already used")
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return storeError(err, "proof receipt")
		}

		if err := rec.CanCountVerification(); err != nil {
			return err
		}

		seq, err := s.sequence.Next(ctx)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue sequence")
		}

		r := &models.ProofReceipt{
			Address:         receiptAddr,
			Identity:        identity,
			Owner:           rec.Owner,
			Verifier:        caller,
			ProofHash:       proofHash,
			RequirementHash: requirementHash,
			Used:            true,
			Timestamp:       now,
			Sequence:        seq,
		}
		if err := s.receipts.CreateIfAbsent(ctx, r); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.New(dErrors.CodeProofAlreadyUsed, "proof already used")
			}
			return storeError(err, "proof receipt")
		}

		rec.ApplyVerification(now)
		if err := s.identities.Update(ctx, rec); err != nil {
			return storeError(err, "identity")
		}
		receipt = r
		return nil
	})
	if err != nil {
		span.RecordError(err)
		s.recordRejection(ctx, err, record, caller)
		return nil, txError(err)
	}

	s.metrics.IncrementProofsAccepted()
	s.logger.InfoContext(ctx, "proof verified",
		"identity", identity.String(),
		"proof_hash", proofHash.String(),
		"sequence", receipt.Sequence,
		"verification_count", record.VerificationCount,
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emitAudit(ctx, audit.EventProofVerified, record, caller, "")
	s.publishVerification(ctx, models.EventFromReceipt(receipt))
	return receipt, nil
}

func (s *Service) recordRejection(ctx context.Context, err error, record *models.IdentityRecord, caller domain.OwnerID) {
	code := dErrors.CodeOf(err)
	s.metrics.IncrementProofsRejected(string(code))

	switch code {
	case dErrors.CodeProofAlreadyUsed:
		s.logger.WarnContext(ctx, "proof replay rejected",
			"caller", caller.String(),
			"request_id", requestcontext.RequestID(ctx),
		)
		s.emitAudit(ctx, audit.EventProofReplayRejected, record, caller, string(code))
	case dErrors.CodeInvalidProof, dErrors.CodeIdentityRevoked:
		s.emitAudit(ctx, audit.EventProofRejected, record, caller, string(code))
	}
}

// publishVerification is best-effort: the verification has already committed.
func (s *Service) publishVerification(ctx context.Context, event models.VerificationEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishVerification(ctx, event); err != nil {
		s.metrics.IncrementEventPublishFailed("verification")
		s.logger.ErrorContext(ctx, "failed to publish verification event",
			"identity", event.Identity.String(),
			"sequence", event.Sequence,
			"error", err,
		)
	}
}
