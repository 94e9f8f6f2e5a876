package models

import (
	"math"
	"time"

	"minkyc/pkg/domain"
	dErrors "minkyc/pkg/domain-errors"
)

// Status is the lifecycle state of an identity.
type Status string

const (
	StatusFresh    Status = "fresh"
	StatusVerified Status = "verified"
	StatusRevoked  Status = "revoked"
)

// allowedTransitions lists every legal edge; revoked has none.
var allowedTransitions = map[Status][]Status{
	StatusFresh:    {StatusVerified, StatusRevoked},
	StatusVerified: {StatusRevoked},
}

func (s Status) IsValid() bool {
	switch s {
	case StatusFresh, StatusVerified, StatusRevoked:
		return true
	}
	return false
}

// CanTransitionTo reports whether s -> target is a legal edge.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range allowedTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// ParseStatus validates a stored status value.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown identity status: "+s)
	}
	return st, nil
}

// IdentityRecord is the state bound to one (owner, index) address.
type IdentityRecord struct {
	Address           domain.Address
	Owner             domain.OwnerID
	Index             uint64
	Commitment        domain.Digest
	Status            Status
	VerificationCount uint64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewIdentityRecord builds a fresh record.
func NewIdentityRecord(addr domain.Address, owner domain.OwnerID, index uint64, commitment domain.Digest, now time.Time) *IdentityRecord {
	return &IdentityRecord{
		Address:    addr,
		Owner:      owner,
		Index:      index,
		Commitment: commitment,
		Status:     StatusFresh,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (r *IdentityRecord) IsOwnedBy(caller domain.OwnerID) bool {
	return !caller.IsZero() && r.Owner == caller
}

// Verified is true only while the identity holds an accepted proof and is not revoked.
func (r *IdentityRecord) Verified() bool { return r.Status == StatusVerified }

func (r *IdentityRecord) Revoked() bool { return r.Status == StatusRevoked }

// CanRegisterCommitment checks ownership, then immutability, then revocation.
func (r *IdentityRecord) CanRegisterCommitment(caller domain.OwnerID) error {
	if !r.IsOwnedBy(caller) {
		return dErrors.New(dErrors.CodeForbidden, "caller does not own this identity")
	}
	switch r.Status {
	case StatusVerified:
		return dErrors.New(dErrors.CodeIdentityImmutable, "commitment cannot change after verification")
	case StatusRevoked:
		return dErrors.New(dErrors.CodeIdentityRevoked, "identity is revoked")
	}
	return nil
}

func (r *IdentityRecord) ApplyCommitment(commitment domain.Digest, now time.Time) {
	r.Commitment = commitment
	r.UpdatedAt = now
}

// CanRevoke checks ownership, then whether revocation already happened.
func (r *IdentityRecord) CanRevoke(caller domain.OwnerID) error {
	if !r.IsOwnedBy(caller) {
		return dErrors.New(dErrors.CodeForbidden, "caller does not own this identity")
	}
	if r.Status == StatusRevoked {
		return dErrors.New(dErrors.CodeAlreadyRevoked, "identity already revoked")
	}
	return nil
}

// ApplyRevoke moves to the terminal state. Commitment and count are retained.
func (r *IdentityRecord) ApplyRevoke(now time.Time) {
	r.Status = StatusRevoked
	r.UpdatedAt = now
}

// CanVerify rejects proofs against revoked identities.
func (r *IdentityRecord) CanVerify() error {
	if r.Status == StatusRevoked {
		return dErrors.New(dErrors.CodeIdentityRevoked, "identity is revoked")
	}
	return nil
}

// CanCountVerification reports CounterOverflow when one more proof cannot be counted.
func (r *IdentityRecord) CanCountVerification() error {
	if r.VerificationCount == math.MaxUint64 {
		return dErrors.New(dErrors.CodeCounterOverflow, "verification count overflow")
	}
	return nil
}

// ApplyVerification counts an accepted proof; the first one marks the identity verified.
// Callers must check CanVerify and CanCountVerification first.
func (r *IdentityRecord) ApplyVerification(now time.Time) {
	r.VerificationCount++
	if r.Status == StatusFresh {
		r.Status = StatusVerified
	}
	r.UpdatedAt = now
}

// IdentityCounter tracks the next unused identity index for an owner.
type IdentityCounter struct {
	Address domain.Address
	Owner   domain.OwnerID
	Count   uint64
}

func NewIdentityCounter(addr domain.Address, owner domain.OwnerID) *IdentityCounter {
	return &IdentityCounter{Address: addr, Owner: owner}
}

// CanAdvance reports CounterOverflow when the counter is exhausted.
func (c *IdentityCounter) CanAdvance() error {
	if c.Count == math.MaxUint64 {
		return dErrors.New(dErrors.CodeCounterOverflow, "identity counter overflow")
	}
	return nil
}

func (c *IdentityCounter) Advance() {
	c.Count++
}

// ProofReceipt marks one proof as consumed against one identity. Never deleted.
type ProofReceipt struct {
	Address         domain.Address
	Identity        domain.Address
	Owner           domain.OwnerID
	Verifier        domain.OwnerID
	ProofHash       domain.Digest
	RequirementHash domain.Digest
	Used            bool
	Timestamp       time.Time
	Sequence        uint64
}

// VerificationEvent is published after a proof has been accepted and committed.
type VerificationEvent struct {
	Identity        domain.Address `json:"identity"`
	Owner           domain.OwnerID `json:"owner"`
	Verifier        domain.OwnerID `json:"verifier"`
	RequirementHash domain.Digest  `json:"requirement_hash"`
	ProofHash       domain.Digest  `json:"proof_hash"`
	Timestamp       time.Time      `json:"timestamp"`
	Sequence        uint64         `json:"sequence"`
}

// EventFromReceipt derives the published event from a committed receipt.
func EventFromReceipt(r *ProofReceipt) VerificationEvent {
	return VerificationEvent{
		Identity:        r.Identity,
		Owner:           r.Owner,
		Verifier:        r.Verifier,
		RequirementHash: r.RequirementHash,
		ProofHash:       r.ProofHash,
		Timestamp:       r.Timestamp,
		Sequence:        r.Sequence,
	}
}
