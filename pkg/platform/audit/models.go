package audit

import (
	"time"

	"minkyc/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose so stores and
// sinks can apply different retention.
type EventCategory string

const (
	// CategoryCompliance covers state changes with regulatory significance:
	// identity creation, verification, revocation.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers rejected or suspicious attempts (replays, forged proofs,
	// foreign owners).
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity that can be sampled.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	// Owner is the principal whose identity was affected.
	Owner domain.OwnerID
	// Identity is the address of the affected record, when there is one.
	Identity string
	Action   string
	// ActorID is the caller when different from Owner (verifiers, foreign callers).
	ActorID   string
	Reason    string
	RequestID string
	ClientIP  string
	Device    string
}

type AuditEvent string

const (
	EventIdentityCreated      AuditEvent = "identity_created"
	EventCommitmentRegistered AuditEvent = "commitment_registered"
	EventProofVerified        AuditEvent = "proof_verified"
	EventIdentityRevoked      AuditEvent = "identity_revoked"

	EventProofRejected       AuditEvent = "proof_rejected"
	EventProofReplayRejected AuditEvent = "proof_replay_rejected"
	EventOwnershipViolation  AuditEvent = "ownership_violation"

	EventIdentityViewed AuditEvent = "identity_viewed"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventIdentityCreated:      CategoryCompliance,
	EventCommitmentRegistered: CategoryCompliance,
	EventProofVerified:        CategoryCompliance,
	EventIdentityRevoked:      CategoryCompliance,

	EventProofRejected:       CategorySecurity,
	EventProofReplayRejected: CategorySecurity,
	EventOwnershipViolation:  CategorySecurity,

	EventIdentityViewed: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}
