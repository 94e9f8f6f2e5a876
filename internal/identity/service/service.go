package service

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"minkyc/internal/identity/address"
	"minkyc/internal/identity/metrics"
	"minkyc/internal/identity/models"
	"minkyc/internal/identity/sequence"
	"minkyc/pkg/domain"
	"minkyc/pkg/platform/audit"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks

// IdentityStore persists identity records keyed by derived address.
type IdentityStore interface {
	// CreateIfAbsent returns sentinel.ErrAlreadyUsed when the address is occupied.
	CreateIfAbsent(ctx context.Context, record *models.IdentityRecord) error
	FindByAddress(ctx context.Context, addr domain.Address) (*models.IdentityRecord, error)
	// FindForUpdate locks the record for the rest of the enclosing transaction.
	FindForUpdate(ctx context.Context, addr domain.Address) (*models.IdentityRecord, error)
	Update(ctx context.Context, record *models.IdentityRecord) error
	ListByOwner(ctx context.Context, owner domain.OwnerID) ([]*models.IdentityRecord, error)
}

// CounterStore persists per-owner identity counters.
type CounterStore interface {
	// LoadForUpdate returns the owner's counter, or a zero counter when none exists,
	// locked for the rest of the enclosing transaction.
	LoadForUpdate(ctx context.Context, addr domain.Address, owner domain.OwnerID) (*models.IdentityCounter, error)
	Save(ctx context.Context, counter *models.IdentityCounter) error
}

// ReceiptStore persists consumed-proof receipts.
type ReceiptStore interface {
	// CreateIfAbsent returns sentinel.ErrAlreadyUsed when the proof was already consumed.
	CreateIfAbsent(ctx context.Context, receipt *models.ProofReceipt) error
	FindByAddress(ctx context.Context, addr domain.Address) (*models.ProofReceipt, error)
	ListByIdentity(ctx context.Context, identity domain.Address) ([]*models.ProofReceipt, error)
	FindConsumed(ctx context.Context, addrs []domain.Address) ([]*models.ProofReceipt, error)
}

// StoreTx runs fn as one atomic unit. key scopes the lock: an identity address,
// or the owner's counter address during creation.
type StoreTx interface {
	RunInTx(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// ProofVerifier is the pluggable validity predicate for proofs.
type ProofVerifier interface {
	Verify(ctx context.Context, proof []byte, commitment domain.Digest, requirementHash domain.Digest) (bool, error)
}

// SequenceSource issues monotonically increasing ordinals for receipts.
type SequenceSource interface {
	Next(ctx context.Context) (uint64, error)
}

// EventPublisher delivers verification events after commit.
type EventPublisher interface {
	PublishVerification(ctx context.Context, event models.VerificationEvent) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service implements the identity lifecycle and the replay-protection ledger.
type Service struct {
	identities IdentityStore
	counters   CounterStore
	receipts   ReceiptStore
	tx         StoreTx
	verifier   ProofVerifier
	sequence   SequenceSource
	events     EventPublisher
	auditor    AuditPublisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	tracer     trace.Tracer
	mode       address.Mode
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = publisher
	}
}

func WithEventPublisher(publisher EventPublisher) Option {
	return func(s *Service) {
		s.events = publisher
	}
}

func WithProofVerifier(v ProofVerifier) Option {
	return func(s *Service) {
		s.verifier = v
	}
}

func WithSequence(seq SequenceSource) Option {
	return func(s *Service) {
		s.sequence = seq
	}
}

// WithSingleIdentityMode keys identities by owner alone.
func WithSingleIdentityMode() Option {
	return func(s *Service) {
		s.mode = address.ModeSingle
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// New constructs a Service. Without a StoreTx the stores are serialized by
// an in-memory sharded lock.
func New(identities IdentityStore, counters CounterStore, receipts ReceiptStore, tx StoreTx, opts ...Option) *Service {
	s := &Service{
		identities: identities,
		counters:   counters,
		receipts:   receipts,
		tx:         tx,
		verifier:   MockVerifier{},
		mode:       address.ModeMulti,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = NewShardedTx()
	}
	if s.sequence == nil {
		s.sequence = sequence.NewMemory()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer("minkyc/identity")
	}
	return s
}

// Mode reports the addressing mode in effect.
func (s *Service) Mode() address.Mode {
	return s.mode
}
