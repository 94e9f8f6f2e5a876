//go:build integration

package service_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"

	"minkyc/internal/identity/sequence"
	"minkyc/internal/identity/service"
	counterstore "minkyc/internal/identity/store/counter"
	identitystore "minkyc/internal/identity/store/identity"
	receiptstore "minkyc/internal/identity/store/receipt"
	"minkyc/internal/platform/postgres"
	"minkyc/pkg/domain"
	dErrors "minkyc/pkg/domain-errors"
	auditpublisher "minkyc/pkg/platform/audit/publisher"
	auditstore "minkyc/pkg/platform/audit/store/postgres"
	"minkyc/pkg/platform/tx"
	"minkyc/pkg/testutil/containers"
)

type PostgresServiceSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	service  *service.Service
	audit    *auditstore.Store
}

func TestPostgresServiceSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresServiceSuite))
}

func (s *PostgresServiceSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	db := s.postgres.DB
	s.audit = auditstore.New(db)
	s.service = service.New(
		identitystore.NewPostgres(db),
		counterstore.NewPostgres(db),
		receiptstore.NewPostgres(db),
		tx.NewPostgres(db, 0),
		service.WithSequence(sequence.NewPostgres(db)),
		service.WithAuditPublisher(auditpublisher.NewPublisher(s.audit)),
	)
}

func (s *PostgresServiceSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), postgres.Tables()...))
}

func (s *PostgresServiceSuite) TestConcurrentCreatesGetDistinctIndexes() {
	ctx := context.Background()
	const creates = 20

	var wg sync.WaitGroup
	for i := range creates {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.CreateIdentity(ctx, "alice", domain.SumDigest([]byte(fmt.Sprintf("c%d", i))))
			s.NoError(err)
		}()
	}
	wg.Wait()

	recs, err := s.service.ListIdentities(ctx, "alice")
	s.Require().NoError(err)
	s.Require().Len(recs, creates)
	for i, rec := range recs {
		s.Equal(uint64(i), rec.Index)
	}
}

func (s *PostgresServiceSuite) TestConcurrentReplayConsumesOnce() {
	ctx := context.Background()
	rec, err := s.service.CreateIdentity(ctx, "alice", domain.SumDigest([]byte("c")))
	s.Require().NoError(err)

	const attempts = 20
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		replays   atomic.Int32
	)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.VerifyProof(ctx, rec.Address, []byte("proof"), domain.Digest{}, "platform")
			switch {
			case err == nil:
				successes.Add(1)
			case dErrors.HasCode(err, dErrors.CodeProofAlreadyUsed):
				replays.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successes.Load())
	s.Equal(int32(attempts-1), replays.Load())

	got, err := s.service.GetIdentity(ctx, rec.Address)
	s.Require().NoError(err)
	s.Equal(uint64(1), got.VerificationCount)
}

func (s *PostgresServiceSuite) TestLifecycleAuditTrail() {
	ctx := context.Background()
	rec, err := s.service.CreateIdentity(ctx, "alice", domain.SumDigest([]byte("c")))
	s.Require().NoError(err)
	_, err = s.service.VerifyProof(ctx, rec.Address, []byte("p1"), domain.Digest{}, "platform")
	s.Require().NoError(err)
	_, err = s.service.RevokeIdentity(ctx, rec.Address, "alice")
	s.Require().NoError(err)

	events, err := s.audit.ListByOwner(ctx, "alice")
	s.Require().NoError(err)
	var actions []string
	for _, e := range events {
		actions = append(actions, e.Action)
	}
	s.Equal([]string{"identity_created", "proof_verified", "identity_revoked"}, actions)
}
