//go:build integration

package receipt_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"minkyc/internal/identity/address"
	"minkyc/internal/identity/models"
	identitystore "minkyc/internal/identity/store/identity"
	"minkyc/internal/identity/store/receipt"
	"minkyc/internal/platform/postgres"
	"minkyc/pkg/domain"
	"minkyc/pkg/platform/sentinel"
	"minkyc/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *receipt.PostgresStore
	identity domain.Address
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = receipt.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, postgres.Tables()...))

	rec := models.NewIdentityRecord(address.Identity("alice", 0), "alice", 0, domain.Digest{}, time.Now())
	s.Require().NoError(identitystore.NewPostgres(s.postgres.DB).CreateIfAbsent(ctx, rec))
	s.identity = rec.Address
}

func (s *PostgresStoreSuite) newReceipt(proof string, seq uint64) *models.ProofReceipt {
	h := domain.SumDigest([]byte(proof))
	return &models.ProofReceipt{
		Address:         address.Receipt(s.identity, h),
		Identity:        s.identity,
		Owner:           "alice",
		Verifier:        "platform",
		ProofHash:       h,
		RequirementHash: domain.SumDigest([]byte("req")),
		Used:            true,
		Timestamp:       time.Now().UTC().Truncate(time.Microsecond),
		Sequence:        seq,
	}
}

// TestConcurrentConsumption verifies a proof receipt is created at most once.
func (s *PostgresStoreSuite) TestConcurrentConsumption() {
	ctx := context.Background()
	const goroutines = 30

	var (
		wg       sync.WaitGroup
		consumed atomic.Int32
		replayed atomic.Int32
	)
	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.CreateIfAbsent(ctx, s.newReceipt("same", uint64(i+1)))
			if err == nil {
				consumed.Add(1)
			} else if errors.Is(err, sentinel.ErrAlreadyUsed) {
				replayed.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), consumed.Load())
	s.Equal(int32(goroutines-1), replayed.Load())
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	r := s.newReceipt("p1", math.MaxUint64)
	s.Require().NoError(s.store.CreateIfAbsent(ctx, r))

	found, err := s.store.FindByAddress(ctx, r.Address)
	s.Require().NoError(err)
	s.Equal(r.ProofHash, found.ProofHash)
	s.Equal(r.RequirementHash, found.RequirementHash)
	s.Equal(r.Verifier, found.Verifier)
	s.Equal(uint64(math.MaxUint64), found.Sequence)
	s.True(found.Used)
}

func (s *PostgresStoreSuite) TestListAndFindConsumed() {
	ctx := context.Background()
	var addrs []domain.Address
	for i, seq := range []uint64{4, 2, 8} {
		r := s.newReceipt(fmt.Sprintf("p%d", i), seq)
		s.Require().NoError(s.store.CreateIfAbsent(ctx, r))
		addrs = append(addrs, r.Address)
	}

	all, err := s.store.ListByIdentity(ctx, s.identity)
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal(uint64(2), all[0].Sequence)

	missing := address.Receipt(s.identity, domain.SumDigest([]byte("never")))
	consumed, err := s.store.FindConsumed(ctx, []domain.Address{addrs[0], missing, addrs[2]})
	s.Require().NoError(err)
	s.Require().Len(consumed, 2)
	s.Equal(uint64(4), consumed[0].Sequence)
	s.Equal(uint64(8), consumed[1].Sequence)
}
