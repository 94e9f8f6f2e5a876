package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minkyc/internal/identity/address"
	"minkyc/internal/identity/models"
	"minkyc/pkg/domain"
	"minkyc/pkg/platform/sentinel"
)

func newRecord(owner domain.OwnerID, index uint64) *models.IdentityRecord {
	return models.NewIdentityRecord(address.Identity(owner, index), owner, index, domain.SumDigest([]byte("c")), time.Now())
}

func TestInMemoryStore_CreateIfAbsent(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	rec := newRecord("alice", 0)

	require.NoError(t, store.CreateIfAbsent(ctx, rec))

	err := store.CreateIfAbsent(ctx, newRecord("alice", 0))
	assert.True(t, errors.Is(err, sentinel.ErrAlreadyUsed))
}

func TestInMemoryStore_CopiesRecords(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	rec := newRecord("alice", 0)
	require.NoError(t, store.CreateIfAbsent(ctx, rec))

	rec.Status = models.StatusRevoked
	found, err := store.FindByAddress(ctx, rec.Address)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFresh, found.Status, "caller mutation must not leak into the store")

	found.VerificationCount = 9
	again, err := store.FindForUpdate(ctx, rec.Address)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), again.VerificationCount)
}

func TestInMemoryStore_Update(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	err := store.Update(ctx, newRecord("alice", 0))
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	rec := newRecord("alice", 0)
	require.NoError(t, store.CreateIfAbsent(ctx, rec))
	rec.ApplyVerification(time.Now())
	require.NoError(t, store.Update(ctx, rec))

	found, err := store.FindByAddress(ctx, rec.Address)
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, found.Status)
	assert.Equal(t, uint64(1), found.VerificationCount)
}

func TestInMemoryStore_ListByOwnerOrdersByIndex(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()
	for _, idx := range []uint64{2, 0, 1} {
		require.NoError(t, store.CreateIfAbsent(ctx, newRecord("alice", idx)))
	}
	require.NoError(t, store.CreateIfAbsent(ctx, newRecord("bob", 0)))

	recs, err := store.ListByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, recs, 3)
	for i, rec := range recs {
		assert.Equal(t, uint64(i), rec.Index)
	}

	none, err := store.ListByOwner(ctx, "carol")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestInMemoryStore_FindMissing(t *testing.T) {
	_, err := NewInMemoryStore().FindByAddress(context.Background(), domain.Address{1})
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
