package models

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minkyc/pkg/domain"
	dErrors "minkyc/pkg/domain-errors"
)

const (
	owner    = domain.OwnerID("wallet-owner")
	stranger = domain.OwnerID("wallet-stranger")
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newRecord() *IdentityRecord {
	return NewIdentityRecord(domain.Address{1}, owner, 0, domain.SumDigest([]byte("c1")), now)
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, StatusFresh.CanTransitionTo(StatusVerified))
	assert.True(t, StatusFresh.CanTransitionTo(StatusRevoked))
	assert.True(t, StatusVerified.CanTransitionTo(StatusRevoked))
	assert.False(t, StatusVerified.CanTransitionTo(StatusFresh))
	for _, target := range []Status{StatusFresh, StatusVerified, StatusRevoked} {
		assert.False(t, StatusRevoked.CanTransitionTo(target), "revoked is terminal")
	}
}

func TestParseStatus(t *testing.T) {
	st, err := ParseStatus("verified")
	require.NoError(t, err)
	assert.Equal(t, StatusVerified, st)

	_, err = ParseStatus("pending")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestCanRegisterCommitment_GuardOrder(t *testing.T) {
	t.Run("non-owner is rejected before state checks", func(t *testing.T) {
		r := newRecord()
		r.Status = StatusVerified
		err := r.CanRegisterCommitment(stranger)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("verified identity is immutable", func(t *testing.T) {
		r := newRecord()
		r.Status = StatusVerified
		assert.True(t, dErrors.HasCode(r.CanRegisterCommitment(owner), dErrors.CodeIdentityImmutable))
	})

	t.Run("revoked identity rejects commitment", func(t *testing.T) {
		r := newRecord()
		r.ApplyRevoke(now)
		assert.True(t, dErrors.HasCode(r.CanRegisterCommitment(owner), dErrors.CodeIdentityRevoked))
	})

	t.Run("fresh identity accepts owner", func(t *testing.T) {
		r := newRecord()
		require.NoError(t, r.CanRegisterCommitment(owner))
		c2 := domain.SumDigest([]byte("c2"))
		r.ApplyCommitment(c2, now.Add(time.Minute))
		assert.Equal(t, c2, r.Commitment)
		assert.Equal(t, now.Add(time.Minute), r.UpdatedAt)
	})
}

func TestRevoke(t *testing.T) {
	r := newRecord()
	r.ApplyVerification(now)
	require.True(t, r.Verified())

	assert.True(t, dErrors.HasCode(r.CanRevoke(stranger), dErrors.CodeForbidden))
	require.NoError(t, r.CanRevoke(owner))
	r.ApplyRevoke(now)

	assert.True(t, r.Revoked())
	assert.False(t, r.Verified(), "revocation clears the verified view")
	assert.Equal(t, uint64(1), r.VerificationCount, "count retained")
	assert.True(t, dErrors.HasCode(r.CanRevoke(owner), dErrors.CodeAlreadyRevoked))
}

func TestApplyVerification(t *testing.T) {
	r := newRecord()
	require.NoError(t, r.CanVerify())

	r.ApplyVerification(now)
	r.ApplyVerification(now)

	assert.Equal(t, StatusVerified, r.Status)
	assert.Equal(t, uint64(2), r.VerificationCount)

	r.ApplyRevoke(now)
	assert.True(t, dErrors.HasCode(r.CanVerify(), dErrors.CodeIdentityRevoked))
}

func TestCounterOverflow(t *testing.T) {
	r := newRecord()
	r.VerificationCount = math.MaxUint64
	assert.True(t, dErrors.HasCode(r.CanCountVerification(), dErrors.CodeCounterOverflow))

	c := NewIdentityCounter(domain.Address{2}, owner)
	require.NoError(t, c.CanAdvance())
	c.Advance()
	assert.Equal(t, uint64(1), c.Count)

	c.Count = math.MaxUint64
	assert.True(t, dErrors.HasCode(c.CanAdvance(), dErrors.CodeCounterOverflow))
}

func TestRequirementDigest(t *testing.T) {
	issued := time.UnixMilli(1_700_000_000_000)

	a, err := NewRequirementRequest(Requirement{Over18: true, CountryNot: []string{"kp", "IR", " ir "}}, issued)
	require.NoError(t, err)
	b, err := NewRequirementRequest(Requirement{Over18: true, CountryNot: []string{"IR", "KP"}}, issued)
	require.NoError(t, err)

	assert.Equal(t, []string{"IR", "KP"}, a.Requirements.CountryNot)

	da, err := a.Digest()
	require.NoError(t, err)
	db, err := b.Digest()
	require.NoError(t, err)
	assert.Equal(t, da, db, "equivalent requirements share a digest")

	c, err := NewRequirementRequest(Requirement{Over18: true, CountryNot: []string{"IR", "KP"}}, issued.Add(time.Millisecond))
	require.NoError(t, err)
	dc, err := c.Digest()
	require.NoError(t, err)
	assert.NotEqual(t, da, dc, "timestamp is part of the digest")
}

func TestRequirementDigest_MatchesCompactJSON(t *testing.T) {
	rr := RequirementRequest{Requirements: Requirement{Over18: true}, Timestamp: 1}
	d, err := rr.Digest()
	require.NoError(t, err)
	expected := domain.SumDigest([]byte(`{"requirements":{"over18":true,"countryNot":[],"nameMatch":false},"timestamp":1}`))
	assert.Equal(t, expected, d)
}

func TestRequirementNormalize_RejectsBadCountry(t *testing.T) {
	_, err := Requirement{CountryNot: []string{"U5"}}.Normalize()
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}
