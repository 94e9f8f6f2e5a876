package address

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"

	"minkyc/pkg/domain"
)

func TestIdentity_IsDeterministic(t *testing.T) {
	owner := domain.OwnerID("wallet-a")

	assert.Equal(t, Identity(owner, 0), Identity(owner, 0))
	assert.NotEqual(t, Identity(owner, 0), Identity(owner, 1))
	assert.NotEqual(t, Identity(owner, 0), Identity("wallet-b", 0))
}

func TestIdentity_EncodesIndexLittleEndian(t *testing.T) {
	owner := domain.OwnerID("wallet-a")
	expected := sha256.Sum256(append([]byte("identitywallet-a"), 1, 0, 0, 0, 0, 0, 0, 0))
	assert.Equal(t, domain.Address(expected), Identity(owner, 1))
}

func TestSeedsDoNotCollide(t *testing.T) {
	owner := domain.OwnerID("wallet-a")

	assert.NotEqual(t, SingleIdentity(owner), Identity(owner, 0))
	assert.NotEqual(t, SingleIdentity(owner), Counter(owner))
}

func TestReceipt(t *testing.T) {
	id1 := Identity("wallet-a", 0)
	id2 := Identity("wallet-a", 1)
	h := domain.SumDigest([]byte("proof"))

	assert.Equal(t, Receipt(id1, h), Receipt(id1, h))
	assert.NotEqual(t, Receipt(id1, h), Receipt(id2, h), "receipts are scoped per identity")
	assert.NotEqual(t, Receipt(id1, h), Receipt(id1, domain.SumDigest([]byte("other"))))
}
