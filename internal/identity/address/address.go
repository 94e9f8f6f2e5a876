// Package address derives record addresses from fixed seeds so any party can
// recompute where an identity, counter or receipt lives.
package address

import (
	"crypto/sha256"
	"encoding/binary"

	"minkyc/pkg/domain"
)

const (
	identitySeed = "identity"
	counterSeed  = "identity_counter"
	receiptSeed  = "proof_receipt"
)

// Mode selects how identity addresses are keyed.
type Mode int

const (
	// ModeMulti keys identities by (owner, index) through a per-owner counter.
	ModeMulti Mode = iota
	// ModeSingle keys exactly one identity per owner.
	ModeSingle
)

func derive(parts ...[]byte) domain.Address {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	var a domain.Address
	copy(a[:], h.Sum(nil))
	return a
}

// Identity returns the multi-identity address for (owner, index).
func Identity(owner domain.OwnerID, index uint64) domain.Address {
	var le [8]byte
	binary.LittleEndian.PutUint64(le[:], index)
	return derive([]byte(identitySeed), []byte(owner), le[:])
}

// SingleIdentity returns the one-per-owner address.
func SingleIdentity(owner domain.OwnerID) domain.Address {
	return derive([]byte(identitySeed), []byte(owner))
}

// Counter returns the owner's identity counter address.
func Counter(owner domain.OwnerID) domain.Address {
	return derive([]byte(counterSeed), []byte(owner))
}

// Receipt returns the replay-protection address for a proof against an identity.
func Receipt(identity domain.Address, proofHash domain.Digest) domain.Address {
	return derive([]byte(receiptSeed), identity[:], proofHash[:])
}
