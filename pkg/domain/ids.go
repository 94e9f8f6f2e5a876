// Package domain holds the typed identifiers shared across the registry: owner
// principals, derived record addresses, and 32-byte digests.
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"github.com/multiformats/go-multibase"

	dErrors "minkyc/pkg/domain-errors"
)

// MaxOwnerIDLength bounds principal identifiers accepted at trust boundaries.
const MaxOwnerIDLength = 128

// OwnerID is the opaque principal that owns identities and signs requests.
type OwnerID string

// ParseOwnerID validates a principal taken from an authenticated request.
func ParseOwnerID(s string) (OwnerID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "owner is required")
	}
	if len(s) > MaxOwnerIDLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "owner is too long")
	}
	for _, r := range s {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "owner contains invalid characters")
		}
	}
	return OwnerID(s), nil
}

func (o OwnerID) String() string { return string(o) }

func (o OwnerID) IsZero() bool { return o == "" }

// Address is a deterministic 32-byte record key derived from seeds.
type Address [32]byte

// String renders the address as multibase base58btc ("z..." prefix).
func (a Address) String() string {
	s, err := multibase.Encode(multibase.Base58BTC, a[:])
	if err != nil {
		// Base58BTC is always a supported encoding.
		return hex.EncodeToString(a[:])
	}
	return s
}

func (a Address) IsZero() bool { return a == Address{} }

func (a Address) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *Address) UnmarshalText(b []byte) error {
	parsed, err := ParseAddress(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ParseAddress decodes a base58btc multibase string into an Address.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Address{}, dErrors.New(dErrors.CodeInvalidInput, "address is required")
	}
	enc, raw, err := multibase.Decode(s)
	if err != nil {
		return Address{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid address encoding")
	}
	if enc != multibase.Base58BTC {
		return Address{}, dErrors.New(dErrors.CodeInvalidInput, "address must be base58btc")
	}
	if len(raw) != len(Address{}) {
		return Address{}, dErrors.New(dErrors.CodeInvalidInput, "address must be 32 bytes")
	}
	var a Address
	copy(a[:], raw)
	return a, nil
}

// Digest is a 32-byte hash value: commitments, requirement hashes, proof hashes.
type Digest [32]byte

// SumDigest hashes b with SHA-256.
func SumDigest(b []byte) Digest {
	return Digest(sha256.Sum256(b))
}

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

func (d Digest) IsZero() bool { return d == Digest{} }

func (d Digest) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Digest) UnmarshalText(b []byte) error {
	parsed, err := ParseDigest(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDigest decodes a 64-character hex string (optional 0x prefix).
func ParseDigest(s string) (Digest, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if s == "" {
		return Digest{}, dErrors.New(dErrors.CodeInvalidInput, "digest is required")
	}
	raw, err := hex.DecodeString(s)
	if err != nil {
		return Digest{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "digest must be hex")
	}
	if len(raw) != len(Digest{}) {
		return Digest{}, dErrors.New(dErrors.CodeInvalidInput, "digest must be 32 bytes")
	}
	var d Digest
	copy(d[:], raw)
	return d, nil
}
