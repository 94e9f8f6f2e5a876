package service

import (
	"context"

	"minkyc/pkg/domain"
)

// MockVerifier accepts any non-empty proof. It stands in for a real proof
// system and checks nothing about the commitment or requirement.
type MockVerifier struct{}

func (MockVerifier) Verify(_ context.Context, proof []byte, _ domain.Digest, _ domain.Digest) (bool, error) {
	return len(proof) > 0, nil
}
