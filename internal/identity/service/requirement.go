package service

import (
	"context"

	"minkyc/internal/identity/models"
	"minkyc/pkg/domain"
	"minkyc/pkg/requestcontext"
)

// RequirementDigest stamps a requirement with the request time and returns the
// request document together with its digest, for relying parties to pass to VerifyProof.
func (s *Service) RequirementDigest(ctx context.Context, req models.Requirement) (models.RequirementRequest, domain.Digest, error) {
	rr, err := models.NewRequirementRequest(req, requestcontext.Now(ctx))
	if err != nil {
		return models.RequirementRequest{}, domain.Digest{}, err
	}
	d, err := rr.Digest()
	if err != nil {
		return models.RequirementRequest{}, domain.Digest{}, err
	}
	return rr, d, nil
}
