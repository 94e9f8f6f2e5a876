package handler

import (
	"encoding/base64"
	"strings"
	"time"

	"minkyc/internal/identity/models"
	"minkyc/pkg/domain"
	dErrors "minkyc/pkg/domain-errors"
	liststr "minkyc/pkg/platform/strings"
)

type commitmentRequest struct {
	Commitment string `json:"commitment"`
}

func (r commitmentRequest) parse() (domain.Digest, error) {
	return domain.ParseDigest(r.Commitment)
}

type verificationRequest struct {
	Proof           string `json:"proof"`
	RequirementHash string `json:"requirement_hash"`
}

// parse decodes the base64 proof. An empty proof is passed through so the
// service can rank it against the identity's state.
func (r verificationRequest) parse() ([]byte, domain.Digest, error) {
	proof, err := base64.StdEncoding.DecodeString(strings.TrimSpace(r.Proof))
	if err != nil {
		return nil, domain.Digest{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "proof must be base64")
	}
	var req domain.Digest
	if strings.TrimSpace(r.RequirementHash) != "" {
		req, err = domain.ParseDigest(r.RequirementHash)
		if err != nil {
			return nil, domain.Digest{}, err
		}
	}
	return proof, req, nil
}

type receiptLookupRequest struct {
	ProofHashes []string `json:"proof_hashes"`
}

// parse drops repeated hashes so each consumed proof is reported once.
func (r receiptLookupRequest) parse() ([]domain.Digest, error) {
	hashes := liststr.DedupeAndTrimLower(r.ProofHashes)
	out := make([]domain.Digest, 0, len(hashes))
	for _, h := range hashes {
		d, err := domain.ParseDigest(h)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

type identityResponse struct {
	Address           string    `json:"address"`
	Owner             string    `json:"owner"`
	Index             uint64    `json:"index"`
	Commitment        string    `json:"commitment"`
	Status            string    `json:"status"`
	Verified          bool      `json:"verified"`
	VerificationCount uint64    `json:"verification_count"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func toIdentityResponse(r *models.IdentityRecord) identityResponse {
	return identityResponse{
		Address:           r.Address.String(),
		Owner:             r.Owner.String(),
		Index:             r.Index,
		Commitment:        r.Commitment.String(),
		Status:            string(r.Status),
		Verified:          r.Verified(),
		VerificationCount: r.VerificationCount,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

type identityListResponse struct {
	Identities []identityResponse `json:"identities"`
}

type receiptResponse struct {
	Address         string    `json:"address"`
	Identity        string    `json:"identity"`
	Owner           string    `json:"owner"`
	Verifier        string    `json:"verifier"`
	ProofHash       string    `json:"proof_hash"`
	RequirementHash string    `json:"requirement_hash"`
	Used            bool      `json:"used"`
	Timestamp       time.Time `json:"timestamp"`
	Sequence        uint64    `json:"sequence"`
}

func toReceiptResponse(r *models.ProofReceipt) receiptResponse {
	return receiptResponse{
		Address:         r.Address.String(),
		Identity:        r.Identity.String(),
		Owner:           r.Owner.String(),
		Verifier:        r.Verifier.String(),
		ProofHash:       r.ProofHash.String(),
		RequirementHash: r.RequirementHash.String(),
		Used:            r.Used,
		Timestamp:       r.Timestamp,
		Sequence:        r.Sequence,
	}
}

type receiptListResponse struct {
	Receipts []receiptResponse `json:"receipts"`
}

func toReceiptList(rs []*models.ProofReceipt) receiptListResponse {
	out := receiptListResponse{Receipts: make([]receiptResponse, 0, len(rs))}
	for _, r := range rs {
		out.Receipts = append(out.Receipts, toReceiptResponse(r))
	}
	return out
}

type requirementDigestResponse struct {
	Request         models.RequirementRequest `json:"request"`
	RequirementHash string                    `json:"requirement_hash"`
}
