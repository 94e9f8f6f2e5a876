package models

import (
	"encoding/json"
	"slices"
	"strings"
	"time"

	"minkyc/pkg/domain"
	dErrors "minkyc/pkg/domain-errors"
)

// Requirement is what a relying party asks an identity to prove.
type Requirement struct {
	Over18     bool     `json:"over18"`
	CountryNot []string `json:"countryNot"`
	NameMatch  bool     `json:"nameMatch"`
}

// RequirementRequest is the document whose digest becomes the requirement hash.
// Field order is part of the digest.
type RequirementRequest struct {
	Requirements Requirement `json:"requirements"`
	Timestamp    int64       `json:"timestamp"`
}

// NewRequirementRequest normalizes the requirement and stamps it in unix milliseconds.
func NewRequirementRequest(req Requirement, issuedAt time.Time) (RequirementRequest, error) {
	norm, err := req.Normalize()
	if err != nil {
		return RequirementRequest{}, err
	}
	return RequirementRequest{Requirements: norm, Timestamp: issuedAt.UnixMilli()}, nil
}

// Normalize upper-cases, de-duplicates and sorts country codes.
func (r Requirement) Normalize() (Requirement, error) {
	countries := make([]string, 0, len(r.CountryNot))
	for _, c := range r.CountryNot {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c == "" {
			continue
		}
		if len(c) < 2 || len(c) > 3 || strings.IndexFunc(c, func(r rune) bool { return r < 'A' || r > 'Z' }) >= 0 {
			return Requirement{}, dErrors.New(dErrors.CodeInvalidInput, "country codes must be 2 or 3 letters")
		}
		countries = append(countries, c)
	}
	slices.Sort(countries)
	r.CountryNot = slices.Compact(countries)
	return r, nil
}

// Digest is SHA-256 over the compact JSON encoding.
func (rr RequirementRequest) Digest() (domain.Digest, error) {
	if rr.Requirements.CountryNot == nil {
		rr.Requirements.CountryNot = []string{}
	}
	b, err := json.Marshal(rr)
	if err != nil {
		return domain.Digest{}, dErrors.Wrap(err, dErrors.CodeInternal, "encode requirement")
	}
	return domain.SumDigest(b), nil
}
