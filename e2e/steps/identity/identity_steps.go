package identity

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string) error
	POST(path string, body any) error
	PUT(path string, body any) error
	GetResponseField(field string) (any, error)
	Remember(name, value string)
	Recall(name string) (string, error)
}

// RegisterSteps registers identity lifecycle step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &identitySteps{tc: tc}

	ctx.Step(`^I create an identity with commitment "([^"]*)"$`, steps.createIdentity)
	ctx.Step(`^I remember the identity as "([^"]*)"$`, steps.rememberIdentity)
	ctx.Step(`^I register commitment "([^"]*)" for "([^"]*)"$`, steps.registerCommitment)
	ctx.Step(`^I submit proof "([^"]*)" for "([^"]*)"$`, steps.submitProof)
	ctx.Step(`^I revoke "([^"]*)"$`, steps.revoke)
	ctx.Step(`^I fetch "([^"]*)"$`, steps.fetch)
	ctx.Step(`^I look up receipt for proof "([^"]*)" on "([^"]*)"$`, steps.lookupReceipt)
}

type identitySteps struct {
	tc TestContext
}

// digest mirrors how scenarios name commitments: the hex SHA-256 of a label.
func digest(label string) string {
	sum := sha256.Sum256([]byte(label))
	return hex.EncodeToString(sum[:])
}

func (s *identitySteps) path(name string) (string, error) {
	addr, err := s.tc.Recall(name)
	if err != nil {
		return "", err
	}
	return "/identities/" + addr, nil
}

func (s *identitySteps) createIdentity(ctx context.Context, commitment string) error {
	return s.tc.POST("/identities", map[string]string{"commitment": digest(commitment)})
}

func (s *identitySteps) rememberIdentity(ctx context.Context, name string) error {
	v, err := s.tc.GetResponseField("address")
	if err != nil {
		return err
	}
	addr, ok := v.(string)
	if !ok || addr == "" {
		return fmt.Errorf("address is not a string: %v", v)
	}
	s.tc.Remember(name, addr)
	return nil
}

func (s *identitySteps) registerCommitment(ctx context.Context, commitment, name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	return s.tc.PUT(p+"/commitment", map[string]string{"commitment": digest(commitment)})
}

func (s *identitySteps) submitProof(ctx context.Context, proof, name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	return s.tc.POST(p+"/verifications", map[string]string{
		"proof": base64.StdEncoding.EncodeToString([]byte(proof)),
	})
}

func (s *identitySteps) revoke(ctx context.Context, name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	return s.tc.POST(p+"/revoke", nil)
}

func (s *identitySteps) fetch(ctx context.Context, name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	return s.tc.GET(p)
}

func (s *identitySteps) lookupReceipt(ctx context.Context, proof, name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	return s.tc.GET(p + "/receipts/" + digest(proof))
}
