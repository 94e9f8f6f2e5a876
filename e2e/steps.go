package e2e

import (
	"github.com/cucumber/godog"

	"minkyc/e2e/steps/common"
	"minkyc/e2e/steps/identity"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	// Register common steps (background, authentication, assertions)
	common.RegisterSteps(ctx, tc)

	// Register identity lifecycle steps
	identity.RegisterSteps(ctx, tc)
}
