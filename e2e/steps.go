//go:build e2e

package e2e

import (
	"context"

	"github.com/cucumber/godog"

	"volunteerhub/e2e/steps/admin"
	"volunteerhub/e2e/steps/common"
	"volunteerhub/e2e/steps/volunteer"
)

// InitializeScenario gives every scenario its own server and stores.
func InitializeScenario(sc *godog.ScenarioContext) {
	tc := &TestContext{}
	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		return ctx, tc.Reset(ctx)
	})
	sc.After(func(ctx context.Context, _ *godog.Scenario, err error) (context.Context, error) {
		tc.Close()
		return ctx, err
	})
	RegisterSteps(sc, tc)
}

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	volunteer.RegisterSteps(ctx, tc)
	admin.RegisterSteps(ctx, tc)
}
