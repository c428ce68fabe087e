//go:build e2e

package volunteer

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	Do(ctx context.Context, actor, method, path string, body any) error
	Status() int
	Body() []byte
	OpportunityID(name string) (string, error)
}

// RegisterSteps registers onboarding, enrollment and certificate steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &volunteerSteps{tc: tc}

	ctx.Step(`^"([^"]*)" onboards as "([^"]*)" born "([^"]*)" with gender "([^"]*)"$`, steps.onboard)
	ctx.Step(`^"([^"]*)" has onboarded as "([^"]*)"$`, steps.hasOnboarded)
	ctx.Step(`^"([^"]*)" enrols in "([^"]*)"$`, steps.enrol)
	ctx.Step(`^"([^"]*)" has enrolled in "([^"]*)"$`, steps.hasEnrolled)
	ctx.Step(`^"([^"]*)" requests the certificate of "([^"]*)" for "([^"]*)"$`, steps.requestCertificate)
}

type volunteerSteps struct {
	tc TestContext
}

func (s *volunteerSteps) onboard(ctx context.Context, actor, fullName, dob, gender string) error {
	first, last, _ := strings.Cut(fullName, " ")
	return s.tc.Do(ctx, actor, http.MethodPost, "/profile", map[string]any{
		"first_name":         first,
		"last_name":          last,
		"date_of_birth":      dob,
		"gender":             gender,
		"residential_status": "SINGAPORE_CITIZEN",
		"preferences":        []string{"WORKING_OUTDOORS"},
	})
}

func (s *volunteerSteps) hasOnboarded(ctx context.Context, actor, fullName string) error {
	if err := s.onboard(ctx, actor, fullName, "1998-04-02", "F"); err != nil {
		return err
	}
	return s.expect(http.StatusCreated)
}

func (s *volunteerSteps) enrol(ctx context.Context, actor, opportunity string) error {
	oppID, err := s.tc.OpportunityID(opportunity)
	if err != nil {
		return err
	}
	return s.tc.Do(ctx, actor, http.MethodPost, "/opportunities/"+oppID+"/enrol", nil)
}

func (s *volunteerSteps) hasEnrolled(ctx context.Context, actor, opportunity string) error {
	if err := s.enrol(ctx, actor, opportunity); err != nil {
		return err
	}
	return s.expect(http.StatusCreated)
}

func (s *volunteerSteps) requestCertificate(ctx context.Context, actor, volunteer, opportunity string) error {
	oppID, err := s.tc.OpportunityID(opportunity)
	if err != nil {
		return err
	}
	return s.tc.Do(ctx, actor, http.MethodGet, "/certificate/volunteer/"+volunteer+"/opportunities/"+oppID, nil)
}

func (s *volunteerSteps) expect(status int) error {
	if s.tc.Status() != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, s.tc.Status(), s.tc.Body())
	}
	return nil
}
