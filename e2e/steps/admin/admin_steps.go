//go:build e2e

package admin

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	Do(ctx context.Context, actor, method, path string, body any) error
	Status() int
	Body() []byte
	ResponseField(field string) (any, error)
	SaveOpportunity(name, oppID string)
	OpportunityID(name string) (string, error)
}

// RegisterSteps registers catalog and enrollment review steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &adminSteps{tc: tc}

	ctx.Step(`^"([^"]*)" publishes "([^"]*)" from "([^"]*)" to "([^"]*)"$`, steps.publish)
	ctx.Step(`^"([^"]*)" archives "([^"]*)"$`, steps.archive)
	ctx.Step(`^"([^"]*)" sets (approval|attendance) of "([^"]*)" in "([^"]*)" to (true|false)$`, steps.setFlag)
}

type adminSteps struct {
	tc TestContext
}

func (s *adminSteps) publish(ctx context.Context, actor, name, start, end string) error {
	err := s.tc.Do(ctx, actor, http.MethodPost, "/admin/opportunities", map[string]any{
		"name":     name,
		"location": "Singapore",
		"start":    start,
		"end":      end,
	})
	if err != nil {
		return err
	}
	if s.tc.Status() != http.StatusCreated {
		return fmt.Errorf("publish %q: status %d: %s", name, s.tc.Status(), s.tc.Body())
	}
	oppID, err := s.tc.ResponseField("id")
	if err != nil {
		return err
	}
	s.tc.SaveOpportunity(name, oppID.(string))
	return nil
}

func (s *adminSteps) archive(ctx context.Context, actor, name string) error {
	oppID, err := s.tc.OpportunityID(name)
	if err != nil {
		return err
	}
	return s.tc.Do(ctx, actor, http.MethodPut, "/admin/opportunities/"+oppID+"/archive", map[string]any{"archived": true})
}

func (s *adminSteps) setFlag(ctx context.Context, actor, flag, volunteer, opportunity, value string) error {
	oppID, err := s.tc.OpportunityID(opportunity)
	if err != nil {
		return err
	}
	v, err := strconv.ParseBool(value)
	if err != nil {
		return err
	}
	body := map[string]any{"adminApproved": v}
	if flag == "attendance" {
		body = map[string]any{"didAttend": v}
	}
	return s.tc.Do(ctx, actor, http.MethodPut, "/admin/opportunities/"+oppID+"/enrollments/"+volunteer+"/"+flag, body)
}
