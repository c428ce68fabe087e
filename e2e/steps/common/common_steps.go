//go:build e2e

package common

import (
	"bytes"
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
	Header(key string) string
	Body() []byte
	ResponseField(field string) (any, error)
	ResponseList() ([]map[string]any, error)
	Promote(ctx context.Context, actor string) error
}

// RegisterSteps registers generic request and assertion steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &commonSteps{tc: tc}

	ctx.Step(`^"([^"]*)" is an admin$`, steps.isAdmin)
	ctx.Step(`^"([^"]*)" sends (GET|POST|PUT|DELETE) "([^"]*)"$`, steps.send)
	ctx.Step(`^an anonymous caller sends (GET|POST|PUT|DELETE) "([^"]*)"$`, steps.sendAnonymous)

	ctx.Step(`^the response status should be (\d+)$`, steps.statusShouldBe)
	ctx.Step(`^the error should be "([^"]*)"$`, steps.errorShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, steps.fieldShouldBe)
	ctx.Step(`^the response field "([^"]*)" should be null$`, steps.fieldShouldBeNull)
	ctx.Step(`^the response should list (\d+) items?$`, steps.listLength)
	ctx.Step(`^the response should be a PDF$`, steps.isPDF)
}

type commonSteps struct {
	tc TestContext
}

func (s *commonSteps) isAdmin(ctx context.Context, actor string) error {
	return s.tc.Promote(ctx, actor)
}

func (s *commonSteps) send(ctx context.Context, actor, method, path string) error {
	return s.tc.Do(ctx, actor, method, path, nil)
}

func (s *commonSteps) sendAnonymous(ctx context.Context, method, path string) error {
	return s.tc.Do(ctx, "", method, path, nil)
}

func (s *commonSteps) statusShouldBe(expected int) error {
	if s.tc.Status() != expected {
		return fmt.Errorf("expected status %d, got %d: %s", expected, s.tc.Status(), s.tc.Body())
	}
	return nil
}

func (s *commonSteps) errorShouldBe(code string) error {
	return s.fieldShouldBe("error", code)
}

func (s *commonSteps) fieldShouldBe(field, expected string) error {
	v, err := s.tc.ResponseField(field)
	if err != nil {
		return err
	}
	var got string
	switch x := v.(type) {
	case string:
		got = x
	case bool:
		got = strconv.FormatBool(x)
	case float64:
		got = strconv.FormatFloat(x, 'f', -1, 64)
	default:
		got = fmt.Sprint(x)
	}
	if got != expected {
		return fmt.Errorf("expected %s=%q, got %q", field, expected, got)
	}
	return nil
}

func (s *commonSteps) fieldShouldBeNull(field string) error {
	v, err := s.tc.ResponseField(field)
	if err != nil {
		return err
	}
	if v != nil {
		return fmt.Errorf("expected %s to be null, got %v", field, v)
	}
	return nil
}

func (s *commonSteps) listLength(n int) error {
	rows, err := s.tc.ResponseList()
	if err != nil {
		return err
	}
	if len(rows) != n {
		return fmt.Errorf("expected %d items, got %d: %s", n, len(rows), s.tc.Body())
	}
	return nil
}

func (s *commonSteps) isPDF() error {
	if s.tc.Status() != http.StatusOK {
		return fmt.Errorf("expected a certificate, got status %d: %s", s.tc.Status(), s.tc.Body())
	}
	if ct := s.tc.Header("Content-Type"); ct != "application/pdf" {
		return fmt.Errorf("expected application/pdf, got %q", ct)
	}
	if !bytes.HasPrefix(s.tc.Body(), []byte("%PDF-")) {
		return fmt.Errorf("body is not a PDF document")
	}
	return nil
}
