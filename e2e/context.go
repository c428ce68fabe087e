//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"volunteerhub/internal/app"
	"volunteerhub/internal/platform/config"
	"volunteerhub/internal/user/models"
	id "volunteerhub/pkg/domain"
)

// TestContext runs one scenario against a fresh in-memory server.
type TestContext struct {
	app    *app.App
	server *httptest.Server

	lastStatus int
	lastHeader http.Header
	lastBody   []byte

	opportunities map[string]string
}

// Reset starts a new server with empty stores.
func (tc *TestContext) Reset(ctx context.Context) error {
	tc.Close()
	cfg := &config.Config{
		Environment: "test",
		Server:      config.Server{RequestTimeout: 5 * time.Second},
		Auth:        config.AuthConfig{SigningKey: "e2e-signing-key", Issuer: "volunteerhub", Audience: "volunteerhub-api"},
		Report:      config.ReportConfig{TimeZone: "Asia/Singapore", Location: mustLocation("Asia/Singapore")},
	}
	a, err := app.New(ctx, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), app.WithRegistry(prometheus.NewRegistry()))
	if err != nil {
		return err
	}
	tc.app = a
	tc.server = httptest.NewServer(a.Router())
	tc.opportunities = make(map[string]string)
	tc.lastStatus, tc.lastHeader, tc.lastBody = 0, nil, nil
	return nil
}

func (tc *TestContext) Close() {
	if tc.server != nil {
		tc.server.Close()
		tc.server = nil
	}
	if tc.app != nil {
		_ = tc.app.Close()
		tc.app = nil
	}
}

// Do sends an authenticated request as actor. An empty actor sends no token.
func (tc *TestContext) Do(ctx context.Context, actor, method, path string, body any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, tc.server.URL+"/api/v1"+tc.expand(path), reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if actor != "" {
		token, _, err := tc.app.Tokens.IssueToken(actor, actor+"@example.org", time.Hour)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := tc.server.Client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	tc.lastStatus = resp.StatusCode
	tc.lastHeader = resp.Header
	tc.lastBody, err = io.ReadAll(resp.Body)
	return err
}

func (tc *TestContext) Status() int              { return tc.lastStatus }
func (tc *TestContext) Header(key string) string { return tc.lastHeader.Get(key) }
func (tc *TestContext) Body() []byte             { return tc.lastBody }

// ResponseField reads a top-level field of the last JSON response.
func (tc *TestContext) ResponseField(field string) (any, error) {
	var doc map[string]any
	if err := json.Unmarshal(tc.lastBody, &doc); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w (body %s)", err, tc.lastBody)
	}
	v, ok := doc[field]
	if !ok {
		return nil, fmt.Errorf("field %q missing from %s", field, tc.lastBody)
	}
	return v, nil
}

// ResponseList decodes the last response as a JSON array.
func (tc *TestContext) ResponseList() ([]map[string]any, error) {
	var rows []map[string]any
	if err := json.Unmarshal(tc.lastBody, &rows); err != nil {
		return nil, fmt.Errorf("response is not a JSON array: %w (body %s)", err, tc.lastBody)
	}
	return rows, nil
}

// Promote grants ADMIN the way an operator would, out of band.
func (tc *TestContext) Promote(ctx context.Context, actor string) error {
	if err := tc.Do(ctx, actor, http.MethodGet, "/role", nil); err != nil {
		return err
	}
	return tc.app.Users.SetRole(ctx, id.UserID(actor), models.RoleAdmin)
}

func (tc *TestContext) SaveOpportunity(name, oppID string) {
	tc.opportunities[name] = oppID
}

func (tc *TestContext) OpportunityID(name string) (string, error) {
	oppID, ok := tc.opportunities[name]
	if !ok {
		return "", fmt.Errorf("no opportunity named %q was created in this scenario", name)
	}
	return oppID, nil
}

// expand replaces {opportunity:Name} placeholders with saved IDs.
func (tc *TestContext) expand(path string) string {
	for name, oppID := range tc.opportunities {
		path = strings.ReplaceAll(path, "{opportunity:"+name+"}", oppID)
	}
	return path
}

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}
