package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volunteerhub/internal/platform/config"
	"volunteerhub/internal/user/models"
	"volunteerhub/pkg/testutil"
)

type harness struct {
	app    *App
	router http.Handler
}

func newHarness(t *testing.T) harness {
	t.Helper()
	cfg := &config.Config{
		Environment: "test",
		Server:      config.Server{RequestTimeout: 5 * time.Second},
		Auth:        config.AuthConfig{SigningKey: "app-test-signing-key", Issuer: "volunteerhub", Audience: "volunteerhub-api"},
		Report:      config.ReportConfig{TimeZone: "UTC", Location: time.UTC},
	}
	a, err := New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), WithRegistry(prometheus.NewRegistry()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return harness{app: a, router: a.Router()}
}

func (h harness) do(t *testing.T, subject, method, path string, body any) *http.Response {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = testutil.NewJSONRequest(t, method, "/api/v1"+path, body)
	} else {
		req = testutil.NewRequest(t, method, "/api/v1"+path)
	}
	token, _, err := h.app.Tokens.IssueToken(subject, subject+"@example.org", time.Hour)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	return testutil.DoRequest(h.router, req).Result()
}

func TestNewInMemory(t *testing.T) {
	h := newHarness(t)
	assert.Nil(t, h.app.DB)
	assert.Nil(t, h.app.Redis)
	assert.Nil(t, h.app.Relay)
	require.NoError(t, h.app.Ready(context.Background()))
	require.NoError(t, h.app.EnsureTopic(context.Background()))

	rr := testutil.DoRequest(h.router, testutil.NewRequest(t, http.MethodGet, "/metrics"))
	testutil.AssertStatusOK(t, rr)
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(context.Background(), nil, nil)
	require.Error(t, err)
}

func TestVolunteerJourney(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// Both users must exist before the admin can be promoted.
	require.Equal(t, http.StatusOK, h.do(t, "admin-1", http.MethodGet, "/role", nil).StatusCode)
	require.Equal(t, http.StatusOK, h.do(t, "vol-1", http.MethodGet, "/role", nil).StatusCode)
	require.NoError(t, h.app.Users.SetRole(ctx, "admin-1", models.RoleAdmin))

	var oppID string
	testutil.Given(t, "an admin publishes an opportunity", func(t *testing.T) {
		resp := h.do(t, "admin-1", http.MethodPost, "/admin/opportunities", map[string]any{
			"name":     "Beach Cleanup",
			"location": "East Coast Park",
			"start":    "2026-04-11T01:00:00Z",
			"end":      "2026-04-11T04:00:00Z",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		opp := decode[map[string]any](t, resp)
		oppID = opp["id"].(string)
		assert.EqualValues(t, 180, opp["duration_minutes"])
	})

	testutil.When(t, "a volunteer without a profile tries to enrol", func(t *testing.T) {
		resp := h.do(t, "vol-1", http.MethodPost, "/opportunities/"+oppID+"/enrol", nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "profile_incomplete", decode[map[string]any](t, resp)["error"])
	})

	testutil.When(t, "the volunteer onboards and enrols", func(t *testing.T) {
		resp := h.do(t, "vol-1", http.MethodPost, "/profile", map[string]any{
			"first_name":         "Mei",
			"last_name":          "Tan",
			"date_of_birth":      "1998-04-02",
			"gender":             "F",
			"residential_status": "SINGAPORE_CITIZEN",
			"preferences":        []string{"TEACHING_STUDENTS"},
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		resp = h.do(t, "vol-1", http.MethodPost, "/opportunities/"+oppID+"/enrol", nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	})

	testutil.Then(t, "the certificate is refused until attendance is recorded", func(t *testing.T) {
		certPath := "/certificate/volunteer/vol-1/opportunities/" + oppID
		resp := h.do(t, "vol-1", http.MethodGet, certPath, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		base := "/admin/opportunities/" + oppID + "/enrollments/vol-1"
		require.Equal(t, http.StatusOK, h.do(t, "admin-1", http.MethodPut, base+"/approval", map[string]any{"adminApproved": true}).StatusCode)
		require.Equal(t, http.StatusOK, h.do(t, "admin-1", http.MethodPut, base+"/attendance", map[string]any{"didAttend": true}).StatusCode)

		resp = h.do(t, "vol-1", http.MethodGet, certPath, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(body), "%PDF-"))

		resp = h.do(t, "vol-2", http.MethodGet, certPath, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	testutil.Then(t, "the report counts the volunteer", func(t *testing.T) {
		resp := h.do(t, "admin-1", http.MethodGet, "/admin/report-data", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		snap := decode[map[string][]any](t, resp)
		assert.Len(t, snap["volunteers"], 1)
		assert.Len(t, snap["opportunities"], 1)
		assert.Len(t, snap["enrollments"], 1)
	})
}

func TestOpportunityListFollowsCallerRole(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.Equal(t, http.StatusOK, h.do(t, "admin-1", http.MethodGet, "/role", nil).StatusCode)
	require.NoError(t, h.app.Users.SetRole(ctx, "admin-1", models.RoleAdmin))
	resp := h.do(t, "admin-1", http.MethodPost, "/admin/opportunities", map[string]any{
		"name":  "Food Rescue",
		"start": "2026-05-02T01:00:00Z",
		"end":   "2026-05-02T03:00:00Z",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = h.do(t, "admin-1", http.MethodGet, "/opportunities", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	adminView := decode[[]map[string]any](t, resp)
	require.Len(t, adminView, 1)
	assert.EqualValues(t, 0, adminView[0]["pending_count"])

	// vol-x has never onboarded.
	resp = h.do(t, "vol-x", http.MethodGet, "/opportunities", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	volunteerView := decode[[]map[string]any](t, resp)
	require.Len(t, volunteerView, 1)
	assert.Contains(t, volunteerView[0], "enrollment")
	assert.NotContains(t, volunteerView[0], "pending_count")
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}
