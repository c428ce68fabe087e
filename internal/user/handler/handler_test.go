package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volunteerhub/internal/access"
	"volunteerhub/internal/user/service"
	"volunteerhub/internal/user/store"
	id "volunteerhub/pkg/domain"
	"volunteerhub/pkg/requestcontext"
	"volunteerhub/pkg/testutil"
)

type fixture struct {
	router http.Handler
	users  *store.InMemory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := store.NewInMemory()
	svc, err := service.New(users)
	require.NoError(t, err)

	resolver := access.NewResolver(users)
	r := chi.NewRouter()
	r.Use(resolver.Middleware())
	New(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(r)
	return &fixture{router: r, users: users}
}

func (f *fixture) do(t *testing.T, req *http.Request, userID string) (*http.Response, []byte) {
	t.Helper()
	if userID != "" {
		req = testutil.WithPrincipal(req, userID, userID+"@example.com")
	}
	ctx := requestcontext.WithTime(req.Context(), time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	rr := testutil.DoRequest(f.router, req.WithContext(ctx))
	return rr.Result(), rr.Body.Bytes()
}

func profileBody() map[string]any {
	return map[string]any{
		"first_name":         "Wei",
		"last_name":          "Lim",
		"date_of_birth":      "1999-07-04",
		"gender":             "m",
		"residential_status": "singapore_pr",
		"phone":              " 91234567 ",
		"preferences":        []string{"teaching students", "FUNDRAISING", "fundraising"},
	}
}

func TestOnboardingFlow(t *testing.T) {
	f := newFixture(t)

	testutil.Given(t, "a new volunteer", func(t *testing.T) {
		resp, body := f.do(t, testutil.NewRequest(t, http.MethodGet, "/role"), "wei")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"role":null}`, string(body))

		resp, _ = f.do(t, testutil.NewRequest(t, http.MethodGet, "/profile"), "wei")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	testutil.When(t, "they create a profile", func(t *testing.T) {
		resp, _ := f.do(t, testutil.NewJSONRequest(t, http.MethodPost, "/profile", profileBody()), "wei")
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	})

	testutil.Then(t, "the profile is readable and the role is VOLUNTEER", func(t *testing.T) {
		resp, body := f.do(t, testutil.NewRequest(t, http.MethodGet, "/profile"), "wei")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), `"date_of_birth":"1999-07-04"`)
		assert.Contains(t, string(body), `"residential_status_label":"Singapore PR"`)
		assert.Contains(t, string(body), `"preferences":["TEACHING_STUDENTS","FUNDRAISING"]`)
		assert.Contains(t, string(body), `"phone":"91234567"`)

		resp, body = f.do(t, testutil.NewRequest(t, http.MethodGet, "/role"), "wei")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"role":"VOLUNTEER"}`, string(body))
	})

	testutil.Then(t, "a second create is rejected", func(t *testing.T) {
		rr := testutil.DoRequest(f.router, requestAs(t, http.MethodPost, "/profile", profileBody(), "wei"))
		testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, "profile_exists")
	})

	testutil.Then(t, "an update replaces the preference set but not the name", func(t *testing.T) {
		update := map[string]any{
			"first_name":  "Changed",
			"preferences": []string{"WORKING_OUTDOORS"},
		}
		resp, body := f.do(t, testutil.NewJSONRequest(t, http.MethodPut, "/profile", update), "wei")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), `"first_name":"Wei"`)
		assert.Contains(t, string(body), `"preferences":["WORKING_OUTDOORS"]`)
	})
}

func TestProfileValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		mutate func(map[string]any)
		want   string
	}{
		{"missing first name", func(b map[string]any) { delete(b, "first_name") }, "validation_error"},
		{"bad gender", func(b map[string]any) { b["gender"] = "X" }, "validation_error"},
		{"bad date", func(b map[string]any) { b["date_of_birth"] = "04/07/1999" }, "validation_error"},
		{"unknown status", func(b map[string]any) { b["residential_status"] = "TOURIST" }, "validation_error"},
		{"unknown preference", func(b map[string]any) { b["preferences"] = []string{"GARDENING"} }, "validation_error"},
		{"future birth date", func(b map[string]any) { b["date_of_birth"] = "2030-01-01" }, "validation_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := profileBody()
			tt.mutate(body)
			rr := testutil.DoRequest(f.router, requestAs(t, http.MethodPost, "/profile", body, "val-user"))
			testutil.AssertStatusAndError(t, rr, http.StatusBadRequest, tt.want)
		})
	}
}

func TestAdminRoutes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.users.EnsureProvisioned(ctx, "boss", "boss@example.com", time.Now())
	require.NoError(t, err)
	require.NoError(t, f.users.SetRole(ctx, id.UserID("boss"), "ADMIN"))

	resp, _ := f.do(t, testutil.NewRequest(t, http.MethodGet, "/admin/volunteers"), "volunteer")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := f.do(t, testutil.NewRequest(t, http.MethodGet, "/admin/volunteers"), "boss")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `[]`, string(body))

	resp, body = f.do(t, testutil.NewRequest(t, http.MethodGet, "/role"), "boss")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"role":"ADMIN"}`, string(body))

	resp, _ = f.do(t, testutil.NewJSONRequest(t, http.MethodPost, "/profile", profileBody()), "boss")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAnonymousIsUnauthorized(t *testing.T) {
	f := newFixture(t)
	resp, _ := f.do(t, testutil.NewRequest(t, http.MethodGet, "/role"), "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func requestAs(t *testing.T, method, path string, body any, userID string) *http.Request {
	t.Helper()
	req := testutil.NewJSONRequest(t, method, path, body)
	req = testutil.WithPrincipal(req, userID, userID+"@example.com")
	return req.WithContext(requestcontext.WithTime(req.Context(), time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)))
}
