package httpapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volunteerhub/internal/access"
	"volunteerhub/internal/identity"
	"volunteerhub/internal/identity/revocation"
	"volunteerhub/internal/platform/metrics"
	userhandler "volunteerhub/internal/user/handler"
	userservice "volunteerhub/internal/user/service"
	userstore "volunteerhub/internal/user/store"
	"volunteerhub/pkg/platform/middleware/request"
	"volunteerhub/pkg/testutil"
)

type stack struct {
	router http.Handler
	tokens *identity.TokenService
	trl    *revocation.MemoryTRL
}

func newStack(t *testing.T, ready func(context.Context) error) stack {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := identity.NewTokenService("test-signing-key-0123456789abcdef", "https://issuer.test", "volunteerhub")
	trl := revocation.NewMemoryTRL()

	users := userstore.NewInMemory()
	svc, err := userservice.New(users)
	require.NoError(t, err)

	router := NewRouter(Config{
		Logger:      logger,
		Validator:   identity.NewMiddlewareValidator(tokens),
		Revocations: trl,
		Access:      access.NewResolver(users, access.WithLogger(logger)).Middleware(),
		Metrics:     &metrics.Metrics{RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "test_latency"}, []string{"method", "route", "status"})},
		Ready:       ready,
	}, userhandler.New(svc, logger))
	return stack{router: router, tokens: tokens, trl: trl}
}

func (s stack) bearer(t *testing.T, req *http.Request, subject string) (*http.Request, string) {
	t.Helper()
	token, jti, err := s.tokens.IssueToken(subject, subject+"@example.com", time.Hour)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	return req, jti
}

func TestRouter_Authentication(t *testing.T) {
	s := newStack(t, nil)

	t.Run("missing token", func(t *testing.T) {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(t, http.MethodGet, "/api/v1/role"))
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
	})

	t.Run("first contact provisions a volunteer without a profile", func(t *testing.T) {
		req, _ := s.bearer(t, testutil.NewRequest(t, http.MethodGet, "/api/v1/role"), "user_2abc")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(t, rr)
		assert.JSONEq(t, `{"role":null}`, rr.Body.String())
		assert.NotEmpty(t, rr.Header().Get(request.HeaderRequestID))
	})

	t.Run("revoked token", func(t *testing.T) {
		req, jti := s.bearer(t, testutil.NewRequest(t, http.MethodGet, "/api/v1/role"), "user_2abc")
		require.NoError(t, s.trl.RevokeToken(context.Background(), jti, time.Hour))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
	})

	t.Run("profile routes need onboarding", func(t *testing.T) {
		req, _ := s.bearer(t, testutil.NewRequest(t, http.MethodGet, "/api/v1/admin/volunteers"), "user_2abc")
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
	})
}

func TestRouter_Operational(t *testing.T) {
	t.Run("health", func(t *testing.T) {
		rr := testutil.DoRequest(newStack(t, nil).router, testutil.NewRequest(t, http.MethodGet, "/health"))
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "status", "ok")
	})

	t.Run("unhealthy dependency", func(t *testing.T) {
		s := newStack(t, func(context.Context) error { return errors.New("db down") })
		rr := testutil.DoRequest(s.router, testutil.NewRequest(t, http.MethodGet, "/health"))
		testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
	})

	t.Run("unknown route", func(t *testing.T) {
		rr := testutil.DoRequest(newStack(t, nil).router, testutil.NewRequest(t, http.MethodGet, "/nope"))
		testutil.AssertStatusAndError(t, rr, http.StatusNotFound, "not_found")
	})

	t.Run("inbound request id is echoed", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodGet, "/health")
		req.Header.Set(request.HeaderRequestID, "req-123")
		rr := testutil.DoRequest(newStack(t, nil).router, req)
		assert.Equal(t, "req-123", rr.Header().Get(request.HeaderRequestID))
	})
}
