package access

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"volunteerhub/internal/user/models"
	userstore "volunteerhub/internal/user/store"
	id "volunteerhub/pkg/domain"
	audit "volunteerhub/pkg/platform/audit"
	"volunteerhub/pkg/platform/audit/publisher"
	auditmemory "volunteerhub/pkg/platform/audit/store/memory"
	authmw "volunteerhub/pkg/platform/middleware/auth"
)

type ResolverSuite struct {
	suite.Suite
	users    *userstore.InMemory
	events   *auditmemory.InMemoryStore
	resolver *Resolver
	ctx      context.Context
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) SetupTest() {
	s.users = userstore.NewInMemory()
	s.events = auditmemory.NewInMemoryStore()
	s.resolver = NewResolver(s.users, WithAuditPublisher(publisher.NewPublisher(s.events)))
	s.ctx = context.Background()
}

func (s *ResolverSuite) TestFirstRequestProvisionsVolunteer() {
	a, err := s.resolver.Resolve(s.ctx, &authmw.Principal{UserID: "new-user", Email: "n@example.com"})
	s.Require().NoError(err)
	s.Equal(KindVolunteerIncomplete, a.Kind)

	u, err := s.users.FindByID(s.ctx, "new-user")
	s.Require().NoError(err)
	s.Equal(models.RoleVolunteer, u.Role)

	events, err := s.events.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(audit.EventUserProvisioned, events[0].Action)

	_, err = s.resolver.Resolve(s.ctx, &authmw.Principal{UserID: "new-user"})
	s.Require().NoError(err)
	events, _ = s.events.ListAll(s.ctx)
	s.Len(events, 1, "provisioning is audited once")
}

func (s *ResolverSuite) TestResolvesAdmin() {
	_, err := s.users.EnsureProvisioned(s.ctx, "boss", "", time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.users.SetRole(s.ctx, "boss", models.RoleAdmin))

	a, err := s.resolver.Resolve(s.ctx, &authmw.Principal{UserID: "boss"})
	s.Require().NoError(err)
	s.Equal(KindAdmin, a.Kind)
}

func (s *ResolverSuite) TestNilPrincipalIsAnonymous() {
	a, err := s.resolver.Resolve(s.ctx, nil)
	s.Require().NoError(err)
	s.True(a.IsAnonymous())
}

func (s *ResolverSuite) TestMiddlewareStoresAccess() {
	var seen Access
	handler := s.resolver.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(authmw.WithPrincipal(req.Context(), authmw.Principal{UserID: "mw-user"}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	s.Equal(http.StatusNoContent, rr.Code)
	s.Equal(KindVolunteerIncomplete, seen.Kind)
	s.Equal(id.UserID("mw-user"), seen.UserID)
}

func (s *ResolverSuite) TestMiddlewareFailsClosedOnStoreError() {
	resolver := NewResolver(failingProvisioner{})
	handler := resolver.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.Fail("handler must not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(authmw.WithPrincipal(req.Context(), authmw.Principal{UserID: "u"}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	s.Equal(http.StatusInternalServerError, rr.Code)
}

type failingProvisioner struct{}

func (failingProvisioner) EnsureProvisioned(context.Context, id.UserID, string, time.Time) (models.Provisioning, error) {
	return models.Provisioning{}, errors.New("db down")
}
