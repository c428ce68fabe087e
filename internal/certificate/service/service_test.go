package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"volunteerhub/internal/access"
	"volunteerhub/internal/certificate/models"
	enrollment "volunteerhub/internal/enrollment/models"
	enrollmentstore "volunteerhub/internal/enrollment/store"
	opportunity "volunteerhub/internal/opportunity/models"
	opportunitystore "volunteerhub/internal/opportunity/store"
	user "volunteerhub/internal/user/models"
	userstore "volunteerhub/internal/user/store"
	id "volunteerhub/pkg/domain"
	dErrors "volunteerhub/pkg/domain-errors"
	audit "volunteerhub/pkg/platform/audit"
	"volunteerhub/pkg/platform/audit/publisher"
	auditmemory "volunteerhub/pkg/platform/audit/store/memory"
	"volunteerhub/pkg/requestcontext"
)

// recordingRenderer keeps the last certificate instead of drawing it.
type recordingRenderer struct {
	last  *models.Certificate
	calls int
	err   error
}

func (r *recordingRenderer) Render(w io.Writer, c models.Certificate) error {
	r.calls++
	if r.err != nil {
		return r.err
	}
	r.last = &c
	_, err := io.WriteString(w, "%PDF-stub")
	return err
}

type CertificateServiceSuite struct {
	suite.Suite
	enrollments *enrollmentstore.InMemory
	renderer    *recordingRenderer
	events      *auditmemory.InMemoryStore
	service     *Service
	ctx         context.Context
	now         time.Time
	oppID       id.OpportunityID
}

func TestCertificateServiceSuite(t *testing.T) {
	suite.Run(t, new(CertificateServiceSuite))
}

var (
	volunteer = access.Access{Kind: access.KindVolunteerActive, UserID: "vol-1"}
	other     = access.Access{Kind: access.KindVolunteerActive, UserID: "vol-2"}
	admin     = access.Access{Kind: access.KindAdmin, UserID: "admin-1"}
)

func (s *CertificateServiceSuite) SetupTest() {
	s.now = time.Date(2026, 4, 20, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)

	users := userstore.NewInMemory()
	_, err := users.EnsureProvisioned(s.ctx, "vol-1", "mei@example.com", s.now)
	s.Require().NoError(err)
	s.Require().NoError(users.CreateProfile(s.ctx, &user.Profile{UserID: "vol-1", FirstName: "Mei", LastName: "Tan"}))

	opps := opportunitystore.NewInMemory()
	o, err := opportunity.New(id.NewOpportunityID(), opportunity.Draft{
		Name:            "Beach cleanup",
		Start:           time.Date(2026, 4, 11, 8, 0, 0, 0, time.UTC),
		End:             time.Date(2026, 4, 11, 10, 30, 0, 0, time.UTC),
		DurationMinutes: 150,
	}, s.now)
	s.Require().NoError(err)
	s.Require().NoError(opps.Create(s.ctx, o))
	s.oppID = o.ID

	s.enrollments = enrollmentstore.NewInMemory()
	s.renderer = &recordingRenderer{}
	s.events = auditmemory.NewInMemoryStore()
	s.service, err = New(s.enrollments, opps, users, s.renderer, WithAuditPublisher(publisher.NewPublisher(s.events)))
	s.Require().NoError(err)
}

func (s *CertificateServiceSuite) enrol(approved, attended bool) {
	e := enrollment.NewRequest("vol-1", s.oppID, s.now)
	e.SetApproval(approved, s.now)
	if attended {
		s.Require().NoError(e.SetAttendance(true, s.now))
	}
	s.Require().NoError(s.enrollments.Create(s.ctx, e))
}

func (s *CertificateServiceSuite) TestIssue_Eligible() {
	s.enrol(true, true)

	for _, caller := range []access.Access{volunteer, admin} {
		pdf, err := s.service.Issue(s.ctx, caller, "vol-1", s.oppID)
		s.Require().NoError(err)
		s.Equal("%PDF-stub", string(pdf))
	}
	s.Require().NotNil(s.renderer.last)
	s.Equal("Mei Tan", s.renderer.last.VolunteerName)
	s.Equal("Beach cleanup", s.renderer.last.OpportunityName)
	s.Equal(3, s.renderer.last.Hours, "150 minutes rounds to 3 hours")
	s.Equal(s.now, s.renderer.last.GeneratedAt)

	events, err := s.events.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(audit.EventCertificateIssued, events[1].Action)
	s.Equal(id.UserID("admin-1"), events[1].ActorID)
	s.Equal(id.UserID("vol-1"), events[1].SubjectID)
}

func (s *CertificateServiceSuite) TestIssue_NotEligible() {
	tests := []struct {
		name     string
		approved bool
		attended bool
	}{
		{"pending", false, false},
		{"approved but absent", true, false},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			s.SetupTest()
			s.enrol(tt.approved, tt.attended)

			_, err := s.service.Issue(s.ctx, volunteer, "vol-1", s.oppID)
			s.True(dErrors.HasCode(err, dErrors.CodeNotEligible))
			s.Zero(s.renderer.calls, "nothing is rendered for an ineligible enrollment")
		})
	}
}

func (s *CertificateServiceSuite) TestIssue_Refusals() {
	_, err := s.service.Issue(s.ctx, volunteer, "vol-1", s.oppID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound), "no enrollment")

	s.enrol(true, true)
	_, err = s.service.Issue(s.ctx, other, "vol-1", s.oppID)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	_, err = s.service.Issue(s.ctx, access.Anonymous(), "vol-1", s.oppID)
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	s.Zero(s.renderer.calls)
}

func (s *CertificateServiceSuite) TestIssue_RenderFailure() {
	s.enrol(true, true)
	s.renderer.err = errors.New("font missing")

	_, err := s.service.Issue(s.ctx, volunteer, "vol-1", s.oppID)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	events, err := s.events.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Empty(events)
}
