// Package service issues completion certificates for attended enrollments.
package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"volunteerhub/internal/access"
	"volunteerhub/internal/certificate/models"
	enrollment "volunteerhub/internal/enrollment/models"
	opportunity "volunteerhub/internal/opportunity/models"
	user "volunteerhub/internal/user/models"
	id "volunteerhub/pkg/domain"
	dErrors "volunteerhub/pkg/domain-errors"
	audit "volunteerhub/pkg/platform/audit"
	"volunteerhub/pkg/platform/sentinel"
	"volunteerhub/pkg/requestcontext"
)

type EnrollmentStore interface {
	Find(ctx context.Context, volunteerID id.UserID, oppID id.OpportunityID) (*enrollment.Enrollment, error)
}

type OpportunityStore interface {
	FindByID(ctx context.Context, oppID id.OpportunityID) (*opportunity.Opportunity, error)
}

type ProfileStore interface {
	FindProfile(ctx context.Context, userID id.UserID) (*user.Profile, error)
}

type Renderer interface {
	Render(w io.Writer, c models.Certificate) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	enrollments    EnrollmentStore
	opportunities  OpportunityStore
	profiles       ProfileStore
	renderer       Renderer
	logger         *slog.Logger
	auditPublisher AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = p }
}

func New(enrollments EnrollmentStore, opportunities OpportunityStore, profiles ProfileStore, renderer Renderer, opts ...Option) (*Service, error) {
	switch {
	case enrollments == nil:
		return nil, errors.New("enrollment store is required")
	case opportunities == nil:
		return nil, errors.New("opportunity store is required")
	case profiles == nil:
		return nil, errors.New("profile store is required")
	case renderer == nil:
		return nil, errors.New("certificate renderer is required")
	}
	s := &Service{
		enrollments:   enrollments,
		opportunities: opportunities,
		profiles:      profiles,
		renderer:      renderer,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue renders the certificate for an approved and attended enrollment.
// Nothing is rendered unless the enrollment is eligible.
func (s *Service) Issue(ctx context.Context, a access.Access, volunteerID id.UserID, oppID id.OpportunityID) ([]byte, error) {
	if err := a.RequireSelfOrAdmin(volunteerID); err != nil {
		return nil, err
	}
	e, err := s.enrollments.Find(ctx, volunteerID, oppID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no enrollment for this opportunity")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load enrollment")
	}
	if !e.Eligible() {
		return nil, dErrors.New(dErrors.CodeNotEligible, "volunteer did not attend this opportunity")
	}

	o, err := s.opportunities.FindByID(ctx, oppID)
	if err != nil {
		return nil, notFoundOrInternal(err, "opportunity not found", "failed to load opportunity")
	}
	profile, err := s.profiles.FindProfile(ctx, volunteerID)
	if err != nil {
		return nil, notFoundOrInternal(err, "volunteer profile not found", "failed to load profile")
	}

	cert := models.Certificate{
		VolunteerName:   strings.TrimSpace(profile.FirstName + " " + profile.LastName),
		OpportunityName: o.Name,
		Hours:           o.Hours(),
		Start:           o.Start,
		End:             o.End,
		GeneratedAt:     requestcontext.Now(ctx),
	}
	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, cert); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to render certificate")
	}

	if s.auditPublisher != nil {
		if err := s.auditPublisher.Emit(ctx, audit.Event{
			Action:        audit.EventCertificateIssued,
			ActorID:       a.UserID,
			SubjectID:     volunteerID,
			OpportunityID: oppID.String(),
		}); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record certificate issue")
		}
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(audit.EventCertificateIssued),
			"event", string(audit.EventCertificateIssued),
			"log_type", "audit",
			"user_id", a.UserID,
			"volunteer_id", volunteerID,
			"opportunity_id", oppID,
			"hours", cert.Hours,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return buf.Bytes(), nil
}

func notFoundOrInternal(err error, notFound, internal string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, notFound)
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, internal)
}
