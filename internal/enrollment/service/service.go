// Package service runs the enrollment lifecycle: volunteer requests, admin
// approval and attendance, and the roster and history views built on top.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"volunteerhub/internal/access"
	"volunteerhub/internal/enrollment/metrics"
	"volunteerhub/internal/enrollment/models"
	opportunity "volunteerhub/internal/opportunity/models"
	user "volunteerhub/internal/user/models"
	id "volunteerhub/pkg/domain"
	dErrors "volunteerhub/pkg/domain-errors"
	audit "volunteerhub/pkg/platform/audit"
	"volunteerhub/pkg/platform/sentinel"
	"volunteerhub/pkg/platform/tx"
	"volunteerhub/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, e *models.Enrollment) error
	Find(ctx context.Context, volunteerID id.UserID, oppID id.OpportunityID) (*models.Enrollment, error)
	Update(ctx context.Context, volunteerID id.UserID, oppID id.OpportunityID, fn func(*models.Enrollment) error) (*models.Enrollment, error)
	ListByOpportunity(ctx context.Context, oppID id.OpportunityID) ([]*models.Enrollment, error)
	ListByVolunteer(ctx context.Context, volunteerID id.UserID) ([]*models.Enrollment, error)
}

type OpportunityStore interface {
	FindByID(ctx context.Context, oppID id.OpportunityID) (*opportunity.Opportunity, error)
	FindByIDs(ctx context.Context, oppIDs []id.OpportunityID) (map[id.OpportunityID]*opportunity.Opportunity, error)
}

type UserStore interface {
	FindByID(ctx context.Context, userID id.UserID) (*user.User, error)
	FindProfile(ctx context.Context, userID id.UserID) (*user.Profile, error)
	ListContacts(ctx context.Context, userIDs []id.UserID) (map[id.UserID]user.Contact, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// RosterEntry is an enrollment with the contact details an admin needs.
type RosterEntry struct {
	*models.Enrollment
	Volunteer user.Contact `json:"volunteer"`
}

// Roster is the admin view of one opportunity.
type Roster struct {
	Opportunity *opportunity.Opportunity `json:"opportunity"`
	Enrollments []RosterEntry            `json:"enrollments"`
}

type HistoryEntry struct {
	*models.Enrollment
	Opportunity *opportunity.Opportunity `json:"opportunity"`
}

// History is a volunteer's profile with every opportunity they enrolled in.
type History struct {
	Profile     *user.Profile  `json:"profile"`
	Enrollments []HistoryEntry `json:"enrollments"`
}

type Service struct {
	store          Store
	opportunities  OpportunityStore
	users          UserStore
	tx             tx.Manager
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithTxManager(m tx.Manager) Option {
	return func(s *Service) { s.tx = m }
}

func New(store Store, opportunities OpportunityStore, users UserStore, opts ...Option) (*Service, error) {
	switch {
	case store == nil:
		return nil, errors.New("enrollment store is required")
	case opportunities == nil:
		return nil, errors.New("opportunity store is required")
	case users == nil:
		return nil, errors.New("user store is required")
	}
	s := &Service{
		store:         store,
		opportunities: opportunities,
		users:         users,
		tracer:        otel.Tracer("volunteerhub.enrollment"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = tx.NewMemoryManager()
	}
	return s, nil
}

// Request enrolls the calling volunteer. Duplicates are detected by the
// store's uniqueness on (volunteer, opportunity), never by a prior read.
func (s *Service) Request(ctx context.Context, a access.Access, oppID id.OpportunityID) (e *models.Enrollment, err error) {
	ctx, span := s.tracer.Start(ctx, "volunteerhub.enrollment.request", trace.WithAttributes(
		attribute.String("opportunity_id", oppID.String()),
	))
	defer func() { endSpan(span, err) }()

	if err := a.RequireVolunteer(); err != nil {
		return nil, err
	}
	e = models.NewRequest(a.UserID, oppID, requestcontext.Now(ctx))
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		o, err := s.opportunities.FindByID(ctx, oppID)
		if err != nil {
			return err
		}
		if o.Archived {
			return dErrors.New(dErrors.CodeInvalidState, "opportunity is archived")
		}
		if err := s.store.Create(ctx, e); err != nil {
			return err
		}
		return s.emit(ctx, audit.Event{
			Action:        audit.EventEnrollmentRequested,
			ActorID:       a.UserID,
			SubjectID:     a.UserID,
			OpportunityID: oppID.String(),
		})
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) && s.metrics != nil {
			s.metrics.IncrementDuplicate()
		}
		return nil, translate(err, "failed to request enrollment")
	}
	if s.metrics != nil {
		s.metrics.IncrementRequested()
	}
	s.logAudit(ctx, audit.EventEnrollmentRequested, a, a.UserID, oppID)
	return e, nil
}

// SetApproval records the admin decision. Revoking approval clears attendance.
func (s *Service) SetApproval(ctx context.Context, a access.Access, oppID id.OpportunityID, volunteerID id.UserID, approved bool) (*models.Enrollment, error) {
	return s.transition(ctx, a, oppID, volunteerID, "approval", approved, audit.EventEnrollmentApprovalSet,
		func(e *models.Enrollment) error {
			e.SetApproval(approved, requestcontext.Now(ctx))
			return nil
		})
}

// SetAttendance records attendance. Attended requires a prior approval.
func (s *Service) SetAttendance(ctx context.Context, a access.Access, oppID id.OpportunityID, volunteerID id.UserID, attended bool) (*models.Enrollment, error) {
	return s.transition(ctx, a, oppID, volunteerID, "attendance", attended, audit.EventEnrollmentAttendanceSet,
		func(e *models.Enrollment) error {
			return e.SetAttendance(attended, requestcontext.Now(ctx))
		})
}

func (s *Service) transition(
	ctx context.Context,
	a access.Access,
	oppID id.OpportunityID,
	volunteerID id.UserID,
	field string,
	value bool,
	event audit.AuditEvent,
	apply func(*models.Enrollment) error,
) (updated *models.Enrollment, err error) {
	ctx, span := s.tracer.Start(ctx, "volunteerhub.enrollment.set_"+field, trace.WithAttributes(
		attribute.String("opportunity_id", oppID.String()),
		attribute.String("volunteer_id", volunteerID.String()),
		attribute.Bool("value", value),
	))
	defer func() { endSpan(span, err) }()

	if err := a.RequireAdmin(); err != nil {
		return nil, err
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		e, err := s.store.Update(ctx, volunteerID, oppID, apply)
		if err != nil {
			return err
		}
		updated = e
		return s.emit(ctx, audit.Event{
			Action:        event,
			ActorID:       a.UserID,
			SubjectID:     volunteerID,
			OpportunityID: oppID.String(),
			Decision:      strconv.FormatBool(value),
		})
	})
	if err != nil {
		return nil, translate(err, "failed to update enrollment")
	}
	if s.metrics != nil {
		s.metrics.IncrementTransition(field, value)
	}
	s.logAudit(ctx, event, a, volunteerID, oppID, field, value)
	return updated, nil
}

// Get returns the caller's own enrollment for an opportunity.
func (s *Service) Get(ctx context.Context, a access.Access, oppID id.OpportunityID) (*models.Enrollment, error) {
	if err := a.RequireVolunteer(); err != nil {
		return nil, err
	}
	e, err := s.store.Find(ctx, a.UserID, oppID)
	if err != nil {
		return nil, translate(err, "failed to load enrollment")
	}
	return e, nil
}

// ListForOpportunity is the admin roster: the opportunity and its
// enrollments, each with volunteer contact details.
func (s *Service) ListForOpportunity(ctx context.Context, a access.Access, oppID id.OpportunityID) (roster *Roster, err error) {
	ctx, span := s.tracer.Start(ctx, "volunteerhub.enrollment.roster", trace.WithAttributes(
		attribute.String("opportunity_id", oppID.String()),
	))
	defer func() { endSpan(span, err) }()

	if err := a.RequireAdmin(); err != nil {
		return nil, err
	}
	o, err := s.opportunities.FindByID(ctx, oppID)
	if err != nil {
		return nil, translate(err, "failed to load opportunity")
	}
	rows, err := s.store.ListByOpportunity(ctx, oppID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list enrollments")
	}
	volunteerIDs := make([]id.UserID, len(rows))
	for i, e := range rows {
		volunteerIDs[i] = e.VolunteerID
	}
	contacts, err := s.users.ListContacts(ctx, volunteerIDs)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load volunteer contacts")
	}

	roster = &Roster{Opportunity: o, Enrollments: make([]RosterEntry, len(rows))}
	for i, e := range rows {
		contact, ok := contacts[e.VolunteerID]
		if !ok {
			contact = user.Contact{UserID: e.VolunteerID}
		}
		roster.Enrollments[i] = RosterEntry{Enrollment: e, Volunteer: contact}
	}
	span.SetAttributes(attribute.Int("enrollments", len(rows)))
	return roster, nil
}

// VolunteerHistory returns a volunteer's profile and enrollments. Volunteers
// may read their own history; admins may read anyone's.
func (s *Service) VolunteerHistory(ctx context.Context, a access.Access, volunteerID id.UserID) (history *History, err error) {
	ctx, span := s.tracer.Start(ctx, "volunteerhub.enrollment.history", trace.WithAttributes(
		attribute.String("volunteer_id", volunteerID.String()),
	))
	defer func() { endSpan(span, err) }()

	if err := a.RequireSelfOrAdmin(volunteerID); err != nil {
		return nil, err
	}
	if _, err := s.users.FindByID(ctx, volunteerID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "volunteer not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load volunteer")
	}
	profile, err := s.users.FindProfile(ctx, volunteerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeProfileIncomplete, "volunteer profile has not been created")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}

	rows, err := s.store.ListByVolunteer(ctx, volunteerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list enrollments")
	}
	oppIDs := make([]id.OpportunityID, len(rows))
	for i, e := range rows {
		oppIDs[i] = e.OpportunityID
	}
	opps, err := s.opportunities.FindByIDs(ctx, oppIDs)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load opportunities")
	}

	history = &History{Profile: profile, Enrollments: make([]HistoryEntry, 0, len(rows))}
	for _, e := range rows {
		o, ok := opps[e.OpportunityID]
		if !ok {
			continue
		}
		history.Enrollments = append(history.Enrollments, HistoryEntry{Enrollment: e, Opportunity: o})
	}
	return history, nil
}

func translate(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeAlreadyEnrolled, "volunteer is already enrolled in this opportunity")
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "enrollment or opportunity not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.New(dErrors.CodeInvalidState, "attendance can only be recorded for approved enrollments")
	case dErrors.CodeOf(err) != dErrors.CodeInternal:
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *Service) emit(ctx context.Context, event audit.Event) error {
	if s.auditPublisher == nil {
		return nil
	}
	return s.auditPublisher.Emit(ctx, event)
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, a access.Access, volunteerID id.UserID, oppID id.OpportunityID, extra ...any) {
	if s.logger == nil {
		return
	}
	args := append([]any{
		"event", string(event),
		"log_type", "audit",
		"user_id", a.UserID,
		"volunteer_id", volunteerID,
		"opportunity_id", oppID,
		"request_id", requestcontext.RequestID(ctx),
	}, extra...)
	s.logger.InfoContext(ctx, string(event), args...)
}
