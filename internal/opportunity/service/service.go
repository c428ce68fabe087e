// Package service maintains the opportunity catalog and renders the volunteer
// and admin listing views.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"volunteerhub/internal/access"
	enrollment "volunteerhub/internal/enrollment/models"
	"volunteerhub/internal/opportunity/metrics"
	"volunteerhub/internal/opportunity/models"
	id "volunteerhub/pkg/domain"
	dErrors "volunteerhub/pkg/domain-errors"
	audit "volunteerhub/pkg/platform/audit"
	"volunteerhub/pkg/platform/sentinel"
	"volunteerhub/pkg/platform/tx"
	"volunteerhub/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, o *models.Opportunity) error
	Update(ctx context.Context, o *models.Opportunity) error
	Delete(ctx context.Context, oppID id.OpportunityID) error
	FindByID(ctx context.Context, oppID id.OpportunityID) (*models.Opportunity, error)
	List(ctx context.Context, includeArchived bool) ([]*models.Opportunity, error)
	SetArchived(ctx context.Context, oppID id.OpportunityID, archived bool, now time.Time) (*models.Opportunity, error)
	UpdateImage(ctx context.Context, oppID id.OpportunityID, imageURL string, now time.Time) (*models.Opportunity, error)
}

// EnrollmentStore is the slice of enrollment storage the catalog needs for its
// listing views and for cascading deletes.
type EnrollmentStore interface {
	Find(ctx context.Context, volunteerID id.UserID, oppID id.OpportunityID) (*enrollment.Enrollment, error)
	ListByVolunteer(ctx context.Context, volunteerID id.UserID) ([]*enrollment.Enrollment, error)
	PendingCounts(ctx context.Context) (map[id.OpportunityID]int, error)
	DeleteByOpportunity(ctx context.Context, oppID id.OpportunityID) (int, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store          Store
	enrollments    EnrollmentStore
	tx             tx.Manager
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
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

func New(store Store, enrollments EnrollmentStore, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("opportunity store is required")
	}
	if enrollments == nil {
		return nil, errors.New("enrollment store is required")
	}
	s := &Service{store: store, enrollments: enrollments}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = tx.NewMemoryManager()
	}
	return s, nil
}

func (s *Service) Create(ctx context.Context, a access.Access, d models.Draft) (*models.Opportunity, error) {
	if err := a.RequireAdmin(); err != nil {
		return nil, err
	}
	o, err := models.New(id.NewOpportunityID(), d, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.Create(ctx, o); err != nil {
			return err
		}
		return s.emit(ctx, a, audit.EventOpportunityCreated, o.ID)
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create opportunity")
	}
	s.recordMutation(ctx, audit.EventOpportunityCreated, "create", a, o.ID)
	return o, nil
}

// Update replaces the editable content; archive state is kept.
func (s *Service) Update(ctx context.Context, a access.Access, oppID id.OpportunityID, d models.Draft) (*models.Opportunity, error) {
	if err := a.RequireAdmin(); err != nil {
		return nil, err
	}
	var updated *models.Opportunity
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		o, err := s.store.FindByID(ctx, oppID)
		if err != nil {
			return err
		}
		if err := o.Apply(d, requestcontext.Now(ctx)); err != nil {
			return err
		}
		if err := s.store.Update(ctx, o); err != nil {
			return err
		}
		updated = o
		return s.emit(ctx, a, audit.EventOpportunityUpdated, oppID)
	})
	if err != nil {
		return nil, translate(err, "failed to update opportunity")
	}
	s.recordMutation(ctx, audit.EventOpportunityUpdated, "update", a, oppID)
	return updated, nil
}

// Delete removes the opportunity together with its enrollments.
func (s *Service) Delete(ctx context.Context, a access.Access, oppID id.OpportunityID) error {
	if err := a.RequireAdmin(); err != nil {
		return err
	}
	removed := 0
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.store.FindByID(ctx, oppID); err != nil {
			return err
		}
		n, err := s.enrollments.DeleteByOpportunity(ctx, oppID)
		if err != nil {
			return err
		}
		removed = n
		if err := s.store.Delete(ctx, oppID); err != nil {
			return err
		}
		return s.emit(ctx, a, audit.EventOpportunityDeleted, oppID)
	})
	if err != nil {
		return translate(err, "failed to delete opportunity")
	}
	s.recordMutation(ctx, audit.EventOpportunityDeleted, "delete", a, oppID, "enrollments_removed", removed)
	return nil
}

// SetArchived hides or restores an opportunity in the volunteer listing.
// Enrollments are not touched.
func (s *Service) SetArchived(ctx context.Context, a access.Access, oppID id.OpportunityID, archived bool) (*models.Opportunity, error) {
	if err := a.RequireAdmin(); err != nil {
		return nil, err
	}
	event, action := audit.EventOpportunityArchived, "archive"
	if !archived {
		event, action = audit.EventOpportunityUnarchived, "unarchive"
	}
	var o *models.Opportunity
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.store.SetArchived(ctx, oppID, archived, requestcontext.Now(ctx))
		if err != nil {
			return err
		}
		return s.emit(ctx, a, event, oppID)
	})
	if err != nil {
		return nil, translate(err, "failed to archive opportunity")
	}
	s.recordMutation(ctx, event, action, a, oppID)
	return o, nil
}

func (s *Service) UpdateImage(ctx context.Context, a access.Access, oppID id.OpportunityID, imageURL string) (*models.Opportunity, error) {
	if err := a.RequireAdmin(); err != nil {
		return nil, err
	}
	var o *models.Opportunity
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.store.UpdateImage(ctx, oppID, imageURL, requestcontext.Now(ctx))
		if err != nil {
			return err
		}
		return s.emit(ctx, a, audit.EventOpportunityImageUpdated, oppID)
	})
	if err != nil {
		return nil, translate(err, "failed to update image")
	}
	s.recordMutation(ctx, audit.EventOpportunityImageUpdated, "image", a, oppID)
	return o, nil
}

// GetForAdmin returns any opportunity, archived included, with its pending count.
func (s *Service) GetForAdmin(ctx context.Context, a access.Access, oppID id.OpportunityID) (*models.AdminListing, error) {
	if err := a.RequireAdmin(); err != nil {
		return nil, err
	}
	o, err := s.store.FindByID(ctx, oppID)
	if err != nil {
		return nil, translate(err, "failed to load opportunity")
	}
	pending, err := s.enrollments.PendingCounts(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count pending enrollments")
	}
	return &models.AdminListing{Opportunity: o, PendingCount: pending[oppID]}, nil
}

// GetForVolunteer returns an unarchived opportunity with the viewer's enrollment.
// Browsing needs the volunteer role but not a completed profile.
func (s *Service) GetForVolunteer(ctx context.Context, a access.Access, oppID id.OpportunityID) (*models.VolunteerListing, error) {
	if err := a.RequireVolunteerRole(); err != nil {
		return nil, err
	}
	o, err := s.store.FindByID(ctx, oppID)
	if err != nil {
		return nil, translate(err, "failed to load opportunity")
	}
	if o.Archived {
		return nil, dErrors.New(dErrors.CodeNotFound, "opportunity not found")
	}
	e, err := s.enrollments.Find(ctx, a.UserID, oppID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load enrollment")
	}
	return &models.VolunteerListing{Opportunity: o, Enrollment: e}, nil
}

// ListForVolunteer lists unarchived opportunities, each with the viewer's own
// enrollment or nil. A volunteer still onboarding can browse.
func (s *Service) ListForVolunteer(ctx context.Context, a access.Access) ([]models.VolunteerListing, error) {
	if err := a.RequireVolunteerRole(); err != nil {
		return nil, err
	}
	opps, err := s.store.List(ctx, false)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list opportunities")
	}
	mine, err := s.enrollments.ListByVolunteer(ctx, a.UserID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list enrollments")
	}
	byOpp := make(map[id.OpportunityID]*enrollment.Enrollment, len(mine))
	for _, e := range mine {
		byOpp[e.OpportunityID] = e
	}

	out := make([]models.VolunteerListing, len(opps))
	for i, o := range opps {
		out[i] = models.VolunteerListing{Opportunity: o, Enrollment: byOpp[o.ID]}
	}
	if s.metrics != nil {
		s.metrics.IncrementListed("volunteer")
	}
	return out, nil
}

// ListForAdmin lists every opportunity, archived included, with pending counts.
func (s *Service) ListForAdmin(ctx context.Context, a access.Access) ([]models.AdminListing, error) {
	if err := a.RequireAdmin(); err != nil {
		return nil, err
	}
	opps, err := s.store.List(ctx, true)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list opportunities")
	}
	pending, err := s.enrollments.PendingCounts(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count pending enrollments")
	}

	out := make([]models.AdminListing, len(opps))
	for i, o := range opps {
		out[i] = models.AdminListing{Opportunity: o, PendingCount: pending[o.ID]}
	}
	if s.metrics != nil {
		s.metrics.IncrementListed("admin")
	}
	return out, nil
}

// translate maps store facts to API errors and passes domain errors through.
func translate(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "opportunity not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.New(dErrors.CodeInvalidTimeRange, "start must not be after end")
	case dErrors.CodeOf(err) != dErrors.CodeInternal:
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}

func (s *Service) emit(ctx context.Context, a access.Access, event audit.AuditEvent, oppID id.OpportunityID) error {
	if s.auditPublisher == nil {
		return nil
	}
	return s.auditPublisher.Emit(ctx, audit.Event{
		Action:        event,
		ActorID:       a.UserID,
		OpportunityID: oppID.String(),
	})
}

func (s *Service) recordMutation(ctx context.Context, event audit.AuditEvent, action string, a access.Access, oppID id.OpportunityID, extra ...any) {
	if s.metrics != nil {
		s.metrics.IncrementMutation(action)
	}
	if s.logger == nil {
		return
	}
	args := append([]any{
		"event", string(event),
		"log_type", "audit",
		"user_id", a.UserID,
		"opportunity_id", oppID,
		"request_id", requestcontext.RequestID(ctx),
	}, extra...)
	s.logger.InfoContext(ctx, string(event), args...)
}
