// Package service implements onboarding, profile maintenance and the
// out-of-band role change.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"volunteerhub/internal/access"
	"volunteerhub/internal/user/metrics"
	"volunteerhub/internal/user/models"
	id "volunteerhub/pkg/domain"
	dErrors "volunteerhub/pkg/domain-errors"
	audit "volunteerhub/pkg/platform/audit"
	"volunteerhub/pkg/platform/sentinel"
	"volunteerhub/pkg/platform/tx"
	"volunteerhub/pkg/requestcontext"
)

type Store interface {
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	SetRole(ctx context.Context, userID id.UserID, role models.Role) error
	CreateProfile(ctx context.Context, profile *models.Profile) error
	FindProfile(ctx context.Context, userID id.UserID) (*models.Profile, error)
	UpdateProfile(ctx context.Context, userID id.UserID, details models.Details, now time.Time) (*models.Profile, error)
	ListProfiles(ctx context.Context) ([]*models.Profile, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	store          Store
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

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("user store is required")
	}
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = tx.NewMemoryManager()
	}
	return s, nil
}

// Role returns the caller's displayed role; nil for a volunteer who has not
// created a profile yet.
func (s *Service) Role(_ context.Context, a access.Access) (*models.Role, error) {
	if a.IsAnonymous() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	role, ok := a.Role()
	if !ok {
		return nil, nil
	}
	return &role, nil
}

func (s *Service) GetProfile(ctx context.Context, a access.Access) (*models.Profile, error) {
	if err := a.RequireVolunteerRole(); err != nil {
		return nil, err
	}
	p, err := s.store.FindProfile(ctx, a.UserID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "profile not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}
	return p, nil
}

// CreateProfile is the onboarding step. It succeeds at most once per user.
func (s *Service) CreateProfile(ctx context.Context, a access.Access, ident models.Identity, details models.Details) (*models.Profile, error) {
	if err := a.RequireVolunteerRole(); err != nil {
		return nil, err
	}
	start := time.Now()
	now := requestcontext.Now(ctx)

	profile, err := models.NewProfile(a.UserID, ident, details, now)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
		}
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.CreateProfile(ctx, profile); err != nil {
			return err
		}
		return s.emit(ctx, audit.Event{Action: audit.EventProfileCreated, ActorID: a.UserID, SubjectID: a.UserID})
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeProfileExists, "profile already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create profile")
	}

	s.logAudit(ctx, audit.EventProfileCreated, "user_id", a.UserID)
	if s.metrics != nil {
		s.metrics.IncrementProfilesCreated()
		s.metrics.ObserveProfileWrite(start)
	}
	return profile, nil
}

// UpdateProfile replaces the mutable fields, including the full preference set.
func (s *Service) UpdateProfile(ctx context.Context, a access.Access, details models.Details) (*models.Profile, error) {
	if err := a.RequireVolunteerRole(); err != nil {
		return nil, err
	}
	start := time.Now()

	var updated *models.Profile
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		updated, err = s.store.UpdateProfile(ctx, a.UserID, details, requestcontext.Now(ctx))
		if err != nil {
			return err
		}
		return s.emit(ctx, audit.Event{Action: audit.EventProfileUpdated, ActorID: a.UserID, SubjectID: a.UserID})
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "profile not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update profile")
	}

	s.logAudit(ctx, audit.EventProfileUpdated, "user_id", a.UserID)
	if s.metrics != nil {
		s.metrics.IncrementProfilesUpdated()
		s.metrics.ObserveProfileWrite(start)
	}
	return updated, nil
}

// ListVolunteers returns every volunteer profile for admins.
func (s *Service) ListVolunteers(ctx context.Context, a access.Access) ([]*models.Profile, error) {
	if err := a.RequireAdmin(); err != nil {
		return nil, err
	}
	profiles, err := s.store.ListProfiles(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list volunteers")
	}
	if profiles == nil {
		profiles = []*models.Profile{}
	}
	return profiles, nil
}

// SetRole changes a user's role. It is reachable only from the operator CLI.
func (s *Service) SetRole(ctx context.Context, userID id.UserID, role models.Role) error {
	if !role.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "role must be VOLUNTEER or ADMIN")
	}
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.store.SetRole(ctx, userID, role); err != nil {
			return err
		}
		return s.emit(ctx, audit.Event{
			Action:    audit.EventRoleChanged,
			SubjectID: userID,
			Decision:  string(role),
		})
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to set role")
	}

	s.logAudit(ctx, audit.EventRoleChanged, "user_id", userID, "role", role)
	if s.metrics != nil {
		s.metrics.IncrementRoleChange(string(role))
	}
	return nil
}

// emit writes the audit event inside the caller's transaction; a failure
// aborts the operation.
func (s *Service) emit(ctx context.Context, event audit.Event) error {
	if s.auditPublisher == nil {
		return nil
	}
	return s.auditPublisher.Emit(ctx, event)
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, attributes ...any) {
	if s.logger == nil {
		return
	}
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", string(event), "log_type", "audit")
	s.logger.InfoContext(ctx, string(event), args...)
}
