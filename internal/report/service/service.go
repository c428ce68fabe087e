// Package service loads report snapshots and computes the admin report.
package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"volunteerhub/internal/access"
	enrollment "volunteerhub/internal/enrollment/models"
	opportunity "volunteerhub/internal/opportunity/models"
	"volunteerhub/internal/report/metrics"
	"volunteerhub/internal/report/models"
	user "volunteerhub/internal/user/models"
	dErrors "volunteerhub/pkg/domain-errors"
	"volunteerhub/pkg/requestcontext"
)

type ProfileStore interface {
	ListProfiles(ctx context.Context) ([]*user.Profile, error)
}

type OpportunityStore interface {
	List(ctx context.Context, includeArchived bool) ([]*opportunity.Opportunity, error)
}

type EnrollmentStore interface {
	ListAll(ctx context.Context) ([]*enrollment.Enrollment, error)
}

type Service struct {
	profiles      ProfileStore
	opportunities OpportunityStore
	enrollments   EnrollmentStore
	loc           *time.Location
	metrics       *metrics.Metrics
	tracer        trace.Tracer
}

type Option func(*Service)

// WithLocation sets the zone month and age arithmetic is done in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(profiles ProfileStore, opportunities OpportunityStore, enrollments EnrollmentStore, opts ...Option) (*Service, error) {
	if profiles == nil || opportunities == nil || enrollments == nil {
		return nil, errors.New("profile, opportunity and enrollment stores are required")
	}
	s := &Service{
		profiles:      profiles,
		opportunities: opportunities,
		enrollments:   enrollments,
		loc:           time.UTC,
		tracer:        otel.Tracer("volunteerhub.report"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Snapshot loads volunteers, opportunities (archived included) and
// enrollments concurrently. Each list is consistent on its own only.
func (s *Service) Snapshot(ctx context.Context, a access.Access) (snap *models.Snapshot, err error) {
	ctx, span := s.tracer.Start(ctx, "volunteerhub.report.snapshot")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if err := a.RequireAdmin(); err != nil {
		return nil, err
	}
	start := time.Now()
	snap = &models.Snapshot{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.profiles.ListProfiles(gctx)
		snap.Volunteers = rows
		return err
	})
	g.Go(func() error {
		rows, err := s.opportunities.List(gctx, true)
		snap.Opportunities = rows
		return err
	})
	g.Go(func() error {
		rows, err := s.enrollments.ListAll(gctx)
		snap.Enrollments = rows
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load report data")
	}

	span.SetAttributes(
		attribute.Int("volunteers", len(snap.Volunteers)),
		attribute.Int("opportunities", len(snap.Opportunities)),
		attribute.Int("enrollments", len(snap.Enrollments)),
	)
	if s.metrics != nil {
		s.metrics.ObserveSnapshot(start, len(snap.Volunteers), len(snap.Opportunities), len(snap.Enrollments))
	}
	return snap, nil
}

// Report computes the aggregate over a fresh snapshot at the request time.
func (s *Service) Report(ctx context.Context, a access.Access) (*models.Report, error) {
	snap, err := s.Snapshot(ctx, a)
	if err != nil {
		return nil, err
	}
	r := models.Aggregate(*snap, requestcontext.Now(ctx).In(s.loc))
	return &r, nil
}
