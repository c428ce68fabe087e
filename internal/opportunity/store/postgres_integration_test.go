//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"volunteerhub/internal/opportunity/models"
	"volunteerhub/internal/opportunity/store"
	id "volunteerhub/pkg/domain"
	"volunteerhub/pkg/platform/sentinel"
	"volunteerhub/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	base     time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.base = time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "enrollments", "opportunities"))
}

func (s *PostgresStoreSuite) create(ctx context.Context, name string, start, createdAt time.Time) *models.Opportunity {
	o, err := models.New(id.NewOpportunityID(), models.Draft{
		Name:            name,
		Start:           start,
		End:             start.Add(90 * time.Minute),
		DurationMinutes: 90,
	}, createdAt)
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(ctx, o))
	return o
}

func (s *PostgresStoreSuite) TestListingOrder() {
	ctx := context.Background()
	late := s.create(ctx, "late", s.base.Add(24*time.Hour), s.base)
	second := s.create(ctx, "second", s.base, s.base.Add(time.Second))
	first := s.create(ctx, "first", s.base, s.base)

	list, err := s.store.List(ctx, true)
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	s.Equal([]id.OpportunityID{first.ID, second.ID, late.ID}, []id.OpportunityID{list[0].ID, list[1].ID, list[2].ID})

	_, err = s.store.SetArchived(ctx, first.ID, true, s.base)
	s.Require().NoError(err)
	list, err = s.store.List(ctx, false)
	s.Require().NoError(err)
	s.Len(list, 2)
}

func (s *PostgresStoreSuite) TestTimeRangeCheckConstraint() {
	ctx := context.Background()
	o := s.create(ctx, "valid", s.base, s.base)
	o.End = o.Start.Add(-time.Hour)

	err := s.store.Update(ctx, o)
	s.ErrorIs(err, sentinel.ErrInvalidState)
}

func (s *PostgresStoreSuite) TestRoundTripAndDelete() {
	ctx := context.Background()
	o := s.create(ctx, "round trip", s.base, s.base)

	updated, err := s.store.UpdateImage(ctx, o.ID, "https://img.example.com/y.png", s.base.Add(time.Hour))
	s.Require().NoError(err)
	s.Equal("https://img.example.com/y.png", updated.ImageURL)
	s.True(o.Start.Equal(updated.Start))
	s.Equal(90, updated.DurationMinutes)

	byIDs, err := s.store.FindByIDs(ctx, []id.OpportunityID{o.ID, id.NewOpportunityID()})
	s.Require().NoError(err)
	s.Len(byIDs, 1)

	s.Require().NoError(s.store.Delete(ctx, o.ID))
	_, err = s.store.FindByID(ctx, o.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	s.ErrorIs(s.store.Delete(ctx, o.ID), sentinel.ErrNotFound)
}
