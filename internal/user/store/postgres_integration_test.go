//go:build integration

package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"volunteerhub/internal/user/models"
	"volunteerhub/internal/user/store"
	id "volunteerhub/pkg/domain"
	"volunteerhub/pkg/platform/sentinel"
	"volunteerhub/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	now      time.Time
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
	s.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "enrollments", "profiles", "users"))
}

func (s *PostgresStoreSuite) provisionWithProfile(ctx context.Context, userID id.UserID) *models.Profile {
	_, err := s.store.EnsureProvisioned(ctx, userID, string(userID)+"@example.com", s.now)
	s.Require().NoError(err)
	p, err := models.NewProfile(userID, models.Identity{
		FirstName:         "Grace",
		LastName:          "Hopper",
		DateOfBirth:       time.Date(1985, 12, 9, 0, 0, 0, 0, time.UTC),
		Gender:            models.GenderFemale,
		ResidentialStatus: models.StatusSingaporePR,
	}, models.Details{
		Phone:       "81234567",
		Preferences: []models.Preference{models.PrefWorkingWithAnimals, models.PrefFundraising},
	}, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateProfile(ctx, p))
	return p
}

func (s *PostgresStoreSuite) TestEnsureProvisionedIsOneStatement() {
	ctx := context.Background()

	prov, err := s.store.EnsureProvisioned(ctx, "pg-user", "pg@example.com", s.now)
	s.Require().NoError(err)
	s.True(prov.Provisioned)
	s.Equal(models.RoleVolunteer, prov.Role)
	s.False(prov.HasProfile)

	s.provisionWithProfile(ctx, "pg-user-2")
	prov, err = s.store.EnsureProvisioned(ctx, "pg-user-2", "", s.now)
	s.Require().NoError(err)
	s.False(prov.Provisioned)
	s.True(prov.HasProfile)

	u, err := s.store.FindByID(ctx, "pg-user-2")
	s.Require().NoError(err)
	s.Equal("pg-user-2@example.com", u.Email)
}

// TestConcurrentFirstRequests verifies the upsert never fails or double-creates
// under concurrent first requests from one principal.
func (s *PostgresStoreSuite) TestConcurrentFirstRequests() {
	ctx := context.Background()
	const goroutines = 20

	var (
		wg       sync.WaitGroup
		created  atomic.Int32
		failures atomic.Int32
	)
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			prov, err := s.store.EnsureProvisioned(ctx, "racer", "r@example.com", s.now)
			if err != nil {
				failures.Add(1)
				return
			}
			if prov.Provisioned {
				created.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(0), failures.Load())
	s.Equal(int32(1), created.Load())
}

func (s *PostgresStoreSuite) TestProfileLifecycle() {
	ctx := context.Background()
	p := s.provisionWithProfile(ctx, "vol-1")

	s.Run("duplicate create conflicts", func() {
		err := s.store.CreateProfile(ctx, p)
		s.ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("profile round trips preferences and date of birth", func() {
		found, err := s.store.FindProfile(ctx, "vol-1")
		s.Require().NoError(err)
		s.Equal(p.Preferences, found.Preferences)
		s.Equal(p.DateOfBirth.Format(time.DateOnly), found.DateOfBirth.Format(time.DateOnly))
	})

	s.Run("update replaces preferences atomically", func() {
		updated, err := s.store.UpdateProfile(ctx, "vol-1", models.Details{
			Phone:       "90000000",
			Preferences: []models.Preference{models.PrefTeachingStudents},
		}, s.now.Add(time.Hour))
		s.Require().NoError(err)
		s.Equal([]models.Preference{models.PrefTeachingStudents}, updated.Preferences)
		s.Equal("90000000", updated.Phone)
		s.Equal("Hopper", updated.LastName)
	})

	s.Run("update with empty preference set clears it", func() {
		updated, err := s.store.UpdateProfile(ctx, "vol-1", models.Details{}, s.now.Add(2*time.Hour))
		s.Require().NoError(err)
		s.Empty(updated.Preferences)
	})

	s.Run("missing profile", func() {
		_, err := s.store.FindProfile(ctx, "nobody")
		s.ErrorIs(err, sentinel.ErrNotFound)
		_, err = s.store.UpdateProfile(ctx, "nobody", models.Details{}, s.now)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *PostgresStoreSuite) TestRolesAndContacts() {
	ctx := context.Background()
	s.provisionWithProfile(ctx, "vol-2")

	s.Require().NoError(s.store.SetRole(ctx, "vol-2", models.RoleAdmin))
	u, err := s.store.FindByID(ctx, "vol-2")
	s.Require().NoError(err)
	s.Equal(models.RoleAdmin, u.Role)

	s.ErrorIs(s.store.SetRole(ctx, "ghost", models.RoleAdmin), sentinel.ErrNotFound)

	contacts, err := s.store.ListContacts(ctx, []id.UserID{"vol-2", "ghost"})
	s.Require().NoError(err)
	s.Require().Len(contacts, 1)
	s.Equal("vol-2@example.com", contacts["vol-2"].Email)

	profiles, err := s.store.ListProfiles(ctx)
	s.Require().NoError(err)
	s.Len(profiles, 1)
}
