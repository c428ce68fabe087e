package seed

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volunteerhub/internal/access"
	"volunteerhub/internal/app"
	"volunteerhub/internal/platform/config"
	id "volunteerhub/pkg/domain"
	dErrors "volunteerhub/pkg/domain-errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name:    "admins are required",
			doc:     "volunteers: []\n",
			wantErr: "Admins",
		},
		{
			name:    "admin email must be valid",
			doc:     "admins:\n  - id: a\n    email: nope\n",
			wantErr: "Email",
		},
		{
			name: "end before start",
			doc: `admins: [{id: a, email: a@example.org}]
opportunities:
  - name: Cleanup
    start: 2026-04-11T12:00:00Z
    end: 2026-04-11T09:00:00Z
`,
			wantErr: "End",
		},
		{
			name: "bad date of birth",
			doc: `admins: [{id: a, email: a@example.org}]
volunteers:
  - id: v
    email: v@example.org
    profile: {first_name: A, last_name: B, date_of_birth: 02/04/1998, gender: F, residential_status: EP}
`,
			wantErr: "DateOfBirth",
		},
		{
			name: "enrollment names an unknown volunteer",
			doc: `admins: [{id: a, email: a@example.org}]
opportunities:
  - name: Cleanup
    start: 2026-04-11T09:00:00Z
    end: 2026-04-11T12:00:00Z
    enrollments: [{volunteer: ghost}]
`,
			wantErr: "not a volunteer with a profile",
		},
		{
			name: "attended without approval",
			doc: `admins: [{id: a, email: a@example.org}]
volunteers:
  - id: v
    email: v@example.org
    profile: {first_name: A, last_name: B, date_of_birth: 1998-04-02, gender: F, residential_status: EP}
opportunities:
  - name: Cleanup
    start: 2026-04-11T09:00:00Z
    end: 2026-04-11T12:00:00Z
    enrollments: [{volunteer: v, attended: true}]
`,
			wantErr: "attended without approval",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadFixture(t *testing.T) {
	f, err := Load("testdata/seed.yaml")
	require.NoError(t, err)

	require.Len(t, f.Admins, 1)
	require.Len(t, f.Volunteers, 3)
	assert.Nil(t, f.Volunteers[2].Profile)
	require.Len(t, f.Opportunities, 2)
	assert.Equal(t, 180, f.Opportunities[0].DurationMinutes)
	assert.True(t, f.Opportunities[1].Archived)
	assert.Equal(t, 8*60*60, offsetOf(f.Opportunities[0].Start))
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	a := newMemoryApp(t)
	seeder := &Seeder{
		Resolver:      a.Resolver,
		Users:         a.Users,
		Opportunities: a.Opportunities,
		Enrollments:   a.Enrollments,
	}

	f, err := Load("testdata/seed.yaml")
	require.NoError(t, err)
	sum, err := seeder.Apply(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, Summary{Admins: 1, Volunteers: 3, Profiles: 2, Opportunities: 2, Enrollments: 3}, sum)

	admin := access.Access{Kind: access.KindAdmin, UserID: "admin-1"}
	snap, err := a.Reports.Snapshot(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, snap.Volunteers, 2)
	assert.Len(t, snap.Opportunities, 2)
	assert.Len(t, snap.Enrollments, 3)

	var attended id.OpportunityID
	for _, o := range snap.Opportunities {
		if o.Name == "Beach Cleanup" {
			attended = o.ID
		}
	}
	pdf, err := a.Certificates.Issue(ctx, admin, "vol-1", attended)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF-")))

	_, err = a.Certificates.Issue(ctx, admin, "vol-2", attended)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotEligible))

	t.Run("reapplying keeps existing profiles", func(t *testing.T) {
		sum, err := seeder.Apply(ctx, &File{Admins: f.Admins, Volunteers: f.Volunteers})
		require.NoError(t, err)
		assert.Equal(t, 0, sum.Profiles)
		assert.Equal(t, 3, sum.Volunteers)
	})
}

func newMemoryApp(t *testing.T) *app.App {
	t.Helper()
	cfg := &config.Config{
		Environment: "test",
		Auth:        config.AuthConfig{SigningKey: "seed-test-key", Issuer: "volunteerhub", Audience: "volunteerhub-api"},
		Report:      config.ReportConfig{TimeZone: "UTC", Location: time.UTC},
	}
	a, err := app.New(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), app.WithRegistry(prometheus.NewRegistry()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func offsetOf(t time.Time) int {
	_, offset := t.Zone()
	return offset
}
