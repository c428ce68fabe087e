package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "volunteerhub/pkg/domain-errors"
)

var now = time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)

func validIdentity() Identity {
	return Identity{
		FirstName:         " Ada ",
		LastName:          "Lim",
		DateOfBirth:       time.Date(2000, 3, 1, 0, 0, 0, 0, time.UTC),
		Gender:            GenderFemale,
		ResidentialStatus: StatusSingaporeCitizen,
	}
}

func TestNewProfile(t *testing.T) {
	t.Run("builds a profile with trimmed names", func(t *testing.T) {
		p, err := NewProfile("user_1", validIdentity(), Details{Phone: " 9123 4567 "}, now)
		require.NoError(t, err)
		assert.Equal(t, "Ada", p.FirstName)
		assert.Equal(t, "9123 4567", p.Phone)
		assert.Equal(t, []Preference{}, p.Preferences)
		assert.Equal(t, now, p.CreatedAt)
	})

	invalid := map[string]func(*Identity){
		"missing name":      func(i *Identity) { i.FirstName = "  " },
		"future birth date": func(i *Identity) { i.DateOfBirth = now.AddDate(0, 0, 1) },
		"unknown gender":    func(i *Identity) { i.Gender = "X" },
		"unknown status":    func(i *Identity) { i.ResidentialStatus = "TOURIST" },
	}
	for name, mutate := range invalid {
		t.Run("rejects "+name, func(t *testing.T) {
			ident := validIdentity()
			mutate(&ident)
			_, err := NewProfile("user_1", ident, Details{}, now)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
		})
	}
}

func TestApplyDetailsReplacesPreferences(t *testing.T) {
	p, err := NewProfile("user_1", validIdentity(), Details{Preferences: []Preference{PrefFundraising, PrefWorkingOutdoors}}, now)
	require.NoError(t, err)

	later := now.Add(time.Hour)
	p.ApplyDetails(Details{Preferences: []Preference{PrefTeachingStudents}, Driving: true}, later)

	assert.Equal(t, []Preference{PrefTeachingStudents}, p.Preferences)
	assert.True(t, p.Driving)
	assert.Equal(t, "Ada", p.FirstName, "identity is untouched")
	assert.Equal(t, later, p.UpdatedAt)
}

func TestParsePreferences(t *testing.T) {
	prefs, err := ParsePreferences([]string{"fundraising", "TEACHING STUDENTS", "FUNDRAISING", " "})
	require.NoError(t, err)
	assert.Equal(t, []Preference{PrefFundraising, PrefTeachingStudents}, prefs)

	_, err = ParsePreferences([]string{"KNITTING"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Working With Senior Citizens", PrefWorkingWithSeniorCitizens.Label())
	assert.Equal(t, "Long-Term Visit Pass", StatusLTVP.Label())
	assert.Equal(t, "UNKNOWN", ResidentialStatus("UNKNOWN").Label())
}

func TestAgeAt(t *testing.T) {
	today := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		dob  time.Time
		want int
	}{
		{"birthday today", time.Date(2006, 6, 15, 0, 0, 0, 0, time.UTC), 20},
		{"birthday tomorrow", time.Date(2006, 6, 16, 0, 0, 0, 0, time.UTC), 19},
		{"birthday earlier this year", time.Date(2006, 1, 1, 0, 0, 0, 0, time.UTC), 20},
		{"birthday later this year", time.Date(2006, 12, 31, 0, 0, 0, 0, time.UTC), 19},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AgeAt(tt.dob, today))
		})
	}
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("ADMIN")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)

	_, err = ParseRole("admin")
	assert.Error(t, err)
}
