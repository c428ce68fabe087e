package handler

import (
	"strings"
	"time"

	"volunteerhub/internal/user/models"
	dErrors "volunteerhub/pkg/domain-errors"
	"volunteerhub/pkg/platform/httputil"
)

// DetailsRequest carries the fields a volunteer may change at any time.
type DetailsRequest struct {
	Phone               string   `json:"phone" validate:"max=32"`
	Address             string   `json:"address" validate:"max=255"`
	PostalCode          string   `json:"postal_code" validate:"max=16"`
	Skills              string   `json:"skills" validate:"max=2000"`
	Experience          string   `json:"experience" validate:"max=2000"`
	Occupation          string   `json:"occupation" validate:"max=255"`
	School              string   `json:"school" validate:"max=255"`
	EducationBackground string   `json:"education_background" validate:"max=2000"`
	CommitmentLevel     string   `json:"commitment_level" validate:"max=64"`
	Driving             bool     `json:"driving"`
	OwnsVehicle         bool     `json:"owns_vehicle"`
	Preferences         []string `json:"preferences" validate:"max=16"`

	parsedPreferences []models.Preference
}

func (r *DetailsRequest) Normalize() {
	r.Phone = strings.TrimSpace(r.Phone)
	r.PostalCode = strings.TrimSpace(r.PostalCode)
}

func (r *DetailsRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if err := httputil.ValidateStruct(r); err != nil {
		return err
	}
	prefs, err := models.ParsePreferences(r.Preferences)
	if err != nil {
		return err
	}
	r.parsedPreferences = prefs
	return nil
}

func (r *DetailsRequest) Details() models.Details {
	return models.Details{
		Phone:               r.Phone,
		Address:             r.Address,
		PostalCode:          r.PostalCode,
		Skills:              r.Skills,
		Experience:          r.Experience,
		Occupation:          r.Occupation,
		School:              r.School,
		EducationBackground: r.EducationBackground,
		CommitmentLevel:     r.CommitmentLevel,
		Driving:             r.Driving,
		OwnsVehicle:         r.OwnsVehicle,
		Preferences:         r.parsedPreferences,
	}
}

// CreateProfileRequest is the onboarding body: identity plus details.
type CreateProfileRequest struct {
	FirstName         string `json:"first_name" validate:"required,max=100"`
	LastName          string `json:"last_name" validate:"required,max=100"`
	DateOfBirth       string `json:"date_of_birth" validate:"required"`
	Gender            string `json:"gender" validate:"required,oneof=M F"`
	ResidentialStatus string `json:"residential_status" validate:"required"`
	DetailsRequest

	parsedDateOfBirth time.Time
}

func (r *CreateProfileRequest) Normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Gender = strings.ToUpper(strings.TrimSpace(r.Gender))
	r.ResidentialStatus = strings.ToUpper(strings.TrimSpace(r.ResidentialStatus))
	r.DetailsRequest.Normalize()
}

func (r *CreateProfileRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if err := httputil.ValidateStruct(r); err != nil {
		return err
	}
	dob, err := parseDate(r.DateOfBirth)
	if err != nil {
		return err
	}
	r.parsedDateOfBirth = dob
	if !models.ResidentialStatus(r.ResidentialStatus).IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unknown residential_status: "+r.ResidentialStatus)
	}
	return r.DetailsRequest.Validate()
}

func (r *CreateProfileRequest) Identity() models.Identity {
	return models.Identity{
		FirstName:         r.FirstName,
		LastName:          r.LastName,
		DateOfBirth:       r.parsedDateOfBirth,
		Gender:            models.Gender(r.Gender),
		ResidentialStatus: models.ResidentialStatus(r.ResidentialStatus),
	}
}

// parseDate accepts YYYY-MM-DD or a full RFC 3339 timestamp.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, dErrors.New(dErrors.CodeValidation, "date_of_birth must be YYYY-MM-DD")
}
