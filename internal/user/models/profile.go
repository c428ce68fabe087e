package models

import (
	"slices"
	"strings"
	"time"

	id "volunteerhub/pkg/domain"
	dErrors "volunteerhub/pkg/domain-errors"
	vstrings "volunteerhub/pkg/platform/strings"
)

type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
)

func (g Gender) IsValid() bool {
	return g == GenderMale || g == GenderFemale
}

type ResidentialStatus string

const (
	StatusSingaporeCitizen ResidentialStatus = "SINGAPORE_CITIZEN"
	StatusSingaporePR      ResidentialStatus = "SINGAPORE_PR"
	StatusEP               ResidentialStatus = "EP"
	StatusDP               ResidentialStatus = "DP"
	StatusLTVP             ResidentialStatus = "LTVP"
	StatusStudentPass      ResidentialStatus = "STUDENT_PASS"
	StatusVisitorVisa      ResidentialStatus = "VISITOR_VISA"
)

var residentialStatusLabels = map[ResidentialStatus]string{
	StatusSingaporeCitizen: "Singapore Citizen",
	StatusSingaporePR:      "Singapore PR",
	StatusEP:               "Employment Pass",
	StatusDP:               "Dependant's Pass",
	StatusLTVP:             "Long-Term Visit Pass",
	StatusStudentPass:      "Student's Pass",
	StatusVisitorVisa:      "Visitor Visa",
}

func (s ResidentialStatus) IsValid() bool {
	_, ok := residentialStatusLabels[s]
	return ok
}

// Label is the display name; unknown codes fall back to the raw code.
func (s ResidentialStatus) Label() string {
	if l, ok := residentialStatusLabels[s]; ok {
		return l
	}
	return string(s)
}

type Preference string

const (
	PrefWorkingWithChildren         Preference = "WORKING_WITH_CHILDREN"
	PrefWorkingWithSeniorCitizens   Preference = "WORKING_WITH_SENIOR_CITIZENS"
	PrefWorkingWithSpecialNeeds     Preference = "WORKING_WITH_SPECIAL_NEEDS"
	PrefWorkingWithAnimals          Preference = "WORKING_WITH_ANIMALS"
	PrefFundraising                 Preference = "FUNDRAISING"
	PrefWorkingOutdoors             Preference = "WORKING_OUTDOORS"
	PrefWorkingWithMigrantWorkers   Preference = "WORKING_WITH_MIGRANT_WORKERS"
	PrefWorkingWithHealthcareWorker Preference = "WORKING_WITH_HEALTHCARE_WORKERS"
	PrefTeachingStudents            Preference = "TEACHING_STUDENTS"
)

// AllPreferences lists every tag in display order.
var AllPreferences = []Preference{
	PrefWorkingWithChildren,
	PrefWorkingWithSeniorCitizens,
	PrefWorkingWithSpecialNeeds,
	PrefWorkingWithAnimals,
	PrefWorkingWithMigrantWorkers,
	PrefWorkingWithHealthcareWorker,
	PrefWorkingOutdoors,
	PrefFundraising,
	PrefTeachingStudents,
}

func (p Preference) IsValid() bool {
	return slices.Contains(AllPreferences, p)
}

// Label renders WORKING_WITH_CHILDREN as "Working With Children".
func (p Preference) Label() string {
	words := strings.Split(strings.ToLower(string(p)), "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

// ParsePreferences normalizes case and spacing ("teaching students" is
// accepted), removes duplicates and rejects unknown tags.
func ParsePreferences(raw []string) ([]Preference, error) {
	out := make([]Preference, 0, len(raw))
	for _, s := range vstrings.NormalizeTags(raw) {
		p := Preference(s)
		if !p.IsValid() {
			return nil, dErrors.New(dErrors.CodeValidation, "unknown preference: "+s)
		}
		out = append(out, p)
	}
	return out, nil
}

// Profile is volunteer onboarding data. Name, date of birth, gender and
// residential status are fixed once the profile exists.
type Profile struct {
	UserID              id.UserID         `json:"volunteer_id"`
	FirstName           string            `json:"first_name"`
	LastName            string            `json:"last_name"`
	DateOfBirth         time.Time         `json:"date_of_birth"`
	Gender              Gender            `json:"gender"`
	ResidentialStatus   ResidentialStatus `json:"residential_status"`
	Phone               string            `json:"phone"`
	Address             string            `json:"address"`
	PostalCode          string            `json:"postal_code"`
	Skills              string            `json:"skills"`
	Experience          string            `json:"experience"`
	Occupation          string            `json:"occupation"`
	School              string            `json:"school"`
	EducationBackground string            `json:"education_background"`
	CommitmentLevel     string            `json:"commitment_level"`
	Driving             bool              `json:"driving"`
	OwnsVehicle         bool              `json:"owns_vehicle"`
	Preferences         []Preference      `json:"preferences"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// Details are the fields a volunteer may change after onboarding.
type Details struct {
	Phone               string
	Address             string
	PostalCode          string
	Skills              string
	Experience          string
	Occupation          string
	School              string
	EducationBackground string
	CommitmentLevel     string
	Driving             bool
	OwnsVehicle         bool
	Preferences         []Preference
}

// Identity holds the fields fixed at creation.
type Identity struct {
	FirstName         string
	LastName          string
	DateOfBirth       time.Time
	Gender            Gender
	ResidentialStatus ResidentialStatus
}

// NewProfile validates identity invariants and builds a profile.
func NewProfile(userID id.UserID, ident Identity, details Details, now time.Time) (*Profile, error) {
	ident.FirstName = strings.TrimSpace(ident.FirstName)
	ident.LastName = strings.TrimSpace(ident.LastName)
	switch {
	case ident.FirstName == "" || ident.LastName == "":
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "first and last name are required")
	case len(ident.FirstName) > 100 || len(ident.LastName) > 100:
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "names must be 100 characters or less")
	case ident.DateOfBirth.IsZero() || ident.DateOfBirth.After(now):
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "date of birth must be in the past")
	case !ident.Gender.IsValid():
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "gender must be M or F")
	case !ident.ResidentialStatus.IsValid():
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "unknown residential status")
	}

	p := &Profile{
		UserID:            userID,
		FirstName:         ident.FirstName,
		LastName:          ident.LastName,
		DateOfBirth:       dateOnly(ident.DateOfBirth),
		Gender:            ident.Gender,
		ResidentialStatus: ident.ResidentialStatus,
		CreatedAt:         now,
	}
	p.ApplyDetails(details, now)
	return p, nil
}

// ApplyDetails replaces every mutable field, including the whole preference set.
func (p *Profile) ApplyDetails(d Details, now time.Time) {
	p.Phone = strings.TrimSpace(d.Phone)
	p.Address = strings.TrimSpace(d.Address)
	p.PostalCode = strings.TrimSpace(d.PostalCode)
	p.Skills = d.Skills
	p.Experience = d.Experience
	p.Occupation = strings.TrimSpace(d.Occupation)
	p.School = strings.TrimSpace(d.School)
	p.EducationBackground = d.EducationBackground
	p.CommitmentLevel = strings.TrimSpace(d.CommitmentLevel)
	p.Driving = d.Driving
	p.OwnsVehicle = d.OwnsVehicle
	p.Preferences = append([]Preference{}, d.Preferences...)
	if p.Preferences == nil {
		p.Preferences = []Preference{}
	}
	p.UpdatedAt = now
}

// Age is the age in whole years at now: year difference, minus one if the
// birthday has not yet occurred this year.
func (p *Profile) Age(now time.Time) int {
	return AgeAt(p.DateOfBirth, now)
}

func AgeAt(dob, now time.Time) int {
	age := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		age--
	}
	return age
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
