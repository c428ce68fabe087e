// Package seed loads a YAML fixture of users, profiles, opportunities and
// enrollments and replays it through the services, so seeded data passes
// the same invariants and audit trail as live traffic.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"volunteerhub/internal/access"
	enrollment "volunteerhub/internal/enrollment/models"
	opportunity "volunteerhub/internal/opportunity/models"
	user "volunteerhub/internal/user/models"
	id "volunteerhub/pkg/domain"
	dErrors "volunteerhub/pkg/domain-errors"
	authmw "volunteerhub/pkg/platform/middleware/auth"
)

// File is the seed document.
type File struct {
	Admins        []Account     `yaml:"admins" validate:"required,min=1,dive"`
	Volunteers    []Volunteer   `yaml:"volunteers" validate:"dive"`
	Opportunities []Opportunity `yaml:"opportunities" validate:"dive"`
}

type Account struct {
	ID    string `yaml:"id" validate:"required"`
	Email string `yaml:"email" validate:"required,email"`
}

type Volunteer struct {
	Account `yaml:",inline"`
	Profile *Profile `yaml:"profile"`
}

type Profile struct {
	FirstName         string   `yaml:"first_name" validate:"required,max=100"`
	LastName          string   `yaml:"last_name" validate:"required,max=100"`
	DateOfBirth       string   `yaml:"date_of_birth" validate:"required,datetime=2006-01-02"`
	Gender            string   `yaml:"gender" validate:"required,oneof=M F"`
	ResidentialStatus string   `yaml:"residential_status" validate:"required"`
	Phone             string   `yaml:"phone"`
	Address           string   `yaml:"address"`
	PostalCode        string   `yaml:"postal_code"`
	Skills            string   `yaml:"skills"`
	Occupation        string   `yaml:"occupation"`
	Driving           bool     `yaml:"driving"`
	OwnsVehicle       bool     `yaml:"owns_vehicle"`
	Preferences       []string `yaml:"preferences"`
}

type Opportunity struct {
	Name            string       `yaml:"name" validate:"required"`
	Description     string       `yaml:"description"`
	Location        string       `yaml:"location"`
	Start           time.Time    `yaml:"start" validate:"required"`
	End             time.Time    `yaml:"end" validate:"required,gtfield=Start"`
	DurationMinutes int          `yaml:"duration_minutes" validate:"gte=0"`
	ImageURL        string       `yaml:"image_url" validate:"omitempty,url"`
	Archived        bool         `yaml:"archived"`
	Enrollments     []Enrollment `yaml:"enrollments" validate:"dive"`
}

type Enrollment struct {
	Volunteer string `yaml:"volunteer" validate:"required"`
	Approved  *bool  `yaml:"approved"`
	Attended  *bool  `yaml:"attended"`
}

// Load reads and validates a seed file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a seed document. Enrollments must name a
// volunteer declared with a profile.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if err := validator.New().Struct(f); err != nil {
		return nil, fmt.Errorf("invalid seed file: %w", err)
	}

	onboarded := make(map[string]bool, len(f.Volunteers))
	for _, v := range f.Volunteers {
		if _, dup := onboarded[v.ID]; dup {
			return nil, fmt.Errorf("invalid seed file: volunteer %q declared twice", v.ID)
		}
		onboarded[v.ID] = v.Profile != nil
	}
	for _, o := range f.Opportunities {
		for _, e := range o.Enrollments {
			if !onboarded[e.Volunteer] {
				return nil, fmt.Errorf("invalid seed file: %q enrols %q, which is not a volunteer with a profile", o.Name, e.Volunteer)
			}
			if e.Attended != nil && *e.Attended && (e.Approved == nil || !*e.Approved) {
				return nil, fmt.Errorf("invalid seed file: %q marks %q attended without approval", o.Name, e.Volunteer)
			}
		}
	}
	return &f, nil
}

type Resolver interface {
	Resolve(ctx context.Context, principal *authmw.Principal) (access.Access, error)
}

type UserService interface {
	SetRole(ctx context.Context, userID id.UserID, role user.Role) error
	CreateProfile(ctx context.Context, a access.Access, ident user.Identity, details user.Details) (*user.Profile, error)
}

type OpportunityService interface {
	Create(ctx context.Context, a access.Access, d opportunity.Draft) (*opportunity.Opportunity, error)
	SetArchived(ctx context.Context, a access.Access, oppID id.OpportunityID, archived bool) (*opportunity.Opportunity, error)
}

type EnrollmentService interface {
	Request(ctx context.Context, a access.Access, oppID id.OpportunityID) (*enrollment.Enrollment, error)
	SetApproval(ctx context.Context, a access.Access, oppID id.OpportunityID, volunteerID id.UserID, approved bool) (*enrollment.Enrollment, error)
	SetAttendance(ctx context.Context, a access.Access, oppID id.OpportunityID, volunteerID id.UserID, attended bool) (*enrollment.Enrollment, error)
}

// Seeder replays a File.
type Seeder struct {
	Resolver      Resolver
	Users         UserService
	Opportunities OpportunityService
	Enrollments   EnrollmentService
}

// Summary counts what Apply created.
type Summary struct {
	Admins        int
	Volunteers    int
	Profiles      int
	Opportunities int
	Enrollments   int
}

// Apply provisions every account, then creates opportunities and enrollments.
// Existing profiles are left alone; opportunities are always created anew.
func (s *Seeder) Apply(ctx context.Context, f *File) (Summary, error) {
	var sum Summary

	var admin access.Access
	for i, acct := range f.Admins {
		if _, err := s.provision(ctx, acct); err != nil {
			return sum, err
		}
		userID := id.UserID(acct.ID)
		if err := s.Users.SetRole(ctx, userID, user.RoleAdmin); err != nil {
			return sum, fmt.Errorf("promote %s: %w", acct.ID, err)
		}
		if i == 0 {
			admin = access.Access{Kind: access.KindAdmin, UserID: userID, Email: acct.Email}
		}
		sum.Admins++
	}

	volunteers := make(map[string]access.Access, len(f.Volunteers))
	for _, v := range f.Volunteers {
		a, err := s.provision(ctx, v.Account)
		if err != nil {
			return sum, err
		}
		sum.Volunteers++
		if v.Profile == nil {
			continue
		}
		ident, details, err := v.Profile.toModels()
		if err != nil {
			return sum, fmt.Errorf("profile for %s: %w", v.ID, err)
		}
		_, err = s.Users.CreateProfile(ctx, a, ident, details)
		switch {
		case err == nil:
			sum.Profiles++
		case dErrors.HasCode(err, dErrors.CodeProfileExists):
		default:
			return sum, fmt.Errorf("profile for %s: %w", v.ID, err)
		}
		if a, err = s.provision(ctx, v.Account); err != nil {
			return sum, err
		}
		volunteers[v.ID] = a
	}

	for _, o := range f.Opportunities {
		opp, err := s.Opportunities.Create(ctx, admin, opportunity.Draft{
			Name:            o.Name,
			Description:     o.Description,
			Location:        o.Location,
			Start:           o.Start,
			End:             o.End,
			DurationMinutes: o.DurationMinutes,
			ImageURL:        o.ImageURL,
		})
		if err != nil {
			return sum, fmt.Errorf("opportunity %q: %w", o.Name, err)
		}
		sum.Opportunities++

		for _, e := range o.Enrollments {
			if err := s.enrol(ctx, admin, volunteers[e.Volunteer], opp.ID, e); err != nil {
				return sum, fmt.Errorf("enrol %s in %q: %w", e.Volunteer, o.Name, err)
			}
			sum.Enrollments++
		}
		if o.Archived {
			if _, err := s.Opportunities.SetArchived(ctx, admin, opp.ID, true); err != nil {
				return sum, fmt.Errorf("archive %q: %w", o.Name, err)
			}
		}
	}
	return sum, nil
}

func (s *Seeder) provision(ctx context.Context, acct Account) (access.Access, error) {
	userID, err := id.ParseUserID(acct.ID)
	if err != nil {
		return access.Access{}, err
	}
	a, err := s.Resolver.Resolve(ctx, &authmw.Principal{UserID: userID, Email: acct.Email})
	if err != nil {
		return access.Access{}, fmt.Errorf("provision %s: %w", acct.ID, err)
	}
	return a, nil
}

func (s *Seeder) enrol(ctx context.Context, admin, volunteer access.Access, oppID id.OpportunityID, e Enrollment) error {
	if _, err := s.Enrollments.Request(ctx, volunteer, oppID); err != nil {
		return err
	}
	if e.Approved != nil {
		if _, err := s.Enrollments.SetApproval(ctx, admin, oppID, volunteer.UserID, *e.Approved); err != nil {
			return err
		}
	}
	if e.Attended != nil {
		if _, err := s.Enrollments.SetAttendance(ctx, admin, oppID, volunteer.UserID, *e.Attended); err != nil {
			return err
		}
	}
	return nil
}

func (p *Profile) toModels() (user.Identity, user.Details, error) {
	dob, err := time.Parse(time.DateOnly, p.DateOfBirth)
	if err != nil {
		return user.Identity{}, user.Details{}, err
	}
	prefs, err := user.ParsePreferences(p.Preferences)
	if err != nil {
		return user.Identity{}, user.Details{}, err
	}
	status := user.ResidentialStatus(p.ResidentialStatus)
	if !status.IsValid() {
		return user.Identity{}, user.Details{}, errors.New("unknown residential status " + p.ResidentialStatus)
	}
	return user.Identity{
			FirstName:         p.FirstName,
			LastName:          p.LastName,
			DateOfBirth:       dob,
			Gender:            user.Gender(p.Gender),
			ResidentialStatus: status,
		}, user.Details{
			Phone:       p.Phone,
			Address:     p.Address,
			PostalCode:  p.PostalCode,
			Skills:      p.Skills,
			Occupation:  p.Occupation,
			Driving:     p.Driving,
			OwnsVehicle: p.OwnsVehicle,
			Preferences: prefs,
		}, nil
}
