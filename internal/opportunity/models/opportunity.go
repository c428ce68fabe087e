package models

import (
	"strings"
	"time"

	enrollment "volunteerhub/internal/enrollment/models"
	id "volunteerhub/pkg/domain"
	dErrors "volunteerhub/pkg/domain-errors"
)

// Opportunity is a time-boxed volunteering event. Start never follows End.
type Opportunity struct {
	ID              id.OpportunityID `json:"id"`
	Name            string           `json:"name"`
	Description     string           `json:"description"`
	Location        string           `json:"location"`
	Start           time.Time        `json:"start"`
	End             time.Time        `json:"end"`
	DurationMinutes int              `json:"duration_minutes"`
	ImageURL        string           `json:"image_url"`
	Archived        bool             `json:"archived"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Draft is the admin-editable content of an opportunity.
type Draft struct {
	Name            string
	Description     string
	Location        string
	Start           time.Time
	End             time.Time
	DurationMinutes int
	ImageURL        string
}

func (d Draft) validate() error {
	switch {
	case strings.TrimSpace(d.Name) == "":
		return dErrors.New(dErrors.CodeValidation, "name is required")
	case d.Start.IsZero() || d.End.IsZero():
		return dErrors.New(dErrors.CodeValidation, "start and end are required")
	case d.Start.After(d.End):
		return dErrors.New(dErrors.CodeInvalidTimeRange, "start must not be after end")
	case d.DurationMinutes < 0:
		return dErrors.New(dErrors.CodeValidation, "duration_minutes must not be negative")
	}
	return nil
}

// New validates the draft and builds an unarchived opportunity.
func New(oppID id.OpportunityID, d Draft, now time.Time) (*Opportunity, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}
	o := &Opportunity{ID: oppID, CreatedAt: now}
	o.apply(d, now)
	return o, nil
}

// Apply replaces the editable content. Archive state and image are untouched
// unless the draft carries an image.
func (o *Opportunity) Apply(d Draft, now time.Time) error {
	if err := d.validate(); err != nil {
		return err
	}
	o.apply(d, now)
	return nil
}

func (o *Opportunity) apply(d Draft, now time.Time) {
	o.Name = strings.TrimSpace(d.Name)
	o.Description = d.Description
	o.Location = strings.TrimSpace(d.Location)
	o.Start = d.Start.UTC()
	o.End = d.End.UTC()
	o.DurationMinutes = d.DurationMinutes
	if d.ImageURL != "" {
		o.ImageURL = d.ImageURL
	}
	o.UpdatedAt = now
}

// Hours is the whole number of hours credited on a certificate.
func (o *Opportunity) Hours() int {
	return (o.DurationMinutes + 30) / 60
}

// Less orders by start, then creation time, then id.
func Less(a, b *Opportunity) int {
	if c := a.Start.Compare(b.Start); c != 0 {
		return c
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(a.ID.String(), b.ID.String())
}

// VolunteerListing is the volunteer view: the viewer's own enrollment, if any.
type VolunteerListing struct {
	*Opportunity
	Enrollment *enrollment.Enrollment `json:"enrollment"`
}

// AdminListing is the admin view: the number of enrollments awaiting approval.
type AdminListing struct {
	*Opportunity
	PendingCount int `json:"pending_count"`
}
