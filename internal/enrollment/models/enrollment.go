// Package models holds the enrollment state machine.
//
//	requested (approved=false, attended=false)
//	  -> approved   (approved=true,  attended=false)
//	  -> attended   (approved=true,  attended=true)   certificate eligible
//
// Withdrawing approval always clears attendance, so approved=false with
// attended=true is unreachable.
package models

import (
	"time"

	id "volunteerhub/pkg/domain"
	dErrors "volunteerhub/pkg/domain-errors"
)

// Enrollment is a volunteer's participation in one opportunity. The
// (VolunteerID, OpportunityID) pair is unique.
type Enrollment struct {
	VolunteerID   id.UserID        `json:"volunteer_id"`
	OpportunityID id.OpportunityID `json:"opportunity_id"`
	AdminApproved bool             `json:"admin_approved"`
	DidAttend     bool             `json:"did_attend"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// NewRequest builds a pending enrollment.
func NewRequest(volunteerID id.UserID, opportunityID id.OpportunityID, now time.Time) *Enrollment {
	return &Enrollment{
		VolunteerID:   volunteerID,
		OpportunityID: opportunityID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// SetApproval is idempotent. Revoking approval also clears attendance.
func (e *Enrollment) SetApproval(approved bool, now time.Time) {
	e.AdminApproved = approved
	if !approved {
		e.DidAttend = false
	}
	e.UpdatedAt = now
}

// SetAttendance records attendance. Marking attended requires approval.
func (e *Enrollment) SetAttendance(attended bool, now time.Time) error {
	if attended && !e.AdminApproved {
		return dErrors.New(dErrors.CodeInvalidState, "attendance can only be recorded for approved enrollments")
	}
	e.DidAttend = attended
	e.UpdatedAt = now
	return nil
}

// Pending reports an enrollment awaiting an admin decision.
func (e *Enrollment) Pending() bool {
	return !e.AdminApproved
}

// Eligible reports whether a certificate may be issued.
func (e *Enrollment) Eligible() bool {
	return e.AdminApproved && e.DidAttend
}
