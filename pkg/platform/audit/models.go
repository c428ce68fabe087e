package audit

import (
	"context"
	"time"

	id "volunteerhub/pkg/domain"
)

// EventCategory classifies audit events by retention and routing needs.
type EventCategory string

const (
	// CategoryCompliance covers changes to personal data and participation records.
	CategoryCompliance EventCategory = "compliance"
	// CategoryOperations covers catalog maintenance.
	CategoryOperations EventCategory = "operations"
)

type AuditEvent string

const (
	EventUserProvisioned AuditEvent = "user_provisioned"
	EventRoleChanged     AuditEvent = "role_changed"
	EventProfileCreated  AuditEvent = "profile_created"
	EventProfileUpdated  AuditEvent = "profile_updated"

	EventOpportunityCreated      AuditEvent = "opportunity_created"
	EventOpportunityUpdated      AuditEvent = "opportunity_updated"
	EventOpportunityDeleted      AuditEvent = "opportunity_deleted"
	EventOpportunityArchived     AuditEvent = "opportunity_archived"
	EventOpportunityUnarchived   AuditEvent = "opportunity_unarchived"
	EventOpportunityImageUpdated AuditEvent = "opportunity_image_updated"

	EventEnrollmentRequested     AuditEvent = "enrollment_requested"
	EventEnrollmentApprovalSet   AuditEvent = "enrollment_approval_set"
	EventEnrollmentAttendanceSet AuditEvent = "enrollment_attendance_set"

	EventCertificateIssued AuditEvent = "certificate_issued"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventUserProvisioned:         CategoryCompliance,
	EventRoleChanged:             CategoryCompliance,
	EventProfileCreated:          CategoryCompliance,
	EventProfileUpdated:          CategoryCompliance,
	EventEnrollmentRequested:     CategoryCompliance,
	EventEnrollmentApprovalSet:   CategoryCompliance,
	EventEnrollmentAttendanceSet: CategoryCompliance,
	EventCertificateIssued:       CategoryCompliance,

	EventOpportunityCreated:      CategoryOperations,
	EventOpportunityUpdated:      CategoryOperations,
	EventOpportunityDeleted:      CategoryOperations,
	EventOpportunityArchived:     CategoryOperations,
	EventOpportunityUnarchived:   CategoryOperations,
	EventOpportunityImageUpdated: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Event is emitted from services to capture key actions.
type Event struct {
	Timestamp time.Time
	Action    AuditEvent
	// ActorID is the caller. SubjectID is the user the action concerns, when
	// different (admin approving a volunteer).
	ActorID       id.UserID
	SubjectID     id.UserID
	OpportunityID string
	Decision      string
	RequestID     string
	ClientIP      string
	Client        string
}

// Category returns the category derived from Action.
func (e Event) Category() EventCategory { return e.Action.Category() }

// Store persists audit events. Postgres-backed stores write inside the
// caller's transaction so the event commits with the change it describes.
type Store interface {
	Append(ctx context.Context, event Event) error
}
