package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "volunteerhub/pkg/domain-errors"
)

const maxUserIDLength = 128

// UserID is the stable identifier issued by the external identity provider.
// It is opaque to this service: only its shape is validated.
type UserID string

// OpportunityID identifies an opportunity. Generated by this service.
type OpportunityID uuid.UUID

// ParseUserID validates an identity-provider subject at a trust boundary.
func ParseUserID(s string) (UserID, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "user id is required")
	}
	if len(s) > maxUserIDLength {
		return "", dErrors.New(dErrors.CodeBadRequest, "user id is too long")
	}
	for _, r := range s {
		if !isUserIDRune(r) {
			return "", dErrors.New(dErrors.CodeBadRequest, "user id contains invalid characters")
		}
	}
	return UserID(s), nil
}

func isUserIDRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case strings.ContainsRune("-_|:.@", r):
		return true
	}
	return false
}

func (u UserID) String() string { return string(u) }

// IsZero reports whether the id is unset.
func (u UserID) IsZero() bool { return u == "" }

// NewOpportunityID generates a fresh random opportunity id.
func NewOpportunityID() OpportunityID {
	return OpportunityID(uuid.New())
}

// ParseOpportunityID parses a canonical UUID string; the nil UUID is rejected.
func ParseOpportunityID(s string) (OpportunityID, error) {
	if s == "" {
		return OpportunityID{}, dErrors.New(dErrors.CodeBadRequest, "opportunity id is required")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return OpportunityID{}, dErrors.New(dErrors.CodeBadRequest, "invalid opportunity id")
	}
	if parsed == uuid.Nil {
		return OpportunityID{}, dErrors.New(dErrors.CodeBadRequest, "invalid opportunity id")
	}
	return OpportunityID(parsed), nil
}

func (o OpportunityID) String() string { return uuid.UUID(o).String() }

// IsNil reports whether the id is the nil UUID.
func (o OpportunityID) IsNil() bool { return uuid.UUID(o) == uuid.Nil }

func (o OpportunityID) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *OpportunityID) UnmarshalText(data []byte) error {
	parsed, err := ParseOpportunityID(string(data))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}
