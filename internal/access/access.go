// Package access resolves what an authenticated principal may do.
//
// The decision is made once per request: the middleware provisions the user
// when needed, reads role and profile existence in one store call, and stores
// the resulting Access in the request context. Services receive the Access
// value and apply the Require* checks; they never re-read roles.
package access

import (
	"context"

	"volunteerhub/internal/user/models"
	id "volunteerhub/pkg/domain"
	dErrors "volunteerhub/pkg/domain-errors"
)

// Kind tags the Access variant.
type Kind int

const (
	KindAnonymous Kind = iota
	KindVolunteerIncomplete
	KindVolunteerActive
	KindAdmin
)

func (k Kind) String() string {
	switch k {
	case KindVolunteerIncomplete:
		return "volunteer_incomplete"
	case KindVolunteerActive:
		return "volunteer_active"
	case KindAdmin:
		return "admin"
	default:
		return "anonymous"
	}
}

// Access is the resolved authorization state of the caller.
type Access struct {
	Kind   Kind
	UserID id.UserID
	Email  string
}

func Anonymous() Access {
	return Access{Kind: KindAnonymous}
}

// FromProvisioning maps the stored role and profile existence to a variant.
func FromProvisioning(userID id.UserID, email string, p models.Provisioning) Access {
	a := Access{UserID: userID, Email: email}
	switch {
	case p.Role == models.RoleAdmin:
		a.Kind = KindAdmin
	case p.HasProfile:
		a.Kind = KindVolunteerActive
	default:
		a.Kind = KindVolunteerIncomplete
	}
	return a
}

func (a Access) IsAnonymous() bool { return a.Kind == KindAnonymous }
func (a Access) IsAdmin() bool     { return a.Kind == KindAdmin }

// Role is the caller's role for display. ok is false for anonymous callers and
// for volunteers that have not completed onboarding.
func (a Access) Role() (role models.Role, ok bool) {
	switch a.Kind {
	case KindAdmin:
		return models.RoleAdmin, true
	case KindVolunteerActive:
		return models.RoleVolunteer, true
	default:
		return "", false
	}
}

var (
	errUnauthenticated   = dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	errVolunteerOnly     = dErrors.New(dErrors.CodeForbidden, "volunteer role required")
	errAdminOnly         = dErrors.New(dErrors.CodeForbidden, "admin role required")
	errNotSelf           = dErrors.New(dErrors.CodeForbidden, "access to another volunteer's data requires admin role")
	errProfileIncomplete = dErrors.New(dErrors.CodeProfileIncomplete, "volunteer profile has not been created")
)

// RequireVolunteer admits volunteers that have completed their profile.
func (a Access) RequireVolunteer() error {
	switch a.Kind {
	case KindVolunteerActive:
		return nil
	case KindVolunteerIncomplete:
		return errProfileIncomplete
	case KindAnonymous:
		return errUnauthenticated
	default:
		return errVolunteerOnly
	}
}
// RequireVolunteerRole checks the role only. Profile creation and catalog browsing use it.
// RequireVolunteerRole checks the role only. Profile creation uses it.
func (a Access) RequireVolunteerRole() error {
	switch a.Kind {
	case KindVolunteerActive, KindVolunteerIncomplete:
		return nil
	case KindAnonymous:
		return errUnauthenticated
	default:
		return errVolunteerOnly
	}
}

func (a Access) RequireAdmin() error {
	switch a.Kind {
	case KindAdmin:
		return nil
	case KindAnonymous:
		return errUnauthenticated
	default:
		return errAdminOnly
	}
}

// RequireSelfOrAdmin admits the target user themself or any admin.
func (a Access) RequireSelfOrAdmin(target id.UserID) error {
	switch {
	case a.Kind == KindAnonymous:
		return errUnauthenticated
	case a.Kind == KindAdmin, a.UserID == target:
		return nil
	default:
		return errNotSelf
	}
}

type ctxKey struct{}

func WithAccess(ctx context.Context, a Access) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// FromContext returns the resolved Access; anonymous when none was stored.
func FromContext(ctx context.Context) Access {
	if a, ok := ctx.Value(ctxKey{}).(Access); ok {
		return a
	}
	return Anonymous()
}
