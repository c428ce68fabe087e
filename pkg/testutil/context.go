package testutil

import (
	"net/http"

	"volunteerhub/internal/access"
	id "volunteerhub/pkg/domain"
	authmw "volunteerhub/pkg/platform/middleware/auth"
)

// WithPrincipal stands in for the bearer-token middleware. Invalid user ids
// leave the request anonymous.
func WithPrincipal(req *http.Request, userID, email string) *http.Request {
	parsed, err := id.ParseUserID(userID)
	if err != nil {
		return req
	}
	ctx := authmw.WithPrincipal(req.Context(), authmw.Principal{UserID: parsed, Email: email})
	return req.WithContext(ctx)
}

// WithAccess stands in for the access resolver, for handler tests mounted
// without the full middleware chain.
func WithAccess(req *http.Request, a access.Access) *http.Request {
	return req.WithContext(access.WithAccess(req.Context(), a))
}
