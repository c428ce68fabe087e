package access

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"volunteerhub/internal/user/models"
	id "volunteerhub/pkg/domain"
	dErrors "volunteerhub/pkg/domain-errors"
	audit "volunteerhub/pkg/platform/audit"
	"volunteerhub/pkg/platform/httputil"
	authmw "volunteerhub/pkg/platform/middleware/auth"
	"volunteerhub/pkg/platform/tx"
	"volunteerhub/pkg/requestcontext"
)

// Provisioner creates the user on first sight and reports role and profile
// existence in one read.
type Provisioner interface {
	EnsureProvisioned(ctx context.Context, userID id.UserID, email string, now time.Time) (models.Provisioning, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Resolver struct {
	users          Provisioner
	tx             tx.Manager
	auditPublisher AuditPublisher
	logger         *slog.Logger
}

type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(r *Resolver) { r.auditPublisher = p }
}

func WithTxManager(m tx.Manager) Option {
	return func(r *Resolver) { r.tx = m }
}

func NewResolver(users Provisioner, opts ...Option) *Resolver {
	r := &Resolver{users: users}
	for _, opt := range opts {
		opt(r)
	}
	if r.tx == nil {
		r.tx = tx.NewMemoryManager()
	}
	return r
}

// Resolve maps a principal to its Access. A nil principal is anonymous.
func (r *Resolver) Resolve(ctx context.Context, principal *authmw.Principal) (Access, error) {
	if principal == nil || principal.UserID.IsZero() {
		return Anonymous(), nil
	}

	var prov models.Provisioning
	err := r.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		prov, err = r.users.EnsureProvisioned(ctx, principal.UserID, principal.Email, requestcontext.Now(ctx))
		if err != nil {
			return err
		}
		if prov.Provisioned && r.auditPublisher != nil {
			return r.auditPublisher.Emit(ctx, audit.Event{
				Action:    audit.EventUserProvisioned,
				ActorID:   principal.UserID,
				SubjectID: principal.UserID,
			})
		}
		return nil
	})
	if err != nil {
		return Anonymous(), dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve access")
	}

	if prov.Provisioned && r.logger != nil {
		r.logger.InfoContext(ctx, string(audit.EventUserProvisioned),
			"user_id", principal.UserID,
			"request_id", requestcontext.RequestID(ctx),
			"log_type", "audit",
		)
	}
	return FromProvisioning(principal.UserID, principal.Email, prov), nil
}

// Middleware resolves Access once and stores it in the request context.
// Requests without a principal pass through as anonymous; handlers reject them.
func (r *Resolver) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := req.Context()
			var principal *authmw.Principal
			if p, ok := authmw.GetPrincipal(ctx); ok {
				principal = &p
			}

			a, err := r.Resolve(ctx, principal)
			if err != nil {
				if r.logger != nil {
					r.logger.ErrorContext(ctx, "access resolution failed",
						"error", err,
						"request_id", requestcontext.RequestID(ctx),
					)
				}
				httputil.WriteError(w, err)
				return
			}
			next.ServeHTTP(w, req.WithContext(WithAccess(ctx, a)))
		})
	}
}
