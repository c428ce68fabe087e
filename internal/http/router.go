// Package httpapi assembles the HTTP surface: shared middleware, the
// authenticated /api/v1 tree and the operational endpoints.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"volunteerhub/internal/platform/metrics"
	dErrors "volunteerhub/pkg/domain-errors"
	"volunteerhub/pkg/platform/httputil"
	authmw "volunteerhub/pkg/platform/middleware/auth"
	"volunteerhub/pkg/platform/middleware/metadata"
	"volunteerhub/pkg/platform/middleware/request"
	"volunteerhub/pkg/platform/middleware/requesttime"
)

const (
	APIPrefix             = "/api/v1"
	defaultRequestTimeout = 30 * time.Second
)

// Module is implemented by every feature handler.
type Module interface {
	Register(r chi.Router)
}

type Config struct {
	Logger      *slog.Logger
	Validator   authmw.JWTValidator
	Revocations authmw.TokenRevocationChecker
	// Access resolves the caller's access once per request, after authentication.
	Access         func(http.Handler) http.Handler
	Metrics        *metrics.Metrics
	RequestTimeout time.Duration
	// Ready backs /health; nil means always healthy.
	Ready func(ctx context.Context) error
	// MetricsHandler serves /metrics; nil disables the endpoint.
	MetricsHandler http.Handler
}

func NewRouter(cfg Config, modules ...Module) http.Handler {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(cfg.Logger))
	r.Use(request.Logger(cfg.Logger))
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)
	r.Use(request.Timeout(timeout))
	if cfg.Metrics != nil {
		r.Use(request.Latency(cfg.Metrics.RequestDuration))
	}

	r.Get("/health", health(cfg.Ready))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route(APIPrefix, func(api chi.Router) {
		api.Use(request.ContentTypeJSON)
		api.Use(authmw.RequireAuth(cfg.Validator, cfg.Revocations, cfg.Logger))
		if cfg.Access != nil {
			api.Use(cfg.Access)
		}
		for _, m := range modules {
			m.Register(api)
		}
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "route not found"))
	})
	return r
}

type healthResponse struct {
	Status string `json:"status"`
}

func health(ready func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			if err := ready(r.Context()); err != nil {
				httputil.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	}
}
