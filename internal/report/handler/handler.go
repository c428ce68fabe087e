package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"volunteerhub/internal/access"
	"volunteerhub/internal/report/models"
	"volunteerhub/pkg/platform/httputil"
	"volunteerhub/pkg/requestcontext"
)

type Service interface {
	Snapshot(ctx context.Context, a access.Access) (*models.Snapshot, error)
	Report(ctx context.Context, a access.Access) (*models.Report, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/admin/report-data", h.HandleReportData)
	r.Get("/admin/report", h.HandleReport)
}

// HandleReportData returns the raw snapshot for clients that chart it themselves.
func (h *Handler) HandleReportData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snap, err := h.service.Snapshot(ctx, access.FromContext(ctx))
	if err != nil {
		h.fail(ctx, w, "report data failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, snap)
}

func (h *Handler) HandleReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	report, err := h.service.Report(ctx, access.FromContext(ctx))
	if err != nil {
		h.fail(ctx, w, "report failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
