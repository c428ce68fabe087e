package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"volunteerhub/internal/access"
	id "volunteerhub/pkg/domain"
	"volunteerhub/pkg/platform/httputil"
	"volunteerhub/pkg/requestcontext"
)

type Service interface {
	Issue(ctx context.Context, a access.Access, volunteerID id.UserID, oppID id.OpportunityID) ([]byte, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/certificate/volunteer/{volunteerId}/opportunities/{opportunityId}", h.HandleCertificate)
}

// HandleCertificate streams the PDF as an attachment.
func (h *Handler) HandleCertificate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	volunteerID, err := id.ParseUserID(chi.URLParam(r, "volunteerId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	oppID, err := id.ParseOpportunityID(chi.URLParam(r, "opportunityId"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	pdf, err := h.service.Issue(ctx, access.FromContext(ctx), volunteerID, oppID)
	if err != nil {
		h.logger.WarnContext(ctx, "certificate issue failed",
			"request_id", requestcontext.RequestID(ctx),
			"volunteer_id", volunteerID,
			"opportunity_id", oppID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="certificate.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		h.logger.WarnContext(ctx, "certificate write failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
}
