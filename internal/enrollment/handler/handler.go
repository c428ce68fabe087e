package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"volunteerhub/internal/access"
	"volunteerhub/internal/enrollment/models"
	"volunteerhub/internal/enrollment/service"
	id "volunteerhub/pkg/domain"
	"volunteerhub/pkg/platform/httputil"
	"volunteerhub/pkg/requestcontext"
)

type Service interface {
	Request(ctx context.Context, a access.Access, oppID id.OpportunityID) (*models.Enrollment, error)
	SetApproval(ctx context.Context, a access.Access, oppID id.OpportunityID, volunteerID id.UserID, approved bool) (*models.Enrollment, error)
	SetAttendance(ctx context.Context, a access.Access, oppID id.OpportunityID, volunteerID id.UserID, attended bool) (*models.Enrollment, error)
	Get(ctx context.Context, a access.Access, oppID id.OpportunityID) (*models.Enrollment, error)
	ListForOpportunity(ctx context.Context, a access.Access, oppID id.OpportunityID) (*service.Roster, error)
	VolunteerHistory(ctx context.Context, a access.Access, volunteerID id.UserID) (*service.History, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/opportunities/{id}/enrol", h.HandleRequest)
	r.Get("/opportunities/{id}/enrollment", h.HandleGet)

	r.Get("/admin/opportunities/{id}", h.HandleRoster)
	r.Get("/admin/opportunities/{id}/enrollments", h.HandleRoster)
	r.Put("/admin/opportunities/{id}/enrollments/{volunteerId}/approval", h.HandleSetApproval)
	r.Put("/admin/opportunities/{id}/enrollments/{volunteerId}/attendance", h.HandleSetAttendance)
	r.Get("/admin/volunteers/{volunteerId}", h.HandleHistory)
}

// HandleRequest enrolls the caller. A second request answers 400 already_enrolled.
func (h *Handler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	oppID, ok := opportunityID(w, r)
	if !ok {
		return
	}
	e, err := h.service.Request(ctx, access.FromContext(ctx), oppID)
	if err != nil {
		h.fail(ctx, w, "enrollment request failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, e)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	oppID, ok := opportunityID(w, r)
	if !ok {
		return
	}
	e, err := h.service.Get(ctx, access.FromContext(ctx), oppID)
	if err != nil {
		h.fail(ctx, w, "get enrollment failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) HandleRoster(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	oppID, ok := opportunityID(w, r)
	if !ok {
		return
	}
	roster, err := h.service.ListForOpportunity(ctx, access.FromContext(ctx), oppID)
	if err != nil {
		h.fail(ctx, w, "list enrollments failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, roster)
}

func (h *Handler) HandleSetApproval(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	oppID, volunteerID, ok := enrollmentKey(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ApprovalRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	e, err := h.service.SetApproval(ctx, access.FromContext(ctx), oppID, volunteerID, *req.AdminApproved)
	if err != nil {
		h.fail(ctx, w, "set approval failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, e)
}

func (h *Handler) HandleSetAttendance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	oppID, volunteerID, ok := enrollmentKey(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[AttendanceRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	e, err := h.service.SetAttendance(ctx, access.FromContext(ctx), oppID, volunteerID, *req.DidAttend)
	if err != nil {
		h.fail(ctx, w, "set attendance failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, e)
}

// HandleHistory serves a volunteer's profile and enrollments to the
// volunteer themself or an admin.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	volunteerID, ok := volunteerParam(w, r)
	if !ok {
		return
	}
	history, err := h.service.VolunteerHistory(ctx, access.FromContext(ctx), volunteerID)
	if err != nil {
		h.fail(ctx, w, "volunteer history failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, history)
}

func opportunityID(w http.ResponseWriter, r *http.Request) (id.OpportunityID, bool) {
	oppID, err := id.ParseOpportunityID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.OpportunityID{}, false
	}
	return oppID, true
}

func volunteerParam(w http.ResponseWriter, r *http.Request) (id.UserID, bool) {
	volunteerID, err := id.ParseUserID(chi.URLParam(r, "volunteerId"))
	if err != nil {
		httputil.WriteError(w, err)
		return "", false
	}
	return volunteerID, true
}

func enrollmentKey(w http.ResponseWriter, r *http.Request) (id.OpportunityID, id.UserID, bool) {
	oppID, ok := opportunityID(w, r)
	if !ok {
		return id.OpportunityID{}, "", false
	}
	volunteerID, ok := volunteerParam(w, r)
	return oppID, volunteerID, ok
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
