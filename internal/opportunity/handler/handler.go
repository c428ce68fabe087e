package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"volunteerhub/internal/access"
	"volunteerhub/internal/opportunity/models"
	id "volunteerhub/pkg/domain"
	"volunteerhub/pkg/platform/httputil"
	"volunteerhub/pkg/requestcontext"
)

type Service interface {
	Create(ctx context.Context, a access.Access, d models.Draft) (*models.Opportunity, error)
	Update(ctx context.Context, a access.Access, oppID id.OpportunityID, d models.Draft) (*models.Opportunity, error)
	Delete(ctx context.Context, a access.Access, oppID id.OpportunityID) error
	SetArchived(ctx context.Context, a access.Access, oppID id.OpportunityID, archived bool) (*models.Opportunity, error)
	UpdateImage(ctx context.Context, a access.Access, oppID id.OpportunityID, imageURL string) (*models.Opportunity, error)
	GetForAdmin(ctx context.Context, a access.Access, oppID id.OpportunityID) (*models.AdminListing, error)
	GetForVolunteer(ctx context.Context, a access.Access, oppID id.OpportunityID) (*models.VolunteerListing, error)
	ListForVolunteer(ctx context.Context, a access.Access) ([]models.VolunteerListing, error)
	ListForAdmin(ctx context.Context, a access.Access) ([]models.AdminListing, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/opportunities", h.HandleList)
	r.Get("/opportunities/{id}", h.HandleGet)

	r.Get("/admin/opportunities", h.HandleListForAdmin)
	r.Post("/admin/opportunities", h.HandleCreate)
	r.Put("/admin/opportunities/{id}", h.HandleUpdate)
	r.Delete("/admin/opportunities/{id}", h.HandleDelete)
	r.Put("/admin/opportunities/{id}/image", h.HandleUpdateImage)
	r.Put("/admin/opportunities/{id}/archive", h.HandleSetArchived)
}

// HandleList answers with the caller's shape of the catalog: admins get pending
// counts over every opportunity, volunteers get their own enrollment per active one.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	a := access.FromContext(ctx)
	if a.IsAdmin() {
		h.HandleListForAdmin(w, r)
		return
	}
	list, err := h.service.ListForVolunteer(ctx, a)
	if err != nil {
		h.fail(ctx, w, "list opportunities failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	oppID, ok := h.opportunityID(w, r)
	if !ok {
		return
	}
	a := access.FromContext(ctx)
	var (
		listing any
		err     error
	)
	if a.IsAdmin() {
		listing, err = h.service.GetForAdmin(ctx, a, oppID)
	} else {
		listing, err = h.service.GetForVolunteer(ctx, a, oppID)
	}
	if err != nil {
		h.fail(ctx, w, "get opportunity failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listing)
}

func (h *Handler) HandleListForAdmin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	list, err := h.service.ListForAdmin(ctx, access.FromContext(ctx))
	if err != nil {
		h.fail(ctx, w, "list opportunities failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[DraftRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	o, err := h.service.Create(ctx, access.FromContext(ctx), req.Draft())
	if err != nil {
		h.fail(ctx, w, "create opportunity failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, o)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	oppID, ok := h.opportunityID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[DraftRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	o, err := h.service.Update(ctx, access.FromContext(ctx), oppID, req.Draft())
	if err != nil {
		h.fail(ctx, w, "update opportunity failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	oppID, ok := h.opportunityID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(ctx, access.FromContext(ctx), oppID); err != nil {
		h.fail(ctx, w, "delete opportunity failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleUpdateImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	oppID, ok := h.opportunityID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ImageRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	o, err := h.service.UpdateImage(ctx, access.FromContext(ctx), oppID, req.ImageURL)
	if err != nil {
		h.fail(ctx, w, "update image failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) HandleSetArchived(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	oppID, ok := h.opportunityID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ArchiveRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	o, err := h.service.SetArchived(ctx, access.FromContext(ctx), oppID, *req.Archived)
	if err != nil {
		h.fail(ctx, w, "archive opportunity failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) opportunityID(w http.ResponseWriter, r *http.Request) (id.OpportunityID, bool) {
	oppID, err := id.ParseOpportunityID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return id.OpportunityID{}, false
	}
	return oppID, true
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
