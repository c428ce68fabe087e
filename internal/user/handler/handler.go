package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"volunteerhub/internal/access"
	"volunteerhub/internal/user/models"
	"volunteerhub/pkg/platform/httputil"
	"volunteerhub/pkg/requestcontext"
)

type Service interface {
	Role(ctx context.Context, a access.Access) (*models.Role, error)
	GetProfile(ctx context.Context, a access.Access) (*models.Profile, error)
	CreateProfile(ctx context.Context, a access.Access, ident models.Identity, details models.Details) (*models.Profile, error)
	UpdateProfile(ctx context.Context, a access.Access, details models.Details) (*models.Profile, error)
	ListVolunteers(ctx context.Context, a access.Access) ([]*models.Profile, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts role, profile and volunteer listing routes. The router must
// already run the access middleware.
func (h *Handler) Register(r chi.Router) {
	r.Get("/role", h.HandleRole)
	r.Get("/profile", h.HandleGetProfile)
	r.Post("/profile", h.HandleCreateProfile)
	r.Put("/profile", h.HandleUpdateProfile)
	r.Get("/admin/volunteers", h.HandleListVolunteers)
}

type roleResponse struct {
	Role *models.Role `json:"role"`
}

// HandleRole answers GET /role. A volunteer still onboarding gets a null role.
func (h *Handler) HandleRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	role, err := h.service.Role(ctx, access.FromContext(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, roleResponse{Role: role})
}

func (h *Handler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profile, err := h.service.GetProfile(ctx, access.FromContext(ctx))
	if err != nil {
		h.writeFailure(ctx, w, "get profile failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toProfileResponse(profile))
}

func (h *Handler) HandleCreateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateProfileRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	profile, err := h.service.CreateProfile(ctx, access.FromContext(ctx), req.Identity(), req.Details())
	if err != nil {
		h.writeFailure(ctx, w, "create profile failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toProfileResponse(profile))
}

func (h *Handler) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[DetailsRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	profile, err := h.service.UpdateProfile(ctx, access.FromContext(ctx), req.Details())
	if err != nil {
		h.writeFailure(ctx, w, "update profile failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toProfileResponse(profile))
}

func (h *Handler) HandleListVolunteers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	profiles, err := h.service.ListVolunteers(ctx, access.FromContext(ctx))
	if err != nil {
		h.writeFailure(ctx, w, "list volunteers failed", err)
		return
	}
	out := make([]ProfileResponse, len(profiles))
	for i, p := range profiles {
		out[i] = toProfileResponse(p)
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) writeFailure(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
