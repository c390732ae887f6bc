package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"vifm-portal/internal/guard"
	"vifm-portal/internal/profile/models"
	"vifm-portal/internal/profile/store"
	"vifm-portal/internal/transport/http/shared"
	dErrors "vifm-portal/pkg/domain-errors"
	"vifm-portal/pkg/email"
	"vifm-portal/pkg/requestcontext"
)

// Handler exposes profile administration. All routes require the admin
// role; provisioning is a server-side act, never something the guard does.
type Handler struct {
	profiles store.Store
	guard    *guard.Controller
	logger   *slog.Logger
}

func New(profiles store.Store, g *guard.Controller, logger *slog.Logger) *Handler {
	return &Handler{profiles: profiles, guard: g, logger: logger}
}

// Register registers the profile admin routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/profiles", func(r chi.Router) {
		r.Use(h.guard.ProtectAPI(models.RoleAdmin))
		r.Get("/", h.handleList)
		r.Post("/", h.handleCreate)
		r.Delete("/{id}", h.handleDelete)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.profiles.List(r.Context())
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list profiles"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"profiles": profiles})
}

type createRequest struct {
	Email       string      `json:"email"`
	DisplayName string      `json:"display_name"`
	Role        models.Role `json:"role"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Email == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "email is required"))
		return
	}
	if !req.Role.IsValid() {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "role must be consultant, bd, or admin"))
		return
	}
	if existing, err := h.profiles.FindByEmail(r.Context(), req.Email); err == nil && existing != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeConflict, "profile already exists for email"))
		return
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = email.DeriveDisplayName(req.Email)
	}
	prof := &models.Profile{
		ID:          uuid.NewString(),
		Email:       req.Email,
		DisplayName: displayName,
		Role:        req.Role,
		CreatedAt:   requestcontext.Now(r.Context()),
	}
	if err := h.profiles.Save(r.Context(), prof); err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save profile"))
		return
	}
	shared.WriteJSON(w, http.StatusCreated, prof)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.profiles.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
