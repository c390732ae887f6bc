package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vifm-portal/internal/guard"
	profileModel "vifm-portal/internal/profile/models"
	"vifm-portal/internal/records/models"
	"vifm-portal/internal/transport/http/shared"
	dErrors "vifm-portal/pkg/domain-errors"
)

// Service defines the record operations the handler needs.
type Service interface {
	ListOpportunities(ctx context.Context) ([]*models.Opportunity, error)
	GetOpportunity(ctx context.Context, id string) (*models.Opportunity, error)
	CreateOpportunity(ctx context.Context, opp *models.Opportunity) (*models.Opportunity, error)
	UpdateOpportunity(ctx context.Context, opp *models.Opportunity) error
	DeleteOpportunity(ctx context.Context, id string) error
	ListPipeline(ctx context.Context, opportunityID string) ([]*models.PipelineEntry, error)
	CreatePipelineEntry(ctx context.Context, entry *models.PipelineEntry) (*models.PipelineEntry, error)
}

// Handler exposes the record CRUD API. Read access requires any
// authenticated profile; writes require the bd role (admin bypasses via
// the evaluator).
type Handler struct {
	records Service
	guard   *guard.Controller
	logger  *slog.Logger
}

func New(records Service, g *guard.Controller, logger *slog.Logger) *Handler {
	return &Handler{records: records, guard: g, logger: logger}
}

// Register registers the record routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/opportunities", func(r chi.Router) {
		r.With(h.guard.ProtectAPI(profileModel.RoleNone)).Get("/", h.handleList)
		r.With(h.guard.ProtectAPI(profileModel.RoleNone)).Get("/{id}", h.handleGet)
		r.With(h.guard.ProtectAPI(profileModel.RoleNone)).Get("/{id}/pipeline", h.handleListPipeline)
		r.With(h.guard.ProtectAPI(profileModel.RoleBD)).Post("/", h.handleCreate)
		r.With(h.guard.ProtectAPI(profileModel.RoleBD)).Put("/{id}", h.handleUpdate)
		r.With(h.guard.ProtectAPI(profileModel.RoleBD)).Delete("/{id}", h.handleDelete)
		r.With(h.guard.ProtectAPI(profileModel.RoleBD)).Post("/{id}/pipeline", h.handleCreatePipeline)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	opps, err := h.records.ListOpportunities(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"opportunities": opps})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	opp, err := h.records.GetOpportunity(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, opp)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var opp models.Opportunity
	if err := json.NewDecoder(r.Body).Decode(&opp); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if opp.Owner == "" {
		if sess := guard.SessionFromContext(r.Context()); sess != nil {
			opp.Owner = sess.Email
		}
	}
	created, err := h.records.CreateOpportunity(r.Context(), &opp)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var opp models.Opportunity
	if err := json.NewDecoder(r.Body).Decode(&opp); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	opp.ID = chi.URLParam(r, "id")
	if err := h.records.UpdateOpportunity(r.Context(), &opp); err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, opp)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.records.DeleteOpportunity(r.Context(), chi.URLParam(r, "id")); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListPipeline(w http.ResponseWriter, r *http.Request) {
	entries, err := h.records.ListPipeline(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (h *Handler) handleCreatePipeline(w http.ResponseWriter, r *http.Request) {
	var entry models.PipelineEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	entry.OpportunityID = chi.URLParam(r, "id")
	if entry.UpdatedBy == "" {
		if sess := guard.SessionFromContext(r.Context()); sess != nil {
			entry.UpdatedBy = sess.Email
		}
	}
	created, err := h.records.CreatePipelineEntry(r.Context(), &entry)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, created)
}
