package notify

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"vifm-portal/internal/transport/http/shared"
	dErrors "vifm-portal/pkg/domain-errors"
)

// Handler exposes POST /notify-activity: the external trigger for the
// dispatcher. It verifies a static bearer token, validates the body, and
// answers 200 immediately after queuing.
type Handler struct {
	dispatcher  *Dispatcher
	bearerToken string
	logger      *slog.Logger
}

func NewHandler(dispatcher *Dispatcher, bearerToken string, logger *slog.Logger) *Handler {
	return &Handler{dispatcher: dispatcher, bearerToken: bearerToken, logger: logger}
}

// Register registers the notification routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/notify-activity", h.handleNotifyActivity)
}

type notifyRequest struct {
	RecordKind string            `json:"record_kind"`
	Fields     map[string]string `json:"fields"`
}

func (h *Handler) handleNotifyActivity(w http.ResponseWriter, r *http.Request) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || h.bearerToken == "" ||
		subtle.ConstantTimeCompare([]byte(token), []byte(h.bearerToken)) != 1 {
		shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid bearer token"))
		return
	}

	var req notifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.RecordKind == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "record_kind is required"))
		return
	}
	if len(req.Fields) == 0 {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "fields are required"))
		return
	}

	h.dispatcher.Dispatch(Event{RecordKind: req.RecordKind, Fields: req.Fields})

	shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "queued"})
}
