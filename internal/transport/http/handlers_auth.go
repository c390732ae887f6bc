package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"vifm-portal/internal/auth"
	"vifm-portal/internal/guard"
	"vifm-portal/internal/transport/http/shared"
	dErrors "vifm-portal/pkg/domain-errors"
)

// AuthHandler exposes sign-in and sign-out. The session travels as an
// HttpOnly cookie for pages and doubles as a bearer token for the API.
type AuthHandler struct {
	service  *auth.Service
	accessor *auth.Accessor
	ttl      time.Duration
	logger   *slog.Logger
}

func NewAuthHandler(service *auth.Service, accessor *auth.Accessor, ttl time.Duration, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: service, accessor: accessor, ttl: ttl, logger: logger}
}

// Register registers the auth routes with the chi router.
func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/auth/sign-in", h.handleSignIn)
	r.Post("/auth/sign-out", h.handleSignOut)
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Email == "" || req.Password == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "email and password are required"))
		return
	}

	token, sess, err := h.service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     guard.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"expires_at": sess.ExpiresAt,
		"profile":    sess.Profile,
	})
}

func (h *AuthHandler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	rawToken := ""
	if cookie, err := r.Cookie(guard.SessionCookie); err == nil {
		rawToken = cookie.Value
	}
	sess := h.accessor.Current(r.Context(), rawToken)
	h.service.SignOut(r.Context(), rawToken, sess)

	http.SetCookie(w, &http.Cookie{
		Name:     guard.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}
