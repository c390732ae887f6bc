package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vifm-portal/internal/platform/middleware"
	"vifm-portal/internal/status"
	"vifm-portal/internal/transport/http/shared"
)

// Registrar is anything that mounts routes on the shared router.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter assembles the portal's HTTP surface: pages, the JSON API, and
// the operational endpoints, all behind the common middleware chain.
func NewRouter(logger *slog.Logger, checker *status.Checker, registrars ...Registrar) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", handleHealth(checker))

	r.Group(func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		for _, registrar := range registrars {
			registrar.Register(r)
		}
	})

	return r
}

func handleHealth(checker *status.Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker == nil {
			shared.WriteJSON(w, http.StatusOK, map[string]any{"status": "ok"})
			return
		}
		payload := map[string]any{
			"status":       "ok",
			"dependencies": checker.Snapshot(),
		}
		code := http.StatusOK
		if !checker.Healthy() {
			payload["status"] = "degraded"
			code = http.StatusServiceUnavailable
		}
		shared.WriteJSON(w, code, payload)
	}
}
