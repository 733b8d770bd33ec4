// Package httptransport assembles the HTTP surface: shared middleware,
// health and metrics endpoints, and every domain handler mounted under
// /v1. Handlers stay thin; business logic lives in the domain services.
package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"veritas/pkg/platform/httputil"
	"veritas/pkg/platform/middleware/identity"
	"veritas/pkg/platform/middleware/requestid"
	"veritas/pkg/platform/middleware/requesttime"
)

// Registrar is implemented by every domain handler.
type Registrar interface {
	Register(r chi.Router)
}

// NewRouter wires middleware and mounts all registered handlers.
func NewRouter(registrars ...Registrar) http.Handler {
	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(identity.Middleware)

	r.Get("/healthz", handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		for _, registrar := range registrars {
			registrar.Register(r)
		}
	})
	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
