package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"veritas/internal/rbac"
	id "veritas/pkg/domain"
	dErrors "veritas/pkg/domain-errors"
	"veritas/pkg/platform/httputil"
	"veritas/pkg/requestcontext"
)

// Service defines the role graph operations the handler delegates to.
type Service interface {
	ValidateGraph(ctx context.Context, orgID id.OrgID, edges []rbac.Edge) (rbac.GraphVerdict, error)
}

// Handler wires role graph endpoints to the rbac service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts role graph endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/rbac/validate", h.HandleValidate)
}

// HandleValidate handles POST /rbac/validate requests.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	orgID := requestcontext.OrgID(ctx)
	if orgID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "organization identity required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[*ValidateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	verdict, err := h.service.ValidateGraph(ctx, orgID, req.ToEdges())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, verdict)
}
