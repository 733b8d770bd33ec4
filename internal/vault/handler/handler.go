package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"veritas/internal/vault"
	id "veritas/pkg/domain"
	dErrors "veritas/pkg/domain-errors"
	"veritas/pkg/platform/httputil"
	"veritas/pkg/requestcontext"
)

// Service defines the identity vault operations the handler delegates to.
type Service interface {
	StoreIdentity(ctx context.Context, orgID id.OrgID, subjectID string, payload map[string]any, keyID id.KeyID) (vault.StoredRecord, error)
	RetrieveIdentity(ctx context.Context, orgID id.OrgID, subjectID string) (map[string]any, error)
	EraseIdentity(ctx context.Context, orgID id.OrgID, subjectID string) error
}

// Handler wires identity vault endpoints to the vault service. Plaintext
// crosses this boundary only on store and retrieve; list surfaces are
// deliberately absent.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts vault endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Put("/vault/records/{subjectID}", h.HandleStore)
	r.Get("/vault/records/{subjectID}", h.HandleRetrieve)
	r.Delete("/vault/records/{subjectID}", h.HandleErase)
}

// StoreResponse acknowledges an encrypted write without echoing plaintext.
type StoreResponse struct {
	SubjectID string   `json:"subjectId"`
	KeyID     id.KeyID `json:"keyId"`
}

// HandleStore handles PUT /vault/records/{subjectID} requests.
func (h *Handler) HandleStore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	orgID := requestcontext.OrgID(ctx)
	if orgID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "organization identity required"))
		return
	}
	subjectID := chi.URLParam(r, "subjectID")

	req, ok := httputil.DecodeAndPrepare[*StoreRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	stored, err := h.service.StoreIdentity(ctx, orgID, subjectID, req.Payload, id.KeyID(req.KeyID))
	if err != nil {
		h.logger.ErrorContext(ctx, "identity store failed",
			"request_id", requestID,
			"org_id", orgID,
			"subject_id", subjectID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, StoreResponse{
		SubjectID: stored.SubjectID,
		KeyID:     stored.Record.KeyID,
	})
}

// HandleRetrieve handles GET /vault/records/{subjectID} requests.
func (h *Handler) HandleRetrieve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	orgID := requestcontext.OrgID(ctx)
	if orgID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "organization identity required"))
		return
	}
	subjectID := chi.URLParam(r, "subjectID")

	payload, err := h.service.RetrieveIdentity(ctx, orgID, subjectID)
	if err != nil {
		h.logger.WarnContext(ctx, "identity retrieval failed",
			"request_id", requestID,
			"org_id", orgID,
			"subject_id", subjectID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, payload)
}

// HandleErase handles DELETE /vault/records/{subjectID} requests.
func (h *Handler) HandleErase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID := requestcontext.OrgID(ctx)
	if orgID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "organization identity required"))
		return
	}
	subjectID := chi.URLParam(r, "subjectID")

	if err := h.service.EraseIdentity(ctx, orgID, subjectID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
