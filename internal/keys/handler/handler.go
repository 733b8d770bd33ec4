package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"veritas/internal/keys"
	"veritas/internal/keys/service"
	id "veritas/pkg/domain"
	dErrors "veritas/pkg/domain-errors"
	"veritas/pkg/platform/httputil"
	"veritas/pkg/requestcontext"
)

// Service defines the key governance operations the handler delegates to.
type Service interface {
	RegisterKey(ctx context.Context, key keys.Metadata) (keys.Metadata, error)
	GetKey(ctx context.Context, keyID id.KeyID) (keys.Metadata, error)
	RotateKey(ctx context.Context, req service.RotationRequest) (service.RotationOutcome, error)
	AuditKeyAges(ctx context.Context) (keys.AgeAudit, error)
	RecordDRSimulation(ctx context.Context, result keys.DRSimulationResult) (keys.Artifact, error)
}

// Handler wires key lifecycle endpoints to the keys service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts key lifecycle endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/keys", h.HandleRegister)
	r.Get("/keys/{keyID}", h.HandleGet)
	r.Post("/keys/{keyID}/rotate", h.HandleRotate)
	r.Get("/keys/age-audit", h.HandleAgeAudit)
	r.Post("/keys/dr-simulations", h.HandleDRSimulation)
}

// HandleRegister handles POST /keys requests.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[*RegisterKeyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	key, err := h.service.RegisterKey(ctx, req.ToMetadata())
	if err != nil {
		h.logger.ErrorContext(ctx, "key registration failed",
			"request_id", requestID,
			"key_id", req.KeyID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "key registered",
		"request_id", requestID,
		"key_id", key.KeyID,
		"purpose", key.Purpose,
	)
	httputil.WriteJSON(w, http.StatusCreated, key)
}

// HandleGet handles GET /keys/{keyID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	keyID := chi.URLParam(r, "keyID")
	if keyID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "keyId is required"))
		return
	}

	key, err := h.service.GetKey(ctx, id.KeyID(keyID))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, key)
}

// HandleRotate handles POST /keys/{keyID}/rotate requests.
func (h *Handler) HandleRotate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	keyID := chi.URLParam(r, "keyID")
	if keyID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "keyId is required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[*RotateKeyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	rotatedBy := req.RotatedBy
	if rotatedBy == "" {
		rotatedBy = string(requestcontext.ActorID(ctx))
	}

	outcome, err := h.service.RotateKey(ctx, service.RotationRequest{
		KeyID:     id.KeyID(keyID),
		NewKeyID:  id.KeyID(req.NewKeyID),
		RotatedBy: rotatedBy,
		Approvals: req.ToApprovals(),
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "key rotation failed",
			"request_id", requestID,
			"key_id", keyID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "key rotation decided",
		"request_id", requestID,
		"key_id", keyID,
		"authorized", outcome.Decision.Authorized,
	)
	httputil.WriteJSON(w, http.StatusOK, outcome)
}

// HandleAgeAudit handles GET /keys/age-audit requests.
func (h *Handler) HandleAgeAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	audit, err := h.service.AuditKeyAges(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, audit)
}

// HandleDRSimulation handles POST /keys/dr-simulations requests.
func (h *Handler) HandleDRSimulation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[*DRSimulationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	artifact, err := h.service.RecordDRSimulation(ctx, req.ToResult())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, artifact)
}
