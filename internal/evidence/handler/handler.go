package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"veritas/internal/evidence"
	"veritas/internal/receipt"
	id "veritas/pkg/domain"
	dErrors "veritas/pkg/domain-errors"
	"veritas/pkg/platform/httputil"
	"veritas/pkg/requestcontext"
)

// Service defines the evidence pack operations the handler delegates to.
type Service interface {
	CreatePack(ctx context.Context, pack evidence.Pack) (evidence.StoredPack, error)
	SealPack(ctx context.Context, orgID id.OrgID, packID id.PackID, keyID id.KeyID) (evidence.Envelope, error)
	VerifyPack(ctx context.Context, orgID id.OrgID, packID id.PackID) (evidence.SealVerdict, error)
	GetPack(ctx context.Context, orgID id.OrgID, packID id.PackID) (evidence.StoredPack, error)
}

// Handler wires evidence pack endpoints to the evidence service.
type Handler struct {
	service  Service
	logger   *slog.Logger
	receipts *receipt.Issuer
}

func New(service Service, logger *slog.Logger, receipts *receipt.Issuer) *Handler {
	return &Handler{service: service, logger: logger, receipts: receipts}
}

// Register mounts evidence endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/evidence/packs", h.HandleCreatePack)
	r.Get("/evidence/packs/{packID}", h.HandleGetPack)
	r.Post("/evidence/packs/{packID}/seal", h.HandleSealPack)
	r.Post("/evidence/packs/{packID}/verify", h.HandleVerifyPack)
}

// VerifyResponse is the seal verdict plus an optional signed receipt.
type VerifyResponse struct {
	evidence.SealVerdict
	Receipt string `json:"receipt,omitempty"`
}

// HandleCreatePack handles POST /evidence/packs requests.
func (h *Handler) HandleCreatePack(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	orgID := requestcontext.OrgID(ctx)
	if orgID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "organization identity required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[*CreatePackRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	stored, err := h.service.CreatePack(ctx, req.ToPack(orgID))
	if err != nil {
		h.logger.ErrorContext(ctx, "pack creation failed",
			"request_id", requestID,
			"org_id", orgID,
			"event_type", req.EventType,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "pack created",
		"request_id", requestID,
		"org_id", orgID,
		"pack_id", stored.ID,
		"artifacts", len(stored.Pack.Artifacts),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, stored)
}

// HandleGetPack handles GET /evidence/packs/{packID} requests.
func (h *Handler) HandleGetPack(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID := requestcontext.OrgID(ctx)
	if orgID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "organization identity required"))
		return
	}

	packID, err := id.ParsePackID(chi.URLParam(r, "packID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	stored, err := h.service.GetPack(ctx, orgID, packID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stored)
}

// HandleSealPack handles POST /evidence/packs/{packID}/seal requests.
func (h *Handler) HandleSealPack(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	orgID := requestcontext.OrgID(ctx)
	if orgID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "organization identity required"))
		return
	}

	packID, err := id.ParsePackID(chi.URLParam(r, "packID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[*SealPackRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	envelope, err := h.service.SealPack(ctx, orgID, packID, id.KeyID(req.KeyID))
	if err != nil {
		h.logger.ErrorContext(ctx, "pack sealing failed",
			"request_id", requestID,
			"org_id", orgID,
			"pack_id", packID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "pack sealed",
		"request_id", requestID,
		"org_id", orgID,
		"pack_id", packID,
		"signed", envelope.HMACSignature != "",
	)
	httputil.WriteJSON(w, http.StatusOK, envelope)
}

// HandleVerifyPack handles POST /evidence/packs/{packID}/verify requests.
func (h *Handler) HandleVerifyPack(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	orgID := requestcontext.OrgID(ctx)
	if orgID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "organization identity required"))
		return
	}

	packID, err := id.ParsePackID(chi.URLParam(r, "packID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	verdict, err := h.service.VerifyPack(ctx, orgID, packID)
	if err != nil {
		h.logger.ErrorContext(ctx, "pack verification failed",
			"request_id", requestID,
			"org_id", orgID,
			"pack_id", packID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	resp := VerifyResponse{SealVerdict: verdict}
	if h.receipts != nil {
		token, err := h.receipts.Issue(receipt.Summary{
			OrgID:   orgID,
			Subject: packID.String(),
			Check:   "seal",
			Valid:   verdict.Valid,
		}, requestcontext.Now(ctx))
		if err == nil {
			resp.Receipt = token
		}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
