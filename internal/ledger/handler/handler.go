package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"veritas/internal/ledger"
	"veritas/internal/receipt"
	id "veritas/pkg/domain"
	dErrors "veritas/pkg/domain-errors"
	"veritas/pkg/platform/httputil"
	"veritas/pkg/requestcontext"
)

// Service defines the chain operations the handler delegates to.
type Service interface {
	Append(ctx context.Context, orgID id.OrgID, payload any) (ledger.Entry, error)
	Verify(ctx context.Context, orgID id.OrgID) (ledger.Verdict, error)
	GetChain(ctx context.Context, orgID id.OrgID) ([]ledger.Entry, error)
}

// Handler wires audit chain endpoints to the ledger service.
type Handler struct {
	service  Service
	logger   *slog.Logger
	receipts *receipt.Issuer
}

// New constructs a ledger handler. A nil receipts issuer disables receipt
// minting on verify responses.
func New(service Service, logger *slog.Logger, receipts *receipt.Issuer) *Handler {
	return &Handler{service: service, logger: logger, receipts: receipts}
}

// Register mounts chain endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/ledger/entries", h.HandleAppend)
	r.Get("/ledger/chain", h.HandleGetChain)
	r.Post("/ledger/verify", h.HandleVerify)
}

// VerifyResponse is the chain verdict plus an optional signed receipt.
type VerifyResponse struct {
	ledger.Verdict
	Receipt string `json:"receipt,omitempty"`
}

// HandleAppend handles POST /ledger/entries requests.
func (h *Handler) HandleAppend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	orgID := requestcontext.OrgID(ctx)
	if orgID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "organization identity required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[*AppendRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	entry, err := h.service.Append(ctx, orgID, req.Payload)
	if err != nil {
		h.logger.ErrorContext(ctx, "chain append failed",
			"request_id", requestID,
			"org_id", orgID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "chain entry appended",
		"request_id", requestID,
		"org_id", orgID,
		"seq", entry.Seq,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusCreated, entry)
}

// HandleGetChain handles GET /ledger/chain requests.
func (h *Handler) HandleGetChain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID := requestcontext.OrgID(ctx)
	if orgID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "organization identity required"))
		return
	}

	entries, err := h.service.GetChain(ctx, orgID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}

// HandleVerify handles POST /ledger/verify requests.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	orgID := requestcontext.OrgID(ctx)
	if orgID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "organization identity required"))
		return
	}

	verdict, err := h.service.Verify(ctx, orgID)
	if err != nil {
		h.logger.ErrorContext(ctx, "chain verification failed",
			"request_id", requestID,
			"org_id", orgID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	resp := VerifyResponse{Verdict: verdict}
	if h.receipts != nil {
		token, err := h.receipts.Issue(receipt.Summary{
			OrgID:   orgID,
			Subject: "chain",
			Check:   "chain",
			Valid:   verdict.Valid,
		}, requestcontext.Now(ctx))
		if err == nil {
			resp.Receipt = token
		}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
