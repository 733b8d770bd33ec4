package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"veritas/internal/docs"
	"veritas/internal/docs/service"
	"veritas/internal/receipt"
	id "veritas/pkg/domain"
	dErrors "veritas/pkg/domain-errors"
	"veritas/pkg/platform/httputil"
	"veritas/pkg/requestcontext"
)

// Service defines the document chain operations the handler delegates to.
type Service interface {
	RecordVersion(ctx context.Context, req service.RecordRequest) (docs.Version, error)
	VerifyHistory(ctx context.Context, orgID id.OrgID, documentID id.DocumentID) (docs.ChainVerdict, error)
	GetHistory(ctx context.Context, orgID id.OrgID, documentID id.DocumentID) ([]docs.Version, error)
	DeleteDocument(ctx context.Context, orgID id.OrgID, documentID id.DocumentID) error
}

// Handler wires document version endpoints to the docs service.
type Handler struct {
	service  Service
	logger   *slog.Logger
	receipts *receipt.Issuer
}

func New(service Service, logger *slog.Logger, receipts *receipt.Issuer) *Handler {
	return &Handler{service: service, logger: logger, receipts: receipts}
}

// Register mounts document endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/documents/{documentID}/versions", h.HandleRecordVersion)
	r.Get("/documents/{documentID}/versions", h.HandleGetHistory)
	r.Post("/documents/{documentID}/verify", h.HandleVerify)
	r.Delete("/documents/{documentID}", h.HandleDelete)
}

// VerifyResponse is the document chain verdict plus an optional receipt.
type VerifyResponse struct {
	docs.ChainVerdict
	Receipt string `json:"receipt,omitempty"`
}

// HandleRecordVersion handles POST /documents/{documentID}/versions requests.
func (h *Handler) HandleRecordVersion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	orgID := requestcontext.OrgID(ctx)
	if orgID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "organization identity required"))
		return
	}
	documentID := chi.URLParam(r, "documentID")

	req, ok := httputil.DecodeAndPrepare[*RecordVersionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	version, err := h.service.RecordVersion(ctx, service.RecordRequest{
		OrgID:      orgID,
		DocumentID: id.DocumentID(documentID),
		Category:   req.Category,
		Content:    req.Content,
		AuthorID:   id.ActorID(req.AuthorID),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "version record failed",
			"request_id", requestID,
			"org_id", orgID,
			"document_id", documentID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "version recorded",
		"request_id", requestID,
		"org_id", orgID,
		"document_id", documentID,
		"version", version.Version,
	)
	httputil.WriteJSON(w, http.StatusCreated, version)
}

// HandleGetHistory handles GET /documents/{documentID}/versions requests.
func (h *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID := requestcontext.OrgID(ctx)
	if orgID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "organization identity required"))
		return
	}

	history, err := h.service.GetHistory(ctx, orgID, id.DocumentID(chi.URLParam(r, "documentID")))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, history)
}

// HandleVerify handles POST /documents/{documentID}/verify requests.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID := requestcontext.OrgID(ctx)
	if orgID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "organization identity required"))
		return
	}
	documentID := chi.URLParam(r, "documentID")

	verdict, err := h.service.VerifyHistory(ctx, orgID, id.DocumentID(documentID))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := VerifyResponse{ChainVerdict: verdict}
	if h.receipts != nil {
		token, err := h.receipts.Issue(receipt.Summary{
			OrgID:   orgID,
			Subject: documentID,
			Check:   "document",
			Valid:   verdict.Valid,
		}, requestcontext.Now(ctx))
		if err == nil {
			resp.Receipt = token
		}
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleDelete handles DELETE /documents/{documentID} requests.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	orgID := requestcontext.OrgID(ctx)
	if orgID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "organization identity required"))
		return
	}
	documentID := chi.URLParam(r, "documentID")

	if err := h.service.DeleteDocument(ctx, orgID, id.DocumentID(documentID)); err != nil {
		h.logger.WarnContext(ctx, "document deletion refused",
			"request_id", requestID,
			"org_id", orgID,
			"document_id", documentID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
