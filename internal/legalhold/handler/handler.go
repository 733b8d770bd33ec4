package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"veritas/internal/legalhold"
	id "veritas/pkg/domain"
	dErrors "veritas/pkg/domain-errors"
	"veritas/pkg/platform/httputil"
	"veritas/pkg/requestcontext"
)

// Service defines the litigation hold operations the handler delegates to.
type Service interface {
	IssueHold(ctx context.Context, hold legalhold.Hold) (legalhold.Hold, error)
	ReleaseHold(ctx context.Context, orgID id.OrgID, holdID id.HoldID) (legalhold.Hold, error)
	CheckAction(ctx context.Context, orgID id.OrgID, documentID id.DocumentID, category string, documentDate time.Time, action legalhold.Action) (legalhold.GateVerdict, error)
	GetHold(ctx context.Context, orgID id.OrgID, holdID id.HoldID) (legalhold.Hold, error)
	ListHolds(ctx context.Context, orgID id.OrgID) ([]legalhold.Hold, error)
}

// Handler wires litigation hold endpoints to the legalhold service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts hold endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/holds", h.HandleIssue)
	r.Get("/holds", h.HandleList)
	r.Get("/holds/{holdID}", h.HandleGet)
	r.Post("/holds/{holdID}/release", h.HandleRelease)
	r.Post("/holds/check", h.HandleCheck)
}

// HandleIssue handles POST /holds requests.
func (h *Handler) HandleIssue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	orgID := requestcontext.OrgID(ctx)
	if orgID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "organization identity required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[*IssueHoldRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	hold, err := h.service.IssueHold(ctx, req.ToHold(orgID))
	if err != nil {
		h.logger.ErrorContext(ctx, "hold issue failed",
			"request_id", requestID,
			"org_id", orgID,
			"case_id", req.CaseID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "hold issued",
		"request_id", requestID,
		"org_id", orgID,
		"hold_id", hold.HoldID,
		"case_id", hold.CaseID,
	)
	httputil.WriteJSON(w, http.StatusCreated, hold)
}

// HandleList handles GET /holds requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID := requestcontext.OrgID(ctx)
	if orgID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "organization identity required"))
		return
	}

	holds, err := h.service.ListHolds(ctx, orgID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, holds)
}

// HandleGet handles GET /holds/{holdID} requests.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orgID := requestcontext.OrgID(ctx)
	if orgID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "organization identity required"))
		return
	}

	holdID, err := id.ParseHoldID(chi.URLParam(r, "holdID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	hold, err := h.service.GetHold(ctx, orgID, holdID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, hold)
}

// HandleRelease handles POST /holds/{holdID}/release requests.
func (h *Handler) HandleRelease(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	orgID := requestcontext.OrgID(ctx)
	if orgID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "organization identity required"))
		return
	}

	holdID, err := id.ParseHoldID(chi.URLParam(r, "holdID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	hold, err := h.service.ReleaseHold(ctx, orgID, holdID)
	if err != nil {
		h.logger.WarnContext(ctx, "hold release failed",
			"request_id", requestID,
			"org_id", orgID,
			"hold_id", holdID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "hold released",
		"request_id", requestID,
		"org_id", orgID,
		"hold_id", holdID,
	)
	httputil.WriteJSON(w, http.StatusOK, hold)
}

// HandleCheck handles POST /holds/check requests.
func (h *Handler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	orgID := requestcontext.OrgID(ctx)
	if orgID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "organization identity required"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[*CheckRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	verdict, err := h.service.CheckAction(ctx, orgID,
		id.DocumentID(req.DocumentID), req.Category, req.DocumentDate, legalhold.Action(req.Action))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, verdict)
}
