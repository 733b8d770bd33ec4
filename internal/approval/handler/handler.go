package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"veritas/internal/approval"
	dErrors "veritas/pkg/domain-errors"
	"veritas/pkg/platform/httputil"
	"veritas/pkg/requestcontext"
)

// Service defines the dual-control operations the handler delegates to.
type Service interface {
	RecordApproval(ctx context.Context, actionID, approverID string) (approval.Approval, error)
	Authorize(ctx context.Context, req approval.Request, approvals []approval.Approval) (approval.Decision, error)
}

// Handler wires dual-control endpoints to the approval service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts approval endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/approvals", h.HandleRecord)
	r.Post("/approvals/authorize", h.HandleAuthorize)
	r.Get("/approvals/action-types", h.HandleActionTypes)
}

// HandleRecord handles POST /approvals requests.
func (h *Handler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[*RecordRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	approverID := req.ApproverID
	if approverID == "" {
		approverID = string(requestcontext.ActorID(ctx))
	}
	if approverID == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "approver identity required"))
		return
	}

	recorded, err := h.service.RecordApproval(ctx, req.ActionID, approverID)
	if err != nil {
		h.logger.WarnContext(ctx, "approval record failed",
			"request_id", requestID,
			"action_id", req.ActionID,
			"approver_id", approverID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, recorded)
}

// HandleAuthorize handles POST /approvals/authorize requests.
func (h *Handler) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[*AuthorizeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	decision, err := h.service.Authorize(ctx, req.ToRequest(), req.ToApprovals())
	if err != nil {
		h.logger.ErrorContext(ctx, "dual-control authorization failed",
			"request_id", requestID,
			"action_id", req.ActionID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "dual-control decided",
		"request_id", requestID,
		"action_id", req.ActionID,
		"authorized", decision.Authorized,
	)
	httputil.WriteJSON(w, http.StatusOK, decision)
}

// HandleActionTypes handles GET /approvals/action-types requests.
func (h *Handler) HandleActionTypes(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string][]approval.ActionType{
		"actionTypes": approval.DualControlActions(),
	})
}
