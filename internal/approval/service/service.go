package service

import (
	"context"
	"errors"
	"log/slog"

	"veritas/internal/approval"
	"veritas/internal/platform/metrics"
	"veritas/internal/vault/keyring"
	dErrors "veritas/pkg/domain-errors"
	"veritas/pkg/platform/audit"
	"veritas/pkg/platform/sentinel"
	"veritas/pkg/requestcontext"
)

type ApprovalStore interface {
	Add(ctx context.Context, a approval.Approval) error
	ListByAction(ctx context.Context, actionID string) ([]approval.Approval, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service records approvals and validates dual control over sensitive
// actions. Approval hashes are bound under a keyring-derived HMAC key so a
// stored approval cannot be edited to cover a different action or approver.
type Service struct {
	approvals      ApprovalStore
	keys           *keyring.Keyring
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs an approval Service.
func New(approvals ApprovalStore, keys *keyring.Keyring, opts ...Option) *Service {
	s := &Service{approvals: approvals, keys: keys}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordApproval binds and stores one approver's attestation over an
// action. A second approval from the same approver for the same action is
// a conflict.
func (s *Service) RecordApproval(ctx context.Context, actionID, approverID string) (approval.Approval, error) {
	if actionID == "" || approverID == "" {
		return approval.Approval{}, dErrors.New(dErrors.CodeInvalidInput, "actionId and approverId are required")
	}

	bindingKey, err := s.keys.BindingKey()
	if err != nil {
		return approval.Approval{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to derive binding key")
	}
	hash, err := approval.ComputeApprovalHash(bindingKey, actionID, approverID)
	if err != nil {
		return approval.Approval{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to bind approval")
	}

	a := approval.Approval{ActionID: actionID, ApproverID: approverID, ApprovalHash: hash}
	if err := s.approvals.Add(ctx, a); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return approval.Approval{}, dErrors.New(dErrors.CodeConflict, "approver has already approved this action")
		}
		return approval.Approval{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store approval")
	}
	return a, nil
}

// Authorize validates dual control for a request. When approvals is nil the
// stored approval set for the action is used. An unauthorized decision is a
// business outcome, not an error, and leaves a security audit event.
func (s *Service) Authorize(ctx context.Context, req approval.Request, approvals []approval.Approval) (approval.Decision, error) {
	if req.ActionID == "" {
		return approval.Decision{}, dErrors.New(dErrors.CodeInvalidInput, "actionId is required")
	}
	if !approval.RequiresDualControl(req.ActionType) {
		return approval.Decision{}, dErrors.Newf(dErrors.CodeInvalidInput, "action type %q is not subject to dual control", req.ActionType)
	}

	if approvals == nil {
		stored, err := s.approvals.ListByAction(ctx, req.ActionID)
		if err != nil {
			return approval.Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load approvals")
		}
		approvals = stored
	}

	bindingKey, err := s.keys.BindingKey()
	if err != nil {
		return approval.Decision{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to derive binding key")
	}

	decision := approval.ValidateDualControl(req, approvals, bindingKey)
	if s.metrics != nil {
		result := "rejected"
		if decision.Authorized {
			result = "authorized"
		}
		s.metrics.ApprovalDecisions.WithLabelValues(result).Inc()
	}

	if decision.Authorized {
		if err := s.emitAudit(ctx, audit.Event{
			Subject:  req.ActionID,
			Action:   string(audit.EventDualControlAuthorized),
			Decision: "authorized",
		}); err != nil {
			return approval.Decision{}, err
		}
		return decision, nil
	}

	if s.logger != nil {
		s.logger.WarnContext(ctx, "dual control rejected",
			"action_id", req.ActionID,
			"action_type", req.ActionType,
			"reason", decision.Reason,
		)
	}
	s.emitAudit(ctx, audit.Event{
		Subject:  req.ActionID,
		Action:   string(audit.EventDualControlRejected),
		Decision: "rejected",
		Reason:   decision.Reason,
	})
	return decision, nil
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) error {
	if s.auditPublisher == nil {
		return nil
	}
	event.RequestID = requestcontext.RequestID(ctx)
	event.ActorID = string(requestcontext.ActorID(ctx))
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "audit trail unavailable")
	}
	return nil
}
