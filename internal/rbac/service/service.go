package service

import (
	"context"
	"log/slog"
	"strings"

	"veritas/internal/rbac"
	id "veritas/pkg/domain"
	dErrors "veritas/pkg/domain-errors"
	"veritas/pkg/platform/audit"
	"veritas/pkg/requestcontext"
)

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service checks proposed role-inheritance edge sets before they are
// applied. Rejections are reported to the actor and recorded on the
// security audit trail.
type Service struct {
	logger         *slog.Logger
	auditPublisher AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditPublisher = publisher }
}

func New(opts ...Option) *Service {
	s := &Service{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidateGraph runs cycle detection over the proposed edge set. A cycle
// is a business verdict, not an error, but it does leave a security event
// naming the offending path.
func (s *Service) ValidateGraph(ctx context.Context, orgID id.OrgID, edges []rbac.Edge) (rbac.GraphVerdict, error) {
	if orgID == "" {
		return rbac.GraphVerdict{}, dErrors.New(dErrors.CodeInvalidInput, "orgId is required")
	}
	for _, edge := range edges {
		if edge.Parent == "" || edge.Child == "" {
			return rbac.GraphVerdict{}, dErrors.New(dErrors.CodeInvalidInput, "edges must name both parent and child roles")
		}
	}

	verdict := rbac.ValidateAcyclic(edges)
	if !verdict.Valid {
		if s.logger != nil {
			s.logger.WarnContext(ctx, "role graph rejected",
				"org_id", string(orgID),
				"cycle", strings.Join(verdict.Cycle, " -> "),
			)
		}
		s.emitAudit(ctx, audit.Event{
			OrgID:   orgID,
			Subject: "role-graph",
			Action:  string(audit.EventRoleGraphRejected),
			Reason:  "cycle " + strings.Join(verdict.Cycle, " -> "),
		})
	}
	return verdict, nil
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	event.RequestID = requestcontext.RequestID(ctx)
	event.ActorID = string(requestcontext.ActorID(ctx))
	_ = s.auditPublisher.Emit(ctx, event)
}
