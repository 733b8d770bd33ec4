package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"veritas/internal/legalhold"
	"veritas/internal/legalhold/cache"
	"veritas/internal/platform/metrics"
	id "veritas/pkg/domain"
	dErrors "veritas/pkg/domain-errors"
	"veritas/pkg/platform/audit"
	"veritas/pkg/platform/sentinel"
	pstrings "veritas/pkg/platform/strings"
	"veritas/pkg/requestcontext"
)

type HoldStore interface {
	Create(ctx context.Context, hold legalhold.Hold) error
	Find(ctx context.Context, orgID id.OrgID, holdID id.HoldID) (legalhold.Hold, error)
	Update(ctx context.Context, hold legalhold.Hold) error
	ListByOrg(ctx context.Context, orgID id.OrgID) ([]legalhold.Hold, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service manages litigation holds and gates destructive document
// operations behind them.
type Service struct {
	holds          HoldStore
	cache          *cache.Cache
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

func WithCache(c *cache.Cache) Option {
	return func(s *Service) { s.cache = c }
}

// New constructs a legal hold Service.
func New(holds HoldStore, opts ...Option) *Service {
	s := &Service{holds: holds}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IssueHold creates a hold. The scope must name something: an entirely
// empty scope would freeze nothing and is rejected rather than stored as a
// dead letter.
func (s *Service) IssueHold(ctx context.Context, hold legalhold.Hold) (legalhold.Hold, error) {
	if hold.OrgID == "" {
		return legalhold.Hold{}, dErrors.New(dErrors.CodeInvalidInput, "orgId is required")
	}
	if hold.CaseID == "" {
		return legalhold.Hold{}, dErrors.New(dErrors.CodeInvalidInput, "caseId is required")
	}
	if emptyScope(hold.Scope) {
		return legalhold.Hold{}, dErrors.New(dErrors.CodeInvalidInput, "hold scope must name documents, categories, or a complete date range")
	}
	if (hold.Scope.DateFrom == nil) != (hold.Scope.DateTo == nil) {
		return legalhold.Hold{}, dErrors.New(dErrors.CodeInvalidInput, "date-range scope requires both dateFrom and dateTo")
	}
	hold.Scope.Categories = pstrings.DedupeAndTrim(hold.Scope.Categories)

	hold.HoldID = id.NewHoldID()
	hold.IssuedAt = requestcontext.Now(ctx).UTC()
	hold.ReleasedAt = nil
	if hold.IssuedBy == "" {
		hold.IssuedBy = requestcontext.ActorID(ctx)
	}

	if err := s.holds.Create(ctx, hold); err != nil {
		return legalhold.Hold{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store hold")
	}
	s.cache.Invalidate(ctx, hold.OrgID)

	if err := s.emitAudit(ctx, audit.Event{
		OrgID:   hold.OrgID,
		Subject: hold.HoldID.String(),
		Action:  string(audit.EventHoldIssued),
		Reason:  hold.Reason,
	}); err != nil {
		return legalhold.Hold{}, err
	}
	return hold, nil
}

// ReleaseHold ends a hold. Releasing twice is a conflict.
func (s *Service) ReleaseHold(ctx context.Context, orgID id.OrgID, holdID id.HoldID) (legalhold.Hold, error) {
	hold, err := s.holds.Find(ctx, orgID, holdID)
	if err != nil {
		return legalhold.Hold{}, wrapHoldErr(err)
	}
	now := requestcontext.Now(ctx).UTC()
	if !hold.Active(now) {
		return legalhold.Hold{}, dErrors.New(dErrors.CodeConflict, "hold is already released")
	}

	hold.ReleasedAt = &now
	if err := s.holds.Update(ctx, hold); err != nil {
		return legalhold.Hold{}, wrapHoldErr(err)
	}
	s.cache.Invalidate(ctx, orgID)

	if err := s.emitAudit(ctx, audit.Event{
		OrgID:   orgID,
		Subject: holdID.String(),
		Action:  string(audit.EventHoldReleased),
	}); err != nil {
		return legalhold.Hold{}, err
	}
	return hold, nil
}

// CheckAction evaluates the hold gate for a document operation. Blocked
// verdicts leave a compliance audit event naming the hold.
func (s *Service) CheckAction(ctx context.Context, orgID id.OrgID, documentID id.DocumentID, category string, documentDate time.Time, action legalhold.Action) (legalhold.GateVerdict, error) {
	holds, err := s.loadHolds(ctx, orgID)
	if err != nil {
		return legalhold.GateVerdict{}, err
	}

	now := requestcontext.Now(ctx).UTC()
	verdict := legalhold.IsBlocked(documentID, category, documentDate, action, holds, now)

	if s.metrics != nil {
		outcome := "allowed"
		if verdict.Blocked {
			outcome = "blocked"
		}
		s.metrics.HoldChecks.WithLabelValues(outcome).Inc()
	}

	if verdict.Blocked {
		if s.logger != nil {
			s.logger.InfoContext(ctx, "destructive action blocked by hold",
				"org_id", orgID,
				"document_id", documentID,
				"action", action,
				"hold_id", verdict.HoldID.String(),
			)
		}
		if err := s.emitAudit(ctx, audit.Event{
			OrgID:    orgID,
			Subject:  string(documentID),
			Action:   string(audit.EventHoldBlockedAction),
			Decision: "blocked",
			Reason:   "hold " + verdict.HoldID.String(),
		}); err != nil {
			return legalhold.GateVerdict{}, err
		}
	}
	return verdict, nil
}

// GetHold returns a single hold.
func (s *Service) GetHold(ctx context.Context, orgID id.OrgID, holdID id.HoldID) (legalhold.Hold, error) {
	hold, err := s.holds.Find(ctx, orgID, holdID)
	if err != nil {
		return legalhold.Hold{}, wrapHoldErr(err)
	}
	return hold, nil
}

// ListHolds returns every hold for the organization, released included.
func (s *Service) ListHolds(ctx context.Context, orgID id.OrgID) ([]legalhold.Hold, error) {
	holds, err := s.holds.ListByOrg(ctx, orgID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list holds")
	}
	return holds, nil
}

func (s *Service) loadHolds(ctx context.Context, orgID id.OrgID) ([]legalhold.Hold, error) {
	if holds, ok := s.cache.Get(ctx, orgID); ok {
		return holds, nil
	}
	holds, err := s.holds.ListByOrg(ctx, orgID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list holds")
	}
	s.cache.Set(ctx, orgID, holds)
	return holds, nil
}

func emptyScope(scope legalhold.Scope) bool {
	return len(scope.DocumentIDs) == 0 && len(scope.Categories) == 0 &&
		(scope.DateFrom == nil || scope.DateTo == nil)
}

func wrapHoldErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "hold not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "hold storage failure")
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
