package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"veritas/internal/ledger"
	"veritas/internal/platform/metrics"
	id "veritas/pkg/domain"
	dErrors "veritas/pkg/domain-errors"
	"veritas/pkg/platform/audit"
	"veritas/pkg/platform/sentinel"
	"veritas/pkg/requestcontext"
)

// appendRetries bounds how often a lost head race is retried before the
// conflict is surfaced to the caller.
const appendRetries = 3

type ChainStore interface {
	Append(ctx context.Context, entry ledger.Entry) error
	Head(ctx context.Context, orgID id.OrgID) (ledger.Entry, error)
	ListByOrg(ctx context.Context, orgID id.OrgID) ([]ledger.Entry, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// StoreTx runs a function inside a storage transaction so the head read and
// the linked append are atomic.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type passthroughTx struct{}

func (passthroughTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Service orchestrates append and verification of per-organization audit
// chains.
type Service struct {
	chains         ChainStore
	tx             StoreTx
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
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

func WithTx(tx StoreTx) Option {
	return func(s *Service) { s.tx = tx }
}

// New constructs a chain Service.
func New(chains ChainStore, opts ...Option) *Service {
	s := &Service{
		chains: chains,
		tx:     passthroughTx{},
		tracer: otel.Tracer("veritas/ledger"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append links a new entry onto the organization's chain. The head read and
// the insert run in one transaction; a concurrent writer that takes the
// same sequence number triggers a bounded retry with a fresh head.
func (s *Service) Append(ctx context.Context, orgID id.OrgID, payload any) (ledger.Entry, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.Append",
		trace.WithAttributes(attribute.String("org_id", string(orgID))))
	defer span.End()

	if orgID == "" {
		return ledger.Entry{}, dErrors.New(dErrors.CodeInvalidInput, "organization ID is required")
	}

	var entry ledger.Entry
	var err error
	for attempt := 0; attempt < appendRetries; attempt++ {
		entry, err = s.tryAppend(ctx, orgID, payload)
		if err == nil {
			break
		}
		if !errors.Is(err, sentinel.ErrConflict) {
			return ledger.Entry{}, err
		}
	}
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return ledger.Entry{}, dErrors.New(dErrors.CodeConflict, "chain head moved during append")
		}
		return ledger.Entry{}, err
	}

	s.emitAudit(ctx, audit.Event{
		OrgID:   orgID,
		Subject: "chain",
		Action:  string(audit.EventChainEntryAppended),
	})
	if s.metrics != nil {
		s.metrics.ChainEntriesAppended.Inc()
	}
	span.SetAttributes(attribute.Int64("seq", entry.Seq))
	return entry, nil
}

func (s *Service) tryAppend(ctx context.Context, orgID id.OrgID, payload any) (ledger.Entry, error) {
	var entry ledger.Entry
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		seq := int64(0)
		prev := ""
		head, err := s.chains.Head(txCtx, orgID)
		switch {
		case err == nil:
			seq = head.Seq + 1
			prev = head.Hash
		case errors.Is(err, sentinel.ErrNotFound):
			// first entry, genesis
		default:
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load chain head")
		}

		hash, err := ledger.ComputeEntryHash(payload, prev)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInvalidInput, "payload is not canonicalizable")
		}

		entry = ledger.Entry{
			OrgID:        orgID,
			Seq:          seq,
			Hash:         hash,
			PreviousHash: prev,
			Payload:      payload,
			RecordedAt:   requestcontext.Now(txCtx).UTC(),
		}
		if err := s.chains.Append(txCtx, entry); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return err
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append chain entry")
		}
		return nil
	})
	if err != nil {
		return ledger.Entry{}, err
	}
	return entry, nil
}

// Verify replays the organization's full chain and reports a structured
// verdict. A broken chain is an expected outcome, not an error.
func (s *Service) Verify(ctx context.Context, orgID id.OrgID) (ledger.Verdict, error) {
	ctx, span := s.tracer.Start(ctx, "ledger.Verify",
		trace.WithAttributes(attribute.String("org_id", string(orgID))))
	defer span.End()

	entries, err := s.chains.ListByOrg(ctx, orgID)
	if err != nil {
		return ledger.Verdict{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load chain")
	}

	verdict := ledger.VerifyChain(entries)
	span.SetAttributes(attribute.Bool("valid", verdict.Valid))
	if s.metrics != nil {
		s.metrics.ChainVerifications.WithLabelValues(metrics.VerificationResult(verdict.Valid)).Inc()
	}

	if verdict.Valid {
		s.emitAudit(ctx, audit.Event{
			OrgID:    orgID,
			Subject:  "chain",
			Action:   string(audit.EventChainVerified),
			Decision: "valid",
		})
		return verdict, nil
	}

	if s.logger != nil {
		s.logger.WarnContext(ctx, "chain verification failed",
			"org_id", orgID,
			"broken_at", verdict.BrokenAt,
		)
	}
	if err := s.emitAudit(ctx, audit.Event{
		OrgID:    orgID,
		Subject:  "chain",
		Action:   string(audit.EventChainVerificationFailed),
		Decision: "invalid",
	}); err != nil {
		return ledger.Verdict{}, err
	}
	return verdict, nil
}

// GetChain returns the organization's chain in append order.
func (s *Service) GetChain(ctx context.Context, orgID id.OrgID) ([]ledger.Entry, error) {
	entries, err := s.chains.ListByOrg(ctx, orgID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load chain")
	}
	return entries, nil
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
