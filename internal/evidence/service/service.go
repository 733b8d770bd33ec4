package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"veritas/internal/evidence"
	"veritas/internal/platform/metrics"
	"veritas/internal/vault/keyring"
	id "veritas/pkg/domain"
	dErrors "veritas/pkg/domain-errors"
	"veritas/pkg/platform/audit"
	"veritas/pkg/platform/sentinel"
	"veritas/pkg/requestcontext"
)

type PackStore interface {
	Create(ctx context.Context, pack evidence.StoredPack) error
	Find(ctx context.Context, orgID id.OrgID, packID id.PackID) (evidence.StoredPack, error)
	AttachSeal(ctx context.Context, orgID id.OrgID, packID id.PackID, seal evidence.Envelope) error
	ListByOrg(ctx context.Context, orgID id.OrgID) ([]evidence.StoredPack, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates pack intake, sealing, and verification.
type Service struct {
	packs          PackStore
	keys           *keyring.Keyring
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

// New constructs an evidence Service. The keyring supplies HMAC seal keys;
// a nil keyring produces unsigned seals only.
func New(packs PackStore, keys *keyring.Keyring, opts ...Option) *Service {
	s := &Service{
		packs:  packs,
		keys:   keys,
		tracer: otel.Tracer("veritas/evidence"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreatePack records an unsealed pack and assigns its storage identifier.
func (s *Service) CreatePack(ctx context.Context, pack evidence.Pack) (evidence.StoredPack, error) {
	if err := validatePack(pack); err != nil {
		return evidence.StoredPack{}, err
	}
	pack.Seal = nil
	pack.GeneratedAt = pack.GeneratedAt.UTC()

	stored := evidence.StoredPack{ID: id.NewPackID(), Pack: pack}
	if err := s.packs.Create(ctx, stored); err != nil {
		return evidence.StoredPack{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store pack")
	}
	return stored, nil
}

// SealPack generates and attaches the seal envelope. When keyID is set the
// seal is signed with the derived HMAC key; sealing is write-once.
func (s *Service) SealPack(ctx context.Context, orgID id.OrgID, packID id.PackID, keyID id.KeyID) (evidence.Envelope, error) {
	ctx, span := s.tracer.Start(ctx, "evidence.SealPack",
		trace.WithAttributes(attribute.String("pack_id", packID.String())))
	defer span.End()

	stored, err := s.packs.Find(ctx, orgID, packID)
	if err != nil {
		return evidence.Envelope{}, wrapPackErr(err)
	}
	if stored.Pack.Seal != nil {
		return evidence.Envelope{}, dErrors.New(dErrors.CodeConflict, "pack is already sealed")
	}

	opts := evidence.SealOptions{SealedAt: requestcontext.Now(ctx).UTC()}
	if keyID != "" {
		if s.keys == nil {
			return evidence.Envelope{}, dErrors.New(dErrors.CodeInvalidInput, "no keyring configured for signed seals")
		}
		key, err := s.keys.SealKey(keyID)
		if err != nil {
			return evidence.Envelope{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to derive seal key")
		}
		opts.HMACKey = key
		opts.KeyID = keyID
	}

	seal, err := evidence.GenerateSeal(stored.Pack, opts)
	if err != nil {
		return evidence.Envelope{}, err
	}
	if err := s.packs.AttachSeal(ctx, orgID, packID, seal); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return evidence.Envelope{}, dErrors.New(dErrors.CodeConflict, "pack is already sealed")
		}
		return evidence.Envelope{}, wrapPackErr(err)
	}

	if err := s.emitAudit(ctx, audit.Event{
		OrgID:   orgID,
		Subject: packID.String(),
		Action:  string(audit.EventPackSealed),
	}); err != nil {
		return evidence.Envelope{}, err
	}
	if s.metrics != nil {
		s.metrics.SealsGenerated.Inc()
	}
	return seal, nil
}

// VerifyPack recomputes the stored pack's digest and Merkle root against
// its seal and reports a structured verdict. Tampering is a verdict, not
// an error.
func (s *Service) VerifyPack(ctx context.Context, orgID id.OrgID, packID id.PackID) (evidence.SealVerdict, error) {
	ctx, span := s.tracer.Start(ctx, "evidence.VerifyPack",
		trace.WithAttributes(attribute.String("pack_id", packID.String())))
	defer span.End()

	stored, err := s.packs.Find(ctx, orgID, packID)
	if err != nil {
		return evidence.SealVerdict{}, wrapPackErr(err)
	}

	var hmacKey []byte
	if stored.Pack.Seal != nil && stored.Pack.Seal.HMACKeyID != "" && s.keys != nil {
		hmacKey, err = s.keys.SealKey(stored.Pack.Seal.HMACKeyID)
		if err != nil {
			return evidence.SealVerdict{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to derive seal key")
		}
	}

	verdict := evidence.VerifySeal(stored.Pack, hmacKey)
	span.SetAttributes(attribute.Bool("valid", verdict.Valid))
	if s.metrics != nil {
		s.metrics.SealVerifications.WithLabelValues(metrics.VerificationResult(verdict.Valid)).Inc()
	}

	if verdict.Valid {
		s.emitAudit(ctx, audit.Event{
			OrgID:    orgID,
			Subject:  packID.String(),
			Action:   string(audit.EventSealVerified),
			Decision: "valid",
		})
		return verdict, nil
	}

	if s.logger != nil {
		s.logger.WarnContext(ctx, "seal verification failed",
			"org_id", orgID,
			"pack_id", packID.String(),
			"errors", strings.Join(verdict.Errors, "; "),
		)
	}
	if err := s.emitAudit(ctx, audit.Event{
		OrgID:    orgID,
		Subject:  packID.String(),
		Action:   string(audit.EventSealVerificationFailed),
		Decision: "invalid",
		Reason:   strings.Join(verdict.Errors, "; "),
	}); err != nil {
		return evidence.SealVerdict{}, err
	}
	return verdict, nil
}

// GetPack returns a stored pack.
func (s *Service) GetPack(ctx context.Context, orgID id.OrgID, packID id.PackID) (evidence.StoredPack, error) {
	stored, err := s.packs.Find(ctx, orgID, packID)
	if err != nil {
		return evidence.StoredPack{}, wrapPackErr(err)
	}
	return stored, nil
}

func validatePack(pack evidence.Pack) error {
	switch {
	case pack.OrgID == "":
		return dErrors.New(dErrors.CodeInvalidInput, "orgId is required")
	case pack.EventType == "":
		return dErrors.New(dErrors.CodeInvalidInput, "eventType is required")
	case pack.GeneratedAt.IsZero():
		return dErrors.New(dErrors.CodeInvalidInput, "generatedAt is required")
	}
	for _, artifact := range pack.Artifacts {
		if len(artifact.SHA256) != 64 {
			return dErrors.Newf(dErrors.CodeInvalidInput, "artifact %q has a malformed sha256", artifact.Name)
		}
	}
	return nil
}

func wrapPackErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "pack not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "pack storage failure")
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
