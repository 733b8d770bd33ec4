package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"veritas/internal/approval"
	"veritas/internal/keys"
	"veritas/internal/platform/metrics"
	id "veritas/pkg/domain"
	dErrors "veritas/pkg/domain-errors"
	"veritas/pkg/platform/audit"
	"veritas/pkg/platform/sentinel"
	"veritas/pkg/requestcontext"
)

type KeyStore interface {
	Create(ctx context.Context, key keys.Metadata) error
	Find(ctx context.Context, keyID id.KeyID) (keys.Metadata, error)
	Update(ctx context.Context, key keys.Metadata) error
	List(ctx context.Context) ([]keys.Metadata, error)
}

// Authorizer validates a dual-control approval set. Key rotation is one of
// the declared dual-control actions and never executes without it.
type Authorizer interface {
	Authorize(ctx context.Context, req approval.Request, approvals []approval.Approval) (approval.Decision, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// RotationRequest carries everything a rotation needs, including the
// independent approvals gating it.
type RotationRequest struct {
	KeyID     id.KeyID
	NewKeyID  id.KeyID
	RotatedBy string
	Approvals []approval.Approval
}

// RotationOutcome is the result of a rotation attempt. An unauthorized
// decision is a business outcome: Decision explains it and the key is
// untouched.
type RotationOutcome struct {
	Decision approval.Decision `json:"decision"`
	NewKey   keys.Metadata     `json:"newKey,omitempty"`
	Artifact keys.Artifact     `json:"artifact,omitempty"`
}

// Service governs the managed-key inventory: registration, dual-controlled
// rotation, age audits, and DR drill artifacts.
type Service struct {
	keys           KeyStore
	authorizer     Authorizer
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

// New constructs a key governance Service. The authorizer is required;
// rotation fails closed without one.
func New(store KeyStore, authorizer Authorizer, opts ...Option) *Service {
	s := &Service{keys: store, authorizer: authorizer}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterKey adds a key to the inventory.
func (s *Service) RegisterKey(ctx context.Context, key keys.Metadata) (keys.Metadata, error) {
	if key.KeyID == "" {
		return keys.Metadata{}, dErrors.New(dErrors.CodeInvalidInput, "keyId is required")
	}
	if key.Purpose == "" {
		return keys.Metadata{}, dErrors.New(dErrors.CodeInvalidInput, "purpose is required")
	}
	if key.CreatedAt.IsZero() {
		key.CreatedAt = requestcontext.Now(ctx).UTC()
	}
	if key.Status == "" {
		key.Status = keys.StatusActive
	}

	if err := s.keys.Create(ctx, key); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return keys.Metadata{}, dErrors.Newf(dErrors.CodeConflict, "key %q already registered", key.KeyID)
		}
		return keys.Metadata{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register key")
	}
	return key, nil
}

// GetKey returns a key's metadata.
func (s *Service) GetKey(ctx context.Context, keyID id.KeyID) (keys.Metadata, error) {
	key, err := s.keys.Find(ctx, keyID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return keys.Metadata{}, dErrors.New(dErrors.CodeNotFound, "key not found")
		}
		return keys.Metadata{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load key")
	}
	return key, nil
}

// RotateKey retires the old key and activates its successor, gated by
// dual-control authorization. The returned artifact is the deterministic
// rotation record.
func (s *Service) RotateKey(ctx context.Context, req RotationRequest) (RotationOutcome, error) {
	if req.KeyID == "" || req.NewKeyID == "" || req.RotatedBy == "" {
		return RotationOutcome{}, dErrors.New(dErrors.CodeInvalidInput, "keyId, newKeyId, and rotatedBy are required")
	}
	if s.authorizer == nil {
		return RotationOutcome{}, dErrors.New(dErrors.CodeForbidden, "key rotation requires a dual-control authorizer")
	}

	old, err := s.GetKey(ctx, req.KeyID)
	if err != nil {
		return RotationOutcome{}, err
	}
	if old.Status == keys.StatusRetired {
		return RotationOutcome{}, dErrors.New(dErrors.CodeConflict, "key is already retired")
	}

	decision, err := s.authorizer.Authorize(ctx, approval.Request{
		ActionID:    rotationActionID(req.KeyID, req.NewKeyID),
		ActionType:  approval.ActionKeyRotation,
		EntityID:    string(req.KeyID),
		RequestedBy: req.RotatedBy,
	}, req.Approvals)
	if err != nil {
		return RotationOutcome{}, err
	}
	if !decision.Authorized {
		return RotationOutcome{Decision: decision}, nil
	}

	now := requestcontext.Now(ctx).UTC()
	newKey := keys.Metadata{
		KeyID:         req.NewKeyID,
		Purpose:       old.Purpose,
		Algorithm:     old.Algorithm,
		CreatedAt:     now,
		RotatedAt:     &now,
		Status:        keys.StatusActive,
		RotationCount: old.RotationCount + 1,
	}
	if err := s.keys.Create(ctx, newKey); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return RotationOutcome{}, dErrors.Newf(dErrors.CodeConflict, "key %q already registered", req.NewKeyID)
		}
		return RotationOutcome{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create rotated key")
	}

	old.Status = keys.StatusRetired
	old.RotatedAt = &now
	if err := s.keys.Update(ctx, old); err != nil {
		return RotationOutcome{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to retire old key")
	}

	artifact, err := keys.CollectRotationArtifact(keys.RotationEvent{
		KeyID:         req.NewKeyID,
		PreviousKeyID: req.KeyID,
		Purpose:       old.Purpose,
		RotatedAt:     now,
		RotatedBy:     req.RotatedBy,
		RotationCount: newKey.RotationCount,
	})
	if err != nil {
		return RotationOutcome{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build rotation artifact")
	}

	s.emitAudit(ctx, audit.Event{
		Subject:  string(req.NewKeyID),
		Action:   string(audit.EventKeyRotated),
		Decision: "authorized",
	})
	return RotationOutcome{Decision: decision, NewKey: newKey, Artifact: artifact}, nil
}

// AuditKeyAges evaluates the whole inventory against the purpose age table.
// Every violation leaves a security audit event.
func (s *Service) AuditKeyAges(ctx context.Context) (keys.AgeAudit, error) {
	inventory, err := s.keys.List(ctx)
	if err != nil {
		return keys.AgeAudit{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list keys")
	}

	result := keys.AuditAges(inventory, requestcontext.Now(ctx).UTC())
	for _, v := range result.Violations {
		if s.metrics != nil {
			s.metrics.KeyAgeViolations.Inc()
		}
		if s.logger != nil {
			s.logger.WarnContext(ctx, "key age violation",
				"key_id", v.KeyID,
				"purpose", v.Purpose,
				"age_days", v.AgeDays,
				"reason", v.Reason,
			)
		}
		s.emitAudit(ctx, audit.Event{
			Subject: string(v.KeyID),
			Action:  string(audit.EventKeyAgeViolation),
			Reason:  v.Reason,
		})
	}
	return result, nil
}

// RecordDRSimulation produces the deterministic artifact for a completed
// disaster-recovery drill.
func (s *Service) RecordDRSimulation(ctx context.Context, result keys.DRSimulationResult) (keys.Artifact, error) {
	if result.Scenario == "" {
		return keys.Artifact{}, dErrors.New(dErrors.CodeInvalidInput, "scenario is required")
	}
	if result.SimulatedAt.IsZero() {
		result.SimulatedAt = requestcontext.Now(ctx).UTC()
	}

	artifact, err := keys.GenerateDRSimulationArtifact(result)
	if err != nil {
		return keys.Artifact{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to build drill artifact")
	}
	s.emitAudit(ctx, audit.Event{
		Subject: result.Scenario,
		Action:  string(audit.EventDRSimRecorded),
	})
	return artifact, nil
}

func rotationActionID(oldID, newID id.KeyID) string {
	return fmt.Sprintf("key-rotation:%s:%s", oldID, newID)
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	event.RequestID = requestcontext.RequestID(ctx)
	event.ActorID = string(requestcontext.ActorID(ctx))
	_ = s.auditPublisher.Emit(ctx, event)
}
