package service

import (
	"context"
	"errors"
	"log/slog"

	"veritas/internal/platform/metrics"
	"veritas/internal/vault"
	"veritas/internal/vault/keyring"
	id "veritas/pkg/domain"
	dErrors "veritas/pkg/domain-errors"
	"veritas/pkg/platform/audit"
	"veritas/pkg/platform/sentinel"
	"veritas/pkg/requestcontext"
)

type RecordStore interface {
	Save(ctx context.Context, record vault.StoredRecord) error
	Find(ctx context.Context, orgID id.OrgID, subjectID string) (vault.StoredRecord, error)
	Delete(ctx context.Context, orgID id.OrgID, subjectID string) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service encrypts, retrieves, and erases confidential identity payloads.
type Service struct {
	records        RecordStore
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

// New constructs a vault Service. The keyring is required: there is no
// unencrypted mode.
func New(records RecordStore, keys *keyring.Keyring, opts ...Option) *Service {
	s := &Service{records: records, keys: keys}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StoreIdentity encrypts the payload under the derived key and persists the
// record. Re-storing a subject replaces its record with fresh ciphertext.
func (s *Service) StoreIdentity(ctx context.Context, orgID id.OrgID, subjectID string, payload map[string]any, keyID id.KeyID) (vault.StoredRecord, error) {
	if orgID == "" || subjectID == "" {
		return vault.StoredRecord{}, dErrors.New(dErrors.CodeInvalidInput, "orgId and subjectId are required")
	}

	key, err := s.keys.VaultKey(keyID)
	if err != nil {
		return vault.StoredRecord{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to derive vault key")
	}
	rec, err := vault.Encrypt(payload, key, keyID)
	if err != nil {
		s.countVault("encrypt", "failure")
		return vault.StoredRecord{}, err
	}

	now := requestcontext.Now(ctx).UTC()
	stored := vault.StoredRecord{
		OrgID:     orgID,
		SubjectID: subjectID,
		Record:    rec,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.records.Save(ctx, stored); err != nil {
		return vault.StoredRecord{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save vault record")
	}

	s.countVault("encrypt", "success")
	s.emitAudit(ctx, audit.Event{
		OrgID:   orgID,
		Subject: subjectID,
		Action:  string(audit.EventIdentityEncrypted),
	})
	return stored, nil
}

// RetrieveIdentity decrypts a subject's stored payload. An authentication
// failure is reported as forbidden and leaves a security audit event; it
// never reveals whether key, ciphertext, or tag was at fault.
func (s *Service) RetrieveIdentity(ctx context.Context, orgID id.OrgID, subjectID string) (map[string]any, error) {
	stored, err := s.records.Find(ctx, orgID, subjectID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "identity record not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load vault record")
	}

	key, err := s.keys.VaultKey(stored.Record.KeyID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to derive vault key")
	}

	payload, err := vault.Decrypt(stored.Record, key)
	if err != nil {
		if errors.Is(err, vault.ErrAuthentication) {
			s.countVault("decrypt", "failure")
			if s.logger != nil {
				s.logger.ErrorContext(ctx, "vault decryption failed authentication",
					"org_id", orgID,
					"subject_id", subjectID,
					"key_id", stored.Record.KeyID,
				)
			}
			s.emitAudit(ctx, audit.Event{
				OrgID:    orgID,
				Subject:  subjectID,
				Action:   string(audit.EventIdentityDecryptFailed),
				Decision: "rejected",
			})
			return nil, dErrors.New(dErrors.CodeForbidden, "record failed authentication")
		}
		return nil, err
	}

	s.countVault("decrypt", "success")
	s.emitAudit(ctx, audit.Event{
		OrgID:   orgID,
		Subject: subjectID,
		Action:  string(audit.EventIdentityDecrypted),
	})
	return payload, nil
}

// EraseIdentity removes a subject's encrypted record.
func (s *Service) EraseIdentity(ctx context.Context, orgID id.OrgID, subjectID string) error {
	if err := s.records.Delete(ctx, orgID, subjectID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "identity record not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete vault record")
	}
	return nil
}

func (s *Service) countVault(operation, outcome string) {
	if s.metrics != nil {
		s.metrics.VaultOperations.WithLabelValues(operation, outcome).Inc()
	}
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	event.RequestID = requestcontext.RequestID(ctx)
	event.ActorID = string(requestcontext.ActorID(ctx))
	_ = s.auditPublisher.Emit(ctx, event)
}
