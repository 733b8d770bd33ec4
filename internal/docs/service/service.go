package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"veritas/internal/docs"
	"veritas/internal/legalhold"
	id "veritas/pkg/domain"
	dErrors "veritas/pkg/domain-errors"
	"veritas/pkg/platform/audit"
	"veritas/pkg/platform/sentinel"
	"veritas/pkg/requestcontext"
)

type VersionStore interface {
	Append(ctx context.Context, version docs.Version) error
	ListByDocument(ctx context.Context, orgID id.OrgID, documentID id.DocumentID) ([]docs.Version, error)
	Latest(ctx context.Context, orgID id.OrgID, documentID id.DocumentID) (docs.Version, error)
	Delete(ctx context.Context, orgID id.OrgID, documentID id.DocumentID) error
}

// HoldGate answers whether an action against a document is blocked by an
// active litigation hold.
type HoldGate interface {
	CheckAction(ctx context.Context, orgID id.OrgID, documentID id.DocumentID, category string, documentDate time.Time, action legalhold.Action) (legalhold.GateVerdict, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// RecordRequest carries the inputs for recording a new document revision.
// Content is hashed, never stored.
type RecordRequest struct {
	OrgID      id.OrgID
	DocumentID id.DocumentID
	Category   string
	Content    any
	AuthorID   id.ActorID
}

// Service records and verifies hash-linked document revision histories,
// consulting the hold gate before anything destructive.
type Service struct {
	versions       VersionStore
	gate           HoldGate
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

// New constructs a document Service. A nil gate disables hold enforcement;
// production wiring always supplies one.
func New(versions VersionStore, gate HoldGate, opts ...Option) *Service {
	s := &Service{versions: versions, gate: gate}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordVersion appends a revision to the document's chain. Revising an
// existing document counts as a modification and is refused while the
// document is under an active hold.
func (s *Service) RecordVersion(ctx context.Context, req RecordRequest) (docs.Version, error) {
	if req.OrgID == "" || req.DocumentID == "" {
		return docs.Version{}, dErrors.New(dErrors.CodeInvalidInput, "orgId and documentId are required")
	}

	prevHash := ""
	number := 1
	latest, err := s.versions.Latest(ctx, req.OrgID, req.DocumentID)
	switch {
	case err == nil:
		if err := s.checkGate(ctx, req.OrgID, req.DocumentID, latest.Category, latest.CreatedAt, legalhold.ActionModify); err != nil {
			return docs.Version{}, err
		}
		prevHash = latest.ContentHash
		number = latest.Version + 1
	case errors.Is(err, sentinel.ErrNotFound):
		// first revision, nothing to gate
	default:
		return docs.Version{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load document head")
	}

	hash, err := docs.ComputeVersionHash(req.Content, prevHash)
	if err != nil {
		return docs.Version{}, dErrors.Wrap(err, dErrors.CodeInvalidInput, "content is not canonicalizable")
	}

	version := docs.Version{
		OrgID:               req.OrgID,
		DocumentID:          req.DocumentID,
		Category:            req.Category,
		Version:             number,
		ContentHash:         hash,
		PreviousVersionHash: prevHash,
		AuthorID:            req.AuthorID,
		CreatedAt:           requestcontext.Now(ctx).UTC(),
	}
	if version.AuthorID == "" {
		version.AuthorID = requestcontext.ActorID(ctx)
	}

	if err := s.versions.Append(ctx, version); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return docs.Version{}, dErrors.New(dErrors.CodeConflict, "document head moved during revision")
		}
		return docs.Version{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to append version")
	}

	s.emitAudit(ctx, audit.Event{
		OrgID:   req.OrgID,
		Subject: string(req.DocumentID),
		Action:  string(audit.EventDocumentVersionRecorded),
	})
	return version, nil
}

// VerifyHistory replays the document's revision chain.
func (s *Service) VerifyHistory(ctx context.Context, orgID id.OrgID, documentID id.DocumentID) (docs.ChainVerdict, error) {
	versions, err := s.versions.ListByDocument(ctx, orgID, documentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return docs.ChainVerdict{}, dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		return docs.ChainVerdict{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load document history")
	}
	return docs.VerifyVersionChain(versions), nil
}

// GetHistory returns the document's recorded versions.
func (s *Service) GetHistory(ctx context.Context, orgID id.OrgID, documentID id.DocumentID) ([]docs.Version, error) {
	versions, err := s.versions.ListByDocument(ctx, orgID, documentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load document history")
	}
	return versions, nil
}

// DeleteDocument removes a document's whole history, unless an active hold
// blocks it.
func (s *Service) DeleteDocument(ctx context.Context, orgID id.OrgID, documentID id.DocumentID) error {
	latest, err := s.versions.Latest(ctx, orgID, documentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load document head")
	}
	if err := s.checkGate(ctx, orgID, documentID, latest.Category, latest.CreatedAt, legalhold.ActionDelete); err != nil {
		return err
	}

	if err := s.versions.Delete(ctx, orgID, documentID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete document")
	}
	return nil
}

func (s *Service) checkGate(ctx context.Context, orgID id.OrgID, documentID id.DocumentID, category string, documentDate time.Time, action legalhold.Action) error {
	if s.gate == nil {
		return nil
	}
	verdict, err := s.gate.CheckAction(ctx, orgID, documentID, category, documentDate, action)
	if err != nil {
		return err
	}
	if verdict.Blocked {
		holdID := ""
		if verdict.HoldID != nil {
			holdID = verdict.HoldID.String()
		}
		return dErrors.Newf(dErrors.CodeForbidden, "document is frozen by legal hold %s", holdID)
	}
	return nil
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditPublisher == nil {
		return
	}
	event.RequestID = requestcontext.RequestID(ctx)
	event.ActorID = string(requestcontext.ActorID(ctx))
	_ = s.auditPublisher.Emit(ctx, event)
}
