package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"veritas/internal/docs"
	id "veritas/pkg/domain"
	"veritas/pkg/platform/sentinel"
	txcontext "veritas/pkg/platform/tx"
)

const uniqueViolation = "23505"

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// PostgresStore persists document version chains. The (org_id, document_id,
// version) primary key makes concurrent version writes race safely.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) exec(ctx context.Context) execer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, version docs.Version) error {
	query := `
		INSERT INTO document_versions (org_id, document_id, category, version, content_hash, previous_version_hash, author_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.exec(ctx).ExecContext(ctx, query,
		version.OrgID, version.DocumentID, version.Category, version.Version,
		version.ContentHash, version.PreviousVersionHash, version.AuthorID, version.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("append document version: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByDocument(ctx context.Context, orgID id.OrgID, documentID id.DocumentID) ([]docs.Version, error) {
	query := `
		SELECT org_id, document_id, category, version, content_hash, previous_version_hash, author_id, created_at
		FROM document_versions
		WHERE org_id = $1 AND document_id = $2
		ORDER BY version ASC
	`
	rows, err := s.exec(ctx).QueryContext(ctx, query, orgID, documentID)
	if err != nil {
		return nil, fmt.Errorf("list document versions: %w", err)
	}
	defer rows.Close()

	var versions []docs.Version
	for rows.Next() {
		version, err := scanVersion(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan document version: %w", err)
		}
		versions = append(versions, version)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate document versions: %w", err)
	}
	if len(versions) == 0 {
		return nil, sentinel.ErrNotFound
	}
	return versions, nil
}

func (s *PostgresStore) Latest(ctx context.Context, orgID id.OrgID, documentID id.DocumentID) (docs.Version, error) {
	query := `
		SELECT org_id, document_id, category, version, content_hash, previous_version_hash, author_id, created_at
		FROM document_versions
		WHERE org_id = $1 AND document_id = $2
		ORDER BY version DESC
		LIMIT 1
	`
	row := s.exec(ctx).QueryRowContext(ctx, query, orgID, documentID)
	version, err := scanVersion(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return docs.Version{}, sentinel.ErrNotFound
		}
		return docs.Version{}, fmt.Errorf("load latest document version: %w", err)
	}
	return version, nil
}

func (s *PostgresStore) Delete(ctx context.Context, orgID id.OrgID, documentID id.DocumentID) error {
	res, err := s.exec(ctx).ExecContext(ctx,
		`DELETE FROM document_versions WHERE org_id = $1 AND document_id = $2`, orgID, documentID)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func scanVersion(scan func(dest ...any) error) (docs.Version, error) {
	var version docs.Version
	err := scan(&version.OrgID, &version.DocumentID, &version.Category, &version.Version,
		&version.ContentHash, &version.PreviousVersionHash, &version.AuthorID, &version.CreatedAt)
	if err != nil {
		return docs.Version{}, err
	}
	version.CreatedAt = version.CreatedAt.UTC()
	return version, nil
}
