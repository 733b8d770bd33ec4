package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"veritas/internal/vault"
	id "veritas/pkg/domain"
	"veritas/pkg/platform/sentinel"
	txcontext "veritas/pkg/platform/tx"
)

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists encrypted identity records. Only ciphertext, IV,
// tag, and the key identifier touch disk.
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

func (s *PostgresStore) Save(ctx context.Context, record vault.StoredRecord) error {
	query := `
		INSERT INTO vault_records (org_id, subject_id, encrypted_payload, iv, auth_tag, key_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (org_id, subject_id) DO UPDATE SET
			encrypted_payload = EXCLUDED.encrypted_payload,
			iv = EXCLUDED.iv,
			auth_tag = EXCLUDED.auth_tag,
			key_id = EXCLUDED.key_id,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.exec(ctx).ExecContext(ctx, query,
		record.OrgID, record.SubjectID,
		record.Record.EncryptedPayload, record.Record.IV, record.Record.AuthTag, record.Record.KeyID,
		record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save vault record: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, orgID id.OrgID, subjectID string) (vault.StoredRecord, error) {
	query := `
		SELECT org_id, subject_id, encrypted_payload, iv, auth_tag, key_id, created_at, updated_at
		FROM vault_records
		WHERE org_id = $1 AND subject_id = $2
	`
	var record vault.StoredRecord
	err := s.exec(ctx).QueryRowContext(ctx, query, orgID, subjectID).Scan(
		&record.OrgID, &record.SubjectID,
		&record.Record.EncryptedPayload, &record.Record.IV, &record.Record.AuthTag, &record.Record.KeyID,
		&record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return vault.StoredRecord{}, sentinel.ErrNotFound
		}
		return vault.StoredRecord{}, fmt.Errorf("find vault record: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) Delete(ctx context.Context, orgID id.OrgID, subjectID string) error {
	res, err := s.exec(ctx).ExecContext(ctx,
		`DELETE FROM vault_records WHERE org_id = $1 AND subject_id = $2`, orgID, subjectID)
	if err != nil {
		return fmt.Errorf("delete vault record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete vault record: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
