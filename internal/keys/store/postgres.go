package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"veritas/internal/keys"
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

// PostgresStore persists key metadata. Key material never touches this
// table; the keyring derives it on demand.
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

func (s *PostgresStore) Create(ctx context.Context, key keys.Metadata) error {
	query := `
		INSERT INTO managed_keys (key_id, purpose, algorithm, created_at, rotated_at, expires_at, status, rotation_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.exec(ctx).ExecContext(ctx, query,
		key.KeyID, key.Purpose, key.Algorithm, key.CreatedAt, key.RotatedAt, key.ExpiresAt, key.Status, key.RotationCount,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create key: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, keyID id.KeyID) (keys.Metadata, error) {
	query := `
		SELECT key_id, purpose, algorithm, created_at, rotated_at, expires_at, status, rotation_count
		FROM managed_keys
		WHERE key_id = $1
	`
	row := s.exec(ctx).QueryRowContext(ctx, query, keyID)
	key, err := scanKey(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return keys.Metadata{}, sentinel.ErrNotFound
		}
		return keys.Metadata{}, fmt.Errorf("find key: %w", err)
	}
	return key, nil
}

func (s *PostgresStore) Update(ctx context.Context, key keys.Metadata) error {
	query := `
		UPDATE managed_keys
		SET purpose = $2, algorithm = $3, rotated_at = $4, expires_at = $5, status = $6, rotation_count = $7
		WHERE key_id = $1
	`
	res, err := s.exec(ctx).ExecContext(ctx, query,
		key.KeyID, key.Purpose, key.Algorithm, key.RotatedAt, key.ExpiresAt, key.Status, key.RotationCount,
	)
	if err != nil {
		return fmt.Errorf("update key: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update key: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]keys.Metadata, error) {
	query := `
		SELECT key_id, purpose, algorithm, created_at, rotated_at, expires_at, status, rotation_count
		FROM managed_keys
		ORDER BY key_id ASC
	`
	rows, err := s.exec(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	var inventory []keys.Metadata
	for rows.Next() {
		key, err := scanKey(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		inventory = append(inventory, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate keys: %w", err)
	}
	return inventory, nil
}

func scanKey(scan func(dest ...any) error) (keys.Metadata, error) {
	var key keys.Metadata
	err := scan(&key.KeyID, &key.Purpose, &key.Algorithm, &key.CreatedAt, &key.RotatedAt, &key.ExpiresAt, &key.Status, &key.RotationCount)
	if err != nil {
		return keys.Metadata{}, err
	}
	key.CreatedAt = key.CreatedAt.UTC()
	return key, nil
}
