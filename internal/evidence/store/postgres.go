package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"veritas/internal/evidence"
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

// PostgresStore persists evidence packs. The pack body and seal are stored
// as JSONB documents; the digest-relevant fields never round-trip through
// column types that could reshape them.
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

func (s *PostgresStore) Create(ctx context.Context, pack evidence.StoredPack) error {
	body, err := json.Marshal(pack.Pack)
	if err != nil {
		return fmt.Errorf("encode pack: %w", err)
	}
	query := `
		INSERT INTO evidence_packs (id, org_id, body, sealed)
		VALUES ($1, $2, $3, $4)
	`
	_, err = s.exec(ctx).ExecContext(ctx, query,
		pack.ID.String(), pack.Pack.OrgID, body, pack.Pack.Seal != nil,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create pack: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, orgID id.OrgID, packID id.PackID) (evidence.StoredPack, error) {
	var body []byte
	query := `SELECT body FROM evidence_packs WHERE id = $1 AND org_id = $2`
	err := s.exec(ctx).QueryRowContext(ctx, query, packID.String(), orgID).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return evidence.StoredPack{}, sentinel.ErrNotFound
		}
		return evidence.StoredPack{}, fmt.Errorf("find pack: %w", err)
	}

	pack := evidence.StoredPack{ID: packID}
	if err := json.Unmarshal(body, &pack.Pack); err != nil {
		return evidence.StoredPack{}, fmt.Errorf("decode pack: %w", err)
	}
	pack.Pack.GeneratedAt = pack.Pack.GeneratedAt.UTC()
	return pack, nil
}

// AttachSeal writes the envelope onto an unsealed pack. The sealed flag in
// the WHERE clause makes the write-once rule a single atomic statement.
func (s *PostgresStore) AttachSeal(ctx context.Context, orgID id.OrgID, packID id.PackID, seal evidence.Envelope) error {
	pack, err := s.Find(ctx, orgID, packID)
	if err != nil {
		return err
	}
	pack.Pack.Seal = &seal
	body, err := json.Marshal(pack.Pack)
	if err != nil {
		return fmt.Errorf("encode sealed pack: %w", err)
	}

	query := `
		UPDATE evidence_packs
		SET body = $1, sealed = TRUE
		WHERE id = $2 AND org_id = $3 AND sealed = FALSE
	`
	res, err := s.exec(ctx).ExecContext(ctx, query, body, packID.String(), orgID)
	if err != nil {
		return fmt.Errorf("attach seal: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("attach seal: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *PostgresStore) ListByOrg(ctx context.Context, orgID id.OrgID) ([]evidence.StoredPack, error) {
	query := `SELECT id, body FROM evidence_packs WHERE org_id = $1 ORDER BY created_at ASC`
	rows, err := s.exec(ctx).QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list packs: %w", err)
	}
	defer rows.Close()

	var packs []evidence.StoredPack
	for rows.Next() {
		var (
			rawID string
			body  []byte
		)
		if err := rows.Scan(&rawID, &body); err != nil {
			return nil, fmt.Errorf("scan pack: %w", err)
		}
		packID, err := id.ParsePackID(rawID)
		if err != nil {
			return nil, fmt.Errorf("scan pack id: %w", err)
		}
		pack := evidence.StoredPack{ID: packID}
		if err := json.Unmarshal(body, &pack.Pack); err != nil {
			return nil, fmt.Errorf("decode pack: %w", err)
		}
		pack.Pack.GeneratedAt = pack.Pack.GeneratedAt.UTC()
		packs = append(packs, pack)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate packs: %w", err)
	}
	return packs, nil
}
