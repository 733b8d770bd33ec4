package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"veritas/internal/legalhold"
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

// PostgresStore persists litigation holds. Scope is stored as a JSONB
// document; its shape is owned by the domain model.
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

func (s *PostgresStore) Create(ctx context.Context, hold legalhold.Hold) error {
	scope, err := json.Marshal(hold.Scope)
	if err != nil {
		return fmt.Errorf("encode hold scope: %w", err)
	}
	query := `
		INSERT INTO legal_holds (id, org_id, case_id, entity_id, scope, issued_by, issued_at, reason, released_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = s.exec(ctx).ExecContext(ctx, query,
		hold.HoldID.String(), hold.OrgID, hold.CaseID, hold.EntityID, scope,
		hold.IssuedBy, hold.IssuedAt, hold.Reason, hold.ReleasedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create hold: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, orgID id.OrgID, holdID id.HoldID) (legalhold.Hold, error) {
	query := `
		SELECT id, org_id, case_id, entity_id, scope, issued_by, issued_at, reason, released_at
		FROM legal_holds
		WHERE id = $1 AND org_id = $2
	`
	row := s.exec(ctx).QueryRowContext(ctx, query, holdID.String(), orgID)
	hold, err := scanHold(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return legalhold.Hold{}, sentinel.ErrNotFound
		}
		return legalhold.Hold{}, fmt.Errorf("find hold: %w", err)
	}
	return hold, nil
}

func (s *PostgresStore) Update(ctx context.Context, hold legalhold.Hold) error {
	scope, err := json.Marshal(hold.Scope)
	if err != nil {
		return fmt.Errorf("encode hold scope: %w", err)
	}
	query := `
		UPDATE legal_holds
		SET case_id = $3, entity_id = $4, scope = $5, reason = $6, released_at = $7
		WHERE id = $1 AND org_id = $2
	`
	res, err := s.exec(ctx).ExecContext(ctx, query,
		hold.HoldID.String(), hold.OrgID, hold.CaseID, hold.EntityID, scope, hold.Reason, hold.ReleasedAt,
	)
	if err != nil {
		return fmt.Errorf("update hold: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update hold: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListByOrg(ctx context.Context, orgID id.OrgID) ([]legalhold.Hold, error) {
	query := `
		SELECT id, org_id, case_id, entity_id, scope, issued_by, issued_at, reason, released_at
		FROM legal_holds
		WHERE org_id = $1
		ORDER BY issued_at ASC
	`
	rows, err := s.exec(ctx).QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list holds: %w", err)
	}
	defer rows.Close()

	var holds []legalhold.Hold
	for rows.Next() {
		hold, err := scanHold(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan hold: %w", err)
		}
		holds = append(holds, hold)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate holds: %w", err)
	}
	return holds, nil
}

func scanHold(scan func(dest ...any) error) (legalhold.Hold, error) {
	var (
		hold  legalhold.Hold
		rawID string
		scope []byte
	)
	err := scan(&rawID, &hold.OrgID, &hold.CaseID, &hold.EntityID, &scope,
		&hold.IssuedBy, &hold.IssuedAt, &hold.Reason, &hold.ReleasedAt)
	if err != nil {
		return legalhold.Hold{}, err
	}
	holdID, err := id.ParseHoldID(rawID)
	if err != nil {
		return legalhold.Hold{}, fmt.Errorf("scan hold id: %w", err)
	}
	hold.HoldID = holdID
	if err := json.Unmarshal(scope, &hold.Scope); err != nil {
		return legalhold.Hold{}, fmt.Errorf("decode hold scope: %w", err)
	}
	hold.IssuedAt = hold.IssuedAt.UTC()
	return hold, nil
}
