package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"veritas/internal/approval"
	"veritas/pkg/platform/sentinel"
	txcontext "veritas/pkg/platform/tx"
)

const uniqueViolation = "23505"

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// PostgresStore persists dual-control approvals. The (action_id,
// approver_id) primary key enforces one approval per approver per action.
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

func (s *PostgresStore) Add(ctx context.Context, a approval.Approval) error {
	query := `
		INSERT INTO approvals (action_id, approver_id, approval_hash)
		VALUES ($1, $2, $3)
	`
	_, err := s.exec(ctx).ExecContext(ctx, query, a.ActionID, a.ApproverID, a.ApprovalHash)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("add approval: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByAction(ctx context.Context, actionID string) ([]approval.Approval, error) {
	query := `
		SELECT action_id, approver_id, approval_hash
		FROM approvals
		WHERE action_id = $1
		ORDER BY approver_id ASC
	`
	rows, err := s.exec(ctx).QueryContext(ctx, query, actionID)
	if err != nil {
		return nil, fmt.Errorf("list approvals: %w", err)
	}
	defer rows.Close()

	var approvals []approval.Approval
	for rows.Next() {
		var a approval.Approval
		if err := rows.Scan(&a.ActionID, &a.ApproverID, &a.ApprovalHash); err != nil {
			return nil, fmt.Errorf("scan approval: %w", err)
		}
		approvals = append(approvals, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate approvals: %w", err)
	}
	return approvals, nil
}
