package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"veritas/internal/ledger"
	"veritas/pkg/canonical"
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

// PostgresStore persists audit chains in PostgreSQL. The (org_id, seq)
// primary key is what makes concurrent appends safe: two writers that both
// read the same head race to insert the same seq, and the loser gets a
// unique violation surfaced as sentinel.ErrConflict.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed chain store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) exec(ctx context.Context) execer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Append inserts a chain entry. Returns sentinel.ErrConflict when another
// writer already took the entry's sequence number.
func (s *PostgresStore) Append(ctx context.Context, entry ledger.Entry) error {
	// Persist the canonical form, the exact bytes the entry hash covers.
	// encoding/json renders some floats differently (0.00001 vs 1e-05),
	// which would make a reloaded chain fail verification.
	payload, err := canonical.Canonicalize(entry.Payload)
	if err != nil {
		return fmt.Errorf("encode chain payload: %w", err)
	}
	query := `
		INSERT INTO chain_entries (org_id, seq, hash, previous_hash, payload, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.exec(ctx).ExecContext(ctx, query,
		entry.OrgID, entry.Seq, entry.Hash, entry.PreviousHash, payload, entry.RecordedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("append chain entry: %w", err)
	}
	return nil
}

// Head returns the highest-seq entry for the organization, or
// sentinel.ErrNotFound when the chain is empty.
func (s *PostgresStore) Head(ctx context.Context, orgID id.OrgID) (ledger.Entry, error) {
	query := `
		SELECT org_id, seq, hash, previous_hash, payload, recorded_at
		FROM chain_entries
		WHERE org_id = $1
		ORDER BY seq DESC
		LIMIT 1
	`
	row := s.exec(ctx).QueryRowContext(ctx, query, orgID)
	entry, err := scanEntry(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.Entry{}, sentinel.ErrNotFound
		}
		return ledger.Entry{}, fmt.Errorf("load chain head: %w", err)
	}
	return entry, nil
}

// ListByOrg returns the organization's full chain ordered by seq.
func (s *PostgresStore) ListByOrg(ctx context.Context, orgID id.OrgID) ([]ledger.Entry, error) {
	query := `
		SELECT org_id, seq, hash, previous_hash, payload, recorded_at
		FROM chain_entries
		WHERE org_id = $1
		ORDER BY seq ASC
	`
	rows, err := s.exec(ctx).QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list chain entries: %w", err)
	}
	defer rows.Close()

	var entries []ledger.Entry
	for rows.Next() {
		entry, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan chain entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chain entries: %w", err)
	}
	return entries, nil
}

func scanEntry(scan func(dest ...any) error) (ledger.Entry, error) {
	var (
		entry   ledger.Entry
		payload []byte
	)
	if err := scan(&entry.OrgID, &entry.Seq, &entry.Hash, &entry.PreviousHash, &payload, &entry.RecordedAt); err != nil {
		return ledger.Entry{}, err
	}
	// Decode with UseNumber so re-canonicalizing the payload during
	// verification reproduces the exact bytes that were hashed on append.
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&entry.Payload); err != nil {
		return ledger.Entry{}, fmt.Errorf("decode chain payload: %w", err)
	}
	entry.RecordedAt = entry.RecordedAt.UTC()
	return entry, nil
}
