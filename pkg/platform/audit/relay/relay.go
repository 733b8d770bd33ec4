// Package relay publishes outbox rows to Kafka. The domain writes audit
// events and their outbox entries in one transaction; the relay moves them
// to the broker afterwards, so an event is never visible downstream without
// having been durably recorded first.
package relay

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Topic is the Kafka topic audit events are published to.
const Topic = "veritas.audit.events"

// Relay polls the outbox table and publishes unpublished entries.
type Relay struct {
	db       *sql.DB
	client   *kgo.Client
	logger   *slog.Logger
	interval time.Duration
	batch    int
}

// New creates a relay. A nil client disables publishing (the relay becomes
// a no-op), which keeps local development usable without a broker.
func New(db *sql.DB, client *kgo.Client, logger *slog.Logger) *Relay {
	return &Relay{
		db:       db,
		client:   client,
		logger:   logger,
		interval: 500 * time.Millisecond,
		batch:    100,
	}
}

// NewClient builds a franz-go producer for the given brokers.
func NewClient(brokers []string) (*kgo.Client, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return client, nil
}

// Run polls until the context is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	if r.client == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.drainOnce(ctx); err != nil {
				r.logger.ErrorContext(ctx, "outbox drain failed", "error", err)
			}
		}
	}
}

// drainOnce publishes one batch of unpublished outbox rows. Rows are locked
// with SKIP LOCKED so multiple relay instances do not double-publish.
func (r *Relay) drainOnce(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin outbox tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, aggregate_id, payload
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, r.batch)
	if err != nil {
		return fmt.Errorf("query outbox: %w", err)
	}

	var (
		ids     []string
		records []*kgo.Record
	)
	for rows.Next() {
		var (
			id          uuid.UUID
			aggregateID string
			payload     []byte
		)
		if err := rows.Scan(&id, &aggregateID, &payload); err != nil {
			rows.Close()
			return fmt.Errorf("scan outbox row: %w", err)
		}
		ids = append(ids, id.String())
		records = append(records, &kgo.Record{
			Topic: Topic,
			Key:   []byte(aggregateID),
			Value: payload,
		})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate outbox: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	if err := r.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return fmt.Errorf("produce audit batch: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE outbox SET published_at = NOW() WHERE id = ANY($1)
	`, pq.Array(ids)); err != nil {
		return fmt.Errorf("mark outbox published: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit outbox tx: %w", err)
	}

	r.logger.DebugContext(ctx, "audit batch relayed", "count", len(records))
	return nil
}
