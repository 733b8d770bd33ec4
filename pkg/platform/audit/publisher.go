// Package audit provides the categorized audit event pipeline: a
// fail-closed publisher for compliance events, a background worker for the
// rest, and stores from in-memory to a Kafka-relayed outbox.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Publisher emits audit events. Compliance-category events are written
// synchronously with fail-closed semantics: if the write fails, the error
// is returned and the calling operation must fail. Other categories are
// handed to the inbox channel for asynchronous persistence and dropped
// (with a log line) when the inbox is full; losing an ops event must never
// block or fail domain work.
type Publisher struct {
	store  Store
	inbox  chan<- Event
	logger *slog.Logger
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for drop/error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

// WithInbox routes non-compliance events to a worker-drained channel
// instead of writing them inline.
func WithInbox(inbox chan<- Event) Option {
	return func(p *Publisher) { p.inbox = inbox }
}

// NewPublisher creates a publisher over the given store.
func NewPublisher(store Store, opts ...Option) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit records an audit event. The event's category is always derived from
// its action; callers cannot downgrade a compliance event to a droppable
// one by mislabeling it.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Action == "" {
		return fmt.Errorf("audit event requires an action")
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	event.Category = AuditEvent(event.Action).Category()

	if event.Category == CategoryCompliance || p.inbox == nil {
		if err := p.store.Append(ctx, event); err != nil {
			if p.logger != nil {
				p.logger.ErrorContext(ctx, "compliance audit persistence failed",
					"action", event.Action,
					"org_id", event.OrgID,
					"error", err,
				)
			}
			return fmt.Errorf("audit persistence failed: %w", err)
		}
		return nil
	}

	select {
	case p.inbox <- event:
	default:
		if p.logger != nil {
			p.logger.WarnContext(ctx, "audit inbox full, dropping event",
				"action", event.Action,
				"category", event.Category,
			)
		}
	}
	return nil
}
