// Package worker drains the asynchronous audit inbox into a store.
package worker

import (
	"context"
	"log/slog"

	audit "veritas/pkg/platform/audit"
)

// Worker consumes audit events from a channel and persists them. Persist
// failures for async categories are logged and skipped, not fatal: the
// worker must survive a flapping store.
type Worker struct {
	store  audit.Store
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func New(store audit.Store, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	return &Worker{store: store, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				if w.logger != nil {
					w.logger.ErrorContext(ctx, "audit append failed",
						"action", event.Action,
						"error", err,
					)
				}
			}
		}
	}
}
