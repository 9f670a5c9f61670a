package audit

import (
	"context"
	"log/slog"
)

// Worker drains recorded entries from a channel and publishes them to a sink.
// Publish failures are logged and skipped; the audit store already holds the
// entry, so fan-out never needs to be retried at the cost of blocking.
type Worker struct {
	sink   Sink
	inbox  <-chan Entry
	logger *slog.Logger
}

func NewWorker(sink Sink, inbox <-chan Entry, logger *slog.Logger) *Worker {
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case entry := <-w.inbox:
			if err := w.sink.Publish(ctx, entry); err != nil {
				w.logger.ErrorContext(ctx, "audit sink publish failed",
					"entry_id", entry.ID,
					"action", entry.Action,
					"error", err,
				)
			}
		}
	}
}
