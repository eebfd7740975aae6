package audit

import (
	"context"
	"log/slog"
)

// Publisher ships events to an external sink (Kafka in production).
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Worker consumes audit events from a channel, persists them, and forwards
// them to the publisher when one is configured. Publish failures are logged
// and skipped; the local store remains the source of truth.
type Worker struct {
	store     Store
	publisher Publisher
	inbox     <-chan Event
	log       *slog.Logger
}

func NewWorker(store Store, publisher Publisher, inbox <-chan Event, log *slog.Logger) *Worker {
	return &Worker{store: store, publisher: publisher, inbox: inbox, log: log}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				return err
			}
			if w.publisher == nil {
				continue
			}
			if err := w.publisher.Publish(ctx, event); err != nil {
				w.log.WarnContext(ctx, "audit publish failed",
					"action", string(event.Action),
					"error", err.Error(),
				)
			}
		}
	}
}
