package audit

import (
	"context"
	"time"
)

// Service captures structured audit events. Emit never blocks request
// handling: events go through a buffered inbox drained by the Worker, and a
// full inbox drops the event rather than stalling a call.
type Service struct {
	inbox chan Event
	store Store
}

func NewService(store Store) *Service {
	return &Service{
		inbox: make(chan Event, 256),
		store: store,
	}
}

func (s *Service) Emit(_ context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case s.inbox <- event:
	default:
	}
}

func (s *Service) List(ctx context.Context, principal string) ([]Event, error) {
	return s.store.ListByPrincipal(ctx, principal)
}

// Inbox exposes the event channel for the worker.
func (s *Service) Inbox() <-chan Event {
	return s.inbox
}
