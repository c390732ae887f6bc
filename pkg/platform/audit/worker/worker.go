package worker

import (
	"context"
	"fmt"

	audit "vifm-portal/pkg/platform/audit"
)

// Worker consumes audit events from a channel and persists them. It keeps
// background processing testable without wiring queue implementations.
type Worker struct {
	store audit.Store
	inbox <-chan audit.Event
}

func New(store audit.Store, inbox <-chan audit.Event) *Worker {
	return &Worker{store: store, inbox: inbox}
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
		}
	}
}

// ChanPublisher feeds a Worker's inbox. Emit never blocks; a full inbox
// drops the event, keeping audit strictly off the request path.
type ChanPublisher struct {
	Inbox chan<- audit.Event
}

func (p ChanPublisher) Emit(_ context.Context, event audit.Event) error {
	select {
	case p.Inbox <- event:
		return nil
	default:
		return fmt.Errorf("audit inbox full; event %s dropped", event.Name)
	}
}
