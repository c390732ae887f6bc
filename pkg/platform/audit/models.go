// Package audit captures security-relevant portal actions as events. Keep
// the event transport-agnostic so stores and sinks can fan out.
package audit

import (
	"context"
	"log/slog"
	"time"
)

// EventName identifies what happened.
type EventName string

const (
	EventSignIn             EventName = "sign_in"
	EventSignOut            EventName = "sign_out"
	EventAccessDenied       EventName = "access_denied"
	EventRecordCreated      EventName = "record_created"
	EventRecordDeleted      EventName = "record_deleted"
	EventNotificationQueued EventName = "notification_queued"
)

// Event is emitted from domain logic to capture key actions.
type Event struct {
	Name      EventName `json:"name"`
	Timestamp time.Time `json:"timestamp"`
	SubjectID string    `json:"subject_id,omitempty"`
	Email     string    `json:"email,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Resource  string    `json:"resource,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Device    string    `json:"device,omitempty"`
	ClientIP  string    `json:"client_ip,omitempty"`
}

// Publisher emits audit events for security-relevant operations.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// Store persists audit events for later inspection.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Emit publishes an event, logging instead of failing when no publisher is
// wired or the publish errors. Audit must never break the calling path.
func Emit(ctx context.Context, publisher Publisher, logger *slog.Logger, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if publisher == nil {
		if logger != nil {
			logger.InfoContext(ctx, "audit", "event", string(event.Name), "subject_id", event.SubjectID, "reason", event.Reason)
		}
		return
	}
	if err := publisher.Emit(ctx, event); err != nil && logger != nil {
		logger.WarnContext(ctx, "audit emit failed", "event", string(event.Name), "error", err)
	}
}
