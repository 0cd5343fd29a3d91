package audit

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	id "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain"
	"github.com/cryptocrystian/pravado-v2-sub011/pkg/requestcontext"
)

// Publisher accepts audit events from domain services and hands them to the
// background worker. Emission is best-effort: a full buffer drops the event
// with a log line rather than failing the request.
type Publisher struct {
	logger *slog.Logger
	inbox  chan Event
}

// NewPublisher creates a publisher with the given buffer size.
func NewPublisher(logger *slog.Logger, buffer int) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Publisher{
		logger: logger,
		inbox:  make(chan Event, buffer),
	}
}

// Inbox exposes the event channel for the worker.
func (p *Publisher) Inbox() <-chan Event {
	return p.inbox
}

// Emit enriches the event from request context and enqueues it.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if event.ID.IsZero() {
		event.ID = id.AuditEventID(uuid.New())
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.OrgID.IsZero() {
		event.OrgID = requestcontext.OrgID(ctx)
	}
	if event.ActorID.IsZero() {
		event.ActorID = requestcontext.UserID(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.IP == "" {
		event.IP = requestcontext.ClientIP(ctx)
	}

	select {
	case p.inbox <- event:
	default:
		p.logger.Warn("audit buffer full, dropping event",
			"action", string(event.Action),
			"org_id", event.OrgID.String(),
		)
	}
}
