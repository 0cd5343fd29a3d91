package audit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	id "github.com/cryptocrystian/pravado-v2-sub011/pkg/domain"
	"github.com/cryptocrystian/pravado-v2-sub011/pkg/requestcontext"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEmitEnrichesFromContext(t *testing.T) {
	p := NewPublisher(discardLogger(), 4)

	orgID := id.OrgID(uuid.New())
	userID := id.UserID(uuid.New())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	ctx := requestcontext.WithOrgID(context.Background(), orgID)
	ctx = requestcontext.WithUserID(ctx, userID)
	ctx = requestcontext.WithTime(ctx, now)
	ctx = requestcontext.WithRequestID(ctx, "req-123")

	p.Emit(ctx, Event{Action: ActionDashboardCreated, Subject: "dash-1"})

	select {
	case event := <-p.Inbox():
		if event.ID.IsZero() {
			t.Error("expected a generated event id")
		}
		if event.OrgID != orgID {
			t.Errorf("org id not taken from context: %s", event.OrgID)
		}
		if event.ActorID != userID {
			t.Errorf("actor id not taken from context: %s", event.ActorID)
		}
		if !event.Timestamp.Equal(now) {
			t.Errorf("timestamp not taken from context: %v", event.Timestamp)
		}
		if event.RequestID != "req-123" {
			t.Errorf("request id not taken from context: %q", event.RequestID)
		}
	default:
		t.Fatal("expected the event in the inbox")
	}
}

func TestEmitKeepsExplicitFields(t *testing.T) {
	p := NewPublisher(discardLogger(), 4)

	explicitOrg := id.OrgID(uuid.New())
	ctx := requestcontext.WithOrgID(context.Background(), id.OrgID(uuid.New()))

	p.Emit(ctx, Event{Action: ActionOrgSuspended, OrgID: explicitOrg})

	event := <-p.Inbox()
	if event.OrgID != explicitOrg {
		t.Errorf("explicit org id was overwritten: %s", event.OrgID)
	}
}

func TestEmitDropsWhenBufferFull(t *testing.T) {
	p := NewPublisher(discardLogger(), 1)

	p.Emit(context.Background(), Event{Action: ActionLoginFailed})
	// Second emit must not block even though nothing is draining.
	done := make(chan struct{})
	go func() {
		p.Emit(context.Background(), Event{Action: ActionLoginFailed})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("emit blocked on a full buffer")
	}

	if got := len(p.Inbox()); got != 1 {
		t.Fatalf("expected 1 buffered event, got %d", got)
	}
}
