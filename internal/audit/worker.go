package audit

import (
	"context"
	"log/slog"
)

// Sink mirrors persisted events to an external system (Kafka).
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Worker drains the publisher inbox into the store and optional sinks.
// Store failures are logged, not fatal: audit persistence must never take the
// API down.
type Worker struct {
	logger *slog.Logger
	store  Store
	sinks  []Sink
	inbox  <-chan Event
}

func NewWorker(logger *slog.Logger, store Store, inbox <-chan Event, sinks ...Sink) *Worker {
	return &Worker{logger: logger, store: store, sinks: sinks, inbox: inbox}
}

// Run processes events until ctx is cancelled, then drains what is already
// buffered before returning.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return ctx.Err()
		case event := <-w.inbox:
			w.process(ctx, event)
		}
	}
}

func (w *Worker) process(ctx context.Context, event Event) {
	if err := w.store.Append(ctx, event); err != nil {
		w.logger.Error("audit append failed",
			"error", err,
			"action", string(event.Action),
			"org_id", event.OrgID.String(),
		)
	}
	for _, sink := range w.sinks {
		if err := sink.Publish(ctx, event); err != nil {
			w.logger.Error("audit sink publish failed",
				"error", err,
				"action", string(event.Action),
			)
		}
	}
}

// drain flushes buffered events with a background context since the run
// context is already cancelled.
func (w *Worker) drain() {
	for {
		select {
		case event := <-w.inbox:
			w.process(context.Background(), event)
		default:
			return
		}
	}
}
