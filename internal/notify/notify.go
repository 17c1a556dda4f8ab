// Package notify delivers side-channel events produced by the dialogue
// engine: real-time dashboard updates over websockets and SMS paging of the
// on-call dispatcher for emergencies.
package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/wireheat/afterhours/internal/models"
)

// Service defines a pluggable event delivery abstraction. Delivery is
// best-effort: a failed notification never fails the caller's turn.
type Service interface {
	// PublishRequestSubmitted delivers a request_submitted event.
	PublishRequestSubmitted(ctx context.Context, req models.ServiceRequest) error
}

// NewRequestSubmittedEvent builds the structured event payload emitted when
// a draft is committed into a ticket.
func NewRequestSubmittedEvent(req models.ServiceRequest) models.UserEvent {
	return models.UserEvent{
		ID:      uuid.NewString(),
		Type:    models.EventTypeRequestSubmitted,
		Request: &req,
	}
}

// Fanout delivers each event to every configured service. Individual
// delivery failures are logged and do not stop the remaining sinks.
type Fanout struct {
	services []Service
}

// NewFanout creates a fanout over the given services.
func NewFanout(services ...Service) *Fanout {
	return &Fanout{services: services}
}

func (f *Fanout) PublishRequestSubmitted(ctx context.Context, req models.ServiceRequest) error {
	for _, svc := range f.services {
		if err := svc.PublishRequestSubmitted(ctx, req); err != nil {
			slog.Warn("Fanout.PublishRequestSubmitted: sink failed", "error", err, "id", req.ID)
		}
	}
	return nil
}

// Recorder captures published events for tests.
type Recorder struct {
	mu     sync.Mutex
	events []models.UserEvent
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) PublishRequestSubmitted(ctx context.Context, req models.ServiceRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, NewRequestSubmittedEvent(req))
	return nil
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []models.UserEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.UserEvent(nil), r.events...)
}
