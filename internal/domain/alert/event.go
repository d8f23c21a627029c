package alert

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Kind identifies which pipeline raised an event.
type Kind string

const (
	KindFacility Kind = "facility"
	KindArea     Kind = "area"
)

// Event is pushed to live subscribers when an assessment escalates.
type Event struct {
	ID              string    `json:"id"`
	Kind            Kind      `json:"kind"`
	Level           string    `json:"level"`
	Summary         string    `json:"summary"`
	Recommendations []string  `json:"recommendations"`
	Timestamp       time.Time `json:"timestamp"`
}

// NewEvent stamps an event with a fresh ID and the given time.
func NewEvent(kind Kind, level, summary string, recommendations []string, at time.Time) Event {
	return Event{
		ID:              uuid.NewString(),
		Kind:            kind,
		Level:           level,
		Summary:         summary,
		Recommendations: append([]string(nil), recommendations...),
		Timestamp:       at.UTC(),
	}
}

// Notifier delivers escalation events. Implementations must be safe for concurrent use.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// NopNotifier drops every event.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(context.Context, Event) error { return nil }

var _ Notifier = NopNotifier{}
