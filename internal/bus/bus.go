// Package bus provides event bus implementations for publishing
// recommendation lifecycle events to downstream consumers.
package bus

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Handler is a function that handles events.
type Handler func(ctx context.Context, event Event) error

// Bus defines the interface for event bus implementations.
type Bus interface {
	// Publish publishes an event to a topic.
	Publish(ctx context.Context, topic string, event Event) error

	// Subscribe subscribes to events on a topic.
	Subscribe(ctx context.Context, topic string, handler Handler) error

	// Close closes the bus and releases resources.
	Close() error
}

// Event represents a bus event.
type Event struct {
	// ID is the unique event identifier.
	ID string `json:"id"`

	// Type is the event type (e.g., "recommendations.generated").
	Type string `json:"type"`

	// Source is the service that generated the event.
	Source string `json:"source"`

	// Timestamp is when the event was created.
	Timestamp int64 `json:"timestamp"`

	// Payload contains the event data.
	Payload any `json:"payload"`
}

// NewEvent creates an event with a fresh ID and current timestamp.
func NewEvent(eventType string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    "skill-match",
		Timestamp: time.Now().Unix(),
		Payload:   payload,
	}
}

// Topics for recommendation lifecycle events.
const (
	// TopicRecommendationsGenerated fires after a ranked list is
	// computed and persisted for a user.
	TopicRecommendationsGenerated = "recommendations.generated"

	// TopicFeedbackRecorded fires when a user gives explicit feedback
	// on a recommendation.
	TopicFeedbackRecorded = "recommendations.feedback.recorded"

	// TopicChallengeAttempted fires when a challenge attempt lands.
	TopicChallengeAttempted = "challenges.attempted"
)
