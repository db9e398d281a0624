package metrics

import (
	"context"

	"github.com/skillmatch/skill-match/internal/bus"
)

// EventSubscriber subscribes to the event bus and updates metrics from
// recommendation lifecycle events.
type EventSubscriber struct {
	metrics *Metrics
	bus     bus.Bus
}

// NewEventSubscriber creates a new event subscriber.
func NewEventSubscriber(metrics *Metrics, eventBus bus.Bus) *EventSubscriber {
	return &EventSubscriber{
		metrics: metrics,
		bus:     eventBus,
	}
}

// SubscribeToEvents subscribes to all relevant topics.
func (es *EventSubscriber) SubscribeToEvents(ctx context.Context) error {
	if err := es.bus.Subscribe(ctx, bus.TopicRecommendationsGenerated, es.handleRecommendationsGenerated); err != nil {
		return err
	}
	if err := es.bus.Subscribe(ctx, bus.TopicFeedbackRecorded, es.handleFeedbackRecorded); err != nil {
		return err
	}
	if err := es.bus.Subscribe(ctx, bus.TopicChallengeAttempted, es.handleChallengeAttempted); err != nil {
		return err
	}
	return nil
}

func (es *EventSubscriber) handleRecommendationsGenerated(_ context.Context, _ bus.Event) error {
	// Request counts and latency are recorded at the call site; the
	// event exists for downstream consumers.
	return nil
}

func (es *EventSubscriber) handleFeedbackRecorded(_ context.Context, _ bus.Event) error {
	es.metrics.RecordFeedback()
	return nil
}

func (es *EventSubscriber) handleChallengeAttempted(_ context.Context, _ bus.Event) error {
	es.metrics.RecordChallengeAttempt()
	return nil
}
