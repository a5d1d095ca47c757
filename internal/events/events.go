// Package events publishes analytics events about searches and
// recommendations. Publishing is best-effort.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"shoppa-backend/internal/shared/telemetry"
)

const (
	TypeSearchAnalyzed          = "search.analyzed"
	TypeRecommendationGenerated = "recommendation.generated"
	TypeRecommendationFallback  = "recommendation.fallback_used"
	TypeRecommendationFailed    = "recommendation.failed"
	TypeOnboardingCompleted     = "onboarding.completed"
)

type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Key        string         `json:"key,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// New stamps an event with an id and the current time.
func New(eventType, key string, attrs map[string]any) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		Key:        key,
		OccurredAt: time.Now().UTC(),
		Attributes: attrs,
	}
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Emit publishes ev and logs any failure instead of returning it.
func Emit(ctx context.Context, p Publisher, ev Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, ev); err != nil {
		telemetry.Warn("events.publish_failed", map[string]any{
			"event_type": ev.Type,
			"event_id":   ev.ID,
			"error":      err,
		})
	}
}

// LogPublisher writes events to the structured log.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, ev Event) error {
	telemetry.Info("event", map[string]any{
		"event_type": ev.Type,
		"event_id":   ev.ID,
		"key":        ev.Key,
		"attributes": ev.Attributes,
	})
	return nil
}

func (LogPublisher) Close() error { return nil }

// Recorder keeps events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Types lists recorded event types in publish order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Type)
	}
	return out
}
