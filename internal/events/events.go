// Package events carries domain events from the storefront to background
// consumers such as the order e-mail notifier.
package events

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is the envelope written to the bus.
type Event struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	AggregateID string          `json:"aggregate_id"`
	Data        json.RawMessage `json:"data"`
	Timestamp   time.Time       `json:"timestamp"`
}

// New wraps data in an envelope with a fresh id.
func New(eventType, aggregateID string, data any) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:          uuid.New().String(),
		Type:        eventType,
		AggregateID: aggregateID,
		Data:        raw,
		Timestamp:   time.Now().UTC(),
	}, nil
}

// Decode unmarshals the payload of e into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Data, v)
}

// Publisher writes a keyed message to the bus.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// Emitter publishes events on a best-effort basis: a failure is logged and
// never fails the operation that produced the event.
type Emitter struct {
	pub Publisher
}

// NewEmitter returns an Emitter; a nil publisher drops every event.
func NewEmitter(pub Publisher) *Emitter {
	return &Emitter{pub: pub}
}

func (e *Emitter) Emit(ctx context.Context, eventType, aggregateID string, data any) {
	if e == nil || e.pub == nil {
		return
	}
	ev, err := New(eventType, aggregateID, data)
	if err != nil {
		log.Printf("[Events] Failed to encode %s for %s: %v", eventType, aggregateID, err)
		return
	}
	if err := e.pub.Publish(ctx, aggregateID, ev); err != nil {
		log.Printf("[Events] Failed to publish %s for %s: %v", eventType, aggregateID, err)
	}
}

// Recorder is an in-memory Publisher for tests.
type Recorder struct {
	mu     sync.Mutex
	Events []Event
	Err    error
}

func (r *Recorder) Publish(_ context.Context, _ string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	if ev, ok := event.(Event); ok {
		r.Events = append(r.Events, ev)
	}
	return nil
}

// Types returns the recorded event types in publish order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.Events))
	for i, ev := range r.Events {
		out[i] = ev.Type
	}
	return out
}
