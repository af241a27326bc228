package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/cafein/cafein-server/shared/metrics"
)

// streamMaxLen caps each stream; trimming is approximate.
const streamMaxLen = 100000

// Publisher appends events to Redis streams on behalf of one service.
type Publisher struct {
	client redis.Cmdable
	source string
	now    func() time.Time
}

func NewPublisher(client redis.Cmdable, source string) *Publisher {
	return &Publisher{
		client: client,
		source: source,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Publish wraps data in an Event envelope and appends it to stream. The
// entry carries the event type as its own field so XRANGE output can be
// filtered without decoding.
func (p *Publisher) Publish(ctx context.Context, stream, eventType string, data any) error {
	event := p.envelope(eventType, data)
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	err = p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: map[string]any{
			"type":  eventType,
			"event": payload,
		},
	}).Err()
	metrics.RecordEventPublished(stream, err == nil)
	if err != nil {
		return fmt.Errorf("failed to publish %s to %s: %w", eventType, stream, err)
	}
	return nil
}

func (p *Publisher) envelope(eventType string, data any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    p.source,
		Timestamp: p.now(),
		Data:      data,
	}
}
