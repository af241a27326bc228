package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cafein/cafein-server/shared/metrics"
)

type Handler func(ctx context.Context, event Event) error

// Subscriber reads one stream through a consumer group. An entry is ACKed
// only after its handler succeeds; failed entries stay pending and are
// claimed again once they have been idle for ClaimMinIdle.
type Subscriber struct {
	client        redis.Cmdable
	group         string
	consumer      string
	stream        string
	handler       Handler
	batchSize     int64
	blockDuration time.Duration
	claimMinIdle  time.Duration
	lastClaim     time.Time
	logger        *zap.Logger
}

type SubscriberConfig struct {
	Group         string
	Consumer      string
	Stream        string
	Handler       Handler
	BatchSize     int64
	BlockDuration time.Duration
	ClaimMinIdle  time.Duration
	Logger        *zap.Logger
}

func NewSubscriber(client redis.Cmdable, config SubscriberConfig) *Subscriber {
	if config.BatchSize == 0 {
		config.BatchSize = 10
	}
	if config.BlockDuration == 0 {
		config.BlockDuration = 5 * time.Second
	}
	if config.ClaimMinIdle == 0 {
		config.ClaimMinIdle = time.Minute
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return &Subscriber{
		client:        client,
		group:         config.Group,
		consumer:      config.Consumer,
		stream:        config.Stream,
		handler:       config.Handler,
		batchSize:     config.BatchSize,
		blockDuration: config.BlockDuration,
		claimMinIdle:  config.ClaimMinIdle,
		logger: config.Logger.With(
			zap.String("stream", config.Stream),
			zap.String("group", config.Group),
			zap.String("consumer", config.Consumer),
		),
	}
}

// Start blocks until ctx is cancelled.
func (s *Subscriber) Start(ctx context.Context) error {
	err := s.client.XGroupCreateMkStream(ctx, s.stream, s.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	s.logger.Info("subscriber started")
	for {
		if ctx.Err() != nil {
			s.logger.Info("subscriber stopping")
			return ctx.Err()
		}

		if time.Since(s.lastClaim) >= s.claimMinIdle {
			s.lastClaim = time.Now()
			if err := s.reclaim(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("failed to reclaim pending entries", zap.Error(err))
			}
		}

		if err := s.readNew(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			s.logger.Warn("error reading messages", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}
}

func (s *Subscriber) readNew(ctx context.Context) error {
	streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    s.group,
		Consumer: s.consumer,
		Streams:  []string{s.stream, ">"},
		Count:    s.batchSize,
		Block:    s.blockDuration,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read from stream: %w", err)
	}

	for _, stream := range streams {
		s.handleBatch(ctx, stream.Messages)
	}
	return nil
}

// reclaim takes over entries another consumer (or an earlier failed attempt
// by this one) left pending, walking the whole pending list.
func (s *Subscriber) reclaim(ctx context.Context) error {
	start := "0-0"
	for {
		messages, next, err := s.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
			Stream:   s.stream,
			Group:    s.group,
			Consumer: s.consumer,
			MinIdle:  s.claimMinIdle,
			Start:    start,
			Count:    s.batchSize,
		}).Result()
		if err != nil {
			return err
		}

		metrics.RecordEventsReclaimed(s.stream, len(messages))
		s.handleBatch(ctx, messages)

		if next == "0-0" || next == "" || len(messages) == 0 {
			return nil
		}
		start = next
	}
}

func (s *Subscriber) handleBatch(ctx context.Context, messages []redis.XMessage) {
	for _, message := range messages {
		if err := s.processMessage(ctx, message); err != nil {
			s.logger.Error("failed to process message", zap.String("id", message.ID), zap.Error(err))
			continue
		}
		if err := s.client.XAck(ctx, s.stream, s.group, message.ID).Err(); err != nil {
			s.logger.Warn("failed to ACK message", zap.String("id", message.ID), zap.Error(err))
		}
	}
}

func (s *Subscriber) processMessage(ctx context.Context, message redis.XMessage) error {
	event, err := ParseMessage(message)
	if err != nil {
		return err
	}
	return s.handler(ctx, event)
}

// ParseMessage decodes the event stored in a stream entry.
func ParseMessage(message redis.XMessage) (Event, error) {
	payload, ok := message.Values["event"].(string)
	if !ok {
		return Event{}, fmt.Errorf("stream entry %s has no event field", message.ID)
	}

	var event Event
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return Event{}, fmt.Errorf("failed to unmarshal event %s: %w", message.ID, err)
	}
	return event, nil
}
