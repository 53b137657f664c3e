// Package messaging implements the realtime side channel for Stridemate.
// Domain events fan out over Redis pub/sub so websocket gateways and
// other instances can push matches, messages, and presence changes to
// connected clients without polling Postgres.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stridemate/stridemate-hub/internal/domain/shared"
	"github.com/stridemate/stridemate-hub/internal/infrastructure/persistence/redis"
	"github.com/stridemate/stridemate-hub/pkg/circuitbreaker"
	"github.com/stridemate/stridemate-hub/pkg/logger"
	"github.com/stridemate/stridemate-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrPublisherClosed is returned when publishing after Close.
	ErrPublisherClosed = errors.New("messaging: publisher is closed")

	// ErrNilEvent is returned when a nil event is published.
	ErrNilEvent = errors.New("messaging: event cannot be nil")
)

// ══════════════════════════════════════════════════════════════════════════════
// REDIS PUBLISHER
// Events are routed by type to per-entity channels:
//
//	match events    -> events:matches:<runnerID>  (one publish per side)
//	message events  -> events:messages:<matchID>
//	presence events -> events:presence:<runnerID>
//
// Publishing is best-effort: the authoritative state is already in
// Postgres by the time an event reaches this code, so a Redis outage
// costs realtime delivery, never data. The circuit breaker keeps a dead
// Redis from adding retry latency to every request.
// ══════════════════════════════════════════════════════════════════════════════

// RedisPublisher implements shared.EventPublisher over Redis pub/sub.
type RedisPublisher struct {
	cache   *redis.Cache
	breaker *circuitbreaker.CircuitBreaker
	retrier *retry.Retrier
	log     *logger.Logger

	// publishTimeout bounds a single publish attempt.
	publishTimeout time.Duration

	mu     sync.RWMutex
	closed bool
}

// NewRedisPublisher creates a publisher over the given Redis client.
func NewRedisPublisher(cache *redis.Cache, log *logger.Logger) *RedisPublisher {
	log = log.With(logger.Component("realtime_publisher"))

	breaker := circuitbreaker.RealtimePublisherBreaker(func(name string, from, to circuitbreaker.State) {
		log.Warn("circuit breaker state change",
			logger.String("breaker", name),
			logger.String("from", from.String()),
			logger.String("to", to.String()),
		)
	})

	return &RedisPublisher{
		cache:          cache,
		breaker:        breaker,
		retrier:        retry.PublisherRetrier(),
		log:            log,
		publishTimeout: 2 * time.Second,
	}
}

// Publish routes an event to its channels. Match events go to both
// participants; everything else has a single channel.
func (p *RedisPublisher) Publish(event shared.Event) error {
	if event == nil {
		return ErrNilEvent
	}

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrPublisherClosed
	}
	p.mu.RUnlock()

	envelope, err := p.envelope(event)
	if err != nil {
		return err
	}

	for _, channel := range p.channelsFor(event) {
		if err := p.publishTo(channel, envelope); err != nil {
			p.log.Error("failed to publish event",
				logger.String("channel", channel),
				logger.String("event_type", string(event.EventType())),
				logger.Err(err),
			)
			return fmt.Errorf("%w: %v", shared.ErrPublishFailed, err)
		}
	}

	return nil
}

// Close stops the publisher. In-flight publishes finish; new ones fail.
func (p *RedisPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// channelsFor maps an event to its pub/sub channels.
func (p *RedisPublisher) channelsFor(event shared.Event) []string {
	switch e := event.(type) {
	case shared.MatchCreatedEvent:
		return []string{
			redis.MatchChannel(e.User1ID),
			redis.MatchChannel(e.User2ID),
		}
	case shared.MessageSentEvent:
		return []string{redis.MessageChannel(e.MatchID)}
	case shared.RunnerWentOnlineEvent:
		return []string{redis.PresenceChannel(e.RunnerID)}
	case shared.RunnerWentOfflineEvent:
		return []string{redis.PresenceChannel(e.RunnerID)}
	case shared.ProfileSyncedEvent:
		return []string{redis.PresenceChannel(e.RunnerID)}
	default:
		// Unknown event types still go out, keyed by aggregate.
		return []string{redis.PresenceChannel(event.AggregateID())}
	}
}

func (p *RedisPublisher) envelope(event shared.Event) (*shared.EventEnvelope, error) {
	payload, err := json.Marshal(event.Payload())
	if err != nil {
		return nil, fmt.Errorf("messaging: marshal payload: %w", err)
	}

	return &shared.EventEnvelope{
		ID:          uuid.NewString(),
		Type:        event.EventType(),
		AggregateID: event.AggregateID(),
		Timestamp:   event.OccurredAt(),
		Version:     1,
		Payload:     payload,
	}, nil
}

func (p *RedisPublisher) publishTo(channel string, envelope *shared.EventEnvelope) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.publishTimeout)
	defer cancel()

	return p.breaker.Execute(ctx, func(ctx context.Context) error {
		return p.retrier.Do(ctx, func(ctx context.Context) error {
			return p.cache.Publish(ctx, channel, envelope)
		})
	})
}
