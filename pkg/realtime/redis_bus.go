package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultChannelPrefix namespaces the Redis pub/sub channels used by the bus.
const DefaultChannelPrefix = "zenarog:changes:"

// RedisBus is a Bus backed by Redis pub/sub so that every service instance
// sees writes made through any other instance.
type RedisBus struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewRedisBus creates a Redis-backed bus.
func NewRedisBus(client *redis.Client, logger *zap.Logger) *RedisBus {
	return &RedisBus{
		client: client,
		prefix: DefaultChannelPrefix,
		logger: logger.Named("realtime"),
	}
}

// Publish implements Bus.
func (b *RedisBus) Publish(ctx context.Context, change Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}
	if err := b.client.Publish(ctx, b.prefix+change.Topic(), payload).Err(); err != nil {
		return fmt.Errorf("publish change: %w", err)
	}
	return nil
}

// Subscribe implements Bus.
func (b *RedisBus) Subscribe(ctx context.Context, topic string) (<-chan Change, error) {
	pubsub := b.client.Subscribe(ctx, b.prefix+topic)

	// Wait for the subscription confirmation so no publish is missed after return.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	out := make(chan Change, subscriberBuffer)
	go func() {
		defer close(out)
		defer pubsub.Close()

		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				var change Change
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					b.logger.Warn("Discarding malformed change notification",
						zap.String("channel", msg.Channel),
						zap.Error(err))
					continue
				}
				select {
				case out <- change:
				default:
				}
			}
		}
	}()

	return out, nil
}

var _ Bus = (*RedisBus)(nil)
