package location

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/goodtune/runtracker/internal/geo"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ChannelName returns the pub/sub channel carrying samples for a device.
func ChannelName(device string) string {
	return fmt.Sprintf("runtracker:location:%s", device)
}

// Redis receives JSON samples from a redis pub/sub channel.
type Redis struct {
	client  *redis.Client
	channel string
	logger  zerolog.Logger
}

// NewRedis creates a provider listening on channel.
func NewRedis(client *redis.Client, channel string, logger zerolog.Logger) *Redis {
	return &Redis{
		client:  client,
		channel: channel,
		logger:  logger.With().Str("component", "redis-location").Str("channel", channel).Logger(),
	}
}

// Name identifies the provider.
func (r *Redis) Name() string { return "redis" }

// Stream subscribes to the channel and forwards every valid sample.
func (r *Redis) Stream(ctx context.Context, out chan<- geo.Point) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer func() { _ = pubsub.Close() }()

	// Wait for the subscription to be confirmed
	if _, err := pubsub.Receive(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("failed to subscribe to %s: %w", r.channel, err)
	}

	r.logger.Debug().Msg("Subscribed to location channel")

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}

			var p geo.Point
			if err := json.Unmarshal([]byte(msg.Payload), &p); err != nil {
				r.logger.Warn().Err(err).Str("payload", msg.Payload).Msg("Ignoring malformed location sample")
				continue
			}

			select {
			case out <- p:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// PublishPoint sends a sample to a location channel.
func PublishPoint(ctx context.Context, client *redis.Client, channel string, p geo.Point) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode sample: %w", err)
	}
	if err := client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish sample: %w", err)
	}
	return nil
}
