package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/zyborn/auction-api/internal/core/domain"
	"github.com/zyborn/auction-api/internal/core/ports"
)

const defaultChannel = "auction:events"

// Bus fans events out to every API instance over Redis pub/sub. Publish only
// writes to the channel; Run relays what arrives on it into the local bus, so
// subscribers on all instances see the same per-key order.
type Bus struct {
	client  *redis.Client
	channel string
	local   ports.EventBus
	log     zerolog.Logger
}

var _ ports.EventBus = (*Bus)(nil)

func NewBus(client *redis.Client, channel string, local ports.EventBus, log zerolog.Logger) *Bus {
	if channel == "" {
		channel = defaultChannel
	}
	return &Bus{client: client, channel: channel, local: local, log: log}
}

func (b *Bus) Publish(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	return nil
}

func (b *Bus) Subscribe(prefix string, fn ports.EventHandler) (unsubscribe func()) {
	return b.local.Subscribe(prefix, fn)
}

// Run subscribes to the channel and relays events into the local bus until
// ctx is cancelled.
func (b *Bus) Run(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	// Wait for the subscription confirmation so events published right after
	// startup are not missed.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("redis subscribe %s: %w", b.channel, err)
	}
	b.log.Info().Str("channel", b.channel).Msg("event relay subscribed")

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return errors.New("redis subscription closed")
			}
			var event domain.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.log.Warn().Err(err).Msg("dropping malformed event")
				continue
			}
			if err := b.local.Publish(ctx, event); err != nil {
				return nil
			}
		}
	}
}
