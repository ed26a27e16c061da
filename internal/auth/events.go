package auth

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// EventBus relays session events between API instances over Redis pub/sub.
type EventBus struct {
	client  *redis.Client
	channel string
	log     logrus.FieldLogger
}

// NewEventBus creates a bus on channel.
func NewEventBus(client *redis.Client, channel string, log logrus.FieldLogger) *EventBus {
	if channel == "" {
		channel = "tayoga:auth-events"
	}
	return &EventBus{client: client, channel: channel, log: log}
}

// Publish sends ev to every subscriber.
func (b *EventBus) Publish(ctx context.Context, ev Event) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, b.channel, raw).Err()
}

// Subscribe streams events until ctx is done. Malformed payloads are skipped.
func (b *EventBus) Subscribe(ctx context.Context) <-chan Event {
	out := make(chan Event)
	sub := b.client.Subscribe(ctx, b.channel)
	go func() {
		defer close(out)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					b.log.WithError(err).Warn("dropping malformed auth event")
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Forward publishes local sign-outs so other instances drop the session too.
func (b *EventBus) Forward(ctx context.Context) func(Event) {
	return func(ev Event) {
		if ev.Type != SignedOut {
			return
		}
		if err := b.Publish(ctx, ev); err != nil {
			b.log.WithError(err).Warn("auth event publish failed")
		}
	}
}
