package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"hraccess/internal/domain/access"
	"hraccess/internal/platform/config"
)

// RedisPublisher announces committed permission changes so other sessions of the
// affected user recompute their effective set.
type RedisPublisher struct {
	client  *redis.Client
	channel string
}

func NewRedisClient(cfg config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

func NewRedisPublisher(client *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

func (p *RedisPublisher) PublishPermissionsChanged(ctx context.Context, event access.ChangeEvent) error {
	payload, err := encodeChange(event)
	if err != nil {
		return err
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", p.channel, err)
	}
	return nil
}

// Subscribe delivers decoded change events until ctx is cancelled. Messages that
// fail to decode are skipped.
func (p *RedisPublisher) Subscribe(ctx context.Context, handle func(access.ChangeEvent)) error {
	sub := p.client.Subscribe(ctx, p.channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return err
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			event, err := decodeChange([]byte(msg.Payload))
			if err != nil {
				continue
			}
			handle(event)
		}
	}
}

func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func encodeChange(event access.ChangeEvent) ([]byte, error) {
	return json.Marshal(event)
}

func decodeChange(payload []byte) (access.ChangeEvent, error) {
	var event access.ChangeEvent
	err := json.Unmarshal(payload, &event)
	return event, err
}
