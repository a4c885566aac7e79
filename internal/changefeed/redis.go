package changefeed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const DefaultChannel = "license_changes"

// RedisFeed fans license changes out across processes over Redis Pub/Sub.
type RedisFeed struct {
	client  *redis.Client
	channel string
	log     *zap.Logger
}

func NewRedisFeed(client *redis.Client, channel string, log *zap.Logger) *RedisFeed {
	if channel == "" {
		channel = DefaultChannel
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisFeed{client: client, channel: channel, log: log.Named("changefeed.redis")}
}

func (f *RedisFeed) Publish(ctx context.Context, change Change) error {
	if err := validate(change); err != nil {
		return err
	}
	change = stamp(change)
	data, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}
	if err := f.client.Publish(ctx, f.channel, data).Err(); err != nil {
		f.log.Error("publish license change failed",
			zap.String("channel", f.channel),
			zap.String("change_id", change.ID),
			zap.String("license_id", change.LicenseID),
			zap.Error(err))
		return fmt.Errorf("publish change: %w", err)
	}
	return nil
}

func (f *RedisFeed) Subscribe(ctx context.Context, fn func(Change)) error {
	pubsub := f.client.Subscribe(ctx, f.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", f.channel, err)
	}
	f.log.Info("subscribed to license changes", zap.String("channel", f.channel))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				f.log.Warn("license change channel closed")
				return nil
			}
			var change Change
			if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
				f.log.Error("decode license change failed", zap.Error(err))
				continue
			}
			if err := validate(change); err != nil {
				f.log.Warn("ignoring malformed license change",
					zap.String("change_id", change.ID),
					zap.String("license_id", change.LicenseID))
				continue
			}
			fn(change)
		}
	}
}
