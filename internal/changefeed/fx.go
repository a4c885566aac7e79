package changefeed

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smallbiznis/factorylicense/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("changefeed",
	fx.Provide(NewFeed),
)

// NewFeed picks the feed named by config. The redis feed owns its client.
func NewFeed(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (Feed, error) {
	if cfg.ChangeFeed != "redis" {
		return NewHub(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis changefeed: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})
	return NewRedisFeed(client, DefaultChannel, log), nil
}
