package redis

import (
	"context"
	"fmt"
	"trade_settlement/internal/modules/config"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("redis",
		fx.Provide(
			func(ctx context.Context, cfg *config.Config) (*goredis.Client, error) {
				opts, err := goredis.ParseURL(cfg.Redis.URL)
				if err != nil {
					return nil, fmt.Errorf("failed to parse redis url: %w", err)
				}
				client := goredis.NewClient(opts)

				pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
				defer cancel()
				if err := client.Ping(pingCtx).Err(); err != nil {
					return nil, fmt.Errorf("failed to ping redis: %w", err)
				}

				return client, nil
			},
		),
		fx.Invoke(func(lc fx.Lifecycle, client *goredis.Client) {
			lc.Append(fx.Hook{
				OnStop: func(_ context.Context) error {
					return client.Close()
				},
			})
		}),
	)
}
