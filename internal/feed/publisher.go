package feed

import (
	"context"
	"fmt"

	"trade_settlement/internal/models"

	"github.com/bytedance/sonic"
	goredis "github.com/redis/go-redis/v9"
)

// Publisher republishes quotes onto the redis channel the engine consumes.
type Publisher struct {
	rdb     *goredis.Client
	channel string
}

func NewPublisher(cfg *Config) (*Publisher, error) {
	opts, err := goredis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("feed.NewPublisher: %w", err)
	}
	return &Publisher{
		rdb:     goredis.NewClient(opts),
		channel: cfg.Channel,
	}, nil
}

func (p *Publisher) Publish(ctx context.Context, q models.Quote) error {
	payload, err := sonic.Marshal(q)
	if err != nil {
		return fmt.Errorf("feed.Publish: %w", err)
	}
	return p.rdb.Publish(ctx, p.channel, payload).Err()
}

func (p *Publisher) Close() error { return p.rdb.Close() }
