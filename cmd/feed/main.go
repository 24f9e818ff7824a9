package main

import (
	"context"
	"log"

	"trade_settlement/internal/feed"

	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		fx.Provide(
			feed.Load,
			feed.NewClient,
			feed.NewPublisher,
		),
		fx.Invoke(
			func(lc fx.Lifecycle, c *feed.Client, p *feed.Publisher) {
				ctx, cancel := context.WithCancel(context.Background())
				lc.Append(fx.Hook{
					OnStart: func(_ context.Context) error {
						go func() {
							for q := range c.Stream(ctx) {
								if err := p.Publish(ctx, q); err != nil {
									log.Printf("publish failed: %v", err)
								}
							}
						}()
						log.Println("feed bridge started")
						return nil
					},
					OnStop: func(_ context.Context) error {
						cancel()
						return p.Close()
					},
				})
			},
		),
	)
	app.Run()
}
