package dispatch

import (
	"context"

	"go.uber.org/fx"

	"trade_settlement/internal/modules/dispatch/service"
	healthsvc "trade_settlement/internal/modules/health/service"
)

func Module() fx.Option {
	return fx.Module("dispatch",
		fx.Provide(
			service.NewConsumer,
		),
		fx.Invoke(func(
			lc fx.Lifecycle,
			c *service.Consumer,
			state *healthsvc.State,
			ctx context.Context,
		) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go c.RunQuotes(ctx)
					go c.RunTradeActions(ctx)
					state.SetReady(true)
					return nil
				},
				OnStop: func(_ context.Context) error {
					state.SetReady(false)
					return nil
				},
			})
		}),
	)
}
