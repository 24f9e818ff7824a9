package main

import (
	"context"
	"log"

	"trade_settlement/internal/modules/config"
	"trade_settlement/internal/modules/dispatch"
	"trade_settlement/internal/modules/health"
	"trade_settlement/internal/modules/ledger"
	"trade_settlement/internal/modules/postgres"
	redismod "trade_settlement/internal/modules/redis"
	"trade_settlement/internal/modules/settlement"
	"trade_settlement/internal/notify"
	"trade_settlement/pkg/logger"
	"trade_settlement/pkg/tracing"

	"go.uber.org/fx"
)

func main() {
	logger.SetServiceName("settler")
	tracing.SetServiceName("settler")
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
			// Notifier: если TELEGRAM_* нет — используем stdout
			func(cfg *config.Config) notify.Notifier {
				if cfg.Telegram.Token != "" && cfg.Telegram.ChatID != 0 {
					if tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID); err == nil {
						return tg
					}
				}
				return notify.NewStdout()
			},
		),
		config.Module(),
		postgres.Module(),
		redismod.Module(),
		ledger.Module(),
		settlement.Module(),
		dispatch.Module(),
		health.Module(),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config) {
			if cfg.Jaeger.Host == "" {
				return
			}
			_, closeTracer, err := tracing.InitTracer(tracing.Config{
				Host: cfg.Jaeger.Host,
				Port: cfg.Jaeger.Port,
			})
			if err != nil {
				logger.Error("tracer init failed: %v", err)
				return
			}
			lc.Append(fx.Hook{
				OnStop: func(_ context.Context) error {
					closeTracer()
					return nil
				},
			})
		}),
	)
	app.Run()
}
