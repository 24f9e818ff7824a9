package postgres

import (
	"context"
	"fmt"
	"trade_settlement/internal/modules/config"
	"trade_settlement/pkg/db"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			func(ctx context.Context, cfg *config.Config) (*db.PgTxManager, error) {
				pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
				defer cancel()

				poolMaster, err := db.NewPool(ctx, db.PoolConfig{
					DSN: cfg.DB,
				})
				if err != nil {
					return nil, fmt.Errorf("failed to create poolMaster: %w", err)
				}

				err = poolMaster.Ping(pingCtx)
				if err != nil {
					return nil, err
				}

				return db.NewPgTxManager(poolMaster), nil
			},
			// Сервисы зависят от интерфейса, не от пула.
			func(m *db.PgTxManager) db.TxManager { return m },
		),
	)
}
