package settlement

import (
	"trade_settlement/internal/modules/settlement/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("settlement",
		fx.Provide(
			service.NewSettler, // *service.Settler (получит TxManager и Ledger)
		),
	)
}
