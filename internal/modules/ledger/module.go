package ledger

import (
	"trade_settlement/internal/modules/ledger/service"
	settlementsvc "trade_settlement/internal/modules/settlement/service"

	"go.uber.org/fx"
)

func Module() fx.Option {
	return fx.Module("ledger",
		fx.Provide(
			service.NewStore,
			// Настройка зависит от интерфейса Ledger, не от конкретного стора.
			func(s *service.Store) settlementsvc.Ledger { return s },
		),
	)
}
