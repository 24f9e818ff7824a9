// Package service is the typed accessor over the three ledger tables:
// positions, accounts and subscriptions. Every method runs inside the
// caller-supplied transaction scope; account mutations are single UPDATE
// statements whose right-hand sides reference the old column values, so
// concurrent per-owner updates from different tickers never read stale
// balances in application code.
package service

import (
	"trade_settlement/internal/models"

	"github.com/shopspring/decimal"
)

type Store struct {
	multiplier decimal.Decimal
}

func NewStore() *Store {
	return &Store{
		multiplier: models.ContractMultiplier,
	}
}
