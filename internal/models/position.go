package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ActionBuy  = "buy"
	ActionSell = "sell"
)

// ContractMultiplier converts one lot into notional currency (standard forex lot).
var ContractMultiplier = decimal.NewFromInt(100000)

// Position — one open or closed trading lot of one owner on one instrument.
// Lot is signed: sell positions store a negative lot, so SUM(lot) nets exposure
// and SUM(ABS(lot)) totals it. While the position is open PnL is re-marked on
// every quote; Done/EndedAt are set exactly once, which freezes PnL.
type Position struct {
	ID        int64
	UserID    int64
	Ticker    string
	Action    string // buy/sell
	Price     decimal.Decimal
	Lot       decimal.Decimal
	PnL       decimal.Decimal
	Done      bool
	CreatedAt time.Time
	EndedAt   *time.Time
}

// LotSign is +1 for buy, -1 for sell.
func LotSign(action string) decimal.Decimal {
	if action == ActionSell {
		return decimal.NewFromInt(-1)
	}
	return decimal.NewFromInt(1)
}
