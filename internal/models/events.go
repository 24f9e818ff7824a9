package models

import "github.com/shopspring/decimal"

// Quote — inbound tick as published on the quote channel. The ticker may carry
// a pair separator ("EUR/USD"); settlement strips it before touching storage.
type Quote struct {
	Ticker string          `json:"p"`
	Bid    decimal.Decimal `json:"b"`
}

// TradeAction — inbound signal as published on the trade-action channel.
// CreatedAt is epoch millis; it doubles as the close timestamp of the
// positions the signal stops.
type TradeAction struct {
	Ticker         string          `json:"ticker"`
	Action         string          `json:"action"` // buy/sell
	PrevClosePrice decimal.Decimal `json:"prevClosePrice"`
	CreatedAt      int64           `json:"createdAt"`
}

// OwnerGroup — per-owner aggregate of a batch of positions: summed PnL and
// summed absolute lot (total exposure).
type OwnerGroup struct {
	UserID   int64
	TotalPnL decimal.Decimal
	TotalLot decimal.Decimal
}

// Candidate — owner eligible to have a position auto-opened: an active
// subscription whose account passes the margin floor and holds no open
// position on the ticker.
type Candidate struct {
	UserID int64
	Ticker string
	Lot    decimal.Decimal
}
