package models

import "github.com/shopspring/decimal"

// Account — realized cash plus the cached mark-to-market mirror.
// Balance moves only on realized PnL and margin reservation. Equity and
// UnrealizedPnL are recomputed by the settlement cycles, never by readers.
type Account struct {
	UserID        int64
	Balance       decimal.Decimal
	Equity        decimal.Decimal
	UnrealizedPnL decimal.Decimal
}

// Subscription — static auto-open configuration: which owner may be given a
// position on which instrument and at what requested lot. Read-only for the
// settlement engine. Status gates participation.
type Subscription struct {
	UserID int64
	Ticker string
	Lot    decimal.Decimal
	Status string
}

const SubscriptionActive = "active"
