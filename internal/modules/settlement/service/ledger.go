package service

import (
	"context"
	"time"
	"trade_settlement/internal/models"
	"trade_settlement/pkg/db"

	"github.com/shopspring/decimal"
)

// Ledger is the store surface a settlement cycle needs, always inside the
// transaction scope handed to it. Implemented by the ledger store; tests plug
// an in-memory double.
type Ledger interface {
	MarkToMarket(ctx context.Context, tx db.Transaction, ticker string, bid decimal.Decimal) error
	MarkToMarketBatch(ctx context.Context, tx db.Transaction, quotes []models.Quote) error
	OpenGroups(ctx context.Context, tx db.Transaction, tickers []string) ([]models.OwnerGroup, error)
	PublishEquity(ctx context.Context, tx db.Transaction, groups []models.OwnerGroup) error

	StopOpposing(ctx context.Context, tx db.Transaction, ticker, action string, endedAt time.Time) (int64, error)
	ClosedGroups(ctx context.Context, tx db.Transaction, ticker string, endedAt time.Time) ([]models.OwnerGroup, error)
	RealizePnL(ctx context.Context, tx db.Transaction, groups []models.OwnerGroup) error
	EligibleAccounts(ctx context.Context, tx db.Transaction, ticker string) ([]models.Candidate, error)
	OpenPositions(ctx context.Context, tx db.Transaction, action string, price decimal.Decimal, createdAt time.Time, cands []models.Candidate) error
	ReserveMargin(ctx context.Context, tx db.Transaction, cands []models.Candidate) error

	LastPosition(ctx context.Context, tx db.Transaction, ticker string) (*models.Position, error)
}
