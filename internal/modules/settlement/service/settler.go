// Package service holds the two settlement components. Each invocation is one
// atomic transaction: either the whole cycle commits or the ledger stays at
// its last committed state.
package service

import (
	"context"
	"fmt"
	"strings"
	"trade_settlement/internal/models"
	"trade_settlement/pkg/db"
)

type Settler struct {
	txm    db.TxManager
	ledger Ledger
}

func NewSettler(txm db.TxManager, ledger Ledger) *Settler {
	return &Settler{
		txm:    txm,
		ledger: ledger,
	}
}

// normalizeTicker strips the pair separator quotes may carry ("EUR/USD").
func normalizeTicker(p string) string {
	return strings.ReplaceAll(p, "/", "")
}

// LastSettled returns the most recent position row for a ticker, open or
// closed. Debug surface; runs outside the settlement write path.
func (s *Settler) LastSettled(ctx context.Context, ticker string) (*models.Position, error) {
	var pos *models.Position
	err := s.txm.RunRepeatableRead(ctx, func(ctx context.Context, tx db.Transaction) error {
		var err error
		pos, err = s.ledger.LastPosition(ctx, tx, normalizeTicker(ticker))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("Settler.LastSettled: %w", err)
	}
	return pos, nil
}
