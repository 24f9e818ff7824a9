package service

import (
	"context"
	"fmt"
	"trade_settlement/internal/models"
	"trade_settlement/pkg/db"
)

// PublishEquity pushes the grouped open-position totals into the owners'
// accounts after a mark-to-market pass: equity becomes balance plus unrealized
// PnL plus the margin held for the open exposure, and the unrealized mirror is
// overwritten with the grouped total. One update per owner, bulk-chunked.
func (s *Store) PublishEquity(ctx context.Context, tx db.Transaction, groups []models.OwnerGroup) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Store.PublishEquity: %w", err)
		}
	}()

	w := NewBulkWriter(tx)
	for _, g := range groups {
		if err = w.Add(ctx, `
			update accounts
			set equity = balance + $2 + $3,
			    unrealized_pnl = $2
			where user_id = $1`,
			g.UserID, g.TotalPnL, s.multiplier.Mul(g.TotalLot)); err != nil {
			return err
		}
	}
	return w.Flush(ctx)
}

// RealizePnL folds a closed batch into the owners' balances: the frozen PnL
// plus the released margin is credited, the realized part leaves the
// unrealized mirror, and equity is recomputed from both. All three columns
// move in one statement over the pre-update values.
func (s *Store) RealizePnL(ctx context.Context, tx db.Transaction, groups []models.OwnerGroup) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Store.RealizePnL: %w", err)
		}
	}()

	w := NewBulkWriter(tx)
	for _, g := range groups {
		credit := g.TotalPnL.Add(s.multiplier.Mul(g.TotalLot))
		if err = w.Add(ctx, `
			update accounts
			set balance = balance + $2,
			    equity = balance + $2 + unrealized_pnl - $3,
			    unrealized_pnl = unrealized_pnl - $3
			where user_id = $1`,
			g.UserID, credit, g.TotalPnL); err != nil {
			return err
		}
	}
	return w.Flush(ctx)
}

// ReserveMargin debits the committed capital for each freshly opened position.
// Equity is left to the next quote tick.
func (s *Store) ReserveMargin(ctx context.Context, tx db.Transaction, cands []models.Candidate) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Store.ReserveMargin: %w", err)
		}
	}()

	w := NewBulkWriter(tx)
	for _, c := range cands {
		if err = w.Add(ctx, `
			update accounts
			set balance = balance - $2
			where user_id = $1`,
			c.UserID, s.multiplier.Mul(c.Lot)); err != nil {
			return err
		}
	}
	return w.Flush(ctx)
}
