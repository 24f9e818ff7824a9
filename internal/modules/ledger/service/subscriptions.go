package service

import (
	"context"
	"fmt"
	"trade_settlement/internal/models"
	"trade_settlement/pkg/db"
)

// EligibleAccounts resolves which subscribed owners may have a position
// auto-opened on the ticker: subscription active, balance covers the margin
// for the requested lot, and no open position on the ticker yet (which also
// keeps out owners whose opposing position somehow survived the stop step).
// Must run after the stop step of the same transaction so it observes the
// closes and the realized balances.
func (s *Store) EligibleAccounts(ctx context.Context, tx db.Transaction, ticker string) (cands []models.Candidate, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Store.EligibleAccounts: %w", err)
		}
	}()

	rows, err := tx.Query(ctx, `
		select s.user_id, s.ticker, s.lot
		from subscriptions s
		join accounts a on a.user_id = s.user_id
		where s.ticker = $1
		  and s.status = $2
		  and a.balance >= $3 * s.lot
		  and not exists (
			select 1 from positions p
			where p.user_id = s.user_id and p.ticker = s.ticker and not p.done)
		order by s.user_id`,
		ticker, models.SubscriptionActive, s.multiplier)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Candidate
	for rows.Next() {
		var c models.Candidate
		if err = rows.Scan(&c.UserID, &c.Ticker, &c.Lot); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
