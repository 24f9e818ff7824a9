package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"trade_settlement/internal/models"
	"trade_settlement/pkg/db"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const markToMarketSQL = `
update positions
set pnl = $3 * ($2 - price) * lot
where ticker = $1 and not done`

// MarkToMarket re-prices every open position on the ticker against the bid.
// Pure recomputation: replaying the same quote writes the same values.
func (s *Store) MarkToMarket(ctx context.Context, tx db.Transaction, ticker string, bid decimal.Decimal) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Store.MarkToMarket: %w", err)
		}
	}()

	_, err = tx.Exec(ctx, markToMarketSQL, ticker, bid, s.multiplier)
	return err
}

// MarkToMarketBatch queues one mark-to-market statement per quote through the
// bulk writer. Quotes must already be coalesced to one per ticker: two
// statements against the same ticker inside one chunk would race.
func (s *Store) MarkToMarketBatch(ctx context.Context, tx db.Transaction, quotes []models.Quote) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Store.MarkToMarketBatch: %w", err)
		}
	}()

	w := NewBulkWriter(tx)
	for _, q := range quotes {
		if err = w.Add(ctx, markToMarketSQL, q.Ticker, q.Bid, s.multiplier); err != nil {
			return err
		}
	}
	return w.Flush(ctx)
}

// OpenGroups aggregates open positions by owner for the owners holding an open
// position on any of the tickers. The sums run across ALL of an owner's open
// positions, not only the quoted ticker, so the equity republish stays correct
// for accounts spread over several instruments.
func (s *Store) OpenGroups(ctx context.Context, tx db.Transaction, tickers []string) (groups []models.OwnerGroup, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Store.OpenGroups: %w", err)
		}
	}()

	rows, err := tx.Query(ctx, `
		select user_id, coalesce(sum(pnl), 0), coalesce(sum(abs(lot)), 0)
		from positions
		where not done and user_id in (
			select user_id from positions
			where ticker = any($1) and not done)
		group by user_id
		order by user_id`, tickers)
	if err != nil {
		return nil, err
	}
	return scanOwnerGroups(rows)
}

// StopOpposing closes every open position on the ticker whose direction is
// opposite to the incoming action. Same-direction positions stay open.
// Returns the number of positions closed.
func (s *Store) StopOpposing(ctx context.Context, tx db.Transaction, ticker, action string, endedAt time.Time) (n int64, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Store.StopOpposing: %w", err)
		}
	}()

	tag, err := tx.Exec(ctx, `
		update positions
		set done = true, ended_at = $3
		where ticker = $1 and action <> $2 and not done`,
		ticker, action, endedAt)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// ClosedGroups selects exactly the batch closed at endedAt and aggregates it
// by owner: summed frozen PnL and summed absolute lot.
func (s *Store) ClosedGroups(ctx context.Context, tx db.Transaction, ticker string, endedAt time.Time) (groups []models.OwnerGroup, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Store.ClosedGroups: %w", err)
		}
	}()

	rows, err := tx.Query(ctx, `
		select user_id, coalesce(sum(pnl), 0), coalesce(sum(abs(lot)), 0)
		from positions
		where ticker = $1 and done and ended_at = $2
		group by user_id
		order by user_id`, ticker, endedAt)
	if err != nil {
		return nil, err
	}
	return scanOwnerGroups(rows)
}

// OpenPositions inserts one new position per candidate: lot signed by the
// action direction, PnL zero until the first quote arrives.
func (s *Store) OpenPositions(ctx context.Context, tx db.Transaction, action string, price decimal.Decimal, createdAt time.Time, cands []models.Candidate) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Store.OpenPositions: %w", err)
		}
	}()

	sign := models.LotSign(action)
	w := NewBulkWriter(tx)
	for _, c := range cands {
		if err = w.Add(ctx, `
			insert into positions (user_id, ticker, action, price, lot, pnl, done, created_at)
			values ($1, $2, $3, $4, $5, 0, false, $6)`,
			c.UserID, c.Ticker, action, price, sign.Mul(c.Lot), createdAt); err != nil {
			return err
		}
	}
	return w.Flush(ctx)
}

// LastPosition returns the most recently created position on the ticker, or
// nil when the ledger has never seen it.
func (s *Store) LastPosition(ctx context.Context, tx db.Transaction, ticker string) (p *models.Position, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Store.LastPosition: %w", err)
		}
	}()

	var pos models.Position
	err = tx.QueryRow(ctx, `
		select id, user_id, ticker, action, price, lot, pnl, done, created_at, ended_at
		from positions
		where ticker = $1
		order by created_at desc, id desc
		limit 1`, ticker).
		Scan(&pos.ID, &pos.UserID, &pos.Ticker, &pos.Action, &pos.Price,
			&pos.Lot, &pos.PnL, &pos.Done, &pos.CreatedAt, &pos.EndedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pos, nil
}

func scanOwnerGroups(rows pgx.Rows) ([]models.OwnerGroup, error) {
	defer rows.Close()
	var out []models.OwnerGroup
	for rows.Next() {
		var g models.OwnerGroup
		if err := rows.Scan(&g.UserID, &g.TotalPnL, &g.TotalLot); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
