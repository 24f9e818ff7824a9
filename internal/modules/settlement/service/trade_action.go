package service

import (
	"context"
	"fmt"
	"time"
	"trade_settlement/internal/models"
	"trade_settlement/pkg/db"
	"trade_settlement/pkg/logger"

	"github.com/opentracing/opentracing-go"
)

// TradeSummary reports what one trade-action cycle did.
type TradeSummary struct {
	Ticker  string
	Action  string
	Stopped int64 // opposing positions closed
	Settled int   // owners whose PnL was realized
	Opened  int   // new positions created
}

// SettleTradeAction runs the full netting cycle for one signal, strictly in
// order inside one transaction:
//
//  1. stop every opposing open position on the ticker
//  2. realize the closed batch into the owners' balances
//  3. resolve which subscribed owners are now eligible
//  4. open one new position per eligible owner
//  5. reserve margin for each opened position
//
// Eligibility must observe the closes and realized balances, hence the order.
// Empty sets at steps 2 and 3 are no-ops, not errors. NOT idempotent: the
// dispatcher serializes trade actions per ticker.
func (s *Settler) SettleTradeAction(ctx context.Context, ta models.TradeAction) (sum TradeSummary, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Settler.SettleTradeAction: %w", err)
		}
	}()

	if ta.Action != models.ActionBuy && ta.Action != models.ActionSell {
		return sum, fmt.Errorf("unknown action %q", ta.Action)
	}

	ticker := normalizeTicker(ta.Ticker)
	endedAt := time.UnixMilli(ta.CreatedAt).UTC()
	sum = TradeSummary{Ticker: ticker, Action: ta.Action}

	span, ctx := opentracing.StartSpanFromContext(ctx, "settlement.trade_action")
	span.SetTag("ticker", ticker)
	span.SetTag("action", ta.Action)
	defer span.Finish()

	err = s.txm.RunMaster(ctx, func(ctx context.Context, tx db.Transaction) error {
		stopped, err := s.ledger.StopOpposing(ctx, tx, ticker, ta.Action, endedAt)
		if err != nil {
			return err
		}
		sum.Stopped = stopped

		groups, err := s.ledger.ClosedGroups(ctx, tx, ticker, endedAt)
		if err != nil {
			return err
		}
		if len(groups) > 0 {
			if err := s.ledger.RealizePnL(ctx, tx, groups); err != nil {
				return err
			}
		}
		sum.Settled = len(groups)

		cands, err := s.ledger.EligibleAccounts(ctx, tx, ticker)
		if err != nil {
			return err
		}
		if len(cands) > 0 {
			if err := s.ledger.OpenPositions(ctx, tx, ta.Action, ta.PrevClosePrice, endedAt, cands); err != nil {
				return err
			}
			if err := s.ledger.ReserveMargin(ctx, tx, cands); err != nil {
				return err
			}
		}
		sum.Opened = len(cands)

		return nil
	})
	if err != nil {
		return sum, err
	}

	logger.Info("trade action settled: %s %s stopped=%d settled=%d opened=%d",
		ticker, ta.Action, sum.Stopped, sum.Settled, sum.Opened)
	return sum, nil
}
