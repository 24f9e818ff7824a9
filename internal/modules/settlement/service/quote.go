package service

import (
	"context"
	"fmt"
	"sort"
	"trade_settlement/internal/models"
	"trade_settlement/pkg/db"
	"trade_settlement/pkg/logger"

	"github.com/opentracing/opentracing-go"
)

// SettleQuote marks every open position on the quoted ticker to market and
// republishes the owners' equity. Recomputation, not a delta: replaying the
// same quote is a no-op on the stored state, so reordered or duplicated
// quotes are tolerated.
func (s *Settler) SettleQuote(ctx context.Context, q models.Quote) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Settler.SettleQuote: %w", err)
		}
	}()

	ticker := normalizeTicker(q.Ticker)

	span, ctx := opentracing.StartSpanFromContext(ctx, "settlement.quote")
	span.SetTag("ticker", ticker)
	defer span.Finish()

	return s.txm.RunMaster(ctx, func(ctx context.Context, tx db.Transaction) error {
		if err := s.ledger.MarkToMarket(ctx, tx, ticker, q.Bid); err != nil {
			return err
		}
		groups, err := s.ledger.OpenGroups(ctx, tx, []string{ticker})
		if err != nil {
			return err
		}
		if len(groups) == 0 {
			return nil
		}
		return s.ledger.PublishEquity(ctx, tx, groups)
	})
}

// SettleQuotes applies a coalesced burst of quotes in one transaction. Quotes
// are collapsed to the last one seen per ticker, marked in a deterministic
// order, then the owner aggregation and equity republish run once over all
// touched tickers, so an owner spread across several of them is updated once.
func (s *Settler) SettleQuotes(ctx context.Context, quotes []models.Quote) (err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("Settler.SettleQuotes: %w", err)
		}
	}()

	if len(quotes) == 0 {
		return nil
	}

	latest := make(map[string]models.Quote, len(quotes))
	for _, q := range quotes {
		q.Ticker = normalizeTicker(q.Ticker)
		latest[q.Ticker] = q
	}
	tickers := make([]string, 0, len(latest))
	for t := range latest {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	coalesced := make([]models.Quote, 0, len(tickers))
	for _, t := range tickers {
		coalesced = append(coalesced, latest[t])
	}

	span, ctx := opentracing.StartSpanFromContext(ctx, "settlement.quote_batch")
	span.SetTag("tickers", len(tickers))
	defer span.Finish()

	if len(quotes) > len(coalesced) {
		logger.Info("quote burst coalesced: %d -> %d tickers", len(quotes), len(coalesced))
	}

	return s.txm.RunMaster(ctx, func(ctx context.Context, tx db.Transaction) error {
		if err := s.ledger.MarkToMarketBatch(ctx, tx, coalesced); err != nil {
			return err
		}
		groups, err := s.ledger.OpenGroups(ctx, tx, tickers)
		if err != nil {
			return err
		}
		if len(groups) == 0 {
			return nil
		}
		return s.ledger.PublishEquity(ctx, tx, groups)
	})
}
