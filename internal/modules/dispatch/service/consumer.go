package service

import (
	"context"
	"time"

	"trade_settlement/internal/models"
	"trade_settlement/internal/modules/config"
	healthsvc "trade_settlement/internal/modules/health/service"
	settlementsvc "trade_settlement/internal/modules/settlement/service"
	"trade_settlement/internal/notify"
	"trade_settlement/pkg/logger"

	"github.com/bytedance/sonic"
	goredis "github.com/redis/go-redis/v9"
)

// Consumer owns the two subscription loops. One goroutine per channel keeps
// consumption serial per event source: trade actions for a ticker are never
// settled concurrently, which the trade-action cycle requires. Settlement
// errors are logged and the event dropped; the ledger is unchanged by a
// failed cycle, so the next event re-derives everything from committed state.
type Consumer struct {
	rdb     *goredis.Client
	settler *settlementsvc.Settler
	state   *healthsvc.State
	n       notify.Notifier

	quoteChannel string
	tradeChannel string
	quoteBurst   int
}

func NewConsumer(
	cfg *config.Config,
	rdb *goredis.Client,
	settler *settlementsvc.Settler,
	state *healthsvc.State,
	n notify.Notifier,
) *Consumer {
	return &Consumer{
		rdb:          rdb,
		settler:      settler,
		state:        state,
		n:            n,
		quoteChannel: cfg.Redis.QuoteChannel,
		tradeChannel: cfg.Redis.TradeActionChannel,
		quoteBurst:   cfg.Redis.QuoteBurst,
	}
}

func (c *Consumer) RunQuotes(ctx context.Context) {
	pubsub := c.rdb.Subscribe(ctx, c.quoteChannel)
	defer func() { _ = pubsub.Close() }()

	ch := pubsub.Channel()
	c.state.SetSubscribed(true)
	logger.Info("subscribed to %s", c.quoteChannel)

	for {
		select {
		case <-ctx.Done():
			c.state.SetSubscribed(false)
			return
		case msg, ok := <-ch:
			if !ok {
				c.state.SetSubscribed(false)
				logger.Error("quote subscription closed")
				return
			}
			quotes := c.drainQuotes(ch, msg)
			if len(quotes) == 0 {
				continue
			}

			var err error
			if len(quotes) == 1 {
				err = c.settler.SettleQuote(ctx, quotes[0])
			} else {
				err = c.settler.SettleQuotes(ctx, quotes)
			}
			if err != nil {
				logger.Error("quote settlement failed: %v", err)
				continue
			}
			c.state.TouchQuote(time.Now())
		}
	}
}

// drainQuotes decodes the first message and soaks up whatever is already
// pending, up to the burst cap, so a backlog settles in one transaction
// instead of one per tick.
func (c *Consumer) drainQuotes(ch <-chan *goredis.Message, first *goredis.Message) []models.Quote {
	quotes := make([]models.Quote, 0, 1)
	if q, ok := c.decodeQuote(first); ok {
		quotes = append(quotes, q)
	}
	for len(quotes) < c.quoteBurst {
		select {
		case msg, ok := <-ch:
			if !ok {
				return quotes
			}
			if q, ok := c.decodeQuote(msg); ok {
				quotes = append(quotes, q)
			}
		default:
			return quotes
		}
	}
	return quotes
}

func (c *Consumer) decodeQuote(msg *goredis.Message) (models.Quote, bool) {
	var q models.Quote
	if err := sonic.UnmarshalString(msg.Payload, &q); err != nil {
		logger.Warn("bad quote payload on %s: %v", msg.Channel, err)
		return q, false
	}
	if q.Ticker == "" {
		logger.Warn("quote without ticker on %s", msg.Channel)
		return q, false
	}
	return q, true
}

func (c *Consumer) RunTradeActions(ctx context.Context) {
	pubsub := c.rdb.Subscribe(ctx, c.tradeChannel)
	defer func() { _ = pubsub.Close() }()

	ch := pubsub.Channel()
	logger.Info("subscribed to %s", c.tradeChannel)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				logger.Error("trade action subscription closed")
				return
			}

			var ta models.TradeAction
			if err := sonic.UnmarshalString(msg.Payload, &ta); err != nil {
				logger.Warn("bad trade action payload: %v", err)
				continue
			}

			sum, err := c.settler.SettleTradeAction(ctx, ta)
			if err != nil {
				logger.Error("trade action settlement failed: %v", err)
				continue
			}
			c.state.TouchTradeAction(time.Now())
			c.n.Sendf("⚖️ %s %s: закрыто %d, расчёт по %d счетам, открыто %d",
				sum.Ticker, sum.Action, sum.Stopped, sum.Settled, sum.Opened)
		}
	}
}
