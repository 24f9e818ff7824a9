package feed

import (
	"context"
	"log"
	"strings"
	"time"

	"trade_settlement/internal/models"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
)

// Client reads bid quotes from the market websocket and feeds them into a
// channel. Producer side of the dispatch boundary: it carries no settlement
// guarantees, it just keeps the quote channel warm.
type Client struct {
	cfg      *Config
	wsDialer *websocket.Dialer
}

func NewClient(cfg *Config) *Client {
	return &Client{
		cfg:      cfg,
		wsDialer: &websocket.Dialer{},
	}
}

// Stream reconnects forever until ctx is cancelled.
func (c *Client) Stream(ctx context.Context) <-chan models.Quote {
	ch := make(chan models.Quote)

	go func() {
		defer close(ch)

		for {
			if ctx.Err() != nil {
				return
			}

			log.Printf("[FEED] connect %s, %d pairs", c.cfg.WSURL, len(c.cfg.Pairs))
			conn, _, err := c.wsDialer.Dial(c.cfg.WSURL, nil)
			if err != nil {
				log.Printf("[FEED] dial error: %v", err)
				time.Sleep(time.Second)
				continue
			}

			sub := map[string]any{
				"action": "subscribe",
				"params": strings.Join(c.cfg.Pairs, ","),
			}
			if err := conn.WriteJSON(sub); err != nil {
				log.Printf("[FEED] subscribe error: %v", err)
				_ = conn.Close()
				continue
			}

			// keepalive ping каждые 20s — иначе фид рвёт соединение
			stopPing := make(chan struct{})
			go func() {
				defer close(stopPing)
				t := time.NewTicker(20 * time.Second)
				defer t.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-stopPing:
						return
					case <-t.C:
						_ = conn.WriteJSON(map[string]string{"action": "ping"})
					}
				}
			}()

			// основной read-loop
			for {
				_, msg, err := conn.ReadMessage()
				if err != nil {
					log.Printf("[FEED] read error: %v", err)
					_ = conn.Close()
					break
				}

				// фид может прислать одну котировку или пачку
				var batch []models.Quote
				if err := sonic.Unmarshal(msg, &batch); err != nil {
					var one models.Quote
					if err := sonic.Unmarshal(msg, &one); err != nil || one.Ticker == "" {
						continue
					}
					batch = []models.Quote{one}
				}

				for _, q := range batch {
					if q.Ticker == "" {
						continue
					}
					select {
					case ch <- q:
					case <-ctx.Done():
						_ = conn.Close()
						return
					}
				}
			}
		}
	}()

	return ch
}
