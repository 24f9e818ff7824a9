package service

import (
	"sync/atomic"
	"time"
)

type State struct {
	ready     atomic.Bool
	startedAt time.Time

	subscribed    atomic.Bool // redis pub/sub attached
	lastQuoteUnix atomic.Int64
	lastTradeUnix atomic.Int64
}

func NewState() *State {
	s := &State{startedAt: time.Now()}
	s.ready.Store(false)
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

func (s *State) SetSubscribed(v bool) { s.subscribed.Store(v) }
func (s *State) Subscribed() bool     { return s.subscribed.Load() }

func (s *State) TouchQuote(t time.Time) { s.lastQuoteUnix.Store(t.Unix()) }
func (s *State) LastQuote() time.Time   { return fromUnix(s.lastQuoteUnix.Load()) }

func (s *State) TouchTradeAction(t time.Time) { s.lastTradeUnix.Store(t.Unix()) }
func (s *State) LastTradeAction() time.Time   { return fromUnix(s.lastTradeUnix.Load()) }

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }

func fromUnix(u int64) time.Time {
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}
