package service

import (
	"context"
	"os"
	"sort"
	"testing"
	"time"

	"trade_settlement/internal/models"
	"trade_settlement/pkg/db"
	"trade_settlement/pkg/logger"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.InfoLogger = zap.NewNop()
	logger.FatalLogger = zap.NewNop()
	os.Exit(m.Run())
}

// In-memory double of the ledger store. Mirrors the SQL of the real store
// statement by statement: account updates compute from the pre-update values,
// grouping matches the same filters. memTxManager snapshots the state at
// begin and restores it when the cycle fails, which is how the transactional
// rollback is modelled.

type memState struct {
	positions []models.Position
	accounts  map[int64]models.Account
	subs      []models.Subscription
	nextID    int64
}

func newMemState() *memState {
	return &memState{
		accounts: make(map[int64]models.Account),
		nextID:   1,
	}
}

func (s *memState) clone() *memState {
	cp := &memState{
		positions: append([]models.Position(nil), s.positions...),
		accounts:  make(map[int64]models.Account, len(s.accounts)),
		subs:      append([]models.Subscription(nil), s.subs...),
		nextID:    s.nextID,
	}
	for id, a := range s.accounts {
		cp.accounts[id] = a
	}
	return cp
}

func (s *memState) addAccount(userID int64, balance string) {
	s.accounts[userID] = models.Account{
		UserID:  userID,
		Balance: d(balance),
	}
}

func (s *memState) addOpenPosition(userID int64, ticker, action, price, lot string) {
	s.positions = append(s.positions, models.Position{
		ID:        s.nextID,
		UserID:    userID,
		Ticker:    ticker,
		Action:    action,
		Price:     d(price),
		Lot:       d(lot),
		CreatedAt: time.Now().UTC(),
	})
	s.nextID++
}

func (s *memState) addSubscription(userID int64, ticker, lot, status string) {
	s.subs = append(s.subs, models.Subscription{
		UserID: userID,
		Ticker: ticker,
		Lot:    d(lot),
		Status: status,
	})
}

func (s *memState) openCount(userID int64, ticker string) int {
	n := 0
	for _, p := range s.positions {
		if p.UserID == userID && p.Ticker == ticker && !p.Done {
			n++
		}
	}
	return n
}

type memLedger struct {
	st      *memState
	mult    decimal.Decimal
	failOn  string
	failErr error
}

func newMemLedger(st *memState) *memLedger {
	return &memLedger{
		st:   st,
		mult: models.ContractMultiplier,
	}
}

func (l *memLedger) fail(method string) error {
	if l.failOn == method {
		return l.failErr
	}
	return nil
}

func (l *memLedger) MarkToMarket(ctx context.Context, tx db.Transaction, ticker string, bid decimal.Decimal) error {
	if err := l.fail("MarkToMarket"); err != nil {
		return err
	}
	for i := range l.st.positions {
		p := &l.st.positions[i]
		if p.Ticker != ticker || p.Done {
			continue
		}
		p.PnL = l.mult.Mul(bid.Sub(p.Price)).Mul(p.Lot)
	}
	return nil
}

func (l *memLedger) MarkToMarketBatch(ctx context.Context, tx db.Transaction, quotes []models.Quote) error {
	if err := l.fail("MarkToMarketBatch"); err != nil {
		return err
	}
	for _, q := range quotes {
		if err := l.MarkToMarket(ctx, tx, q.Ticker, q.Bid); err != nil {
			return err
		}
	}
	return nil
}

func (l *memLedger) OpenGroups(ctx context.Context, tx db.Transaction, tickers []string) ([]models.OwnerGroup, error) {
	if err := l.fail("OpenGroups"); err != nil {
		return nil, err
	}
	quoted := make(map[string]bool, len(tickers))
	for _, t := range tickers {
		quoted[t] = true
	}
	owners := make(map[int64]bool)
	for _, p := range l.st.positions {
		if quoted[p.Ticker] && !p.Done {
			owners[p.UserID] = true
		}
	}
	sums := make(map[int64]*models.OwnerGroup)
	for _, p := range l.st.positions {
		if p.Done || !owners[p.UserID] {
			continue
		}
		g, ok := sums[p.UserID]
		if !ok {
			g = &models.OwnerGroup{UserID: p.UserID}
			sums[p.UserID] = g
		}
		g.TotalPnL = g.TotalPnL.Add(p.PnL)
		g.TotalLot = g.TotalLot.Add(p.Lot.Abs())
	}
	return sortedGroups(sums), nil
}

func (l *memLedger) PublishEquity(ctx context.Context, tx db.Transaction, groups []models.OwnerGroup) error {
	if err := l.fail("PublishEquity"); err != nil {
		return err
	}
	for _, g := range groups {
		a := l.st.accounts[g.UserID]
		a.Equity = a.Balance.Add(g.TotalPnL).Add(l.mult.Mul(g.TotalLot))
		a.UnrealizedPnL = g.TotalPnL
		l.st.accounts[g.UserID] = a
	}
	return nil
}

func (l *memLedger) StopOpposing(ctx context.Context, tx db.Transaction, ticker, action string, endedAt time.Time) (int64, error) {
	if err := l.fail("StopOpposing"); err != nil {
		return 0, err
	}
	var n int64
	for i := range l.st.positions {
		p := &l.st.positions[i]
		if p.Ticker != ticker || p.Action == action || p.Done {
			continue
		}
		p.Done = true
		t := endedAt
		p.EndedAt = &t
		n++
	}
	return n, nil
}

func (l *memLedger) ClosedGroups(ctx context.Context, tx db.Transaction, ticker string, endedAt time.Time) ([]models.OwnerGroup, error) {
	if err := l.fail("ClosedGroups"); err != nil {
		return nil, err
	}
	sums := make(map[int64]*models.OwnerGroup)
	for _, p := range l.st.positions {
		if p.Ticker != ticker || !p.Done || p.EndedAt == nil || !p.EndedAt.Equal(endedAt) {
			continue
		}
		g, ok := sums[p.UserID]
		if !ok {
			g = &models.OwnerGroup{UserID: p.UserID}
			sums[p.UserID] = g
		}
		g.TotalPnL = g.TotalPnL.Add(p.PnL)
		g.TotalLot = g.TotalLot.Add(p.Lot.Abs())
	}
	return sortedGroups(sums), nil
}

func (l *memLedger) RealizePnL(ctx context.Context, tx db.Transaction, groups []models.OwnerGroup) error {
	if err := l.fail("RealizePnL"); err != nil {
		return err
	}
	for _, g := range groups {
		a := l.st.accounts[g.UserID]
		credit := g.TotalPnL.Add(l.mult.Mul(g.TotalLot))
		// как в SQL: правые части считаются от старых значений
		a.Equity = a.Balance.Add(credit).Add(a.UnrealizedPnL).Sub(g.TotalPnL)
		a.Balance = a.Balance.Add(credit)
		a.UnrealizedPnL = a.UnrealizedPnL.Sub(g.TotalPnL)
		l.st.accounts[g.UserID] = a
	}
	return nil
}

func (l *memLedger) EligibleAccounts(ctx context.Context, tx db.Transaction, ticker string) ([]models.Candidate, error) {
	if err := l.fail("EligibleAccounts"); err != nil {
		return nil, err
	}
	var out []models.Candidate
	for _, s := range l.st.subs {
		if s.Ticker != ticker || s.Status != models.SubscriptionActive {
			continue
		}
		a, ok := l.st.accounts[s.UserID]
		if !ok || a.Balance.LessThan(l.mult.Mul(s.Lot)) {
			continue
		}
		if l.st.openCount(s.UserID, ticker) > 0 {
			continue
		}
		out = append(out, models.Candidate{UserID: s.UserID, Ticker: s.Ticker, Lot: s.Lot})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (l *memLedger) OpenPositions(ctx context.Context, tx db.Transaction, action string, price decimal.Decimal, createdAt time.Time, cands []models.Candidate) error {
	if err := l.fail("OpenPositions"); err != nil {
		return err
	}
	sign := models.LotSign(action)
	for _, c := range cands {
		l.st.positions = append(l.st.positions, models.Position{
			ID:        l.st.nextID,
			UserID:    c.UserID,
			Ticker:    c.Ticker,
			Action:    action,
			Price:     price,
			Lot:       sign.Mul(c.Lot),
			CreatedAt: createdAt,
		})
		l.st.nextID++
	}
	return nil
}

func (l *memLedger) ReserveMargin(ctx context.Context, tx db.Transaction, cands []models.Candidate) error {
	if err := l.fail("ReserveMargin"); err != nil {
		return err
	}
	for _, c := range cands {
		a := l.st.accounts[c.UserID]
		a.Balance = a.Balance.Sub(l.mult.Mul(c.Lot))
		l.st.accounts[c.UserID] = a
	}
	return nil
}

func (l *memLedger) LastPosition(ctx context.Context, tx db.Transaction, ticker string) (*models.Position, error) {
	if err := l.fail("LastPosition"); err != nil {
		return nil, err
	}
	var best *models.Position
	for i := range l.st.positions {
		p := &l.st.positions[i]
		if p.Ticker != ticker {
			continue
		}
		if best == nil || p.CreatedAt.After(best.CreatedAt) ||
			(p.CreatedAt.Equal(best.CreatedAt) && p.ID > best.ID) {
			best = p
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func sortedGroups(sums map[int64]*models.OwnerGroup) []models.OwnerGroup {
	out := make([]models.OwnerGroup, 0, len(sums))
	for _, g := range sums {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// memTxManager models the transaction boundary: state is snapshotted at begin
// and restored when the cycle returns an error.
type memTxManager struct {
	led *memLedger
}

func (m *memTxManager) run(ctx context.Context, fn func(ctxTx context.Context, tx db.Transaction) error) error {
	snap := m.led.st.clone()
	if err := fn(ctx, nil); err != nil {
		*m.led.st = *snap
		return err
	}
	return nil
}

func (m *memTxManager) RunMaster(ctx context.Context, fn func(ctxTx context.Context, tx db.Transaction) error) error {
	return m.run(ctx, fn)
}

func (m *memTxManager) RunRepeatableRead(ctx context.Context, fn func(ctxTx context.Context, tx db.Transaction) error) error {
	return m.run(ctx, fn)
}

func newTestSettler(st *memState) (*Settler, *memLedger) {
	led := newMemLedger(st)
	return NewSettler(&memTxManager{led: led}, led), led
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }
