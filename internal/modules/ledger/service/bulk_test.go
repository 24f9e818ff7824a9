package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

type fakeBatchResults struct {
	err error
}

func (r *fakeBatchResults) Exec() (pgconn.CommandTag, error) { return pgconn.CommandTag{}, r.err }
func (r *fakeBatchResults) Query() (pgx.Rows, error)         { return nil, r.err }
func (r *fakeBatchResults) QueryRow() pgx.Row                { return nil }
func (r *fakeBatchResults) Close() error                     { return r.err }

// fakeTx records the size of every flushed chunk.
type fakeTx struct {
	flushes  []int
	batchErr error
}

func (f *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (f *fakeTx) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeTx) QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row {
	return nil
}

func (f *fakeTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	f.flushes = append(f.flushes, b.Len())
	return &fakeBatchResults{err: f.batchErr}
}

func TestBulkWriterChunksAtLimit(t *testing.T) {
	tx := &fakeTx{}
	w := NewBulkWriter(tx)
	ctx := context.Background()

	for i := 0; i < 2001; i++ {
		require.NoError(t, w.Add(ctx, "update accounts set balance = balance + $2 where user_id = $1", int64(i), i))
	}
	require.NoError(t, w.Flush(ctx))

	require.Equal(t, []int{1000, 1000, 1}, tx.flushes)
}

func TestBulkWriterExactLimitNoTrailingFlush(t *testing.T) {
	tx := &fakeTx{}
	w := NewBulkWriter(tx)
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		require.NoError(t, w.Add(ctx, "select 1"))
	}
	require.NoError(t, w.Flush(ctx)) // остаток пуст — нечего слать

	require.Equal(t, []int{1000}, tx.flushes)
}

func TestBulkWriterEmptyFlushIsNoOp(t *testing.T) {
	tx := &fakeTx{}
	w := NewBulkWriter(tx)

	require.NoError(t, w.Flush(context.Background()))
	require.Empty(t, tx.flushes)
}

func TestBulkWriterPropagatesFlushError(t *testing.T) {
	tx := &fakeTx{batchErr: fmt.Errorf("boom")}
	w := NewBulkWriter(tx)
	ctx := context.Background()

	require.NoError(t, w.Add(ctx, "select 1"))
	err := w.Flush(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")
}
