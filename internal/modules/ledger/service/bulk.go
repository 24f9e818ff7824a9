package service

import (
	"context"
	"fmt"
	"trade_settlement/pkg/db"

	"github.com/jackc/pgx/v5"
)

// FlushLimit caps how many pending statements one SendBatch round-trip carries.
const FlushLimit = 1000

// BulkWriter collects statements for one settlement cycle and ships them in
// chunks of at most FlushLimit. Statements inside a chunk run unordered with
// respect to each other, which is safe only because a cycle never queues two
// statements against the same row. Callers must Flush after the last Add.
type BulkWriter struct {
	tx    db.Transaction
	limit int
	batch *pgx.Batch
}

func NewBulkWriter(tx db.Transaction) *BulkWriter {
	return &BulkWriter{
		tx:    tx,
		limit: FlushLimit,
		batch: &pgx.Batch{},
	}
}

func (w *BulkWriter) Add(ctx context.Context, sql string, args ...any) error {
	w.batch.Queue(sql, args...)
	if w.batch.Len() >= w.limit {
		return w.Flush(ctx)
	}
	return nil
}

func (w *BulkWriter) Flush(ctx context.Context) error {
	if w.batch.Len() == 0 {
		return nil
	}
	n := w.batch.Len()
	results := w.tx.SendBatch(ctx, w.batch)
	err := results.Close()
	w.batch = &pgx.Batch{}
	if err != nil {
		return fmt.Errorf("bulk flush of %d ops: %w", n, err)
	}
	return nil
}
