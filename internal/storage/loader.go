package storage

import (
	"context"
	"errors"
	"time"

	"samfdw/internal/logging"
	"samfdw/internal/metrics"
)

// CopyFn is a backend's bulk insert. It inserts rows aligned to columns and
// returns the number of rows it reports as inserted.
type CopyFn func(ctx context.Context, columns []string, rows [][]any) (int64, error)

// LoadBatches drains in, groups rows into batches of batchSize and calls
// copyFn per non-empty batch. It returns the running total and the first
// error. Cancellation returns (total, ctx.Err()).
//
// Each successful flush is logged with running totals and rows/sec since the
// previous flush, and counted against job in the metrics backend.
func LoadBatches(
	ctx context.Context,
	job string,
	columns []string,
	in <-chan []any,
	batchSize int,
	copyFn CopyFn,
) (int64, error) {
	if batchSize <= 0 {
		return 0, errors.New("batchSize must be > 0")
	}
	if copyFn == nil {
		return 0, errors.New("copyFn must not be nil")
	}

	log := logging.FromContext(ctx).With("job", job)
	var (
		total       int64
		batches     int64
		batch       = make([][]any, 0, batchSize)
		start       = time.Now()
		lastFlushTS = start
		lastTotal   int64
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := copyFn(ctx, columns, batch)
		total += n
		metrics.RecordRow(job, metrics.KindInserted, n)
		batch = batch[:0]
		if err != nil {
			log.Error("loader: copy failed", "inserted", n, "total", total, "err", err)
			return err
		}

		batches++
		metrics.RecordBatches(job, 1)
		now := time.Now()
		sinceLast := now.Sub(lastFlushTS)
		rps := float64(0)
		if sinceLast > 0 {
			rps = float64(total-lastTotal) / sinceLast.Seconds()
		}
		log.Info("loader: batch",
			"batch", batches,
			"rps", int64(rps),
			"inserted", n,
			"total", total,
			"elapsed", now.Sub(start).Truncate(time.Millisecond),
			"since_last", sinceLast.Truncate(time.Millisecond),
		)
		lastFlushTS = now
		lastTotal = total
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return total, ctx.Err()

		case row, ok := <-in:
			if !ok {
				if err := flush(); err != nil {
					return total, err
				}
				log.Info("loader: input closed", "batches", batches, "total", total)
				return total, nil
			}
			batch = append(batch, row)
			if len(batch) >= batchSize {
				if err := flush(); err != nil {
					return total, err
				}
			}
		}
	}
}
