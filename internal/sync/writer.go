package sync

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/rotabull/supportsync/internal/pkg/logger"
)

// BatchWriter realizes replace-all semantics: one purge, then fixed-size
// insert batches, each in its own transaction. Batches for large tickets can
// take minutes to commit, so every batch transaction runs under an extended
// timeout.
type BatchWriter struct {
	DB        *gorm.DB
	Log       *logger.Logger
	BatchSize int
	TxTimeout time.Duration
}

// ReplaceAll deletes existing rows via purge, then partitions total entities
// into batches and calls insert for each half-open range [start, end) inside
// one transaction. A failed batch aborts the whole replace.
func (w *BatchWriter) ReplaceAll(ctx context.Context, purge func(tx *gorm.DB) error, total int, insert func(tx *gorm.DB, start, end int) error) error {
	size := w.BatchSize
	if size <= 0 {
		size = 100
	}
	timeout := w.TxTimeout
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}

	purgeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := w.DB.WithContext(purgeCtx).Transaction(func(tx *gorm.DB) error {
		return purge(tx)
	}); err != nil {
		return fmt.Errorf("purge existing rows: %w", err)
	}

	ranges := batchRanges(total, size)
	for i, r := range ranges {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		start, end := r[0], r[1]

		batchCtx, cancelBatch := context.WithTimeout(ctx, timeout)
		err := w.DB.WithContext(batchCtx).Transaction(func(tx *gorm.DB) error {
			return insert(tx, start, end)
		})
		cancelBatch()
		if err != nil {
			return fmt.Errorf("insert batch %d/%d [%d:%d): %w", i+1, len(ranges), start, end, err)
		}
		w.Log.Debug("Committed batch", "batch", i+1, "batches", len(ranges), "rows", end-start)
	}
	return nil
}

// batchRanges partitions [0, total) into half-open ranges of at most size.
func batchRanges(total, size int) [][2]int {
	if total <= 0 || size <= 0 {
		return nil
	}
	var out [][2]int
	for start := 0; start < total; start += size {
		end := start + size
		if end > total {
			end = total
		}
		out = append(out, [2]int{start, end})
	}
	return out
}
