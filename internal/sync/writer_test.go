package sync

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/rotabull/supportsync/internal/pkg/logger"
	"github.com/rotabull/supportsync/internal/repos"
	"github.com/rotabull/supportsync/internal/types"
)

func TestBatchRanges(t *testing.T) {
	cases := []struct {
		total, size int
		want        int
		lastLen     int
	}{
		{120, 50, 3, 20},
		{100, 50, 2, 50},
		{1, 50, 1, 1},
		{0, 50, 0, 0},
		{500, 500, 1, 500},
	}
	for _, tc := range cases {
		got := batchRanges(tc.total, tc.size)
		if len(got) != tc.want {
			t.Fatalf("batchRanges(%d, %d) = %d ranges, want %d", tc.total, tc.size, len(got), tc.want)
		}
		if tc.want > 0 {
			last := got[len(got)-1]
			if last[1]-last[0] != tc.lastLen {
				t.Fatalf("batchRanges(%d, %d) last range %v, want len %d", tc.total, tc.size, last, tc.lastLen)
			}
			if last[1] != tc.total {
				t.Fatalf("batchRanges(%d, %d) does not cover total: %v", tc.total, tc.size, last)
			}
		}
	}
}

func TestReplaceAll_IssuesOneTransactionPerBatch(t *testing.T) {
	db := testDB(t)
	docRepo := repos.NewSupportDocRepo(db, logger.NewNop())

	docs := make([]*types.SupportDoc, 120)
	for i := range docs {
		docs[i] = &types.SupportDoc{
			Slug:        fmt.Sprintf("doc-%03d", i),
			Body:        "body",
			LastUpdated: time.Now().UTC(),
		}
	}

	w := &BatchWriter{DB: db, Log: logger.NewNop(), BatchSize: 50, TxTimeout: time.Minute}

	inserts := 0
	err := w.ReplaceAll(context.Background(),
		func(tx *gorm.DB) error { return docRepo.DeleteAll(context.Background(), tx) },
		len(docs),
		func(tx *gorm.DB, start, end int) error {
			inserts++
			_, err := docRepo.Create(context.Background(), tx, docs[start:end])
			return err
		},
	)
	if err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	if inserts != 3 {
		t.Fatalf("expected 3 insert batches for 120 entities at size 50, got %d", inserts)
	}

	var n int64
	if err := db.Model(&types.SupportDoc{}).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 120 {
		t.Fatalf("expected 120 rows, got %d", n)
	}
}

func TestReplaceAll_IsIdempotent(t *testing.T) {
	db := testDB(t)
	docRepo := repos.NewSupportDocRepo(db, logger.NewNop())
	w := &BatchWriter{DB: db, Log: logger.NewNop(), BatchSize: 10, TxTimeout: time.Minute}

	run := func() {
		docs := []*types.SupportDoc{
			{Slug: "alpha", Body: "a", LastUpdated: time.Unix(100, 0).UTC()},
			{Slug: "beta", Body: "b", LastUpdated: time.Unix(100, 0).UTC()},
		}
		// fresh structs per run so gorm does not reuse assigned IDs
		err := w.ReplaceAll(context.Background(),
			func(tx *gorm.DB) error { return docRepo.DeleteAll(context.Background(), tx) },
			len(docs),
			func(tx *gorm.DB, start, end int) error {
				_, err := docRepo.Create(context.Background(), tx, docs[start:end])
				return err
			},
		)
		if err != nil {
			t.Fatalf("ReplaceAll: %v", err)
		}
	}

	run()
	run()

	var n int64
	if err := db.Model(&types.SupportDoc{}).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("running replace-all twice must not duplicate rows, got %d", n)
	}

	slugs, err := docRepo.ListSlugs(context.Background(), nil)
	if err != nil {
		t.Fatalf("list slugs: %v", err)
	}
	if len(slugs) != 2 || slugs[0] != "alpha" || slugs[1] != "beta" {
		t.Fatalf("unexpected slugs after rerun: %v", slugs)
	}
}

func TestRepoInsideTransactionKeepsTransactionContext(t *testing.T) {
	db := testDB(t)
	docRepo := repos.NewSupportDocRepo(db, logger.NewNop())

	// The caller's context is already dead; the insert must still run under
	// the transaction's own context, not the caller's.
	dead, cancel := context.WithCancel(context.Background())
	cancel()

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := docRepo.Create(dead, tx, []*types.SupportDoc{
			{Slug: "tx-bound", Body: "x", LastUpdated: time.Unix(0, 0).UTC()},
		})
		return err
	})
	if err != nil {
		t.Fatalf("transaction-scoped insert must not pick up the caller context: %v", err)
	}

	var n int64
	if err := db.Model(&types.SupportDoc{}).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 row, got %d", n)
	}
}

func TestReplaceAll_FailedBatchAborts(t *testing.T) {
	db := testDB(t)
	docRepo := repos.NewSupportDocRepo(db, logger.NewNop())
	w := &BatchWriter{DB: db, Log: logger.NewNop(), BatchSize: 1, TxTimeout: time.Minute}

	calls := 0
	err := w.ReplaceAll(context.Background(),
		func(tx *gorm.DB) error { return docRepo.DeleteAll(context.Background(), tx) },
		3,
		func(tx *gorm.DB, start, end int) error {
			calls++
			if start == 1 {
				return context.DeadlineExceeded
			}
			_, err := docRepo.Create(context.Background(), tx, []*types.SupportDoc{
				{Slug: "only", Body: "x", LastUpdated: time.Unix(0, 0).UTC()},
			})
			return err
		},
	)
	if err == nil {
		t.Fatalf("expected error from failed batch")
	}
	if calls != 2 {
		t.Fatalf("writer must stop at the failed batch, got %d insert calls", calls)
	}
}
