package sync

import (
	"context"
	"testing"

	"github.com/rotabull/supportsync/internal/pkg/logger"
	"github.com/rotabull/supportsync/internal/repos"
	"github.com/rotabull/supportsync/internal/types"
)

func TestResync_ToleratesMissingCollection(t *testing.T) {
	db := testDB(t)
	refRepo := repos.NewCollectionRefRepo(db, logger.NewNop())
	ff := newFakeForge()
	s := &CollectionSyncer{Log: logger.NewNop(), Forge: ff, Refs: refRepo}

	// The collection has never existed, so the delete comes back 404.
	ref, err := s.Resync(context.Background(), repos.PurposeTickets, "zendeskTicketComment")
	if err != nil {
		t.Fatalf("Resync must treat not-found-on-delete as success: %v", err)
	}
	if ref.ForgeID == "" {
		t.Fatalf("expected a fresh forge id")
	}
	if len(ff.deleted) != 1 {
		t.Fatalf("expected one delete attempt, got %d", len(ff.deleted))
	}
}

func TestResync_LeavesExactlyOneRef(t *testing.T) {
	db := testDB(t)
	refRepo := repos.NewCollectionRefRepo(db, logger.NewNop())
	ff := newFakeForge()
	s := &CollectionSyncer{Log: logger.NewNop(), Forge: ff, Refs: refRepo}

	first, err := s.Resync(context.Background(), repos.PurposeDocs, "supportDoc")
	if err != nil {
		t.Fatalf("first resync: %v", err)
	}
	second, err := s.Resync(context.Background(), repos.PurposeDocs, "supportDoc")
	if err != nil {
		t.Fatalf("second resync: %v", err)
	}
	if first.ForgeID == second.ForgeID {
		t.Fatalf("resync must create a fresh collection each cycle")
	}

	var n int64
	if err := db.Model(&types.DocCollectionRef{}).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected exactly one active ref after resync, got %d", n)
	}

	latest, err := refRepo.Latest(context.Background(), nil, repos.PurposeDocs)
	if err != nil {
		t.Fatalf("latest ref: %v", err)
	}
	if latest.ForgeID != second.ForgeID {
		t.Fatalf("latest ref = %q, want %q", latest.ForgeID, second.ForgeID)
	}

	// No orphaned external collections accumulate either.
	if len(ff.collections) != 1 {
		t.Fatalf("expected one live external collection, got %d", len(ff.collections))
	}
}

func TestResync_SurfacesCreateFailure(t *testing.T) {
	db := testDB(t)
	refRepo := repos.NewCollectionRefRepo(db, logger.NewNop())
	ff := newFakeForge()
	ff.createErr = &testErr{}
	s := &CollectionSyncer{Log: logger.NewNop(), Forge: ff, Refs: refRepo}

	if _, err := s.Resync(context.Background(), repos.PurposeDocs, "supportDoc"); err == nil {
		t.Fatalf("create failures must propagate")
	}

	// The deletes already happened, so the purpose is left collection-less
	// until the next cycle rather than pointing at a stale collection.
	if len(ff.deleted) != 1 {
		t.Fatalf("expected the delete to have run, got %d attempts", len(ff.deleted))
	}
	var n int64
	if err := db.Model(&types.DocCollectionRef{}).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected no ref rows after a failed create, got %d", n)
	}
}

func TestResync_SurfacesDeleteFailure(t *testing.T) {
	db := testDB(t)
	refRepo := repos.NewCollectionRefRepo(db, logger.NewNop())
	ff := newFakeForge()
	ff.deleteErr = &testErr{}
	s := &CollectionSyncer{Log: logger.NewNop(), Forge: ff, Refs: refRepo}

	if _, err := s.Resync(context.Background(), repos.PurposeDocs, "supportDoc"); err == nil {
		t.Fatalf("non-404 delete failures must propagate")
	}
}

type testErr struct{}

func (*testErr) Error() string { return "forge unavailable" }
