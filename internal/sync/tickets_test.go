package sync

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rotabull/supportsync/internal/clients/zendesk"
	"github.com/rotabull/supportsync/internal/pkg/logger"
	"github.com/rotabull/supportsync/internal/repos"
	"github.com/rotabull/supportsync/internal/types"
)

type fakeZendesk struct {
	tickets  []zendesk.Ticket
	comments map[int64][]zendesk.Comment
	users    []zendesk.User
}

func (f *fakeZendesk) SearchTickets(ctx context.Context, createdSince time.Time) ([]zendesk.Ticket, error) {
	return f.tickets, nil
}

func (f *fakeZendesk) IncrementalTickets(ctx context.Context, startTime time.Time) ([]zendesk.Ticket, error) {
	return f.tickets, nil
}

func (f *fakeZendesk) ListTicketComments(ctx context.Context, ticketID int64) ([]zendesk.Comment, error) {
	return f.comments[ticketID], nil
}

func (f *fakeZendesk) ListUsers(ctx context.Context, roles []string) ([]zendesk.User, error) {
	return f.users, nil
}

func ticketsDeps(t *testing.T, zd zendesk.Client, ff *fakeForge) TicketsDeps {
	t.Helper()
	db := testDB(t)
	log := logger.NewNop()
	return TicketsDeps{
		DB:          db,
		Log:         log,
		Zendesk:     zd,
		Forge:       ff,
		Tickets:     repos.NewTicketRepo(db, log),
		Users:       repos.NewUserRepo(db, log),
		Collections: &CollectionSyncer{Log: log, Forge: ff, Refs: repos.NewCollectionRefRepo(db, log)},
		Writer:      &BatchWriter{DB: db, Log: log, BatchSize: 2, TxTimeout: time.Minute},
	}
}

func TestSyncTickets_WritesRowsAndUploadsDocuments(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	zd := &fakeZendesk{
		tickets: []zendesk.Ticket{
			{ID: 101, SubmitterID: 7, CreatedAt: created},
			{ID: 102, SubmitterID: 8, CreatedAt: created},
			{ID: 103, SubmitterID: 9, CreatedAt: created},
		},
		comments: map[int64][]zendesk.Comment{
			101: {{ID: 1, AuthorID: 42, PlainBody: "we will look into it", Public: false, CreatedAt: created}},
			102: {{ID: 2, AuthorID: 8, PlainBody: "my sync is broken", Public: true, CreatedAt: created}},
			103: {},
		},
	}
	ff := newFakeForge()
	deps := ticketsDeps(t, zd, ff)

	// Author 42 is on the team.
	if err := deps.Users.Upsert(context.Background(), nil, []*types.User{
		{ID: 42, Email: "sam@rotabull.com", Role: "agent", Active: true, UpdatedAt: created},
		{ID: 8, Email: "customer@example.com", Role: "end-user", Active: true, UpdatedAt: created},
	}); err != nil {
		t.Fatalf("seed users: %v", err)
	}

	count, err := SyncTickets(context.Background(), deps)
	if err != nil {
		t.Fatalf("SyncTickets: %v", err)
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}

	var comments []types.TicketComment
	if err := deps.DB.Where("author_id = ?", 42).Find(&comments).Error; err != nil {
		t.Fatalf("load comments: %v", err)
	}
	if len(comments) != 1 {
		t.Fatalf("expected 1 team comment, got %d", len(comments))
	}
	wantPrefix := "INTERNAL NOTE\n\nROTABULL TEAM COMMENT\n\n"
	if !strings.HasPrefix(comments[0].PlainBody, wantPrefix) {
		t.Fatalf("team comment body = %q, want prefix %q", comments[0].PlainBody, wantPrefix)
	}

	// One forge document per ticket, all in the fresh collection.
	if len(ff.documents) != 3 {
		t.Fatalf("expected 3 uploaded documents, got %d", len(ff.documents))
	}
	ref, err := deps.Collections.Refs.Latest(context.Background(), nil, repos.PurposeTickets)
	if err != nil {
		t.Fatalf("latest ref: %v", err)
	}
	for _, d := range ff.documents {
		if len(d.CollectionIDs) != 1 || d.CollectionIDs[0] != ref.ForgeID {
			t.Fatalf("document %q not in active collection: %v", d.Name, d.CollectionIDs)
		}
	}
}

func TestSyncTickets_UploadFailureSurfacesAfterRowsCommit(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	zd := &fakeZendesk{
		tickets:  []zendesk.Ticket{{ID: 1, SubmitterID: 1, CreatedAt: created}},
		comments: map[int64][]zendesk.Comment{},
	}
	ff := newFakeForge()
	ff.documentErr = &testErr{}
	deps := ticketsDeps(t, zd, ff)

	if _, err := SyncTickets(context.Background(), deps); err == nil {
		t.Fatalf("upload failures must fail the step")
	}

	// Relational writes commit before uploads, so the row survives the
	// failed upload and the next cycle's replace-all reconciles.
	n, err := deps.Tickets.Count(context.Background(), nil)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected the ticket row to stay committed, got %d rows", n)
	}
}

func TestSyncTickets_ReplaceAllIsIdempotent(t *testing.T) {
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	zd := &fakeZendesk{
		tickets: []zendesk.Ticket{
			{ID: 1, SubmitterID: 1, CreatedAt: created},
			{ID: 2, SubmitterID: 2, CreatedAt: created},
			{ID: 3, SubmitterID: 3, CreatedAt: created},
			{ID: 4, SubmitterID: 4, CreatedAt: created},
			{ID: 5, SubmitterID: 5, CreatedAt: created},
		},
		comments: map[int64][]zendesk.Comment{},
	}
	ff := newFakeForge()
	deps := ticketsDeps(t, zd, ff)

	for i := 0; i < 2; i++ {
		if _, err := SyncTickets(context.Background(), deps); err != nil {
			t.Fatalf("SyncTickets run %d: %v", i+1, err)
		}
	}

	n, err := deps.Tickets.Count(context.Background(), nil)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 5 {
		t.Fatalf("expected 5 ticket rows after two runs, got %d", n)
	}

	var refs int64
	if err := deps.DB.Model(&types.TicketCollectionRef{}).Count(&refs).Error; err != nil {
		t.Fatalf("count refs: %v", err)
	}
	if refs != 1 {
		t.Fatalf("expected exactly one collection ref, got %d", refs)
	}
}
