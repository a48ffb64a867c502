package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/rotabull/supportsync/internal/clients/forge"
	"github.com/rotabull/supportsync/internal/clients/zendesk"
	"github.com/rotabull/supportsync/internal/pkg/logger"
	"github.com/rotabull/supportsync/internal/repos"
	"github.com/rotabull/supportsync/internal/types"
)

// PagingStrategy selects how the full ticket set is materialized.
type PagingStrategy string

const (
	PagingCursor      PagingStrategy = "cursor"
	PagingIncremental PagingStrategy = "incremental"
)

type TicketsDeps struct {
	DB          *gorm.DB
	Log         *logger.Logger
	Zendesk     zendesk.Client
	Forge       forge.Client
	Tickets     repos.TicketRepo
	Users       repos.UserRepo
	Collections *CollectionSyncer
	Writer      *BatchWriter

	CollectionName     string
	Paging             PagingStrategy
	LookbackDays       int
	CommentConcurrency int
	// TeamEmailSuffix marks authors whose comments get the team label.
	TeamEmailSuffix string
}

// preparedTicket pairs the relational row with the Forge document text built
// from the same annotated comments.
type preparedTicket struct {
	row     *types.Ticket
	docName string
	docText string
}

// SyncTickets rebuilds the ticket snapshot: resync the Forge collection,
// page through all tickets in the lookback window, fetch and annotate each
// ticket's comments with a bounded fan-out, replace the tables in batch
// transactions, then upload one Forge document per ticket.
func SyncTickets(ctx context.Context, deps TicketsDeps) (int, error) {
	if deps.DB == nil || deps.Log == nil || deps.Zendesk == nil || deps.Forge == nil || deps.Tickets == nil || deps.Users == nil || deps.Collections == nil || deps.Writer == nil {
		return 0, fmt.Errorf("sync_tickets: missing deps")
	}
	log := deps.Log.With("step", "sync_tickets")

	name := deps.CollectionName
	if name == "" {
		name = "zendeskTicketComment"
	}
	ref, err := deps.Collections.Resync(ctx, repos.PurposeTickets, name)
	if err != nil {
		return 0, fmt.Errorf("sync_tickets: %w", err)
	}

	suffix := deps.TeamEmailSuffix
	if suffix == "" {
		suffix = "@rotabull.com"
	}
	internalIDs, err := deps.Users.InternalIDs(ctx, nil, suffix)
	if err != nil {
		return 0, fmt.Errorf("sync_tickets: load internal author ids: %w", err)
	}
	internal := make(map[int64]struct{}, len(internalIDs))
	for _, id := range internalIDs {
		internal[id] = struct{}{}
	}
	log.Debug("Loaded internal author ids", "count", len(internal))

	lookback := deps.LookbackDays
	if lookback <= 0 {
		lookback = 365
	}
	since := time.Now().UTC().AddDate(0, 0, -lookback)

	var tickets []zendesk.Ticket
	switch deps.Paging {
	case PagingIncremental:
		tickets, err = deps.Zendesk.IncrementalTickets(ctx, since)
	default:
		tickets, err = deps.Zendesk.SearchTickets(ctx, since)
	}
	if err != nil {
		return 0, fmt.Errorf("sync_tickets: %w", err)
	}
	log.Info("Fetched ticket listing", "count", len(tickets))

	prepared := make([]*preparedTicket, len(tickets))

	conc := deps.CommentConcurrency
	if conc <= 0 {
		conc = 5
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(conc)
	for i, t := range tickets {
		i, t := i, t
		g.Go(func() error {
			comments, err := deps.Zendesk.ListTicketComments(gctx, t.ID)
			if err != nil {
				return err
			}

			annotated := make([]zendesk.Comment, len(comments))
			rows := make([]types.TicketComment, len(comments))
			for j, cm := range comments {
				cm.PlainBody = AnnotateComment(cm.PlainBody, cm.AuthorID, cm.Public, internal)
				annotated[j] = cm
				rows[j] = types.TicketComment{
					PlainBody: cm.PlainBody,
					AuthorID:  cm.AuthorID,
					Public:    cm.Public,
					CreatedAt: cm.CreatedAt,
				}
			}

			docText, err := json.Marshal(annotated)
			if err != nil {
				return fmt.Errorf("marshal comments for ticket %d: %w", t.ID, err)
			}

			prepared[i] = &preparedTicket{
				row: &types.Ticket{
					TicketNumber: strconv.FormatInt(t.ID, 10),
					SubmitterID:  t.SubmitterID,
					CreatedAt:    t.CreatedAt,
					Comments:     rows,
				},
				docName: strconv.FormatInt(t.ID, 10),
				docText: string(docText),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("sync_tickets: fetch comments: %w", err)
	}

	err = deps.Writer.ReplaceAll(ctx,
		func(tx *gorm.DB) error { return deps.Tickets.DeleteAll(ctx, tx) },
		len(prepared),
		func(tx *gorm.DB, start, end int) error {
			batch := make([]*types.Ticket, 0, end-start)
			for _, p := range prepared[start:end] {
				batch = append(batch, p.row)
			}
			_, err := deps.Tickets.Create(ctx, tx, batch)
			return err
		},
	)
	if err != nil {
		return 0, fmt.Errorf("sync_tickets: %w", err)
	}

	for _, p := range prepared {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		doc := forge.Document{
			Name:          p.docName,
			Text:          p.docText,
			CollectionIDs: []string{ref.ForgeID},
		}
		if err := deps.Forge.CreateDocument(ctx, doc); err != nil {
			return 0, fmt.Errorf("sync_tickets: upload ticket %s: %w", p.docName, err)
		}
	}

	log.Info("Synced tickets", "count", len(prepared))
	return len(prepared), nil
}
