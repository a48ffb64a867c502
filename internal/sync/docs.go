package sync

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/rotabull/supportsync/internal/clients/forge"
	"github.com/rotabull/supportsync/internal/clients/readme"
	"github.com/rotabull/supportsync/internal/pkg/logger"
	"github.com/rotabull/supportsync/internal/repos"
	"github.com/rotabull/supportsync/internal/types"
)

type DocsDeps struct {
	DB          *gorm.DB
	Log         *logger.Logger
	Readme      readme.Client
	Forge       forge.Client
	Docs        repos.SupportDocRepo
	Collections *CollectionSyncer
	Writer      *BatchWriter

	// CollectionName is the Forge collection that mirrors the doc table.
	CollectionName string
}

// SyncDocs rebuilds the support-doc snapshot: resync the Forge collection,
// fetch the full documentation tree, replace the table contents in batches,
// then upload one Forge document per page. Relational writes commit first;
// an upload failure surfaces as a step failure and the next cycle's
// replace-all self-heals.
func SyncDocs(ctx context.Context, deps DocsDeps) (int, error) {
	if deps.DB == nil || deps.Log == nil || deps.Readme == nil || deps.Forge == nil || deps.Docs == nil || deps.Collections == nil || deps.Writer == nil {
		return 0, fmt.Errorf("sync_docs: missing deps")
	}
	log := deps.Log.With("step", "sync_docs")

	name := deps.CollectionName
	if name == "" {
		name = "supportDoc"
	}
	ref, err := deps.Collections.Resync(ctx, repos.PurposeDocs, name)
	if err != nil {
		return 0, fmt.Errorf("sync_docs: %w", err)
	}

	pages, err := deps.Readme.FetchAllPages(ctx)
	if err != nil {
		return 0, fmt.Errorf("sync_docs: %w", err)
	}

	now := time.Now().UTC()
	rows := make([]*types.SupportDoc, 0, len(pages))
	for _, p := range pages {
		rows = append(rows, &types.SupportDoc{
			Slug:        p.Slug,
			Body:        p.Body,
			LastUpdated: now,
		})
	}

	err = deps.Writer.ReplaceAll(ctx,
		func(tx *gorm.DB) error { return deps.Docs.DeleteAll(ctx, tx) },
		len(rows),
		func(tx *gorm.DB, start, end int) error {
			_, err := deps.Docs.Create(ctx, tx, rows[start:end])
			return err
		},
	)
	if err != nil {
		return 0, fmt.Errorf("sync_docs: %w", err)
	}

	for _, p := range pages {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		doc := forge.Document{
			Name:          p.Slug,
			Text:          p.Body,
			CollectionIDs: []string{ref.ForgeID},
		}
		if err := deps.Forge.CreateDocument(ctx, doc); err != nil {
			return 0, fmt.Errorf("sync_docs: upload doc %q: %w", p.Slug, err)
		}
	}

	log.Info("Synced support docs", "count", len(rows))
	return len(rows), nil
}
