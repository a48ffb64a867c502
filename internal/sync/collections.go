package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/rotabull/supportsync/internal/clients/forge"
	"github.com/rotabull/supportsync/internal/pkg/logger"
	"github.com/rotabull/supportsync/internal/repos"
)

// CollectionSyncer replaces the external Forge collection for a purpose and
// keeps the local mirror row in step with it.
type CollectionSyncer struct {
	Log   *logger.Logger
	Forge forge.Client
	Refs  repos.CollectionRefRepo
}

// Resync deletes the named external collection (not-found is fine), clears
// the local reference rows, creates a fresh collection, and persists the new
// reference. The order matters: a failure after the deletes leaves the
// purpose collection-less until the next cycle rather than orphaning an
// external collection.
func (s *CollectionSyncer) Resync(ctx context.Context, purpose repos.CollectionPurpose, name string) (*repos.CollectionRef, error) {
	if err := s.Forge.DeleteCollection(ctx, name); err != nil {
		if !forge.IsNotFound(err) {
			return nil, fmt.Errorf("delete collection %q: %w", name, err)
		}
		s.Log.Debug("Collection did not exist, nothing to delete", "collection", name)
	}

	if err := s.Refs.DeleteAll(ctx, nil, purpose); err != nil {
		return nil, fmt.Errorf("delete %s collection refs: %w", purpose, err)
	}

	col, err := s.Forge.CreateCollection(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("create collection %q: %w", name, err)
	}

	ref := repos.CollectionRef{
		ForgeID:     col.ID,
		Name:        col.Name,
		LastUpdated: time.Now().UTC(),
	}
	if err := s.Refs.Create(ctx, nil, purpose, ref); err != nil {
		return nil, fmt.Errorf("persist %s collection ref: %w", purpose, err)
	}

	s.Log.Info("Resynced collection", "purpose", purpose, "collection", name, "forge_id", col.ID)
	return &ref, nil
}
