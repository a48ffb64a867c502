package sync

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/rotabull/supportsync/internal/clients/zendesk"
	"github.com/rotabull/supportsync/internal/pkg/logger"
	"github.com/rotabull/supportsync/internal/repos"
	"github.com/rotabull/supportsync/internal/types"
)

type UsersDeps struct {
	DB      *gorm.DB
	Log     *logger.Logger
	Zendesk zendesk.Client
	Users   repos.UserRepo
}

const userUpsertChunk = 500

// SyncUsers pages through every ticketing-system user and upserts them keyed
// on the upstream ID. Users are incremental, never replace-all: the internal
// author lookup must survive a failed cycle.
func SyncUsers(ctx context.Context, deps UsersDeps) (int, error) {
	if deps.DB == nil || deps.Log == nil || deps.Zendesk == nil || deps.Users == nil {
		return 0, fmt.Errorf("sync_users: missing deps")
	}
	log := deps.Log.With("step", "sync_users")

	users, err := deps.Zendesk.ListUsers(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sync_users: %w", err)
	}

	now := time.Now().UTC()
	rows := make([]*types.User, 0, len(users))
	for _, u := range users {
		rows = append(rows, &types.User{
			ID:        u.ID,
			Email:     u.Email,
			Role:      u.Role,
			Active:    u.Active,
			UpdatedAt: now,
		})
	}

	for start := 0; start < len(rows); start += userUpsertChunk {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		end := start + userUpsertChunk
		if end > len(rows) {
			end = len(rows)
		}
		if err := deps.Users.Upsert(ctx, nil, rows[start:end]); err != nil {
			return 0, fmt.Errorf("sync_users: upsert chunk [%d:%d): %w", start, end, err)
		}
	}

	log.Info("Synced users", "count", len(rows))
	return len(rows), nil
}
