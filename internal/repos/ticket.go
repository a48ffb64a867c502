package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/rotabull/supportsync/internal/pkg/logger"
	"github.com/rotabull/supportsync/internal/types"
)

type TicketRepo interface {
	DeleteAll(ctx context.Context, tx *gorm.DB) error
	Create(ctx context.Context, tx *gorm.DB, tickets []*types.Ticket) ([]*types.Ticket, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type ticketRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTicketRepo(db *gorm.DB, baseLog *logger.Logger) TicketRepo {
	return &ticketRepo{db: db, log: baseLog.With("repo", "TicketRepo")}
}

// A non-nil tx already carries its transaction context (the batch writer
// binds a per-batch timeout); rebinding ctx there would override it, so ctx
// is only attached on the root-connection fallback.
func (tr *ticketRepo) DeleteAll(ctx context.Context, tx *gorm.DB) error {
	transaction := tx
	if transaction == nil {
		transaction = tr.db.WithContext(ctx)
	}
	if err := transaction.
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&types.TicketComment{}).Error; err != nil {
		return err
	}
	return transaction.
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&types.Ticket{}).Error
}

// Create inserts tickets together with their nested comments.
func (tr *ticketRepo) Create(ctx context.Context, tx *gorm.DB, tickets []*types.Ticket) ([]*types.Ticket, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db.WithContext(ctx)
	}
	if len(tickets) == 0 {
		return []*types.Ticket{}, nil
	}
	if err := transaction.Create(&tickets).Error; err != nil {
		return nil, err
	}
	return tickets, nil
}

func (tr *ticketRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = tr.db.WithContext(ctx)
	}
	var n int64
	if err := transaction.Model(&types.Ticket{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
