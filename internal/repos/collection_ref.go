package repos

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/rotabull/supportsync/internal/pkg/logger"
	"github.com/rotabull/supportsync/internal/types"
)

// CollectionPurpose selects which external-collection mirror table a call
// operates on. One table exists per purpose.
type CollectionPurpose string

const (
	PurposeTickets CollectionPurpose = "tickets"
	PurposeDocs    CollectionPurpose = "docs"
)

type CollectionRef struct {
	ForgeID     string
	Name        string
	LastUpdated time.Time
}

type CollectionRefRepo interface {
	DeleteAll(ctx context.Context, tx *gorm.DB, purpose CollectionPurpose) error
	Create(ctx context.Context, tx *gorm.DB, purpose CollectionPurpose, ref CollectionRef) error
	Latest(ctx context.Context, tx *gorm.DB, purpose CollectionPurpose) (*CollectionRef, error)
}

type collectionRefRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCollectionRefRepo(db *gorm.DB, baseLog *logger.Logger) CollectionRefRepo {
	return &collectionRefRepo{db: db, log: baseLog.With("repo", "CollectionRefRepo")}
}

func (cr *collectionRefRepo) DeleteAll(ctx context.Context, tx *gorm.DB, purpose CollectionPurpose) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db.WithContext(ctx)
	}
	switch purpose {
	case PurposeTickets:
		return transaction.
			Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&types.TicketCollectionRef{}).Error
	case PurposeDocs:
		return transaction.
			Session(&gorm.Session{AllowGlobalUpdate: true}).
			Delete(&types.DocCollectionRef{}).Error
	}
	return fmt.Errorf("unknown collection purpose %q", purpose)
}

func (cr *collectionRefRepo) Create(ctx context.Context, tx *gorm.DB, purpose CollectionPurpose, ref CollectionRef) error {
	transaction := tx
	if transaction == nil {
		transaction = cr.db.WithContext(ctx)
	}
	switch purpose {
	case PurposeTickets:
		row := types.TicketCollectionRef{ForgeID: ref.ForgeID, Name: ref.Name, LastUpdated: ref.LastUpdated}
		return transaction.Create(&row).Error
	case PurposeDocs:
		row := types.DocCollectionRef{ForgeID: ref.ForgeID, Name: ref.Name, LastUpdated: ref.LastUpdated}
		return transaction.Create(&row).Error
	}
	return fmt.Errorf("unknown collection purpose %q", purpose)
}

func (cr *collectionRefRepo) Latest(ctx context.Context, tx *gorm.DB, purpose CollectionPurpose) (*CollectionRef, error) {
	transaction := tx
	if transaction == nil {
		transaction = cr.db.WithContext(ctx)
	}
	switch purpose {
	case PurposeTickets:
		var row types.TicketCollectionRef
		err := transaction.Order("id DESC").First(&row).Error
		if err != nil {
			return nil, err
		}
		return &CollectionRef{ForgeID: row.ForgeID, Name: row.Name, LastUpdated: row.LastUpdated}, nil
	case PurposeDocs:
		var row types.DocCollectionRef
		err := transaction.Order("id DESC").First(&row).Error
		if err != nil {
			return nil, err
		}
		return &CollectionRef{ForgeID: row.ForgeID, Name: row.Name, LastUpdated: row.LastUpdated}, nil
	}
	return nil, fmt.Errorf("unknown collection purpose %q", purpose)
}
