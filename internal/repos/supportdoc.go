package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/rotabull/supportsync/internal/pkg/logger"
	"github.com/rotabull/supportsync/internal/types"
)

type SupportDocRepo interface {
	DeleteAll(ctx context.Context, tx *gorm.DB) error
	Create(ctx context.Context, tx *gorm.DB, docs []*types.SupportDoc) ([]*types.SupportDoc, error)
	ListSlugs(ctx context.Context, tx *gorm.DB) ([]string, error)
}

type supportDocRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSupportDocRepo(db *gorm.DB, baseLog *logger.Logger) SupportDocRepo {
	return &supportDocRepo{db: db, log: baseLog.With("repo", "SupportDocRepo")}
}

// A non-nil tx already carries its transaction context; ctx is only attached
// on the root-connection fallback so batch timeouts stay in force.
func (sr *supportDocRepo) DeleteAll(ctx context.Context, tx *gorm.DB) error {
	transaction := tx
	if transaction == nil {
		transaction = sr.db.WithContext(ctx)
	}
	return transaction.
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&types.SupportDoc{}).Error
}

func (sr *supportDocRepo) Create(ctx context.Context, tx *gorm.DB, docs []*types.SupportDoc) ([]*types.SupportDoc, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db.WithContext(ctx)
	}
	if len(docs) == 0 {
		return []*types.SupportDoc{}, nil
	}
	if err := transaction.Create(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func (sr *supportDocRepo) ListSlugs(ctx context.Context, tx *gorm.DB) ([]string, error) {
	transaction := tx
	if transaction == nil {
		transaction = sr.db.WithContext(ctx)
	}
	var slugs []string
	if err := transaction.Model(&types.SupportDoc{}).
		Order("slug").
		Pluck("slug", &slugs).Error; err != nil {
		return nil, err
	}
	return slugs, nil
}
