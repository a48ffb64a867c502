package repos

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rotabull/supportsync/internal/pkg/logger"
	"github.com/rotabull/supportsync/internal/types"
)

type UserRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, users []*types.User) error
	InternalIDs(ctx context.Context, tx *gorm.DB, emailSuffix string) ([]int64, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

// Upsert writes users keyed on the upstream ID. Existing rows are updated in
// place so a user is never duplicated across sync cycles.
func (ur *userRepo) Upsert(ctx context.Context, tx *gorm.DB, users []*types.User) error {
	transaction := tx
	if transaction == nil {
		transaction = ur.db.WithContext(ctx)
	}
	if len(users) == 0 {
		return nil
	}
	return transaction.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "role", "active", "updated_at"}),
	}).Create(&users).Error
}

// InternalIDs returns the IDs of users whose email ends with emailSuffix.
// The ticket annotator uses this set to label team comments.
func (ur *userRepo) InternalIDs(ctx context.Context, tx *gorm.DB, emailSuffix string) ([]int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db.WithContext(ctx)
	}
	suffix := strings.TrimSpace(emailSuffix)
	var ids []int64
	if err := transaction.Model(&types.User{}).
		Where("email LIKE ?", "%"+suffix).
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (ur *userRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = ur.db.WithContext(ctx)
	}
	var n int64
	if err := transaction.Model(&types.User{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
