package repos

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lyfeworks/toolkit-backend/internal/domain"
	"github.com/lyfeworks/toolkit-backend/internal/platform/logger"
)

type WaitlistEntryRepo interface {
	// Create inserts the entry. A duplicate email is not an error: the
	// insert becomes a no-op and created=false is returned.
	Create(ctx context.Context, tx *gorm.DB, entry *domain.WaitlistEntry) (created bool, err error)
}

type waitlistEntryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWaitlistEntryRepo(db *gorm.DB, baseLog *logger.Logger) WaitlistEntryRepo {
	repoLog := baseLog.With("repo", "WaitlistEntryRepo")
	return &waitlistEntryRepo{db: db, log: repoLog}
}

func (wr *waitlistEntryRepo) Create(ctx context.Context, tx *gorm.DB, entry *domain.WaitlistEntry) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = wr.db
	}

	res := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoNothing: true,
		}).
		Create(entry)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
