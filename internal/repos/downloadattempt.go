package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lyfeworks/toolkit-backend/internal/domain"
	"github.com/lyfeworks/toolkit-backend/internal/platform/logger"
)

type DownloadAttemptRepo interface {
	Create(ctx context.Context, tx *gorm.DB, attempt *domain.DownloadAttempt) (*domain.DownloadAttempt, error)
	CountSuccessful(ctx context.Context, tx *gorm.DB, purchaseSessionID uuid.UUID) (int64, error)
	ListBySession(ctx context.Context, tx *gorm.DB, purchaseSessionID uuid.UUID) ([]*domain.DownloadAttempt, error)
}

type downloadAttemptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDownloadAttemptRepo(db *gorm.DB, baseLog *logger.Logger) DownloadAttemptRepo {
	repoLog := baseLog.With("repo", "DownloadAttemptRepo")
	return &downloadAttemptRepo{db: db, log: repoLog}
}

func (dr *downloadAttemptRepo) Create(ctx context.Context, tx *gorm.DB, attempt *domain.DownloadAttempt) (*domain.DownloadAttempt, error) {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}

	if err := transaction.WithContext(ctx).Create(attempt).Error; err != nil {
		return nil, err
	}
	return attempt, nil
}

func (dr *downloadAttemptRepo) CountSuccessful(ctx context.Context, tx *gorm.DB, purchaseSessionID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&domain.DownloadAttempt{}).
		Where("purchase_session_id = ? AND success = ?", purchaseSessionID, true).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (dr *downloadAttemptRepo) ListBySession(ctx context.Context, tx *gorm.DB, purchaseSessionID uuid.UUID) ([]*domain.DownloadAttempt, error) {
	transaction := tx
	if transaction == nil {
		transaction = dr.db
	}

	var results []*domain.DownloadAttempt
	if err := transaction.WithContext(ctx).
		Where("purchase_session_id = ?", purchaseSessionID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
