package repos

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/lyfeworks/toolkit-backend/internal/domain"
	"github.com/lyfeworks/toolkit-backend/internal/platform/logger"
)

type PurchaseSessionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, session *domain.PurchaseSession) (*domain.PurchaseSession, error)
	GetByStripeSessionID(ctx context.Context, tx *gorm.DB, stripeSessionID string) (*domain.PurchaseSession, error)
}

type purchaseSessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPurchaseSessionRepo(db *gorm.DB, baseLog *logger.Logger) PurchaseSessionRepo {
	repoLog := baseLog.With("repo", "PurchaseSessionRepo")
	return &purchaseSessionRepo{db: db, log: repoLog}
}

func (pr *purchaseSessionRepo) Create(ctx context.Context, tx *gorm.DB, session *domain.PurchaseSession) (*domain.PurchaseSession, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	if err := transaction.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

func (pr *purchaseSessionRepo) GetByStripeSessionID(ctx context.Context, tx *gorm.DB, stripeSessionID string) (*domain.PurchaseSession, error) {
	transaction := tx
	if transaction == nil {
		transaction = pr.db
	}

	var result domain.PurchaseSession
	if err := transaction.WithContext(ctx).
		Where("stripe_session_id = ?", stripeSessionID).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}
