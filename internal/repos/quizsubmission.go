package repos

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lyfeworks/toolkit-backend/internal/domain"
	"github.com/lyfeworks/toolkit-backend/internal/platform/logger"
)

type QuizSubmissionRepo interface {
	UpsertByEmail(ctx context.Context, tx *gorm.DB, submission *domain.QuizSubmission) (*domain.QuizSubmission, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*domain.QuizSubmission, error)
}

type quizSubmissionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuizSubmissionRepo(db *gorm.DB, baseLog *logger.Logger) QuizSubmissionRepo {
	repoLog := baseLog.With("repo", "QuizSubmissionRepo")
	return &quizSubmissionRepo{db: db, log: repoLog}
}

func (qr *quizSubmissionRepo) UpsertByEmail(ctx context.Context, tx *gorm.DB, submission *domain.QuizSubmission) (*domain.QuizSubmission, error) {
	transaction := tx
	if transaction == nil {
		transaction = qr.db
	}

	submission.UpdatedAt = time.Now().UTC()
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{"score", "tier", "updated_at"}),
		}).
		Create(submission).Error; err != nil {
		return nil, err
	}
	return submission, nil
}

func (qr *quizSubmissionRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*domain.QuizSubmission, error) {
	transaction := tx
	if transaction == nil {
		transaction = qr.db
	}

	var result domain.QuizSubmission
	if err := transaction.WithContext(ctx).
		Where("email = ?", email).
		First(&result).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}
