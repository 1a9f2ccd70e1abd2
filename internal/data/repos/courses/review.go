package courses

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/coursecraft-backend/internal/domain"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

type CourseReviewRepo interface {
	Create(ctx context.Context, tx *gorm.DB, review *types.CourseReview) error
	ListByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.CourseReview, error)
	DeleteByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) error
}

type courseReviewRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseReviewRepo(db *gorm.DB, baseLog *logger.Logger) CourseReviewRepo {
	repoLog := baseLog.With("repo", "CourseReviewRepo")
	return &courseReviewRepo{db: db, log: repoLog}
}

func (r *courseReviewRepo) Create(ctx context.Context, tx *gorm.DB, review *types.CourseReview) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if review == nil {
		return nil
	}
	return transaction.WithContext(ctx).Create(review).Error
}

// ListByCourseID returns the decision history, newest first.
func (r *courseReviewRepo) ListByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) ([]*types.CourseReview, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	results := []*types.CourseReview{}
	if err := transaction.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *courseReviewRepo) DeleteByCourseID(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Where("course_id = ?", courseID).Delete(&types.CourseReview{}).Error
}
