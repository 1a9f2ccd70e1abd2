package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/coursecraft-backend/internal/data/aggregates"
	"github.com/yungbote/coursecraft-backend/internal/observability"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
	"github.com/yungbote/coursecraft-backend/internal/services"
)

type Services struct {
	Auth      services.AuthService
	User      services.UserService
	Course    services.CourseService
	Thumbnail services.ThumbnailService
	Notifier  services.ReviewNotifier
	Aggregate aggregates.CourseAggregate
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	courseAgg := aggregates.NewCourseAggregate(aggregates.CourseAggregateDeps{
		Base: aggregates.BaseDeps{
			DB:    db,
			Log:   log,
			Hooks: aggregates.NewObservabilityHooks(metrics),
		},
		Courses: repos.Course,
		Tree:    repos.Tree,
		Reviews: repos.Reviews,
		Users:   repos.User,
	})

	var notifier services.ReviewNotifier
	if clients.Mail != nil {
		notifier = services.NewEmailReviewNotifier(log, repos.User, clients.Mail, metrics)
	}

	courseService := services.NewCourseService(services.CourseServiceDeps{
		Log:       log,
		Courses:   repos.Course,
		Reviews:   repos.Reviews,
		Users:     repos.User,
		Aggregate: courseAgg,
		Cache:     clients.CourseCache,
		Bucket:    clients.Bucket,
		Notifier:  notifier,
		Metrics:   metrics,
	})

	cache := clients.CourseCache
	thumbnailService, err := services.NewThumbnailService(services.ThumbnailServiceDeps{
		Log:       log,
		Courses:   repos.Course,
		Aggregate: courseAgg,
		Bucket:    clients.Bucket,
		Invalidate: func(ctx context.Context, courseID uuid.UUID) {
			if cache == nil {
				return
			}
			if err := cache.Invalidate(ctx, courseID); err != nil {
				log.Warn("course cache invalidation failed", "course_id", courseID, "error", err)
			}
		},
		Metrics: metrics,
	})
	if err != nil {
		return Services{}, fmt.Errorf("init thumbnail service: %w", err)
	}

	return Services{
		Auth:      services.NewAuthService(log, repos.User, cfg.Auth.JWTSecretKey, cfg.Auth.Issuer, cfg.Auth.AccessTokenTTL),
		User:      services.NewUserService(log, repos.User),
		Course:    courseService,
		Thumbnail: thumbnailService,
		Notifier:  notifier,
		Aggregate: courseAgg,
	}, nil
}
