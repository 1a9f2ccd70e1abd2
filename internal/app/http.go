package app

import (
	"context"

	"gorm.io/gorm"

	apphttp "github.com/yungbote/coursecraft-backend/internal/http"
	httpH "github.com/yungbote/coursecraft-backend/internal/http/handlers"
	httpMW "github.com/yungbote/coursecraft-backend/internal/http/middleware"
	"github.com/yungbote/coursecraft-backend/internal/observability"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health      *httpH.HealthHandler
	User        *httpH.UserHandler
	Course      *httpH.CourseHandler
	AdminCourse *httpH.AdminCourseHandler
	Catalog     *httpH.CatalogHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, clients Clients, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:      httpH.NewHealthHandler(readinessProbes(db, clients)),
		User:        httpH.NewUserHandler(services.User),
		Course:      httpH.NewCourseHandler(log, services.Course, services.Thumbnail),
		AdminCourse: httpH.NewAdminCourseHandler(log, services.Course),
		Catalog:     httpH.NewCatalogHandler(log, services.Course),
	}
}

func readinessProbes(db *gorm.DB, clients Clients) map[string]httpH.Probe {
	probes := map[string]httpH.Probe{}
	if db != nil {
		probes["database"] = func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}
	if clients.Redis != nil {
		probes["redis"] = func(ctx context.Context) error {
			return clients.Redis.Ping(ctx).Err()
		}
	}
	return probes
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireServer(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *apphttp.Server {
	return apphttp.NewServer(apphttp.RouterConfig{
		Log:                log,
		Metrics:            metrics,
		ServiceName:        cfg.Otel.ServiceName,
		TracingEnabled:     cfg.Otel.Enabled,
		CORSOrigins:        cfg.Server.CORSOrigins,
		RequestTimeout:     cfg.Server.RequestTimeout,
		AuthMiddleware:     middleware.Auth,
		UserHandler:        handlers.User,
		CourseHandler:      handlers.Course,
		AdminCourseHandler: handlers.AdminCourse,
		CatalogHandler:     handlers.Catalog,
		HealthHandler:      handlers.Health,
	})
}
