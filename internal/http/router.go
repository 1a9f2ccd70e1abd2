package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/coursecraft-backend/internal/http/handlers"
	httpMW "github.com/yungbote/coursecraft-backend/internal/http/middleware"
	"github.com/yungbote/coursecraft-backend/internal/observability"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	TracingEnabled bool
	CORSOrigins    []string
	RequestTimeout time.Duration

	AuthMiddleware *httpMW.AuthMiddleware
	UserHandler    *httpH.UserHandler

	CourseHandler      *httpH.CourseHandler
	AdminCourseHandler *httpH.AdminCourseHandler
	CatalogHandler     *httpH.CatalogHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	httpH.RegisterValidators()

	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(
		httpMW.Correlate(),
		httpMW.Deadline(cfg.RequestTimeout),
		httpMW.AccessLog(cfg.Log),
		httpMW.Instrument(cfg.Metrics),
		httpMW.CORS(cfg.CORSOrigins),
	)

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}

	api := r.Group("/api")

	// Catalogue (public; a token is honoured when present)
	if cfg.CatalogHandler != nil {
		public := api.Group("/courses")
		if cfg.AuthMiddleware != nil {
			public.Use(cfg.AuthMiddleware.OptionalAuth())
		}
		public.GET("", cfg.CatalogHandler.List)
		public.GET("/search", cfg.CatalogHandler.Search)
		public.GET("/:id", cfg.CatalogHandler.Get)
	}

	protected := api.Group("/")
	{
		// Middleware
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// User (Me)
		if cfg.UserHandler != nil {
			protected.GET("/me", cfg.UserHandler.GetMe)
		}

		// Tutor authoring
		if cfg.CourseHandler != nil {
			tutor := protected.Group("/tutor/courses")
			tutor.POST("", cfg.CourseHandler.Create)
			tutor.GET("", cfg.CourseHandler.ListMine)
			tutor.GET("/:id", cfg.CourseHandler.Get)
			tutor.PUT("/:id", cfg.CourseHandler.Update)
			tutor.DELETE("/:id", cfg.CourseHandler.Delete)
			tutor.POST("/:id/submit", cfg.CourseHandler.Submit)
			tutor.POST("/:id/thumbnail", cfg.CourseHandler.UploadThumbnail)
			tutor.POST("/:id/thumbnail/generate", cfg.CourseHandler.GenerateThumbnail)
			tutor.GET("/:id/reviews", cfg.CourseHandler.ListReviews)
		}

		// Admin moderation
		if cfg.AdminCourseHandler != nil {
			admin := protected.Group("/admin")
			admin.GET("/courses", cfg.AdminCourseHandler.ListByStatus)
			admin.GET("/courses/pending", cfg.AdminCourseHandler.ListPending)
			admin.POST("/courses/:id/decision", cfg.AdminCourseHandler.Decide)
			admin.DELETE("/courses/:id", cfg.AdminCourseHandler.Delete)
			admin.GET("/tutors/:id/courses", cfg.AdminCourseHandler.ListByTutor)
			if cfg.CourseHandler != nil {
				admin.GET("/courses/:id/reviews", cfg.CourseHandler.ListReviews)
			}
		}
	}

	return r
}
