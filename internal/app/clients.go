package app

import (
	"context"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/coursecraft-backend/internal/platform/gcp"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
	"github.com/yungbote/coursecraft-backend/internal/platform/rediscache"
	"github.com/yungbote/coursecraft-backend/internal/platform/sendgrid"
)

type Clients struct {
	Bucket gcp.BucketService
	// Redis is nil when no address is configured; the cache is then a no-op.
	Redis       goredis.UniversalClient
	CourseCache rediscache.CourseCache
	// Mail is nil when no SendGrid key is configured.
	Mail sendgrid.Client
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	// Gcs
	bucket, err := resolveBucketService(ctx, log, cfg.Storage)
	if err != nil {
		return Clients{}, fmt.Errorf("init bucket client: %w", err)
	}

	// Redis
	rdb, err := rediscache.NewClient(ctx, cfg.Redis)
	if err != nil {
		return Clients{}, fmt.Errorf("init redis: %w", err)
	}
	if rdb == nil {
		log.Warn("REDIS_ADDR not set; course cache disabled")
	}
	cache := rediscache.NewCourseCache(log, rdb, cfg.Redis)

	// SendGrid
	var mail sendgrid.Client
	if strings.TrimSpace(cfg.SendGrid.APIKey) != "" {
		mail, err = sendgrid.New(log, cfg.SendGrid)
		if err != nil {
			if rdb != nil {
				_ = rdb.Close()
			}
			return Clients{}, fmt.Errorf("init sendgrid: %w", err)
		}
	} else {
		log.Warn("SENDGRID_API_KEY not set; review decisions will not be emailed")
	}

	return Clients{
		Bucket:      bucket,
		Redis:       rdb,
		CourseCache: cache,
		Mail:        mail,
	}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
