package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	types "github.com/yungbote/coursecraft-backend/internal/domain"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

// CourseCache holds rendered public course trees keyed by course id.
type CourseCache interface {
	Get(ctx context.Context, courseID uuid.UUID) (*types.Course, bool, error)
	Set(ctx context.Context, course *types.Course) error
	Invalidate(ctx context.Context, courseIDs ...uuid.UUID) error
}

type Config struct {
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	KeyPrefix string        `yaml:"key_prefix"`
	TTL       time.Duration `yaml:"ttl"`
}

// NewClient dials and pings redis. An empty address returns nil, nil.
func NewClient(ctx context.Context, cfg Config) (goredis.UniversalClient, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, nil
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

type courseCache struct {
	log    *logger.Logger
	rdb    goredis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewCourseCache(log *logger.Logger, rdb goredis.UniversalClient, cfg Config) CourseCache {
	if rdb == nil {
		return NopCourseCache{}
	}
	prefix := strings.TrimSpace(cfg.KeyPrefix)
	if prefix == "" {
		prefix = "coursecraft"
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &courseCache{
		log:    log.With("client", "RedisCourseCache"),
		rdb:    rdb,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (c *courseCache) key(id uuid.UUID) string {
	return c.prefix + ":course:" + id.String()
}

func (c *courseCache) Get(ctx context.Context, courseID uuid.UUID) (*types.Course, bool, error) {
	raw, err := c.rdb.Get(ctx, c.key(courseID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	var course types.Course
	if err := json.Unmarshal(raw, &course); err != nil {
		// A corrupt entry is treated as a miss and dropped.
		c.log.Warn("dropping undecodable cache entry", "course_id", courseID, "error", err)
		_ = c.rdb.Del(ctx, c.key(courseID)).Err()
		return nil, false, nil
	}
	return &course, true, nil
}

func (c *courseCache) Set(ctx context.Context, course *types.Course) error {
	if course == nil || course.ID == uuid.Nil {
		return nil
	}
	raw, err := json.Marshal(course)
	if err != nil {
		return fmt.Errorf("encode course: %w", err)
	}
	return c.rdb.Set(ctx, c.key(course.ID), raw, c.ttl).Err()
}

func (c *courseCache) Invalidate(ctx context.Context, courseIDs ...uuid.UUID) error {
	if len(courseIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(courseIDs))
	for _, id := range courseIDs {
		if id != uuid.Nil {
			keys = append(keys, c.key(id))
		}
	}
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// NopCourseCache always misses.
type NopCourseCache struct{}

func (NopCourseCache) Get(context.Context, uuid.UUID) (*types.Course, bool, error) {
	return nil, false, nil
}

func (NopCourseCache) Set(context.Context, *types.Course) error       { return nil }
func (NopCourseCache) Invalidate(context.Context, ...uuid.UUID) error { return nil }
