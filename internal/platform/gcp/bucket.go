package gcp

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/coursecraft-backend/internal/platform/dbctx"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

type BucketCategory string

const (
	BucketCategoryThumbnail BucketCategory = "thumbnail"
)

const (
	uploadTimeout = 2 * time.Minute
	deleteTimeout = 30 * time.Second
)

type BucketService interface {
	UploadFile(dbc dbctx.Context, category BucketCategory, key string, file io.Reader) error
	DeleteFile(dbc dbctx.Context, category BucketCategory, key string) error
	GetPublicURL(category BucketCategory, key string) string
}

type bucketService struct {
	log     *logger.Logger
	client  *storage.Client
	buckets map[BucketCategory]string
	// objectURL renders the public address of key inside bucket.
	objectURL func(bucket, key string) string
}

func NewBucketService(ctx context.Context, log *logger.Logger, cfg StorageConfig) (BucketService, error) {
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	client, err := newStorageClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	bs := newBucketService(log, client, cfg)
	bs.log.Info("object storage ready", "mode", cfg.Mode, "thumbnail_bucket", cfg.ThumbnailBucket, "public_base_url", cfg.PublicBaseURL)
	return bs, nil
}

// newBucketService expects a normalized config. client may be nil when only
// URLs are needed.
func newBucketService(log *logger.Logger, client *storage.Client, cfg StorageConfig) *bucketService {
	return &bucketService{
		log:       log.With("service", "BucketService"),
		client:    client,
		buckets:   map[BucketCategory]string{BucketCategoryThumbnail: cfg.ThumbnailBucket},
		objectURL: urlScheme(cfg),
	}
}

func newStorageClient(ctx context.Context, cfg StorageConfig) (*storage.Client, error) {
	if cfg.IsEmulatorMode() {
		// The client only picks up the emulator endpoint from the environment.
		if err := os.Setenv("STORAGE_EMULATOR_HOST", cfg.EmulatorHost); err != nil {
			return nil, err
		}
		return storage.NewClient(ctx, option.WithoutAuthentication())
	}
	opts := append(ClientOptions(cfg.Credentials), option.WithScopes(storage.ScopeReadWrite))
	return storage.NewClient(ctx, opts...)
}

// urlScheme picks how public object URLs look: a CDN domain wins, then the
// emulator's media endpoint, then a custom base, then storage.googleapis.com.
func urlScheme(cfg StorageConfig) func(bucket, key string) string {
	switch {
	case cfg.CDNDomain != "":
		return func(_, key string) string { return "https://" + cfg.CDNDomain + "/" + key }
	case cfg.IsEmulatorMode():
		base := cfg.PublicBaseURL
		if base == "" {
			base = cfg.EmulatorHost
		}
		return func(bucket, key string) string {
			return fmt.Sprintf("%s/storage/v1/b/%s/o/%s?alt=media", base, url.PathEscape(bucket), url.PathEscape(key))
		}
	case cfg.PublicBaseURL != "":
		return func(bucket, key string) string { return cfg.PublicBaseURL + "/" + bucket + "/" + key }
	}
	return func(bucket, key string) string { return "https://storage.googleapis.com/" + bucket + "/" + key }
}

func (bs *bucketService) object(category BucketCategory, key string) (*storage.ObjectHandle, error) {
	name, ok := bs.buckets[category]
	if !ok {
		return nil, fmt.Errorf("unknown bucket category %q", category)
	}
	if bs.client == nil {
		return nil, fmt.Errorf("bucket %q has no storage client", name)
	}
	return bs.client.Bucket(name).Object(key), nil
}

func (bs *bucketService) UploadFile(dbc dbctx.Context, category BucketCategory, key string, file io.Reader) error {
	obj, err := bs.object(category, key)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(dbc.Ctx, uploadTimeout)
	defer cancel()

	w := obj.NewWriter(ctx)
	w.ContentType = contentTypeForKey(key)
	w.CacheControl = "public, max-age=86400"
	if _, err := io.Copy(w, file); err != nil {
		_ = w.Close()
		return fmt.Errorf("write gs://%s/%s: %w", obj.BucketName(), key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize gs://%s/%s: %w", obj.BucketName(), key, err)
	}
	bs.log.Debug("object uploaded", "bucket", obj.BucketName(), "key", key)
	return nil
}

func (bs *bucketService) DeleteFile(dbc dbctx.Context, category BucketCategory, key string) error {
	obj, err := bs.object(category, key)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(dbc.Ctx, deleteTimeout)
	defer cancel()
	if err := obj.Delete(ctx); err != nil {
		return fmt.Errorf("delete gs://%s/%s: %w", obj.BucketName(), key, err)
	}
	return nil
}

// GetPublicURL echoes key for an unknown category.
func (bs *bucketService) GetPublicURL(category BucketCategory, key string) string {
	name, ok := bs.buckets[category]
	if !ok {
		return key
	}
	return bs.objectURL(name, strings.TrimLeft(strings.TrimSpace(key), "/"))
}

// contentTypeForKey is empty for extensions outside the image types a
// thumbnail may use.
func contentTypeForKey(key string) string {
	key, _, _ = strings.Cut(strings.TrimSpace(key), "?")
	ct := mime.TypeByExtension(strings.ToLower(path.Ext(key)))
	if !strings.HasPrefix(ct, "image/") {
		return ""
	}
	return ct
}
