package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/yungbote/coursecraft-backend/internal/platform/gcp"
	"github.com/yungbote/coursecraft-backend/internal/platform/logger"
)

// Swapped in tests.
var newBucketService = gcp.NewBucketService

// codeConnectFailed covers every bucket failure that is not a config error.
const codeConnectFailed gcp.StorageConfigErrorCode = "connect_failed"

// StorageBootstrapError says why thumbnails storage could not be opened at
// startup. Code is one of the gcp config codes or codeConnectFailed.
type StorageBootstrapError struct {
	Code  gcp.StorageConfigErrorCode
	Mode  gcp.ObjectStorageMode
	Cause error
}

func (e *StorageBootstrapError) Error() string {
	return fmt.Sprintf("object storage (%s) unavailable [%s]: %v", e.Mode, e.Code, e.Cause)
}

func (e *StorageBootstrapError) Unwrap() error { return e.Cause }

func resolveBucketService(ctx context.Context, log *logger.Logger, cfg gcp.StorageConfig) (gcp.BucketService, error) {
	cfg = cfg.Normalize()
	bucket, err := newBucketService(ctx, log, cfg)
	if err == nil {
		return bucket, nil
	}
	bootErr := &StorageBootstrapError{Code: codeConnectFailed, Mode: cfg.Mode, Cause: err}
	if cfgErr := (*gcp.StorageConfigError)(nil); errors.As(err, &cfgErr) {
		bootErr.Code = cfgErr.Code
	}
	log.Error("object storage bootstrap failed", "mode", cfg.Mode, "emulator_host", cfg.EmulatorHost, "code", bootErr.Code, "error", err)
	return nil, bootErr
}

func storageBootstrapCode(err error) gcp.StorageConfigErrorCode {
	var bootErr *StorageBootstrapError
	if errors.As(err, &bootErr) {
		return bootErr.Code
	}
	return ""
}
