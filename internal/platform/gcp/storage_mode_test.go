package gcp

import (
	"errors"
	"testing"
)

func TestStorageConfigNormalizeInfersEmulator(t *testing.T) {
	cfg := StorageConfig{EmulatorHost: "http://fake-gcs:4443/", ThumbnailBucket: " thumbs "}.Normalize()
	if cfg.Mode != ObjectStorageModeGCSEmulator {
		t.Fatalf("mode: want=%q got=%q", ObjectStorageModeGCSEmulator, cfg.Mode)
	}
	if cfg.PublicBaseURL != "http://fake-gcs:4443" {
		t.Fatalf("public base: got=%q", cfg.PublicBaseURL)
	}
	if cfg.ThumbnailBucket != "thumbs" {
		t.Fatalf("bucket: got=%q", cfg.ThumbnailBucket)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestStorageConfigNormalizeDefaultsToGCS(t *testing.T) {
	cfg := StorageConfig{ThumbnailBucket: "thumbs"}.Normalize()
	if cfg.Mode != ObjectStorageModeGCS || cfg.IsEmulatorMode() {
		t.Fatalf("mode: got=%q", cfg.Mode)
	}
}

func TestStorageConfigValidateErrors(t *testing.T) {
	cases := []struct {
		name string
		cfg  StorageConfig
		code StorageConfigErrorCode
	}{
		{"bad mode", StorageConfig{Mode: "s3", ThumbnailBucket: "b"}, StorageConfigErrorInvalidMode},
		{"missing bucket", StorageConfig{Mode: ObjectStorageModeGCS}, StorageConfigErrorMissingBucket},
		{"missing emulator", StorageConfig{Mode: ObjectStorageModeGCSEmulator, ThumbnailBucket: "b"}, StorageConfigErrorMissingEmulatorHost},
		{"relative emulator", StorageConfig{Mode: ObjectStorageModeGCSEmulator, ThumbnailBucket: "b", EmulatorHost: "fake-gcs:4443"}, StorageConfigErrorInvalidURL},
		{"relative public base", StorageConfig{Mode: ObjectStorageModeGCS, ThumbnailBucket: "b", PublicBaseURL: "localhost"}, StorageConfigErrorInvalidURL},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			var cfgErr *StorageConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("want StorageConfigError, got=%v", err)
			}
			if cfgErr.Code != tc.code {
				t.Fatalf("code: want=%q got=%q", tc.code, cfgErr.Code)
			}
		})
	}
}
