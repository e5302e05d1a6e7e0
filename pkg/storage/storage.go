// Copyright (C) 2025-2026, ClawdHub Authors. All rights reserved.
// See LICENSE for license information.

package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/clawdhub/registry/pkg/config"
)

// Storage defines the interface for skill file storage operations
type Storage interface {
	// Upload uploads a file to the storage from an io.Reader
	Upload(ctx context.Context, key string, reader io.Reader) error

	// UploadBytes uploads bytes to the storage
	UploadBytes(ctx context.Context, key string, data []byte) error

	// Download downloads a file from the storage
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// DownloadBytes downloads a file and returns its content as bytes
	DownloadBytes(ctx context.Context, key string) ([]byte, error)

	// Delete deletes a file from the storage
	Delete(ctx context.Context, key string) error

	// Exists checks if a file exists in the storage
	Exists(ctx context.Context, key string) (bool, error)

	// Copy copies a stored object to a new key (used when forking a skill)
	Copy(ctx context.Context, srcKey, dstKey string) error
}

// NewStorage creates a new Storage instance based on configuration
func NewStorage(cfg config.StorageConfig) (Storage, error) {
	switch cfg.Provider {
	case "s3", "minio":
		return NewS3Storage(S3Config{
			Endpoint:        cfg.Endpoint,
			Region:          cfg.Region,
			Bucket:          cfg.Bucket,
			AccessKeyID:     cfg.AccessKey,
			SecretAccessKey: cfg.SecretKey,
			UsePathStyle:    cfg.Provider == "minio", // MinIO uses path style
		})
	case "local", "":
		basePath := cfg.BasePath
		if basePath == "" {
			basePath = "./data/storage"
		}
		return NewLocalStorage(basePath)
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", cfg.Provider)
	}
}
