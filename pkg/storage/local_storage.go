// Copyright (C) 2025-2026, ClawdHub Authors. All rights reserved.
// See LICENSE for license information.

package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage implements Storage interface using the local filesystem.
// Intended for development and single-node deployments.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new LocalStorage rooted at basePath
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

// resolve maps a key to a path under basePath, rejecting traversal
func (l *LocalStorage) resolve(key string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid storage key: %s", key)
	}
	return filepath.Join(l.basePath, cleaned), nil
}

// Upload writes a file from an io.Reader
func (l *LocalStorage) Upload(ctx context.Context, key string, reader io.Reader) error {
	path, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, reader)
	return err
}

// UploadBytes writes bytes to a file
func (l *LocalStorage) UploadBytes(ctx context.Context, key string, data []byte) error {
	return l.Upload(ctx, key, bytes.NewReader(data))
}

// Download opens a stored file for reading
func (l *LocalStorage) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	path, err := l.resolve(key)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

// DownloadBytes reads a stored file into memory
func (l *LocalStorage) DownloadBytes(ctx context.Context, key string) ([]byte, error) {
	reader, err := l.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

// Delete removes a stored file. Deleting a missing file is not an error.
func (l *LocalStorage) Delete(ctx context.Context, key string) error {
	path, err := l.resolve(key)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Exists checks whether a file exists
func (l *LocalStorage) Exists(ctx context.Context, key string) (bool, error) {
	path, err := l.resolve(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		return false, nil
	}
	return true, nil
}

// Copy duplicates a stored file under a new key
func (l *LocalStorage) Copy(ctx context.Context, srcKey, dstKey string) error {
	data, err := l.DownloadBytes(ctx, srcKey)
	if err != nil {
		return err
	}
	return l.UploadBytes(ctx, dstKey, data)
}
