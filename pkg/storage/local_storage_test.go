// Copyright (C) 2025-2026, ClawdHub Authors. All rights reserved.
// See LICENSE for license information.

package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestNewLocalStorage(t *testing.T) {
	tmpDir := t.TempDir()

	storage, err := NewLocalStorage(tmpDir)
	if err != nil {
		t.Fatalf("NewLocalStorage() error = %v", err)
	}

	if storage.basePath != tmpDir {
		t.Errorf("NewLocalStorage() basePath = %v, want %v", storage.basePath, tmpDir)
	}
}

func TestLocalStorage_UploadAndDownload(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage() error = %v", err)
	}

	ctx := context.Background()
	testKey := "skills/alice/pdf-tools/1.0.0/SKILL.md"
	testContent := []byte("# pdf-tools\n")

	if err := storage.UploadBytes(ctx, testKey, testContent); err != nil {
		t.Errorf("UploadBytes() error = %v", err)
	}

	exists, err := storage.Exists(ctx, testKey)
	if err != nil {
		t.Errorf("Exists() error = %v", err)
	}
	if !exists {
		t.Error("Exists() = false, want true")
	}

	downloaded, err := storage.DownloadBytes(ctx, testKey)
	if err != nil {
		t.Errorf("DownloadBytes() error = %v", err)
	}
	if !bytes.Equal(downloaded, testContent) {
		t.Errorf("DownloadBytes() = %v, want %v", downloaded, testContent)
	}

	reader, err := storage.Download(ctx, testKey)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	defer reader.Close()

	readContent, err := io.ReadAll(reader)
	if err != nil {
		t.Errorf("Failed to read: %v", err)
	}
	if !bytes.Equal(readContent, testContent) {
		t.Errorf("Download() content = %v, want %v", readContent, testContent)
	}
}

func TestLocalStorage_Upload(t *testing.T) {
	tmpDir := t.TempDir()
	storage, err := NewLocalStorage(tmpDir)
	if err != nil {
		t.Fatalf("NewLocalStorage() error = %v", err)
	}

	ctx := context.Background()
	testKey := "nested/dir/file.txt"
	testContent := []byte("Nested content")

	err = storage.Upload(ctx, testKey, bytes.NewReader(testContent))
	if err != nil {
		t.Errorf("Upload() error = %v", err)
	}

	filePath := filepath.Join(tmpDir, testKey)
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		t.Error("Upload() did not create file")
	}
}

func TestLocalStorage_Delete(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage() error = %v", err)
	}

	ctx := context.Background()
	testKey := "to-delete.txt"

	if err := storage.UploadBytes(ctx, testKey, []byte("delete me")); err != nil {
		t.Fatalf("UploadBytes() error = %v", err)
	}

	if err := storage.Delete(ctx, testKey); err != nil {
		t.Errorf("Delete() error = %v", err)
	}

	exists, err := storage.Exists(ctx, testKey)
	if err != nil {
		t.Errorf("Exists() error = %v", err)
	}
	if exists {
		t.Error("Exists() = true after delete, want false")
	}
}

func TestLocalStorage_Copy(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage() error = %v", err)
	}

	ctx := context.Background()
	srcKey := "skills/alice/pdf-tools/1.0.0/SKILL.md"
	dstKey := "skills/bob/pdf-tools/1.0.0/SKILL.md"
	content := []byte("# pdf-tools\n")

	if err := storage.UploadBytes(ctx, srcKey, content); err != nil {
		t.Fatalf("UploadBytes() error = %v", err)
	}

	if err := storage.Copy(ctx, srcKey, dstKey); err != nil {
		t.Errorf("Copy() error = %v", err)
	}

	copied, err := storage.DownloadBytes(ctx, dstKey)
	if err != nil {
		t.Errorf("DownloadBytes() error = %v", err)
	}
	if !bytes.Equal(copied, content) {
		t.Errorf("Copy() content = %v, want %v", copied, content)
	}
}

func TestLocalStorage_NonExistentFile(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage() error = %v", err)
	}

	ctx := context.Background()

	_, err = storage.Download(ctx, "non-existent.txt")
	if err == nil {
		t.Error("Download() expected error for non-existent file")
	}

	exists, err := storage.Exists(ctx, "non-existent.txt")
	if err != nil {
		t.Errorf("Exists() error = %v", err)
	}
	if exists {
		t.Error("Exists() = true for non-existent file")
	}

	err = storage.Delete(ctx, "non-existent.txt")
	if err != nil {
		t.Errorf("Delete() should not error for non-existent file: %v", err)
	}
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	storage, err := NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage() error = %v", err)
	}

	ctx := context.Background()
	for _, key := range []string{"../escape.txt", "/abs/path.txt", "a/../../escape.txt"} {
		if err := storage.UploadBytes(ctx, key, []byte("x")); err == nil {
			t.Errorf("UploadBytes(%q) expected error", key)
		}
	}
}
