// Copyright (C) 2025-2026, ClawdHub Authors. All rights reserved.
// See LICENSE for license information.

package cli

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/clawdhub/registry/pkg/skillzip"
)

// skillsDir is where installed skills land inside a workdir
const skillsDir = "skills"

// installSkill downloads the resolved version, verifies its digest,
// extracts it into <workdir>/skills/<slug>/, and records it in the
// lockfile.
func installSkill(ctx context.Context, client *registryClient, workdir string, resolved *resolveResponse) error {
	data, err := client.Download(ctx, resolved.Slug, resolved.Version)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	if resolved.SHA256 != "" {
		if got := skillzip.Digest(data); got != resolved.SHA256 {
			return fmt.Errorf("archive digest mismatch: got %s, want %s", got, resolved.SHA256)
		}
	}

	dest := filepath.Join(workdir, skillsDir, resolved.Slug)
	files, err := extractArchive(data, dest)
	if err != nil {
		return err
	}

	lf, err := LoadLockfile(workdir)
	if err != nil {
		return err
	}
	lf.Skills[resolved.Slug] = LockedSkill{
		Version: resolved.Version,
		SHA256:  resolved.SHA256,
		Files:   files,
	}
	return lf.Save(workdir)
}

// extractArchive unpacks the skill archive into dest, replacing any
// previous contents. The synthetic metadata entry is not extracted.
func extractArchive(data []byte, dest string) ([]string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("invalid archive: %w", err)
	}

	if err := os.RemoveAll(dest); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, err
	}

	var files []string
	for _, f := range reader.File {
		if f.Name == skillzip.MetaFileName {
			continue
		}
		target, err := safeJoin(dest, f.Name)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return nil, err
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		if err := os.WriteFile(target, content, 0o644); err != nil {
			return nil, err
		}
		files = append(files, f.Name)
	}
	sort.Strings(files)
	return files, nil
}

func safeJoin(dest, name string) (string, error) {
	if filepath.IsAbs(name) || strings.Contains(name, "..") {
		return "", fmt.Errorf("unsafe path in archive: %s", name)
	}
	return filepath.Join(dest, filepath.FromSlash(name)), nil
}

// collectFiles walks a skill directory and returns its files ready
// for publishing. Hidden entries and the workdir bookkeeping are
// skipped.
func collectFiles(dir string) ([]publishFilePayload, error) {
	var files []publishFilePayload
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		name := info.Name()
		if info.IsDir() {
			if name != "." && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files = append(files, publishFilePayload{
			Path:          filepath.ToSlash(rel),
			ContentBase64: base64.StdEncoding.EncodeToString(data),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}
