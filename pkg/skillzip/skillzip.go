// Copyright (C) 2025-2026, ClawdHub Authors. All rights reserved.
// See LICENSE for license information.

// Package skillzip builds the canonical zip archive for a skill version.
// The same set of files always produces byte-identical output, so the
// archive's SHA-256 digest can be used as a stable content identity.
package skillzip

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// MetaFileName is the synthetic manifest included in every archive
const MetaFileName = "_meta.json"

// Entries are written with a fixed timestamp so the archive bytes do not
// depend on when it was built.
var fixedModTime = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

// Entry is a single file to include in the archive
type Entry struct {
	Path string
	Data []byte
}

// Meta describes the version the archive was built from
type Meta struct {
	OwnerID     string `json:"ownerId"`
	Slug        string `json:"slug"`
	Version     string `json:"version"`
	PublishedAt int64  `json:"publishedAt"`
}

// Build produces the canonical archive for the given files and manifest.
// Entries are ordered by path and stored uncompressed with fixed metadata
// so repeated builds are byte-identical.
func Build(entries []Entry, meta Meta) ([]byte, error) {
	metaData, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("failed to encode archive manifest: %w", err)
	}

	all := make([]Entry, 0, len(entries)+1)
	seen := make(map[string]bool, len(entries)+1)
	for _, e := range entries {
		if e.Path == "" {
			return nil, fmt.Errorf("archive entry with empty path")
		}
		if e.Path == MetaFileName {
			return nil, fmt.Errorf("archive entry %s is reserved", MetaFileName)
		}
		if seen[e.Path] {
			return nil, fmt.Errorf("duplicate archive entry: %s", e.Path)
		}
		seen[e.Path] = true
		all = append(all, e)
	}
	all = append(all, Entry{Path: MetaFileName, Data: metaData})

	sort.Slice(all, func(i, j int) bool { return all[i].Path < all[j].Path })

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, e := range all {
		header := &zip.FileHeader{
			Name:     e.Path,
			Method:   zip.Store,
			Modified: fixedModTime,
		}
		header.SetMode(0o644)
		f, err := w.CreateHeader(header)
		if err != nil {
			return nil, fmt.Errorf("failed to add %s to archive: %w", e.Path, err)
		}
		if _, err := f.Write(e.Data); err != nil {
			return nil, fmt.Errorf("failed to write %s to archive: %w", e.Path, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}

// Digest returns the lowercase hex SHA-256 of the archive bytes
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
