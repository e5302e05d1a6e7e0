// Copyright (C) 2025-2026, ClawdHub Authors. All rights reserved.
// See LICENSE for license information.

package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/clawdhub/registry/pkg/skillzip"
)

func TestUserConfig_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CLAWDHUB_CONFIG_PATH", filepath.Join(dir, "config.json"))

	cfg, err := LoadUserConfig()
	if err != nil {
		t.Fatalf("loading missing config: %v", err)
	}
	if cfg.Registry != "" || cfg.Token != "" {
		t.Errorf("missing config should be empty, got %+v", cfg)
	}

	cfg.Registry = "https://registry.example.com"
	cfg.Token = "tok-123"
	if err := SaveUserConfig(cfg); err != nil {
		t.Fatalf("saving config: %v", err)
	}

	loaded, err := LoadUserConfig()
	if err != nil {
		t.Fatalf("reloading config: %v", err)
	}
	if loaded.Registry != cfg.Registry || loaded.Token != cfg.Token {
		t.Errorf("reloaded config = %+v, want %+v", loaded, cfg)
	}
}

func TestLockfile_RoundTrip(t *testing.T) {
	workdir := t.TempDir()

	lf, err := LoadLockfile(workdir)
	if err != nil {
		t.Fatalf("loading missing lockfile: %v", err)
	}
	if len(lf.Skills) != 0 {
		t.Errorf("missing lockfile should be empty, got %d entries", len(lf.Skills))
	}

	lf.Skills["pdf-tools"] = LockedSkill{
		Version: "1.2.0",
		SHA256:  "abc123",
		Files:   []string{"SKILL.md"},
	}
	if err := lf.Save(workdir); err != nil {
		t.Fatalf("saving lockfile: %v", err)
	}

	loaded, err := LoadLockfile(workdir)
	if err != nil {
		t.Fatalf("reloading lockfile: %v", err)
	}
	entry, ok := loaded.Skills["pdf-tools"]
	if !ok {
		t.Fatal("pdf-tools missing from reloaded lockfile")
	}
	if entry.Version != "1.2.0" || entry.SHA256 != "abc123" {
		t.Errorf("unexpected entry: %+v", entry)
	}
}

func buildTestArchive(t *testing.T) []byte {
	t.Helper()
	data, err := skillzip.Build(
		[]skillzip.Entry{
			{Path: "SKILL.md", Data: []byte("# PDF Tools\n")},
			{Path: "scripts/run.sh", Data: []byte("echo hi\n")},
		},
		skillzip.Meta{OwnerID: "user-1", Slug: "pdf-tools", Version: "1.2.0", PublishedAt: 1700000000000},
	)
	if err != nil {
		t.Fatalf("building archive: %v", err)
	}
	return data
}

func TestExtractArchive(t *testing.T) {
	data := buildTestArchive(t)
	dest := filepath.Join(t.TempDir(), "pdf-tools")

	files, err := extractArchive(data, dest)
	if err != nil {
		t.Fatalf("extracting: %v", err)
	}
	want := []string{"SKILL.md", "scripts/run.sh"}
	if len(files) != len(want) {
		t.Fatalf("files = %v, want %v", files, want)
	}
	for i, f := range want {
		if files[i] != f {
			t.Errorf("files[%d] = %q, want %q", i, files[i], f)
		}
	}

	content, err := os.ReadFile(filepath.Join(dest, "SKILL.md"))
	if err != nil {
		t.Fatalf("reading extracted file: %v", err)
	}
	if string(content) != "# PDF Tools\n" {
		t.Errorf("extracted content = %q", content)
	}

	// The synthetic metadata entry stays inside the archive.
	if _, err := os.Stat(filepath.Join(dest, skillzip.MetaFileName)); !os.IsNotExist(err) {
		t.Error("metadata entry should not be extracted")
	}
}

func TestExtractArchive_ReplacesPrevious(t *testing.T) {
	data := buildTestArchive(t)
	dest := filepath.Join(t.TempDir(), "pdf-tools")
	if err := os.MkdirAll(dest, 0o755); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(dest, "stale.txt")
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := extractArchive(data, dest); err != nil {
		t.Fatalf("extracting: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale file should be removed before extraction")
	}
}

func TestSafeJoin_RejectsTraversal(t *testing.T) {
	for _, name := range []string{"../escape.txt", "a/../../b", "/etc/passwd"} {
		if _, err := safeJoin("/tmp/dest", name); err == nil {
			t.Errorf("safeJoin accepted %q", name)
		}
	}
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	write := func(rel, content string) {
		path := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	write("SKILL.md", "# Skill\n")
	write("scripts/run.sh", "echo hi\n")
	write(".hidden", "secret")
	write(".clawdhub/lock.json", "{}")

	files, err := collectFiles(dir)
	if err != nil {
		t.Fatalf("collecting: %v", err)
	}
	want := []string{"SKILL.md", "scripts/run.sh"}
	if len(files) != len(want) {
		t.Fatalf("collected %d files, want %d: %+v", len(files), len(want), files)
	}
	for i, f := range want {
		if files[i].Path != f {
			t.Errorf("files[%d].Path = %q, want %q", i, files[i].Path, f)
		}
		if files[i].ContentBase64 == "" {
			t.Errorf("files[%d] has empty content", i)
		}
	}
}

func TestInstallSkill(t *testing.T) {
	archive := buildTestArchive(t)
	digest := skillzip.Digest(archive)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/download" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/zip")
		w.Write(archive)
	}))
	defer server.Close()

	client := newRegistryClient(server.URL, "")
	workdir := t.TempDir()
	resolved := &resolveResponse{
		Slug:    "pdf-tools",
		Version: "1.2.0",
		SHA256:  digest,
	}

	if err := installSkill(context.Background(), client, workdir, resolved); err != nil {
		t.Fatalf("installing: %v", err)
	}

	if _, err := os.Stat(filepath.Join(workdir, "skills", "pdf-tools", "SKILL.md")); err != nil {
		t.Errorf("installed file missing: %v", err)
	}
	lf, err := LoadLockfile(workdir)
	if err != nil {
		t.Fatal(err)
	}
	entry, ok := lf.Skills["pdf-tools"]
	if !ok {
		t.Fatal("lockfile entry missing")
	}
	if entry.Version != "1.2.0" || entry.SHA256 != digest {
		t.Errorf("unexpected lock entry: %+v", entry)
	}
}

func TestInstallSkill_DigestMismatch(t *testing.T) {
	archive := buildTestArchive(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	}))
	defer server.Close()

	client := newRegistryClient(server.URL, "")
	resolved := &resolveResponse{Slug: "pdf-tools", Version: "1.2.0", SHA256: "deadbeef"}

	err := installSkill(context.Background(), client, t.TempDir(), resolved)
	if err == nil {
		t.Fatal("expected digest mismatch error")
	}
}

func TestChangelogFor(t *testing.T) {
	changelog, source := changelogFor("Fixed parsing", "1.2.0", 3)
	if changelog != "Fixed parsing" || source != "manual" {
		t.Errorf("user changelog = %q/%q, want manual passthrough", changelog, source)
	}

	changelog, source = changelogFor("", "1.2.0", 3)
	if source != "auto" {
		t.Errorf("generated changelog source = %q, want auto", source)
	}
	if changelog != "Publish 1.2.0 (3 files)" {
		t.Errorf("generated changelog = %q", changelog)
	}
}

func TestRegistryClient_Whoami(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("Authorization = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]string{"userId": "user-1", "handle": "alice"})
	}))
	defer server.Close()

	client := newRegistryClient(server.URL, "tok-1")
	who, err := client.Whoami(context.Background())
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	if who.UserID != "user-1" || who.Handle != "alice" {
		t.Errorf("unexpected response: %+v", who)
	}
}

func TestRegistryClient_WhoamiRejectsMissingUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"handle": "alice"})
	}))
	defer server.Close()

	client := newRegistryClient(server.URL, "")
	if _, err := client.Whoami(context.Background()); err == nil {
		t.Fatal("expected validation error for missing userId")
	}
}
