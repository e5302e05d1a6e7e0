// Copyright (C) 2025-2026, ClawdHub Authors. All rights reserved.
// See LICENSE for license information.

package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/clawdhub/registry/pkg/database"
	"github.com/clawdhub/registry/pkg/embedding"
	"github.com/clawdhub/registry/pkg/log"
	"github.com/clawdhub/registry/pkg/model"
	"github.com/clawdhub/registry/pkg/scan"
	"github.com/clawdhub/registry/pkg/skillzip"
	"github.com/clawdhub/registry/pkg/storage"
	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ScanEnqueuer schedules a published version for malware scanning
type ScanEnqueuer interface {
	Enqueue(versionID int64) bool
}

// SkillService handles publish, resolve, download, and lifecycle
// operations for skills
type SkillService struct {
	facade   *database.Facade
	store    storage.Storage
	embedder embedding.Embedder
	scanner  ScanEnqueuer
}

// NewSkillService creates a new SkillService. scanner may be nil when
// scanning is disabled.
func NewSkillService(
	facade *database.Facade,
	store storage.Storage,
	embedder embedding.Embedder,
	scanner ScanEnqueuer,
) *SkillService {
	return &SkillService{
		facade:   facade,
		store:    store,
		embedder: embedder,
		scanner:  scanner,
	}
}

// --- Input/Output Types ---

// PublishFile is one file of a version being published
type PublishFile struct {
	Path string
	Data []byte
}

// PublishInput represents input for publishing a skill version
type PublishInput struct {
	UserID          string
	Slug            string
	DisplayName     string
	Summary         string
	Version         string
	Changelog       string
	ChangelogSource string
	Files           []PublishFile
}

// ForkInput represents input for forking a skill. Source is resolved
// like any reference: exact Version beats Tag, Tag defaults to latest.
type ForkInput struct {
	UserID  string
	Source  string
	NewSlug string
	Version string
	Tag     string
}

// PublishResult is the outcome of a publish
type PublishResult struct {
	Skill        *model.Skill
	Version      *model.SkillVersion
	CreatedSkill bool
}

// Resolved pairs a skill with the version a reference resolved to
type Resolved struct {
	Skill   *model.Skill
	Version *model.SkillVersion
	// Tag is set when the version was reached through a tag
	Tag string
}

// SkillDetail is the full view of a skill served on the detail endpoint
type SkillDetail struct {
	Skill    *model.Skill
	Versions []*model.SkillVersion
	Tags     []*model.SkillTag
	// LatestVerdict carries the scanner evidence for the latest visible
	// version, when one has been recorded
	LatestVerdict *model.ScanVerdict
}

// --- Service Methods ---

// Publish validates and stores a new skill version. The version row
// starts pending; a previously judged digest seeds its statuses so
// known-bad content never goes live, even briefly.
func (s *SkillService) Publish(ctx context.Context, input PublishInput) (*PublishResult, error) {
	if !slugPattern.MatchString(input.Slug) {
		return nil, fmt.Errorf("%w: invalid slug %q", ErrInvalidInput, input.Slug)
	}
	newVersion, err := semver.StrictNewVersion(input.Version)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid version %q: %v", ErrInvalidInput, input.Version, err)
	}
	if err := validateFiles(input.Files); err != nil {
		return nil, err
	}

	skill, createdSkill, err := s.skillForPublish(ctx, input)
	if err != nil {
		return nil, err
	}

	if err := s.checkVersionOrder(ctx, skill.ID, newVersion); err != nil {
		return nil, err
	}

	files := make(model.SkillFiles, 0, len(input.Files))
	for _, f := range input.Files {
		key := "skills/" + uuid.NewString()
		if err := s.store.UploadBytes(ctx, key, f.Data); err != nil {
			return nil, fmt.Errorf("failed to store %s: %w", f.Path, err)
		}
		files = append(files, model.SkillFile{
			Path:       f.Path,
			Size:       int64(len(f.Data)),
			StorageKey: key,
		})
	}

	changelogSource := input.ChangelogSource
	if changelogSource != model.ChangelogSourceAuto {
		changelogSource = model.ChangelogSourceManual
	}

	version := &model.SkillVersion{
		SkillID:          skill.ID,
		Version:          input.Version,
		Files:            files,
		Changelog:        input.Changelog,
		ChangelogSource:  changelogSource,
		ScanStatus:       model.ScanStatusPending,
		ModerationStatus: model.ModerationStatusActive,
	}
	if err := s.facade.SkillVersion.Create(ctx, version); err != nil {
		return nil, fmt.Errorf("failed to create version: %w", err)
	}
	s.seedFromKnownDigest(ctx, skill, version, input.Files)

	if err := s.facade.SkillTag.Upsert(ctx, skill.ID, model.DefaultTag, version.ID); err != nil {
		return nil, fmt.Errorf("failed to move %s tag: %w", model.DefaultTag, err)
	}

	if s.scanner != nil {
		s.scanner.Enqueue(version.ID)
	}
	s.updateEmbedding(ctx, skill)

	log.WithFields(log.Fields{
		"slug":    skill.Slug,
		"version": version.Version,
		"files":   len(files),
	}).Info("published skill version")

	return &PublishResult{Skill: skill, Version: version, CreatedSkill: createdSkill}, nil
}

// skillForPublish loads or creates the skill row a publish targets
func (s *SkillService) skillForPublish(ctx context.Context, input PublishInput) (*model.Skill, bool, error) {
	skill, err := s.facade.Skill.GetBySlugIncludingDeleted(ctx, input.Slug)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		displayName := input.DisplayName
		if displayName == "" {
			displayName = input.Slug
		}
		skill = &model.Skill{
			OwnerUserID: input.UserID,
			Slug:        input.Slug,
			DisplayName: displayName,
			Summary:     input.Summary,
		}
		if err := s.facade.Skill.Create(ctx, skill); err != nil {
			return nil, false, fmt.Errorf("failed to create skill: %w", err)
		}
		return skill, true, nil
	}
	if err != nil {
		return nil, false, err
	}

	if skill.OwnerUserID != input.UserID {
		return nil, false, fmt.Errorf("%w: slug %s belongs to another user", ErrAccessDenied, input.Slug)
	}
	// Publishing to one's own deleted skill revives it
	if skill.Deleted {
		if err := s.facade.Skill.SetDeleted(ctx, skill.ID, false); err != nil {
			return nil, false, err
		}
		skill.Deleted = false
	}

	changed := false
	if input.DisplayName != "" && input.DisplayName != skill.DisplayName {
		skill.DisplayName = input.DisplayName
		changed = true
	}
	if input.Summary != "" && input.Summary != skill.Summary {
		skill.Summary = input.Summary
		changed = true
	}
	if changed {
		if err := s.facade.Skill.Update(ctx, skill); err != nil {
			return nil, false, err
		}
	}
	return skill, false, nil
}

// Fork duplicates a resolved version of another skill under a new slug
// owned by the caller. Stored files are copied object-to-object; the
// fork records its origin and enters the scan pipeline like any fresh
// publish.
func (s *SkillService) Fork(ctx context.Context, input ForkInput) (*PublishResult, error) {
	if input.UserID == "" {
		return nil, fmt.Errorf("%w: missing user", ErrAccessDenied)
	}
	if !slugPattern.MatchString(input.NewSlug) {
		return nil, fmt.Errorf("%w: invalid slug %q", ErrInvalidInput, input.NewSlug)
	}

	resolved, err := s.Resolve(ctx, input.Source, input.Version, input.Tag)
	if err != nil {
		return nil, err
	}
	if _, err := s.facade.Skill.GetBySlugIncludingDeleted(ctx, input.NewSlug); err == nil {
		return nil, fmt.Errorf("%w: slug %s already exists", ErrConflict, input.NewSlug)
	}

	files := make(model.SkillFiles, 0, len(resolved.Version.Files))
	for _, f := range resolved.Version.Files {
		ok, err := s.store.Exists(ctx, f.StorageKey)
		if err != nil {
			return nil, fmt.Errorf("failed to check %s: %w", f.Path, err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: source file %s is missing from storage", ErrIntegrity, f.Path)
		}
		key := "skills/" + uuid.NewString()
		if err := s.store.Copy(ctx, f.StorageKey, key); err != nil {
			return nil, fmt.Errorf("failed to copy %s: %w", f.Path, err)
		}
		files = append(files, model.SkillFile{Path: f.Path, Size: f.Size, StorageKey: key})
	}

	skill := &model.Skill{
		OwnerUserID:       input.UserID,
		Slug:              input.NewSlug,
		DisplayName:       resolved.Skill.DisplayName,
		Summary:           resolved.Skill.Summary,
		ForkedFromSkillID: &resolved.Skill.ID,
		ForkedFromVersion: resolved.Version.Version,
	}
	if err := s.facade.Skill.Create(ctx, skill); err != nil {
		return nil, fmt.Errorf("failed to create skill: %w", err)
	}

	version := &model.SkillVersion{
		SkillID:          skill.ID,
		Version:          resolved.Version.Version,
		Files:            files,
		Changelog:        fmt.Sprintf("Forked from %s@%s", resolved.Skill.Slug, resolved.Version.Version),
		ChangelogSource:  model.ChangelogSourceAuto,
		ScanStatus:       model.ScanStatusPending,
		ModerationStatus: model.ModerationStatusActive,
	}
	if err := s.facade.SkillVersion.Create(ctx, version); err != nil {
		return nil, fmt.Errorf("failed to create version: %w", err)
	}

	if err := s.facade.SkillTag.Upsert(ctx, skill.ID, model.DefaultTag, version.ID); err != nil {
		return nil, fmt.Errorf("failed to set %s tag: %w", model.DefaultTag, err)
	}

	if s.scanner != nil {
		s.scanner.Enqueue(version.ID)
	}
	s.updateEmbedding(ctx, skill)

	log.WithFields(log.Fields{
		"slug":   skill.Slug,
		"source": resolved.Skill.Slug,
	}).Info("forked skill")

	return &PublishResult{Skill: skill, Version: version, CreatedSkill: true}, nil
}

// checkVersionOrder rejects duplicates and versions that do not advance
// past every previously published one
func (s *SkillService) checkVersionOrder(ctx context.Context, skillID int64, newVersion *semver.Version) error {
	existing, err := s.facade.SkillVersion.ListBySkillID(ctx, skillID)
	if err != nil {
		return err
	}
	for _, v := range existing {
		prev, err := semver.StrictNewVersion(v.Version)
		if err != nil {
			continue
		}
		if newVersion.Equal(prev) {
			return fmt.Errorf("%w: version %s already published", ErrConflict, newVersion)
		}
		if !newVersion.GreaterThan(prev) {
			return fmt.Errorf("%w: version %s is not greater than %s", ErrInvalidInput, newVersion, prev)
		}
	}
	return nil
}

// seedFromKnownDigest checks whether this exact content was judged
// before and copies the stored verdict onto the new version, so
// known-bad content never has a live window while the scan queue
// catches up. The hash column stays empty until the scan pipeline
// pins it. Runs after Create because the digest covers publishedAt.
func (s *SkillService) seedFromKnownDigest(ctx context.Context, skill *model.Skill, version *model.SkillVersion, files []PublishFile) {
	entries := make([]skillzip.Entry, 0, len(files))
	for _, f := range files {
		entries = append(entries, skillzip.Entry{Path: f.Path, Data: f.Data})
	}
	archive, err := skillzip.Build(entries, skillzip.Meta{
		OwnerID:     skill.OwnerUserID,
		Slug:        skill.Slug,
		Version:     version.Version,
		PublishedAt: version.CreatedAt.UnixMilli(),
	})
	if err != nil {
		return
	}
	verdict, err := s.facade.ScanVerdict.GetByHash(ctx, skillzip.Digest(archive))
	if err != nil || verdict == nil || verdict.Status == model.ScanStatusPending {
		return
	}
	if err := s.facade.SkillVersion.UpdateStatuses(ctx, version.ID, verdict.Status, verdict.ModerationStatus); err != nil {
		log.WithFields(log.Fields{"versionId": version.ID, "error": err.Error()}).Warn("failed to seed verdict")
		return
	}
	version.ScanStatus = verdict.Status
	version.ModerationStatus = verdict.ModerationStatus
}

func validateFiles(files []PublishFile) error {
	if len(files) == 0 {
		return fmt.Errorf("%w: a version needs at least one file", ErrInvalidInput)
	}
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		p := f.Path
		if p == "" || p == skillzip.MetaFileName {
			return fmt.Errorf("%w: invalid file path %q", ErrInvalidInput, p)
		}
		if strings.HasPrefix(p, "/") || path.Clean(p) != p || strings.HasPrefix(p, "..") {
			return fmt.Errorf("%w: invalid file path %q", ErrInvalidInput, p)
		}
		if seen[p] {
			return fmt.Errorf("%w: duplicate file path %q", ErrInvalidInput, p)
		}
		seen[p] = true
	}
	return nil
}

// Resolve maps a skill reference to a concrete version. Precedence:
// exact version, then tag (default latest), then the most recent
// visible version. Hidden or deleted content resolves to NotFound.
func (s *SkillService) Resolve(ctx context.Context, slug, version, tag string) (*Resolved, error) {
	skill, err := s.facade.Skill.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("skill %w", ErrNotFound)
	}

	if version != "" {
		v, err := s.facade.SkillVersion.GetBySkillIDAndVersion(ctx, skill.ID, version)
		if err != nil || !v.Visible() {
			return nil, fmt.Errorf("version %w", ErrNotFound)
		}
		return &Resolved{Skill: skill, Version: v}, nil
	}

	tagName := tag
	if tagName == "" {
		tagName = model.DefaultTag
	}
	if t, err := s.facade.SkillTag.GetBySkillIDAndName(ctx, skill.ID, tagName); err == nil {
		if v, err := s.facade.SkillVersion.GetByID(ctx, t.VersionID); err == nil && v.Visible() {
			return &Resolved{Skill: skill, Version: v, Tag: tagName}, nil
		}
		if tag != "" {
			// An explicitly requested tag whose target is missing or
			// hidden must not resolve to some other version
			return nil, fmt.Errorf("tag %w", ErrNotFound)
		}
	} else if tag != "" {
		// An explicitly requested tag that does not exist is NotFound;
		// only the implicit default falls through to latest-visible
		return nil, fmt.Errorf("tag %w", ErrNotFound)
	}

	v, err := s.facade.SkillVersion.GetLatestVisible(ctx, skill.ID)
	if err != nil {
		return nil, fmt.Errorf("version %w", ErrNotFound)
	}
	return &Resolved{Skill: skill, Version: v}, nil
}

// DownloadArchive resolves a reference and rebuilds the canonical
// archive from stored files, verifying the persisted digest when one
// exists. Successful downloads bump the skill's counters.
func (s *SkillService) DownloadArchive(ctx context.Context, slug, version, tag string) ([]byte, string, error) {
	resolved, err := s.Resolve(ctx, slug, version, tag)
	if err != nil {
		return nil, "", err
	}

	archive, err := scan.BuildArchive(ctx, s.store, resolved.Skill, resolved.Version)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build archive: %w", err)
	}
	if want := resolved.Version.SHA256Hash; want != "" {
		if got := skillzip.Digest(archive); got != want {
			return nil, "", fmt.Errorf("%w: archive digest %s does not match recorded %s", ErrIntegrity, got, want)
		}
	}

	if err := s.facade.Skill.IncrementDownloads(ctx, resolved.Skill.ID); err != nil {
		log.WithFields(log.Fields{"slug": slug, "error": err.Error()}).Warn("failed to bump download counter")
	}
	if err := s.facade.Skill.IncrementInstalls(ctx, resolved.Skill.ID); err != nil {
		log.WithFields(log.Fields{"slug": slug, "error": err.Error()}).Warn("failed to bump install counter")
	}

	filename := fmt.Sprintf("%s-%s.zip", resolved.Skill.Slug, resolved.Version.Version)
	return archive, filename, nil
}

// Get returns the detail view of a skill. Hidden versions are omitted
// unless the requester owns the skill.
func (s *SkillService) Get(ctx context.Context, slug, userID string) (*SkillDetail, error) {
	skill, err := s.facade.Skill.GetBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("skill %w", ErrNotFound)
	}

	versions, err := s.facade.SkillVersion.ListBySkillID(ctx, skill.ID)
	if err != nil {
		return nil, err
	}
	isOwner := userID != "" && skill.OwnerUserID == userID
	visible := versions[:0]
	for _, v := range versions {
		if v.Visible() || isOwner {
			visible = append(visible, v)
		}
	}

	tags, err := s.facade.SkillTag.ListBySkillID(ctx, skill.ID)
	if err != nil {
		return nil, err
	}

	detail := &SkillDetail{Skill: skill, Versions: visible, Tags: tags}
	if latest, err := s.facade.SkillVersion.GetLatestVisible(ctx, skill.ID); err == nil && latest.SHA256Hash != "" {
		if verdict, err := s.facade.ScanVerdict.GetByHash(ctx, latest.SHA256Hash); err == nil {
			detail.LatestVerdict = verdict
		}
	}
	return detail, nil
}

// List returns a page of skills with the total count
func (s *SkillService) List(ctx context.Context, offset, limit int) ([]*model.Skill, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.facade.Skill.List(ctx, offset, limit)
}

// Delete soft-deletes a skill. Only the owner may delete.
func (s *SkillService) Delete(ctx context.Context, userID, slug string) error {
	skill, err := s.facade.Skill.GetBySlug(ctx, slug)
	if err != nil {
		return fmt.Errorf("skill %w", ErrNotFound)
	}
	if skill.OwnerUserID != userID {
		return fmt.Errorf("%w: only the owner can delete", ErrAccessDenied)
	}
	return s.facade.Skill.SetDeleted(ctx, skill.ID, true)
}

// Undelete restores a soft-deleted skill. Only the owner may undelete.
func (s *SkillService) Undelete(ctx context.Context, userID, slug string) error {
	skill, err := s.facade.Skill.GetBySlugIncludingDeleted(ctx, slug)
	if err != nil {
		return fmt.Errorf("skill %w", ErrNotFound)
	}
	if skill.OwnerUserID != userID {
		return fmt.Errorf("%w: only the owner can undelete", ErrAccessDenied)
	}
	if !skill.Deleted {
		return nil
	}
	return s.facade.Skill.SetDeleted(ctx, skill.ID, false)
}

// updateEmbedding refreshes the skill's search embedding. Failures are
// logged and never fail the calling operation.
func (s *SkillService) updateEmbedding(ctx context.Context, skill *model.Skill) {
	emb, err := s.embedder.Embed(ctx, embedding.SkillText(skill.DisplayName, skill.Summary))
	if err != nil {
		log.WithFields(log.Fields{"slug": skill.Slug, "error": err.Error()}).Warn("embedding generation failed")
		return
	}
	if emb == nil {
		return
	}
	record := &model.SkillEmbedding{
		SkillID:      skill.ID,
		Embedding:    pgvector.NewVector(emb),
		ModelVersion: s.embedder.ModelName(),
	}
	if err := s.facade.SkillEmbedding.Upsert(ctx, record); err != nil {
		log.WithFields(log.Fields{"slug": skill.Slug, "error": err.Error()}).Warn("failed to store embedding")
	}
}
