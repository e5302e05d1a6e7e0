// Copyright (C) 2025-2026, ClawdHub Authors. All rights reserved.
// See LICENSE for license information.

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/clawdhub/registry/pkg/model"
	"gorm.io/gorm"
)

// SkillVersionFacadeInterface defines the interface for SkillVersion operations
type SkillVersionFacadeInterface interface {
	GetByID(ctx context.Context, id int64) (*model.SkillVersion, error)
	GetBySkillIDAndVersion(ctx context.Context, skillID int64, version string) (*model.SkillVersion, error)
	ListBySkillID(ctx context.Context, skillID int64) ([]*model.SkillVersion, error)
	// GetLatestVisible returns the most recently created version that is not
	// hidden by moderation.
	GetLatestVisible(ctx context.Context, skillID int64) (*model.SkillVersion, error)
	Create(ctx context.Context, version *model.SkillVersion) error
	// SetHash persists the archive digest exactly once. Writing a different
	// digest over an existing one fails; rewriting the same digest is a no-op.
	SetHash(ctx context.Context, versionID int64, hash string) error
	// UpdateScanStatusByHash applies a verdict to every version sharing the
	// digest (content-addressed moderation).
	UpdateScanStatusByHash(ctx context.Context, hash, scanStatus, moderationStatus string) error
	UpdateScanStatus(ctx context.Context, versionID int64, scanStatus string) error
	// UpdateStatuses sets both scan and moderation status on one version.
	UpdateStatuses(ctx context.Context, versionID int64, scanStatus, moderationStatus string) error
	// ListUnresolved returns versions still pending (or errored) whose last
	// activity is older than the cutoff, for the rescan sweep.
	ListUnresolved(ctx context.Context, olderThan time.Time, limit int) ([]*model.SkillVersion, error)
}

// SkillVersionFacade implements SkillVersionFacadeInterface
type SkillVersionFacade struct {
	db *gorm.DB
}

// NewSkillVersionFacade creates a new SkillVersionFacade
func NewSkillVersionFacade(db *gorm.DB) *SkillVersionFacade {
	return &SkillVersionFacade{db: db}
}

// GetByID retrieves a skill version by ID
func (f *SkillVersionFacade) GetByID(ctx context.Context, id int64) (*model.SkillVersion, error) {
	var version model.SkillVersion
	err := f.db.WithContext(ctx).Where("id = ?", id).First(&version).Error
	if err != nil {
		return nil, err
	}
	return &version, nil
}

// GetBySkillIDAndVersion retrieves an exact version of a skill
func (f *SkillVersionFacade) GetBySkillIDAndVersion(ctx context.Context, skillID int64, version string) (*model.SkillVersion, error) {
	var v model.SkillVersion
	err := f.db.WithContext(ctx).
		Where("skill_id = ? AND version = ?", skillID, version).
		First(&v).Error
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ListBySkillID retrieves all versions of a skill, newest first
func (f *SkillVersionFacade) ListBySkillID(ctx context.Context, skillID int64) ([]*model.SkillVersion, error) {
	var versions []*model.SkillVersion
	err := f.db.WithContext(ctx).
		Where("skill_id = ?", skillID).
		Order("created_at DESC").
		Find(&versions).Error
	if err != nil {
		return nil, err
	}
	return versions, nil
}

// GetLatestVisible retrieves the newest version not hidden by moderation
func (f *SkillVersionFacade) GetLatestVisible(ctx context.Context, skillID int64) (*model.SkillVersion, error) {
	var version model.SkillVersion
	err := f.db.WithContext(ctx).
		Where("skill_id = ? AND moderation_status <> ?", skillID, model.ModerationStatusHidden).
		Order("created_at DESC").
		First(&version).Error
	if err != nil {
		return nil, err
	}
	return &version, nil
}

// Create creates a new skill version
func (f *SkillVersionFacade) Create(ctx context.Context, version *model.SkillVersion) error {
	return f.db.WithContext(ctx).Create(version).Error
}

// SetHash persists the archive digest once
func (f *SkillVersionFacade) SetHash(ctx context.Context, versionID int64, hash string) error {
	res := f.db.WithContext(ctx).
		Model(&model.SkillVersion{}).
		Where("id = ? AND (sha256_hash IS NULL OR sha256_hash = '' OR sha256_hash = ?)", versionID, hash).
		Update("sha256_hash", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("version %d already has a different hash", versionID)
	}
	return nil
}

// UpdateScanStatusByHash applies the verdict to all versions with the digest
func (f *SkillVersionFacade) UpdateScanStatusByHash(ctx context.Context, hash, scanStatus, moderationStatus string) error {
	return f.db.WithContext(ctx).
		Model(&model.SkillVersion{}).
		Where("sha256_hash = ?", hash).
		Updates(map[string]interface{}{
			"scan_status":       scanStatus,
			"moderation_status": moderationStatus,
		}).Error
}

// UpdateScanStatus updates a single version's scan status
func (f *SkillVersionFacade) UpdateScanStatus(ctx context.Context, versionID int64, scanStatus string) error {
	return f.db.WithContext(ctx).
		Model(&model.SkillVersion{}).
		Where("id = ?", versionID).
		Update("scan_status", scanStatus).Error
}

// UpdateStatuses sets both scan and moderation status on one version
func (f *SkillVersionFacade) UpdateStatuses(ctx context.Context, versionID int64, scanStatus, moderationStatus string) error {
	return f.db.WithContext(ctx).
		Model(&model.SkillVersion{}).
		Where("id = ?", versionID).
		Updates(map[string]interface{}{
			"scan_status":       scanStatus,
			"moderation_status": moderationStatus,
		}).Error
}

// ListUnresolved retrieves pending/error versions older than the cutoff
func (f *SkillVersionFacade) ListUnresolved(ctx context.Context, olderThan time.Time, limit int) ([]*model.SkillVersion, error) {
	var versions []*model.SkillVersion
	err := f.db.WithContext(ctx).
		Where("scan_status IN ? AND created_at < ?", []string{model.ScanStatusPending, model.ScanStatusError}, olderThan).
		Order("created_at ASC").
		Limit(limit).
		Find(&versions).Error
	if err != nil {
		return nil, err
	}
	return versions, nil
}
