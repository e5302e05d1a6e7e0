// Copyright (C) 2025-2026, ClawdHub Authors. All rights reserved.
// See LICENSE for license information.

package database

import (
	"context"
	"time"

	"github.com/clawdhub/registry/pkg/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SkillTagFacadeInterface defines the interface for SkillTag operations
type SkillTagFacadeInterface interface {
	GetBySkillIDAndName(ctx context.Context, skillID int64, name string) (*model.SkillTag, error)
	ListBySkillID(ctx context.Context, skillID int64) ([]*model.SkillTag, error)
	// Upsert moves the tag to the given version, creating it if absent.
	Upsert(ctx context.Context, skillID int64, name string, versionID int64) error
	Delete(ctx context.Context, skillID int64, name string) error
}

// SkillTagFacade implements SkillTagFacadeInterface
type SkillTagFacade struct {
	db *gorm.DB
}

// NewSkillTagFacade creates a new SkillTagFacade
func NewSkillTagFacade(db *gorm.DB) *SkillTagFacade {
	return &SkillTagFacade{db: db}
}

// GetBySkillIDAndName retrieves a tag by skill and name
func (f *SkillTagFacade) GetBySkillIDAndName(ctx context.Context, skillID int64, name string) (*model.SkillTag, error) {
	var tag model.SkillTag
	err := f.db.WithContext(ctx).
		Where("skill_id = ? AND name = ?", skillID, name).
		First(&tag).Error
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// ListBySkillID retrieves all tags for a skill
func (f *SkillTagFacade) ListBySkillID(ctx context.Context, skillID int64) ([]*model.SkillTag, error) {
	var tags []*model.SkillTag
	err := f.db.WithContext(ctx).
		Where("skill_id = ?", skillID).
		Order("name ASC").
		Find(&tags).Error
	if err != nil {
		return nil, err
	}
	return tags, nil
}

// Upsert atomically points the tag at the version
func (f *SkillTagFacade) Upsert(ctx context.Context, skillID int64, name string, versionID int64) error {
	tag := model.SkillTag{
		SkillID:   skillID,
		Name:      name,
		VersionID: versionID,
		UpdatedAt: time.Now(),
	}
	return f.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "skill_id"}, {Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"version_id", "updated_at"}),
		}).
		Create(&tag).Error
}

// Delete removes a tag
func (f *SkillTagFacade) Delete(ctx context.Context, skillID int64, name string) error {
	return f.db.WithContext(ctx).
		Where("skill_id = ? AND name = ?", skillID, name).
		Delete(&model.SkillTag{}).Error
}
