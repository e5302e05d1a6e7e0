// Copyright (C) 2025-2026, ClawdHub Authors. All rights reserved.
// See LICENSE for license information.

package database

import (
	"context"

	"github.com/clawdhub/registry/pkg/model"
	"gorm.io/gorm"
)

// SkillFacadeInterface defines the interface for Skill operations
type SkillFacadeInterface interface {
	GetByID(ctx context.Context, id int64) (*model.Skill, error)
	GetBySlug(ctx context.Context, slug string) (*model.Skill, error)
	// GetBySlugIncludingDeleted also returns soft-deleted skills;
	// needed by publish (slug ownership) and undelete.
	GetBySlugIncludingDeleted(ctx context.Context, slug string) (*model.Skill, error)
	List(ctx context.Context, offset, limit int) ([]*model.Skill, int64, error)
	Search(ctx context.Context, query string, limit int) ([]*model.Skill, error)
	Create(ctx context.Context, skill *model.Skill) error
	Update(ctx context.Context, skill *model.Skill) error
	SetDeleted(ctx context.Context, id int64, deleted bool) error
	IncrementDownloads(ctx context.Context, id int64) error
	IncrementInstalls(ctx context.Context, id int64) error
}

// SkillFacade implements SkillFacadeInterface
type SkillFacade struct {
	db *gorm.DB
}

// NewSkillFacade creates a new SkillFacade
func NewSkillFacade(db *gorm.DB) *SkillFacade {
	return &SkillFacade{db: db}
}

// GetByID retrieves a non-deleted skill by ID
func (f *SkillFacade) GetByID(ctx context.Context, id int64) (*model.Skill, error) {
	var skill model.Skill
	err := f.db.WithContext(ctx).Where("id = ? AND deleted = false", id).First(&skill).Error
	if err != nil {
		return nil, err
	}
	return &skill, nil
}

// GetBySlug retrieves a non-deleted skill by slug
func (f *SkillFacade) GetBySlug(ctx context.Context, slug string) (*model.Skill, error) {
	var skill model.Skill
	err := f.db.WithContext(ctx).Where("slug = ? AND deleted = false", slug).First(&skill).Error
	if err != nil {
		return nil, err
	}
	return &skill, nil
}

// GetBySlugIncludingDeleted retrieves a skill by slug regardless of the
// soft-delete flag
func (f *SkillFacade) GetBySlugIncludingDeleted(ctx context.Context, slug string) (*model.Skill, error) {
	var skill model.Skill
	err := f.db.WithContext(ctx).Where("slug = ?", slug).First(&skill).Error
	if err != nil {
		return nil, err
	}
	return &skill, nil
}

// List retrieves paginated non-deleted skills
func (f *SkillFacade) List(ctx context.Context, offset, limit int) ([]*model.Skill, int64, error) {
	var skills []*model.Skill
	var total int64

	query := f.db.WithContext(ctx).Model(&model.Skill{}).Where("deleted = false")

	err := query.Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = query.Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&skills).Error
	if err != nil {
		return nil, 0, err
	}

	return skills, total, nil
}

// Search performs a keyword search over slug, display name and summary
func (f *SkillFacade) Search(ctx context.Context, query string, limit int) ([]*model.Skill, error) {
	var skills []*model.Skill
	pattern := "%" + query + "%"
	err := f.db.WithContext(ctx).
		Where("deleted = false").
		Where("slug ILIKE ? OR display_name ILIKE ? OR summary ILIKE ?", pattern, pattern, pattern).
		Order("downloads DESC").
		Limit(limit).
		Find(&skills).Error
	if err != nil {
		return nil, err
	}
	return skills, nil
}

// Create creates a new skill
func (f *SkillFacade) Create(ctx context.Context, skill *model.Skill) error {
	return f.db.WithContext(ctx).Create(skill).Error
}

// Update updates an existing skill
func (f *SkillFacade) Update(ctx context.Context, skill *model.Skill) error {
	return f.db.WithContext(ctx).Save(skill).Error
}

// SetDeleted toggles the soft-delete flag
func (f *SkillFacade) SetDeleted(ctx context.Context, id int64, deleted bool) error {
	return f.db.WithContext(ctx).
		Model(&model.Skill{}).
		Where("id = ?", id).
		Update("deleted", deleted).Error
}

// IncrementDownloads bumps the download counter
func (f *SkillFacade) IncrementDownloads(ctx context.Context, id int64) error {
	return f.db.WithContext(ctx).
		Model(&model.Skill{}).
		Where("id = ?", id).
		Update("downloads", gorm.Expr("downloads + 1")).Error
}

// IncrementInstalls bumps both install counters
func (f *SkillFacade) IncrementInstalls(ctx context.Context, id int64) error {
	return f.db.WithContext(ctx).
		Model(&model.Skill{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"installs_current":  gorm.Expr("installs_current + 1"),
			"installs_all_time": gorm.Expr("installs_all_time + 1"),
		}).Error
}
