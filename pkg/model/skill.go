// Copyright (C) 2025-2026, ClawdHub Authors. All rights reserved.
// See LICENSE for license information.

package model

import (
	"time"
)

const TableNameSkills = "skills"

// Skill represents a published skill in the registry
type Skill struct {
	ID          int64  `gorm:"column:id;primaryKey;autoIncrement:true" json:"id"`
	OwnerUserID string `gorm:"column:owner_user_id;not null;index" json:"owner_user_id"`
	Slug        string `gorm:"column:slug;not null;uniqueIndex" json:"slug"`
	DisplayName string `gorm:"column:display_name;not null" json:"display_name"`
	Summary     string `gorm:"column:summary" json:"summary"`

	Stars           int64 `gorm:"column:stars;not null;default:0" json:"stars"`
	Downloads       int64 `gorm:"column:downloads;not null;default:0" json:"downloads"`
	InstallsCurrent int64 `gorm:"column:installs_current;not null;default:0" json:"installs_current"`
	InstallsAllTime int64 `gorm:"column:installs_all_time;not null;default:0" json:"installs_all_time"`

	// Batch classification, e.g. "highlighted". Empty means unclassified.
	Batch string `gorm:"column:batch" json:"batch,omitempty"`

	// Fork/duplicate relationship to another skill.
	ForkedFromSkillID *int64 `gorm:"column:forked_from_skill_id" json:"forked_from_skill_id,omitempty"`
	ForkedFromVersion string `gorm:"column:forked_from_version" json:"forked_from_version,omitempty"`

	// Soft delete. Deleted skills stay in the table so they can be undeleted.
	Deleted bool `gorm:"column:deleted;not null;default:false" json:"deleted"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name
func (*Skill) TableName() string {
	return TableNameSkills
}

// Skill batch constants
const (
	SkillBatchHighlighted = "highlighted"
)
