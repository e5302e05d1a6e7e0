// Copyright (C) 2025-2026, ClawdHub Authors. All rights reserved.
// See LICENSE for license information.

package model

import "time"

const TableNameSkillTags = "skill_tags"

// DefaultTag is the tag consulted when a reference names neither a version
// nor a tag.
const DefaultTag = "latest"

// SkillTag is a named, mutable pointer from a skill to one of its versions.
// Tag names are unique per skill; multiple tags may point at the same version.
type SkillTag struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement:true" json:"id"`
	SkillID   int64     `gorm:"column:skill_id;not null;uniqueIndex:idx_skill_tag" json:"skill_id"`
	Name      string    `gorm:"column:name;not null;uniqueIndex:idx_skill_tag" json:"name"`
	VersionID int64     `gorm:"column:version_id;not null" json:"version_id"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name
func (*SkillTag) TableName() string {
	return TableNameSkillTags
}
