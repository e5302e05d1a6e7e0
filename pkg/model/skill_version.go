// Copyright (C) 2025-2026, ClawdHub Authors. All rights reserved.
// See LICENSE for license information.

package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

const TableNameSkillVersions = "skill_versions"

// Scan status lifecycle. A version starts pending and moves to exactly one of
// the terminal states; error re-enters pending on the next scheduled sweep.
const (
	ScanStatusPending    = "pending"
	ScanStatusClean      = "clean"
	ScanStatusMalicious  = "malicious"
	ScanStatusSuspicious = "suspicious"
	ScanStatusError      = "error"
)

// Moderation status derived from the scan outcome.
const (
	ModerationStatusActive = "active"
	ModerationStatusHidden = "hidden"
)

// Changelog source constants
const (
	ChangelogSourceManual = "manual"
	ChangelogSourceAuto   = "auto"
)

// SkillVersion represents one immutable published version of a skill.
// Only the scan pipeline mutates a version after creation (hash, scan status,
// moderation status); user actions never do.
type SkillVersion struct {
	ID      int64  `gorm:"column:id;primaryKey;autoIncrement:true" json:"id"`
	SkillID int64  `gorm:"column:skill_id;not null;uniqueIndex:idx_skill_version" json:"skill_id"`
	Version string `gorm:"column:version;not null;uniqueIndex:idx_skill_version" json:"version"`

	Files SkillFiles `gorm:"column:files;not null;default:[]" json:"files"`

	Changelog       string `gorm:"column:changelog" json:"changelog"`
	ChangelogSource string `gorm:"column:changelog_source;not null;default:manual" json:"changelog_source"`

	// SHA-256 of the deterministic archive, set once by the scan pipeline.
	SHA256Hash string `gorm:"column:sha256_hash;index" json:"sha256_hash,omitempty"`

	ScanStatus       string `gorm:"column:scan_status;not null;default:pending" json:"scan_status"`
	ModerationStatus string `gorm:"column:moderation_status;not null;default:active" json:"moderation_status"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName returns the table name
func (*SkillVersion) TableName() string {
	return TableNameSkillVersions
}

// Visible reports whether the version may be served to callers.
func (v *SkillVersion) Visible() bool {
	return v.ModerationStatus != ModerationStatusHidden
}

// SkillFile is one file entry of a version. StorageKey is an opaque reference
// into the blob store; Path is the file's location inside the archive.
type SkillFile struct {
	Path       string `json:"path"`
	Size       int64  `json:"size"`
	StorageKey string `json:"storage_key"`
}

// SkillFiles is a custom type for the JSONB files column
type SkillFiles []SkillFile

// Value implements driver.Valuer interface
func (f SkillFiles) Value() (driver.Value, error) {
	if f == nil {
		return "[]", nil
	}
	b, err := json.Marshal(f)
	return string(b), err
}

// Scan implements sql.Scanner interface
func (f *SkillFiles) Scan(value interface{}) error {
	if value == nil {
		*f = SkillFiles{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, f)
	case string:
		return json.Unmarshal([]byte(v), f)
	default:
		return errors.New("type assertion to []byte or string failed")
	}
}
