// Copyright (C) 2025-2026, ClawdHub Authors. All rights reserved.
// See LICENSE for license information.

package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

const TableNameScanVerdicts = "scan_verdicts"

// ScanVerdict is the content-addressed moderation side table: one verdict per
// archive digest, applied to every version sharing that digest. It also
// records the raw scanner evidence surfaced on the skill detail endpoint.
type ScanVerdict struct {
	SHA256Hash       string       `gorm:"column:sha256_hash;primaryKey" json:"sha256_hash"`
	Scanner          string       `gorm:"column:scanner;not null" json:"scanner"`
	Status           string       `gorm:"column:status;not null" json:"status"`
	ModerationStatus string       `gorm:"column:moderation_status;not null" json:"moderation_status"`
	AIVerdict        string       `gorm:"column:ai_verdict" json:"ai_verdict,omitempty"`
	AIAnalysis       string       `gorm:"column:ai_analysis" json:"ai_analysis,omitempty"`
	EngineStats      VerdictStats `gorm:"column:engine_stats;default:{}" json:"engine_stats"`
	UpdatedAt        time.Time    `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name
func (*ScanVerdict) TableName() string {
	return TableNameScanVerdicts
}

// VerdictStats holds the per-category engine counts reported by the scanner.
type VerdictStats struct {
	Malicious  int `json:"malicious"`
	Suspicious int `json:"suspicious"`
	Harmless   int `json:"harmless"`
	Undetected int `json:"undetected"`
}

// Value implements driver.Valuer interface
func (s VerdictStats) Value() (driver.Value, error) {
	b, err := json.Marshal(s)
	return string(b), err
}

// Scan implements sql.Scanner interface
func (s *VerdictStats) Scan(value interface{}) error {
	if value == nil {
		*s = VerdictStats{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return errors.New("type assertion to []byte or string failed")
	}
}
