// Copyright (C) 2025-2026, ClawdHub Authors. All rights reserved.
// See LICENSE for license information.

package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

const TableNameSkillEmbeddings = "skill_embeddings"

// SkillEmbedding stores the semantic-search vector for a skill's name and
// summary.
type SkillEmbedding struct {
	SkillID      int64           `gorm:"column:skill_id;primaryKey" json:"skill_id"`
	Embedding    pgvector.Vector `gorm:"column:embedding;type:vector(1536)" json:"-"`
	ModelVersion string          `gorm:"column:model_version" json:"model_version"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName returns the table name
func (*SkillEmbedding) TableName() string {
	return TableNameSkillEmbeddings
}
