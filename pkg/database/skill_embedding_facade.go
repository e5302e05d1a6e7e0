// Copyright (C) 2025-2026, ClawdHub Authors. All rights reserved.
// See LICENSE for license information.

package database

import (
	"context"

	"github.com/clawdhub/registry/pkg/model"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SkillEmbeddingFacadeInterface defines the interface for SkillEmbedding operations
type SkillEmbeddingFacadeInterface interface {
	Upsert(ctx context.Context, embedding *model.SkillEmbedding) error
	Delete(ctx context.Context, skillID int64) error
	// SemanticSearch returns skill IDs ordered by cosine distance to the
	// query vector. Deleted skills are excluded.
	SemanticSearch(ctx context.Context, query pgvector.Vector, limit int) ([]SemanticMatch, error)
}

// SemanticMatch pairs a skill with its distance to the query vector
type SemanticMatch struct {
	SkillID  int64   `gorm:"column:skill_id"`
	Distance float64 `gorm:"column:distance"`
}

// SkillEmbeddingFacade implements SkillEmbeddingFacadeInterface
type SkillEmbeddingFacade struct {
	db *gorm.DB
}

// NewSkillEmbeddingFacade creates a new SkillEmbeddingFacade
func NewSkillEmbeddingFacade(db *gorm.DB) *SkillEmbeddingFacade {
	return &SkillEmbeddingFacade{db: db}
}

// Upsert stores or refreshes a skill's embedding
func (f *SkillEmbeddingFacade) Upsert(ctx context.Context, embedding *model.SkillEmbedding) error {
	return f.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "skill_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"embedding", "model_version", "updated_at"}),
		}).
		Create(embedding).Error
}

// Delete removes a skill's embedding
func (f *SkillEmbeddingFacade) Delete(ctx context.Context, skillID int64) error {
	return f.db.WithContext(ctx).
		Where("skill_id = ?", skillID).
		Delete(&model.SkillEmbedding{}).Error
}

// SemanticSearch finds the nearest skills by cosine distance
func (f *SkillEmbeddingFacade) SemanticSearch(ctx context.Context, query pgvector.Vector, limit int) ([]SemanticMatch, error) {
	var matches []SemanticMatch
	err := f.db.WithContext(ctx).Raw(`
		SELECT se.skill_id, se.embedding <=> ? AS distance
		FROM skill_embeddings se
		JOIN skills s ON s.id = se.skill_id
		WHERE s.deleted = false
		ORDER BY distance ASC
		LIMIT ?`, query, limit).Scan(&matches).Error
	if err != nil {
		return nil, err
	}
	return matches, nil
}
