// Copyright (C) 2025-2026, ClawdHub Authors. All rights reserved.
// See LICENSE for license information.

package database

import (
	"context"
	"errors"

	"github.com/clawdhub/registry/pkg/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ScanVerdictFacadeInterface defines the interface for ScanVerdict operations
type ScanVerdictFacadeInterface interface {
	// GetByHash returns the stored verdict for a digest, or nil when none
	// has been recorded yet.
	GetByHash(ctx context.Context, hash string) (*model.ScanVerdict, error)
	Upsert(ctx context.Context, verdict *model.ScanVerdict) error
}

// ScanVerdictFacade implements ScanVerdictFacadeInterface
type ScanVerdictFacade struct {
	db *gorm.DB
}

// NewScanVerdictFacade creates a new ScanVerdictFacade
func NewScanVerdictFacade(db *gorm.DB) *ScanVerdictFacade {
	return &ScanVerdictFacade{db: db}
}

// GetByHash retrieves the verdict recorded for a digest
func (f *ScanVerdictFacade) GetByHash(ctx context.Context, hash string) (*model.ScanVerdict, error) {
	var verdict model.ScanVerdict
	err := f.db.WithContext(ctx).Where("sha256_hash = ?", hash).First(&verdict).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &verdict, nil
}

// Upsert records or refreshes the verdict for a digest
func (f *ScanVerdictFacade) Upsert(ctx context.Context, verdict *model.ScanVerdict) error {
	return f.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "sha256_hash"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"scanner", "status", "moderation_status", "ai_verdict", "ai_analysis", "engine_stats", "updated_at",
			}),
		}).
		Create(verdict).Error
}
