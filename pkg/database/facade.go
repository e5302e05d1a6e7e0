// Copyright (C) 2025-2026, ClawdHub Authors. All rights reserved.
// See LICENSE for license information.

package database

import "gorm.io/gorm"

// Facade is the unified entry point for registry database operations
type Facade struct {
	Skill          SkillFacadeInterface
	SkillVersion   SkillVersionFacadeInterface
	SkillTag       SkillTagFacadeInterface
	ScanVerdict    ScanVerdictFacadeInterface
	APIToken       APITokenFacadeInterface
	SkillEmbedding SkillEmbeddingFacadeInterface
}

// NewFacade creates a new Facade instance backed by the given connection
func NewFacade(db *gorm.DB) *Facade {
	return &Facade{
		Skill:          NewSkillFacade(db),
		SkillVersion:   NewSkillVersionFacade(db),
		SkillTag:       NewSkillTagFacade(db),
		ScanVerdict:    NewScanVerdictFacade(db),
		APIToken:       NewAPITokenFacade(db),
		SkillEmbedding: NewSkillEmbeddingFacade(db),
	}
}
