// Copyright (C) 2025-2026, ClawdHub Authors. All rights reserved.
// See LICENSE for license information.

package database

import (
	"context"

	"github.com/clawdhub/registry/pkg/model"
	"gorm.io/gorm"
)

// APITokenFacadeInterface defines the interface for APIToken operations
type APITokenFacadeInterface interface {
	GetByToken(ctx context.Context, token string) (*model.APIToken, error)
	Create(ctx context.Context, token *model.APIToken) error
	Delete(ctx context.Context, token string) error
}

// APITokenFacade implements APITokenFacadeInterface
type APITokenFacade struct {
	db *gorm.DB
}

// NewAPITokenFacade creates a new APITokenFacade
func NewAPITokenFacade(db *gorm.DB) *APITokenFacade {
	return &APITokenFacade{db: db}
}

// GetByToken retrieves a token record
func (f *APITokenFacade) GetByToken(ctx context.Context, token string) (*model.APIToken, error) {
	var t model.APIToken
	err := f.db.WithContext(ctx).Where("token = ?", token).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create creates a new token record
func (f *APITokenFacade) Create(ctx context.Context, token *model.APIToken) error {
	return f.db.WithContext(ctx).Create(token).Error
}

// Delete revokes a token
func (f *APITokenFacade) Delete(ctx context.Context, token string) error {
	return f.db.WithContext(ctx).Where("token = ?", token).Delete(&model.APIToken{}).Error
}
