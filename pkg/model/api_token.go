// Copyright (C) 2025-2026, ClawdHub Authors. All rights reserved.
// See LICENSE for license information.

package model

import "time"

const TableNameAPITokens = "api_tokens"

// APIToken maps an opaque bearer token to its user. Token issuance happens in
// an external component; the registry only looks tokens up.
type APIToken struct {
	Token     string    `gorm:"column:token;primaryKey" json:"-"`
	UserID    string    `gorm:"column:user_id;not null;index" json:"user_id"`
	Handle    string    `gorm:"column:handle" json:"handle"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName returns the table name
func (*APIToken) TableName() string {
	return TableNameAPITokens
}
