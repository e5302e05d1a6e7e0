// Copyright (C) 2025-2026, ClawdHub Authors. All rights reserved.
// See LICENSE for license information.

package service

import "errors"

// Sentinel errors for error classification across all services
var (
	ErrNotFound      = errors.New("not found")
	ErrAccessDenied  = errors.New("access denied")
	ErrConflict      = errors.New("conflict")
	ErrInvalidInput  = errors.New("invalid input")
	ErrIntegrity     = errors.New("integrity check failed")
	ErrNotConfigured = errors.New("not configured")
)
