// Copyright (C) 2025-2026, ClawdHub Authors. All rights reserved.
// See LICENSE for license information.

package api

import (
	"strings"

	"github.com/clawdhub/registry/pkg/database"
	"github.com/gin-gonic/gin"
)

const (
	// Context keys
	ContextKeyUserID = "userId"
	ContextKeyHandle = "userHandle"
)

// UserInfo represents authenticated user information
type UserInfo struct {
	UserID string
	Handle string
}

// GetUserInfo extracts user info from gin context. Both fields are
// empty for anonymous requests.
func GetUserInfo(c *gin.Context) *UserInfo {
	userID, _ := c.Get(ContextKeyUserID)
	handle, _ := c.Get(ContextKeyHandle)

	uid, _ := userID.(string)
	h, _ := handle.(string)

	return &UserInfo{UserID: uid, Handle: h}
}

// AuthMiddleware resolves the bearer token to a user via the token
// facade. The token is opaque to handlers. With required=false the
// request proceeds anonymously when no valid token is presented.
func AuthMiddleware(tokens database.APITokenFacadeInterface, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			if required {
				respondUnauthorized(c, "authentication required")
				c.Abort()
				return
			}
			c.Next()
			return
		}

		record, err := tokens.GetByToken(c.Request.Context(), token)
		if err != nil {
			if required {
				respondUnauthorized(c, "invalid token")
				c.Abort()
				return
			}
			c.Next()
			return
		}

		c.Set(ContextKeyUserID, record.UserID)
		c.Set(ContextKeyHandle, record.Handle)
		c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
