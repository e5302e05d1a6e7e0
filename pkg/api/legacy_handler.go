// Copyright (C) 2025-2026, ClawdHub Authors. All rights reserved.
// See LICENSE for license information.

package api

import (
	"github.com/clawdhub/registry/pkg/database"
	"github.com/gin-gonic/gin"
)

// registerLegacyRoutes keeps the pre-v1 paths alive for older CLI
// releases. They map onto the same handlers as the v1 surface; the
// slug for mutating calls arrives as a query parameter instead of a
// path segment.
func registerLegacyRoutes(router *gin.Engine, h *Handler, tokens database.APITokenFacadeInterface) {
	public := router.Group("/api")
	public.Use(AuthMiddleware(tokens, false))
	{
		public.GET("/search", h.Search)
		public.GET("/download", h.Download)
		public.GET("/skill", h.legacyGetSkill)
		public.GET("/skill/resolve", h.Resolve)
	}

	cli := router.Group("/api/cli")
	cli.Use(AuthMiddleware(tokens, true))
	{
		cli.GET("/whoami", h.Whoami)
		cli.POST("/publish", h.PublishSkill)
		cli.POST("/skill/delete", h.legacyDeleteSkill)
		cli.POST("/skill/undelete", h.legacyUndeleteSkill)
	}
}

func (h *Handler) legacyGetSkill(c *gin.Context) {
	slug := c.Query("slug")
	if slug == "" {
		respondInvalidParameter(c, "slug", "slug is required")
		return
	}
	c.Params = append(c.Params, gin.Param{Key: "slug", Value: slug})
	h.GetSkill(c)
}

func (h *Handler) legacyDeleteSkill(c *gin.Context) {
	slug := c.Query("slug")
	if slug == "" {
		respondInvalidParameter(c, "slug", "slug is required")
		return
	}
	c.Params = append(c.Params, gin.Param{Key: "slug", Value: slug})
	h.DeleteSkill(c)
}

func (h *Handler) legacyUndeleteSkill(c *gin.Context) {
	slug := c.Query("slug")
	if slug == "" {
		respondInvalidParameter(c, "slug", "slug is required")
		return
	}
	c.Params = append(c.Params, gin.Param{Key: "slug", Value: slug})
	h.UndeleteSkill(c)
}
