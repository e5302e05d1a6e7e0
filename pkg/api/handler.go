// Copyright (C) 2025-2026, ClawdHub Authors. All rights reserved.
// See LICENSE for license information.

package api

import (
	"context"
	"encoding/base64"
	"net/http"
	"strconv"

	"github.com/clawdhub/registry/pkg/database"
	"github.com/clawdhub/registry/pkg/model"
	"github.com/clawdhub/registry/pkg/service"
	"github.com/gin-gonic/gin"
)

// SkillAPI is the skill service surface the handlers call
type SkillAPI interface {
	Publish(ctx context.Context, input service.PublishInput) (*service.PublishResult, error)
	Resolve(ctx context.Context, slug, version, tag string) (*service.Resolved, error)
	DownloadArchive(ctx context.Context, slug, version, tag string) ([]byte, string, error)
	Get(ctx context.Context, slug, userID string) (*service.SkillDetail, error)
	List(ctx context.Context, offset, limit int) ([]*model.Skill, int64, error)
	Delete(ctx context.Context, userID, slug string) error
	Undelete(ctx context.Context, userID, slug string) error
	Fork(ctx context.Context, input service.ForkInput) (*service.PublishResult, error)
}

// SearchAPI is the search service surface the handlers call
type SearchAPI interface {
	Search(ctx context.Context, query, mode string, limit int) (*service.SearchResult, error)
}

// Handler handles registry API requests
type Handler struct {
	skills SkillAPI
	search SearchAPI
}

// NewHandler creates a new Handler
func NewHandler(skills SkillAPI, search SearchAPI) *Handler {
	return &Handler{
		skills: skills,
		search: search,
	}
}

// RegisterRoutes registers the v1 API routes
func RegisterRoutes(router *gin.Engine, h *Handler, tokens database.APITokenFacadeInterface) {
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", h.Health)
	}

	// Public reads; a token, when present, widens what the caller sees
	public := v1.Group("")
	public.Use(AuthMiddleware(tokens, false))
	{
		public.GET("/search", h.Search)
		public.GET("/resolve", h.Resolve)
		public.GET("/download", h.Download)
		public.GET("/skills", h.ListSkills)
		public.GET("/skills/:slug", h.GetSkill)
	}

	// Writes require a valid token
	auth := v1.Group("")
	auth.Use(AuthMiddleware(tokens, true))
	{
		auth.POST("/skills", h.PublishSkill)
		auth.POST("/skills/:slug/fork", h.ForkSkill)
		auth.POST("/skills/:slug/delete", h.DeleteSkill)
		auth.POST("/skills/:slug/undelete", h.UndeleteSkill)
		auth.DELETE("/skills/:slug", h.DeleteSkill)
		auth.GET("/whoami", h.Whoami)
	}

	registerLegacyRoutes(router, h, tokens)
}

// --- Request/Response Types ---

// PublishFileRequest is one file in a publish request
type PublishFileRequest struct {
	Path          string `json:"path" binding:"required"`
	ContentBase64 string `json:"contentBase64" binding:"required"`
}

// PublishRequest represents a request to publish a skill version
type PublishRequest struct {
	Slug            string               `json:"slug" binding:"required"`
	DisplayName     string               `json:"displayName"`
	Summary         string               `json:"summary"`
	Version         string               `json:"version" binding:"required"`
	Changelog       string               `json:"changelog"`
	ChangelogSource string               `json:"changelogSource"`
	Files           []PublishFileRequest `json:"files" binding:"required"`
}

// ResolveResponse describes the version a reference resolved to
type ResolveResponse struct {
	Slug        string             `json:"slug"`
	DisplayName string             `json:"displayName"`
	Version     string             `json:"version"`
	Tag         string             `json:"tag,omitempty"`
	ScanStatus  string             `json:"scanStatus"`
	SHA256      string             `json:"sha256,omitempty"`
	Changelog   string             `json:"changelog,omitempty"`
	PublishedAt int64              `json:"publishedAt"`
	Files       []ResolveFileEntry `json:"files"`
}

// ResolveFileEntry is one file of a resolved version
type ResolveFileEntry struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

func resolveResponse(r *service.Resolved) ResolveResponse {
	files := make([]ResolveFileEntry, 0, len(r.Version.Files))
	for _, f := range r.Version.Files {
		files = append(files, ResolveFileEntry{Path: f.Path, Size: f.Size})
	}
	return ResolveResponse{
		Slug:        r.Skill.Slug,
		DisplayName: r.Skill.DisplayName,
		Version:     r.Version.Version,
		Tag:         r.Tag,
		ScanStatus:  r.Version.ScanStatus,
		SHA256:      r.Version.SHA256Hash,
		Changelog:   r.Version.Changelog,
		PublishedAt: r.Version.CreatedAt.UnixMilli(),
		Files:       files,
	}
}

// --- Handler Methods ---

// Health returns service health status
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// Search searches skills by keyword or semantic similarity
func (h *Handler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		respondInvalidParameter(c, "q", "query cannot be empty")
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	result, err := h.search.Search(c.Request.Context(), query, c.Query("mode"), limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"skills": result.Skills,
		"total":  result.Total,
		"mode":   result.Mode,
	})
}

// Resolve maps a skill reference to a concrete version
func (h *Handler) Resolve(c *gin.Context) {
	slug := c.Query("slug")
	if slug == "" {
		respondInvalidParameter(c, "slug", "slug is required")
		return
	}

	resolved, err := h.skills.Resolve(c.Request.Context(), slug, c.Query("version"), c.Query("tag"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resolveResponse(resolved))
}

// Download streams the canonical archive for a resolved version
func (h *Handler) Download(c *gin.Context) {
	slug := c.Query("slug")
	if slug == "" {
		respondInvalidParameter(c, "slug", "slug is required")
		return
	}

	data, filename, err := h.skills.DownloadArchive(c.Request.Context(), slug, c.Query("version"), c.Query("tag"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/zip", data)
}

// ListSkills lists skills with pagination
func (h *Handler) ListSkills(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	skills, total, err := h.skills.List(c.Request.Context(), offset, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"skills": skills,
		"total":  total,
		"offset": offset,
		"limit":  limit,
	})
}

// GetSkill returns the detail view of a skill
func (h *Handler) GetSkill(c *gin.Context) {
	userInfo := GetUserInfo(c)
	detail, err := h.skills.Get(c.Request.Context(), c.Param("slug"), userInfo.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	response := gin.H{
		"skill":    detail.Skill,
		"versions": detail.Versions,
		"tags":     detail.Tags,
	}
	if detail.LatestVerdict != nil {
		response["scan"] = detail.LatestVerdict
	}
	c.JSON(http.StatusOK, response)
}

// PublishSkill publishes a new skill version
func (h *Handler) PublishSkill(c *gin.Context) {
	var req PublishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	files := make([]service.PublishFile, 0, len(req.Files))
	for _, f := range req.Files {
		data, err := base64.StdEncoding.DecodeString(f.ContentBase64)
		if err != nil {
			respondInvalidParameter(c, "files", "content of "+f.Path+" is not valid base64")
			return
		}
		files = append(files, service.PublishFile{Path: f.Path, Data: data})
	}

	userInfo := GetUserInfo(c)
	result, err := h.skills.Publish(c.Request.Context(), service.PublishInput{
		UserID:          userInfo.UserID,
		Slug:            req.Slug,
		DisplayName:     req.DisplayName,
		Summary:         req.Summary,
		Version:         req.Version,
		Changelog:       req.Changelog,
		ChangelogSource: req.ChangelogSource,
		Files:           files,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"slug":         result.Skill.Slug,
		"version":      result.Version.Version,
		"createdSkill": result.CreatedSkill,
		"scanStatus":   result.Version.ScanStatus,
	})
}

// ForkRequest represents a request to fork a skill
type ForkRequest struct {
	NewSlug string `json:"newSlug" binding:"required"`
	Version string `json:"version"`
	Tag     string `json:"tag"`
}

// ForkSkill duplicates a skill version under a new slug owned by the caller
func (h *Handler) ForkSkill(c *gin.Context) {
	var req ForkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body", err.Error())
		return
	}

	userInfo := GetUserInfo(c)
	result, err := h.skills.Fork(c.Request.Context(), service.ForkInput{
		UserID:  userInfo.UserID,
		Source:  c.Param("slug"),
		NewSlug: req.NewSlug,
		Version: req.Version,
		Tag:     req.Tag,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"slug":       result.Skill.Slug,
		"version":    result.Version.Version,
		"forkedFrom": c.Param("slug"),
	})
}

// DeleteSkill soft-deletes a skill
func (h *Handler) DeleteSkill(c *gin.Context) {
	userInfo := GetUserInfo(c)
	if err := h.skills.Delete(c.Request.Context(), userInfo.UserID, c.Param("slug")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// UndeleteSkill restores a soft-deleted skill
func (h *Handler) UndeleteSkill(c *gin.Context) {
	userInfo := GetUserInfo(c)
	if err := h.skills.Undelete(c.Request.Context(), userInfo.UserID, c.Param("slug")); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Whoami returns the authenticated user's identity
func (h *Handler) Whoami(c *gin.Context) {
	userInfo := GetUserInfo(c)
	c.JSON(http.StatusOK, gin.H{
		"userId": userInfo.UserID,
		"handle": userInfo.Handle,
	})
}
