// Copyright (C) 2025-2026, ClawdHub Authors. All rights reserved.
// See LICENSE for license information.

package service

import (
	"context"
	"fmt"

	"github.com/clawdhub/registry/pkg/database"
	"github.com/clawdhub/registry/pkg/embedding"
	"github.com/clawdhub/registry/pkg/log"
	"github.com/clawdhub/registry/pkg/model"
	"github.com/pgvector/pgvector-go"
)

// SearchService handles keyword and semantic search over skills
type SearchService struct {
	facade   *database.Facade
	embedder embedding.Embedder
}

// NewSearchService creates a new SearchService
func NewSearchService(facade *database.Facade, embedder embedding.Embedder) *SearchService {
	return &SearchService{
		facade:   facade,
		embedder: embedder,
	}
}

// SearchResult represents the result of a search
type SearchResult struct {
	Skills []*model.Skill
	Total  int
	Mode   string
}

// Search searches skills by query. Mode "semantic" ranks by embedding
// distance; anything else (or a disabled embedder) falls back to
// keyword matching over slug, display name, and summary.
func (s *SearchService) Search(ctx context.Context, query, mode string, limit int) (*SearchResult, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: query cannot be empty", ErrInvalidInput)
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	if mode == "semantic" {
		result, err := s.semanticSearch(ctx, query, limit)
		if err == nil {
			return result, nil
		}
		log.WithFields(log.Fields{"query": query, "error": err.Error()}).Warn("semantic search unavailable, using keyword")
	}

	skills, err := s.facade.Skill.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	return &SearchResult{Skills: skills, Total: len(skills), Mode: "keyword"}, nil
}

func (s *SearchService) semanticSearch(ctx context.Context, query string, limit int) (*SearchResult, error) {
	emb, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}
	if emb == nil {
		return nil, fmt.Errorf("%w: semantic search is not enabled", ErrNotConfigured)
	}

	matches, err := s.facade.SkillEmbedding.SemanticSearch(ctx, pgvector.NewVector(emb), limit)
	if err != nil {
		return nil, err
	}

	skills := make([]*model.Skill, 0, len(matches))
	for _, m := range matches {
		skill, err := s.facade.Skill.GetByID(ctx, m.SkillID)
		if err != nil {
			continue
		}
		skills = append(skills, skill)
	}
	return &SearchResult{Skills: skills, Total: len(skills), Mode: "semantic"}, nil
}
