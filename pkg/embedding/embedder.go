// Copyright (C) 2025-2026, ClawdHub Authors. All rights reserved.
// See LICENSE for license information.

package embedding

import (
	"context"
	"fmt"

	"github.com/clawdhub/registry/pkg/config"
	openai "github.com/sashabaranov/go-openai"
)

// Embedder interface for text embedding generation
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	ModelName() string
}

// NewFromConfig creates the configured embedder. Returns a NullEmbedder
// when embedding is disabled or no API key is set, so callers never need
// a nil check.
func NewFromConfig(cfg config.EmbeddingConfig) Embedder {
	if !cfg.Enabled || cfg.APIKey == "" {
		return &NullEmbedder{}
	}
	return NewOpenAIEmbedder(cfg)
}

// SkillText builds the text embedded for a skill
func SkillText(displayName, summary string) string {
	if summary == "" {
		return displayName
	}
	return fmt.Sprintf("%s: %s", displayName, summary)
}

// OpenAIEmbedder implements Embedder using an OpenAI-compatible API
type OpenAIEmbedder struct {
	client *openai.Client
	model  string
}

// NewOpenAIEmbedder creates a new OpenAI embedder
func NewOpenAIEmbedder(cfg config.EmbeddingConfig) *OpenAIEmbedder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}
}

// Embed generates an embedding for text
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return resp.Data[0].Embedding, nil
}

// ModelName returns the model name
func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}

// NullEmbedder is a no-op embedder for when embedding is disabled
type NullEmbedder struct{}

// Embed returns nil for NullEmbedder
func (e *NullEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return nil, nil
}

// ModelName returns empty string for NullEmbedder
func (e *NullEmbedder) ModelName() string {
	return ""
}
