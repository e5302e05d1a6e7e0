// Copyright (C) 2025-2026, ClawdHub Authors. All rights reserved.
// See LICENSE for license information.

package cli

import (
	"context"
	"fmt"
	"net/url"

	"github.com/clawdhub/registry/pkg/apiclient"
)

// registryClient wraps the resilient request client with the typed
// registry calls the commands need.
type registryClient struct {
	api *apiclient.Client
}

func newRegistryClient(registry, token string) *registryClient {
	opts := []apiclient.Option{}
	if token != "" {
		opts = append(opts, apiclient.WithToken(token))
	}
	return &registryClient{api: apiclient.New(registry, opts...)}
}

type skillSummary struct {
	Slug        string `json:"slug"`
	DisplayName string `json:"display_name"`
	Summary     string `json:"summary"`
	Downloads   int64  `json:"downloads"`
}

type searchResponse struct {
	Skills []skillSummary `json:"skills"`
	Total  int            `json:"total"`
	Mode   string         `json:"mode"`
}

func (r *searchResponse) Validate() error {
	if r.Skills == nil {
		return fmt.Errorf("missing skills array")
	}
	return nil
}

type resolveFile struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

type resolveResponse struct {
	Slug        string        `json:"slug"`
	DisplayName string        `json:"displayName"`
	Version     string        `json:"version"`
	Tag         string        `json:"tag"`
	ScanStatus  string        `json:"scanStatus"`
	SHA256      string        `json:"sha256"`
	PublishedAt int64         `json:"publishedAt"`
	Files       []resolveFile `json:"files"`
}

func (r *resolveResponse) Validate() error {
	if r.Slug == "" || r.Version == "" {
		return fmt.Errorf("missing slug or version")
	}
	return nil
}

type whoamiResponse struct {
	UserID string `json:"userId"`
	Handle string `json:"handle"`
}

func (r *whoamiResponse) Validate() error {
	if r.UserID == "" {
		return fmt.Errorf("missing userId")
	}
	return nil
}

type publishFilePayload struct {
	Path          string `json:"path"`
	ContentBase64 string `json:"contentBase64"`
}

type publishPayload struct {
	Slug            string               `json:"slug"`
	DisplayName     string               `json:"displayName,omitempty"`
	Summary         string               `json:"summary,omitempty"`
	Version         string               `json:"version"`
	Changelog       string               `json:"changelog,omitempty"`
	ChangelogSource string               `json:"changelogSource,omitempty"`
	Files           []publishFilePayload `json:"files"`
}

type publishResponse struct {
	Slug         string `json:"slug"`
	Version      string `json:"version"`
	CreatedSkill bool   `json:"createdSkill"`
	ScanStatus   string `json:"scanStatus"`
}

func (r *publishResponse) Validate() error {
	if r.Slug == "" || r.Version == "" {
		return fmt.Errorf("missing slug or version")
	}
	return nil
}

func (c *registryClient) Search(ctx context.Context, query string, limit int) (*searchResponse, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", fmt.Sprintf("%d", limit))
	var out searchResponse
	if err := c.api.GetJSON(ctx, "/api/v1/search?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *registryClient) Resolve(ctx context.Context, slug, version, tag string) (*resolveResponse, error) {
	q := url.Values{}
	q.Set("slug", slug)
	if version != "" {
		q.Set("version", version)
	}
	if tag != "" {
		q.Set("tag", tag)
	}
	var out resolveResponse
	if err := c.api.GetJSON(ctx, "/api/v1/resolve?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *registryClient) Download(ctx context.Context, slug, version string) ([]byte, error) {
	q := url.Values{}
	q.Set("slug", slug)
	q.Set("version", version)
	return c.api.GetBytes(ctx, "/api/v1/download?"+q.Encode())
}

func (c *registryClient) Publish(ctx context.Context, payload *publishPayload) (*publishResponse, error) {
	var out publishResponse
	if err := c.api.PostJSON(ctx, "/api/v1/skills", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *registryClient) Delete(ctx context.Context, slug string) error {
	return c.api.PostJSON(ctx, "/api/v1/skills/"+url.PathEscape(slug)+"/delete", struct{}{}, nil)
}

func (c *registryClient) Undelete(ctx context.Context, slug string) error {
	return c.api.PostJSON(ctx, "/api/v1/skills/"+url.PathEscape(slug)+"/undelete", struct{}{}, nil)
}

func (c *registryClient) Whoami(ctx context.Context) (*whoamiResponse, error) {
	var out whoamiResponse
	if err := c.api.GetJSON(ctx, "/api/v1/whoami", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
