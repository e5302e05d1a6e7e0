// Copyright (C) 2025-2026, ClawdHub Authors. All rights reserved.
// See LICENSE for license information.

// Package scan runs published skill archives through VirusTotal and
// applies the resulting verdicts to every version sharing the same
// content digest.
package scan

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/clawdhub/registry/pkg/apiclient"
)

// AIResult is a single crowdsourced AI analysis entry in a file report
type AIResult struct {
	Category string `json:"category"`
	Verdict  string `json:"verdict"`
	Analysis string `json:"analysis,omitempty"`
	Source   string `json:"source,omitempty"`
}

// AnalysisStats aggregates the antivirus engine results for a file
type AnalysisStats struct {
	Malicious  int `json:"malicious"`
	Suspicious int `json:"suspicious"`
	Harmless   int `json:"harmless"`
	Undetected int `json:"undetected"`
}

// FileReport is the VirusTotal v3 file report, reduced to the fields
// the classifier reads
type FileReport struct {
	Data struct {
		Attributes struct {
			SHA256                string         `json:"sha256"`
			CrowdsourcedAIResults []AIResult     `json:"crowdsourced_ai_results,omitempty"`
			LastAnalysisStats     *AnalysisStats `json:"last_analysis_stats,omitempty"`
		} `json:"attributes"`
	} `json:"data"`
}

// VTClient talks to the VirusTotal v3 API
type VTClient struct {
	api *apiclient.Client
}

// NewVTClient creates a client for the given API base URL and key
func NewVTClient(baseURL, apiKey string) *VTClient {
	return &VTClient{
		api: apiclient.New(baseURL, apiclient.WithHeader("x-apikey", apiKey)),
	}
}

// GetFileReport fetches the report for a file by its SHA-256 digest.
// Returns nil when the scanner has never seen the file.
func (c *VTClient) GetFileReport(ctx context.Context, hash string) (*FileReport, error) {
	data, err := c.api.GetBytes(ctx, "/files/"+hash)
	if err != nil {
		var statusErr *apiclient.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("file report request failed: %w", err)
	}

	var report FileReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to decode file report: %w", err)
	}
	return &report, nil
}

// UploadFile submits file bytes for analysis and returns the analysis ID
func (c *VTClient) UploadFile(ctx context.Context, filename string, content []byte) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(content); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	data, err := c.api.Post(ctx, "/files", writer.FormDataContentType(), body.Bytes())
	if err != nil {
		return "", fmt.Errorf("file upload failed: %w", err)
	}

	var result struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	return result.Data.ID, nil
}
