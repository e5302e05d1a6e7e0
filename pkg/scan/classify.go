// Copyright (C) 2025-2026, ClawdHub Authors. All rights reserved.
// See LICENSE for license information.

package scan

import (
	"strings"

	"github.com/clawdhub/registry/pkg/model"
)

const (
	// SourceCodeInsight marks a verdict taken from the AI analysis
	SourceCodeInsight = "code_insight"
	// SourceEngines marks a verdict derived from antivirus engine stats
	SourceEngines = "engines"

	aiCategoryCodeInsight = "code_insight"
)

// Classification is the registry's reading of a scanner file report
type Classification struct {
	Status     string
	Source     string
	AIVerdict  string
	AIAnalysis string
	Stats      *AnalysisStats
}

// Conclusive reports whether the classification settles the version's
// scan status. Anything still pending needs a fresh analysis.
func (c Classification) Conclusive() bool {
	return c.Status == model.ScanStatusClean ||
		c.Status == model.ScanStatusMalicious ||
		c.Status == model.ScanStatusSuspicious
}

// ModerationStatus maps the scan status to the visibility it implies
func (c Classification) ModerationStatus() string {
	if c.Status == model.ScanStatusClean {
		return model.ModerationStatusActive
	}
	return model.ModerationStatusHidden
}

// Classify reads a file report. The AI code insight verdict takes
// precedence over the raw engine stats; engine stats decide only when
// no AI analysis is present.
func Classify(report *FileReport) Classification {
	cls := Classification{
		Status: model.ScanStatusPending,
		Source: SourceEngines,
		Stats:  report.Data.Attributes.LastAnalysisStats,
	}

	for _, r := range report.Data.Attributes.CrowdsourcedAIResults {
		if r.Category != aiCategoryCodeInsight || r.Verdict == "" {
			continue
		}
		cls.Source = SourceCodeInsight
		cls.AIVerdict = r.Verdict
		cls.AIAnalysis = r.Analysis
		cls.Status = verdictToStatus(normalizeVerdict(r.Verdict))
		return cls
	}

	if stats := cls.Stats; stats != nil {
		switch {
		case stats.Malicious > 0:
			cls.Status = model.ScanStatusMalicious
		case stats.Suspicious > 0:
			cls.Status = model.ScanStatusSuspicious
		case stats.Harmless > 0:
			cls.Status = model.ScanStatusClean
		}
	}
	return cls
}

func normalizeVerdict(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func verdictToStatus(verdict string) string {
	switch verdict {
	case "benign", "clean", "harmless":
		return model.ScanStatusClean
	case "malicious":
		return model.ScanStatusMalicious
	case "suspicious":
		return model.ScanStatusSuspicious
	default:
		return model.ScanStatusPending
	}
}
