// Copyright (C) 2025-2026, ClawdHub Authors. All rights reserved.
// See LICENSE for license information.

package scan

import (
	"context"
	"fmt"
	"time"

	"github.com/clawdhub/registry/pkg/channel"
	"github.com/clawdhub/registry/pkg/config"
	"github.com/clawdhub/registry/pkg/database"
	"github.com/clawdhub/registry/pkg/log"
	"github.com/clawdhub/registry/pkg/model"
	"github.com/clawdhub/registry/pkg/skillzip"
	"github.com/clawdhub/registry/pkg/storage"
	"github.com/robfig/cron/v3"
)

// ScannerName identifies the backing scanner in verdict records
const ScannerName = "vt"

const sweepBatchSize = 100

// ReportAPI is the scanner backend surface used by the worker
type ReportAPI interface {
	GetFileReport(ctx context.Context, hash string) (*FileReport, error)
	UploadFile(ctx context.Context, filename string, content []byte) (string, error)
}

// Scanner owns the scan queue, its worker pool, and the periodic sweep
// that re-enqueues versions stuck in pending or error.
type Scanner struct {
	cfg     config.ScannerConfig
	facade  *database.Facade
	store   storage.Storage
	vt      ReportAPI
	queue   chan int64
	tombs   []*channel.Tomb
	cron    *cron.Cron
	minWait time.Duration
}

// NewScanner creates a Scanner. Start must be called before versions
// are enqueued.
func NewScanner(cfg config.ScannerConfig, facade *database.Facade, store storage.Storage) *Scanner {
	minWait, err := time.ParseDuration(cfg.RescanMinWait)
	if err != nil {
		minWait = 5 * time.Minute
	}
	return &Scanner{
		cfg:     cfg,
		facade:  facade,
		store:   store,
		vt:      NewVTClient(cfg.BaseURL, cfg.APIKey),
		queue:   make(chan int64, cfg.QueueSize),
		minWait: minWait,
	}
}

// Start launches the worker pool and the rescan sweep
func (s *Scanner) Start() error {
	workers := s.cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		t := channel.NewTomb()
		s.tombs = append(s.tombs, t)
		go s.worker(t)
	}

	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.cfg.RescanEvery, s.sweep); err != nil {
		return fmt.Errorf("invalid rescan schedule %q: %w", s.cfg.RescanEvery, err)
	}
	s.cron.Start()

	log.WithFields(log.Fields{"workers": workers, "schedule": s.cfg.RescanEvery}).Info("malware scanner started")
	return nil
}

// Stop halts the sweep and waits for in-flight scans to finish
func (s *Scanner) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	for _, t := range s.tombs {
		t.Stop()
	}
}

// Enqueue schedules a version for scanning. Returns false when the
// queue is full; the sweep picks the version up later.
func (s *Scanner) Enqueue(versionID int64) bool {
	select {
	case s.queue <- versionID:
		return true
	default:
		log.WithFields(log.Fields{"versionId": versionID}).Warn("scan queue full, deferring to sweep")
		return false
	}
}

func (s *Scanner) worker(t *channel.Tomb) {
	defer t.Done()
	for {
		select {
		case <-t.Stopping():
			return
		case versionID := <-s.queue:
			s.scanVersion(context.Background(), versionID)
		}
	}
}

// sweep re-enqueues versions whose scan never concluded
func (s *Scanner) sweep() {
	ctx := context.Background()
	cutoff := time.Now().Add(-s.minWait)
	versions, err := s.facade.SkillVersion.ListUnresolved(ctx, cutoff, sweepBatchSize)
	if err != nil {
		log.WithFields(log.Fields{"error": err.Error()}).Error("rescan sweep query failed")
		return
	}
	for _, v := range versions {
		if !s.Enqueue(v.ID) {
			return
		}
	}
	if len(versions) > 0 {
		log.WithFields(log.Fields{"count": len(versions)}).Info("rescan sweep enqueued versions")
	}
}

func (s *Scanner) scanVersion(ctx context.Context, versionID int64) {
	if err := s.runScan(ctx, versionID); err != nil {
		log.WithFields(log.Fields{"versionId": versionID, "error": err.Error()}).Error("scan failed")
		if updateErr := s.facade.SkillVersion.UpdateScanStatus(ctx, versionID, model.ScanStatusError); updateErr != nil {
			log.WithFields(log.Fields{"versionId": versionID, "error": updateErr.Error()}).Error("failed to record scan error")
		}
	}
}

// runScan drives one version through the scan state machine: build the
// canonical archive, pin its digest, then settle the status from the
// verdict table, an existing scanner report, or a fresh upload.
func (s *Scanner) runScan(ctx context.Context, versionID int64) error {
	version, err := s.facade.SkillVersion.GetByID(ctx, versionID)
	if err != nil {
		return fmt.Errorf("failed to load version: %w", err)
	}

	skill, err := s.facade.Skill.GetByID(ctx, version.SkillID)
	if err != nil {
		// Deleted skills drop out of scanning until undeleted
		log.WithFields(log.Fields{"versionId": versionID, "skillId": version.SkillID}).Warn("skill not available, skipping scan")
		return nil
	}

	archive, err := BuildArchive(ctx, s.store, skill, version)
	if err != nil {
		return err
	}
	hash := skillzip.Digest(archive)

	if err := s.facade.SkillVersion.SetHash(ctx, versionID, hash); err != nil {
		return fmt.Errorf("archive digest mismatch: %w", err)
	}

	// A digest already judged settles the version without touching the scanner
	verdict, err := s.facade.ScanVerdict.GetByHash(ctx, hash)
	if err != nil {
		return fmt.Errorf("failed to query verdict table: %w", err)
	}
	if verdict != nil && verdict.Status != model.ScanStatusPending {
		return s.facade.SkillVersion.UpdateScanStatusByHash(ctx, hash, verdict.Status, verdict.ModerationStatus)
	}

	report, err := s.vt.GetFileReport(ctx, hash)
	if err != nil {
		return err
	}
	if report != nil {
		cls := Classify(report)
		if cls.Conclusive() {
			return s.applyVerdict(ctx, hash, cls)
		}
		log.WithFields(log.Fields{"versionId": versionID, "hash": hash}).Info("report inconclusive, uploading for analysis")
	}

	analysisID, err := s.vt.UploadFile(ctx, "skill.zip", archive)
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"versionId": versionID, "hash": hash, "analysisId": analysisID}).Info("uploaded archive for scanning")
	return nil
}

// applyVerdict records the verdict and fans it out to every version
// sharing the digest
func (s *Scanner) applyVerdict(ctx context.Context, hash string, cls Classification) error {
	verdict := &model.ScanVerdict{
		SHA256Hash:       hash,
		Scanner:          ScannerName,
		Status:           cls.Status,
		ModerationStatus: cls.ModerationStatus(),
		AIVerdict:        cls.AIVerdict,
		AIAnalysis:       cls.AIAnalysis,
	}
	if cls.Stats != nil {
		verdict.EngineStats = model.VerdictStats{
			Malicious:  cls.Stats.Malicious,
			Suspicious: cls.Stats.Suspicious,
			Harmless:   cls.Stats.Harmless,
			Undetected: cls.Stats.Undetected,
		}
	}
	if err := s.facade.ScanVerdict.Upsert(ctx, verdict); err != nil {
		return fmt.Errorf("failed to record verdict: %w", err)
	}

	log.WithFields(log.Fields{
		"hash":    hash,
		"status":  cls.Status,
		"source":  cls.Source,
		"verdict": cls.AIVerdict,
	}).Info("scan verdict applied")

	return s.facade.SkillVersion.UpdateScanStatusByHash(ctx, hash, cls.Status, cls.ModerationStatus())
}

// BuildArchive assembles the canonical archive for a version from
// stored file bytes. A missing file fails the build rather than
// producing an archive with a different digest.
func BuildArchive(ctx context.Context, store storage.Storage, skill *model.Skill, version *model.SkillVersion) ([]byte, error) {
	if len(version.Files) == 0 {
		return nil, fmt.Errorf("version %d has no files", version.ID)
	}
	entries := make([]skillzip.Entry, 0, len(version.Files))
	for _, f := range version.Files {
		data, err := store.DownloadBytes(ctx, f.StorageKey)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.Path, err)
		}
		entries = append(entries, skillzip.Entry{Path: f.Path, Data: data})
	}
	return skillzip.Build(entries, skillzip.Meta{
		OwnerID:     skill.OwnerUserID,
		Slug:        skill.Slug,
		Version:     version.Version,
		PublishedAt: version.CreatedAt.UnixMilli(),
	})
}
