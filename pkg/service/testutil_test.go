// Copyright (C) 2025-2026, ClawdHub Authors. All rights reserved.
// See LICENSE for license information.

package service

import (
	"context"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/clawdhub/registry/pkg/database"
	"github.com/clawdhub/registry/pkg/model"
	"github.com/clawdhub/registry/pkg/storage"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// In-memory facades backing service tests. They mirror the query
// semantics of the real GORM facades closely enough for the service
// layer's behavior to be observable without a database.

type memSkills struct {
	database.SkillFacadeInterface
	nextID int64
	rows   map[int64]*model.Skill

	downloadBumps map[int64]int
	installBumps  map[int64]int
}

func newMemSkills() *memSkills {
	return &memSkills{
		nextID:        1,
		rows:          make(map[int64]*model.Skill),
		downloadBumps: make(map[int64]int),
		installBumps:  make(map[int64]int),
	}
}

func (m *memSkills) GetByID(ctx context.Context, id int64) (*model.Skill, error) {
	s, ok := m.rows[id]
	if !ok || s.Deleted {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (m *memSkills) GetBySlug(ctx context.Context, slug string) (*model.Skill, error) {
	for _, s := range m.rows {
		if s.Slug == slug && !s.Deleted {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memSkills) GetBySlugIncludingDeleted(ctx context.Context, slug string) (*model.Skill, error) {
	for _, s := range m.rows {
		if s.Slug == slug {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memSkills) List(ctx context.Context, offset, limit int) ([]*model.Skill, int64, error) {
	var all []*model.Skill
	for _, s := range m.rows {
		if !s.Deleted {
			all = append(all, s)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *memSkills) Search(ctx context.Context, query string, limit int) ([]*model.Skill, error) {
	q := strings.ToLower(query)
	var out []*model.Skill
	for _, s := range m.rows {
		if s.Deleted {
			continue
		}
		if strings.Contains(strings.ToLower(s.Slug), q) ||
			strings.Contains(strings.ToLower(s.DisplayName), q) ||
			strings.Contains(strings.ToLower(s.Summary), q) {
			out = append(out, s)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memSkills) Create(ctx context.Context, skill *model.Skill) error {
	skill.ID = m.nextID
	m.nextID++
	skill.CreatedAt = time.Now()
	m.rows[skill.ID] = skill
	return nil
}

func (m *memSkills) Update(ctx context.Context, skill *model.Skill) error {
	m.rows[skill.ID] = skill
	return nil
}

func (m *memSkills) SetDeleted(ctx context.Context, id int64, deleted bool) error {
	s, ok := m.rows[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.Deleted = deleted
	return nil
}

func (m *memSkills) IncrementDownloads(ctx context.Context, id int64) error {
	m.downloadBumps[id]++
	return nil
}

func (m *memSkills) IncrementInstalls(ctx context.Context, id int64) error {
	m.installBumps[id]++
	return nil
}

type memVersions struct {
	database.SkillVersionFacadeInterface
	nextID int64
	rows   map[int64]*model.SkillVersion
}

func newMemVersions() *memVersions {
	return &memVersions{nextID: 1, rows: make(map[int64]*model.SkillVersion)}
}

func (m *memVersions) GetByID(ctx context.Context, id int64) (*model.SkillVersion, error) {
	v, ok := m.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return v, nil
}

func (m *memVersions) GetBySkillIDAndVersion(ctx context.Context, skillID int64, version string) (*model.SkillVersion, error) {
	for _, v := range m.rows {
		if v.SkillID == skillID && v.Version == version {
			return v, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memVersions) ListBySkillID(ctx context.Context, skillID int64) ([]*model.SkillVersion, error) {
	var out []*model.SkillVersion
	for _, v := range m.rows {
		if v.SkillID == skillID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memVersions) GetLatestVisible(ctx context.Context, skillID int64) (*model.SkillVersion, error) {
	var latest *model.SkillVersion
	for _, v := range m.rows {
		if v.SkillID != skillID || !v.Visible() {
			continue
		}
		if latest == nil || v.CreatedAt.After(latest.CreatedAt) {
			latest = v
		}
	}
	if latest == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return latest, nil
}

func (m *memVersions) Create(ctx context.Context, version *model.SkillVersion) error {
	version.ID = m.nextID
	m.nextID++
	if version.CreatedAt.IsZero() {
		version.CreatedAt = time.Now()
	}
	m.rows[version.ID] = version
	return nil
}

func (m *memVersions) UpdateStatuses(ctx context.Context, versionID int64, scanStatus, moderationStatus string) error {
	v, ok := m.rows[versionID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	v.ScanStatus = scanStatus
	v.ModerationStatus = moderationStatus
	return nil
}

type memTags struct {
	database.SkillTagFacadeInterface
	rows map[[2]interface{}]*model.SkillTag
}

func newMemTags() *memTags {
	return &memTags{rows: make(map[[2]interface{}]*model.SkillTag)}
}

func (m *memTags) GetBySkillIDAndName(ctx context.Context, skillID int64, name string) (*model.SkillTag, error) {
	t, ok := m.rows[[2]interface{}{skillID, name}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return t, nil
}

func (m *memTags) ListBySkillID(ctx context.Context, skillID int64) ([]*model.SkillTag, error) {
	var out []*model.SkillTag
	for _, t := range m.rows {
		if t.SkillID == skillID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memTags) Upsert(ctx context.Context, skillID int64, name string, versionID int64) error {
	m.rows[[2]interface{}{skillID, name}] = &model.SkillTag{
		SkillID:   skillID,
		Name:      name,
		VersionID: versionID,
		UpdatedAt: time.Now(),
	}
	return nil
}

type memVerdicts struct {
	database.ScanVerdictFacadeInterface
	rows map[string]*model.ScanVerdict
}

func newMemVerdicts() *memVerdicts {
	return &memVerdicts{rows: make(map[string]*model.ScanVerdict)}
}

func (m *memVerdicts) GetByHash(ctx context.Context, hash string) (*model.ScanVerdict, error) {
	return m.rows[hash], nil
}

func (m *memVerdicts) Upsert(ctx context.Context, verdict *model.ScanVerdict) error {
	m.rows[verdict.SHA256Hash] = verdict
	return nil
}

type memEmbeddings struct {
	database.SkillEmbeddingFacadeInterface
	rows map[int64]*model.SkillEmbedding
}

func newMemEmbeddings() *memEmbeddings {
	return &memEmbeddings{rows: make(map[int64]*model.SkillEmbedding)}
}

func (m *memEmbeddings) Upsert(ctx context.Context, e *model.SkillEmbedding) error {
	m.rows[e.SkillID] = e
	return nil
}

func (m *memEmbeddings) SemanticSearch(ctx context.Context, query pgvector.Vector, limit int) ([]database.SemanticMatch, error) {
	var out []database.SemanticMatch
	for id := range m.rows {
		out = append(out, database.SemanticMatch{SkillID: id})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SkillID < out[j].SkillID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type stubEmbedder struct {
	vec []float32
	err error
}

func (e *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return e.vec, e.err
}

func (e *stubEmbedder) ModelName() string { return "stub-embedding-model" }

type recordingScanner struct {
	enqueued []int64
}

func (r *recordingScanner) Enqueue(versionID int64) bool {
	r.enqueued = append(r.enqueued, versionID)
	return true
}

type fixture struct {
	svc      *SkillService
	search   *SearchService
	skills   *memSkills
	versions *memVersions
	tags     *memTags
	verdicts *memVerdicts
	embeds   *memEmbeddings
	scanner  *recordingScanner
	store    storage.Storage
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStorage() error = %v", err)
	}

	f := &fixture{
		skills:   newMemSkills(),
		versions: newMemVersions(),
		tags:     newMemTags(),
		verdicts: newMemVerdicts(),
		embeds:   newMemEmbeddings(),
		scanner:  &recordingScanner{},
		store:    store,
	}
	facade := &database.Facade{
		Skill:          f.skills,
		SkillVersion:   f.versions,
		SkillTag:       f.tags,
		ScanVerdict:    f.verdicts,
		SkillEmbedding: f.embeds,
	}
	embedder := &stubEmbedder{vec: []float32{0.1, 0.2, 0.3}}
	f.svc = NewSkillService(facade, store, embedder, f.scanner)
	f.search = NewSearchService(facade, embedder)
	return f
}

func (f *fixture) publish(t *testing.T, userID, slug, version string) *PublishResult {
	t.Helper()
	result, err := f.svc.Publish(context.Background(), PublishInput{
		UserID:      userID,
		Slug:        slug,
		DisplayName: slug,
		Summary:     "test skill",
		Version:     version,
		Files: []PublishFile{
			{Path: "SKILL.md", Data: []byte("# " + slug + " " + version + "\n")},
		},
	})
	if err != nil {
		t.Fatalf("Publish(%s %s) error = %v", slug, version, err)
	}
	return result
}
