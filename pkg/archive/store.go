package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jacquesdev/jacques/pkg/config"
	"github.com/jacquesdev/jacques/pkg/index"
	"github.com/jacquesdev/jacques/pkg/logger"
	"github.com/jacquesdev/jacques/pkg/manifest"
	"github.com/jacquesdev/jacques/pkg/plans"
	"github.com/jacquesdev/jacques/pkg/transcript"
)

// Store owns the on-disk archive layout:
//
//	root/manifests/<id>.json
//	root/conversations/<project_slug>/<filename>.json
//	root/plans/<project_slug>/<filename>.md
//	root/index.json
//
// No other component writes to these directories. Single-writer model:
// callers serialize archive operations; the index is load-modify-persisted
// around each operation rather than held as a long-lived singleton.
type Store struct {
	root     string
	settings *config.Settings
}

// minSubstantialMessages is the message floor for the "substantial"
// archive filter
const minSubstantialMessages = 5

// New creates a store rooted at root. Nil settings fall back to defaults.
func New(root string, settings *config.Settings) *Store {
	if settings == nil {
		settings = config.DefaultSettings()
	}
	return &Store{root: root, settings: settings}
}

// Root returns the archive root directory
func (s *Store) Root() string { return s.root }

func (s *Store) manifestsDir() string { return filepath.Join(s.root, "manifests") }
func (s *Store) indexPath() string    { return filepath.Join(s.root, "index.json") }
func (s *Store) manifestPath(id string) string {
	return filepath.Join(s.manifestsDir(), id+".json")
}
func (s *Store) conversationsDir(slug string) string {
	return filepath.Join(s.root, "conversations", slug)
}
func (s *Store) plansDir(slug string) string {
	return filepath.Join(s.root, "plans", slug)
}

// ArchiveOptions control a single archive operation
type ArchiveOptions struct {
	// Force re-archives a session that is already archived
	Force bool

	// AutoArchived marks the manifest as created by the auto-archive path
	AutoArchived bool

	// UserLabel is an optional user-assigned label
	UserLabel string

	// RequireSubstantial skips sessions with fewer than a handful of
	// messages and no detected plan (the "substantial" archive filter)
	RequireSubstantial bool

	// SkipMirror disables the per-project local mirror write
	SkipMirror bool
}

// ArchiveResult reports the outcome of one archive operation
type ArchiveResult struct {
	Archived         bool   `json:"archived"`
	Skipped          bool   `json:"skipped,omitempty"`
	ManifestID       string `json:"manifest_id,omitempty"`
	Title            string `json:"title,omitempty"`
	ConversationPath string `json:"conversation_path,omitempty"`
	PlanCount        int    `json:"plan_count,omitempty"`
}

// Archive runs the full pipeline for one transcript: parse, extract,
// resolve plans, then the write sequence (manifest, conversation body,
// plan files, index update). Each write step is individually idempotent.
// Index-update failure after the content writes is logged, not returned:
// content is durable and the index is rebuildable via Reindex.
func (s *Store) Archive(transcriptPath, projectPath string, opts ArchiveOptions) (*ArchiveResult, error) {
	entries, err := transcript.ParseFile(transcriptPath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", transcriptPath, err)
	}

	sessionID := sessionIDFrom(entries, transcriptPath)
	if !opts.Force {
		if _, err := os.Stat(s.manifestPath(sessionID)); err == nil {
			return &ArchiveResult{Skipped: true, ManifestID: sessionID}, nil
		}
	}

	refs := plans.ExtractEmbedded(entries)
	refs = append(refs, plans.DetectWritten(entries, s.settings.PlansDir)...)

	m := manifest.Extract(entries, projectPath, transcriptPath, refs)
	if m.ID == "" {
		m.ID = sessionID
	}
	m.AutoArchived = opts.AutoArchived
	m.UserLabel = opts.UserLabel

	if opts.RequireSubstantial && m.MessageCount < minSubstantialMessages && len(m.PlanRefs) == 0 {
		return &ArchiveResult{Skipped: true, ManifestID: m.ID}, nil
	}

	archivedAt := time.Now()
	when := m.EndedAt
	if when.IsZero() {
		when = archivedAt
	}

	// Resolve plan references against the project-wide registry before any
	// write, so the manifest records the deduplicated filenames
	registry, err := plans.LoadRegistry(s.plansDir(m.ProjectSlug), s.settings.SimilarityThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan registry: %w", err)
	}
	resolved := make([]*plans.Plan, len(refs))
	dirty := make([]bool, len(refs))
	for i, ref := range refs {
		plan, changed := registry.Resolve(ref, m.ID, when)
		resolved[i] = plan
		dirty[i] = changed
		m.PlanRefs[i].PlanID = plan.ID
		m.PlanRefs[i].Filename = plan.Filename
	}

	// Step 1: manifest
	if err := writeJSONAtomic(s.manifestPath(m.ID), m); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}

	// Step 2: conversation body
	conv := &SavedConversation{
		SessionID:   m.ID,
		ProjectID:   m.ProjectID,
		ProjectSlug: m.ProjectSlug,
		ProjectPath: m.ProjectPath,
		Title:       m.Title,
		ArchivedAt:  archivedAt,
		Stats:       transcript.Aggregate(entries),
		Messages:    buildMessages(entries),
	}
	convPath, err := s.writeConversation(conv, when)
	if err != nil {
		return nil, fmt.Errorf("failed to write conversation: %w", err)
	}

	// Step 3: plan files
	for i, plan := range resolved {
		if !dirty[i] {
			continue
		}
		if err := registry.SavePlan(plan); err != nil {
			return nil, fmt.Errorf("failed to write plan %s: %w", plan.Filename, err)
		}
		dirty[i] = false // a plan referenced twice in one batch saves once
	}

	// Step 4: index update. Failure here is a warning, never fatal: the
	// archived content is durable and Reindex recovers the index.
	if err := s.updateIndex(m); err != nil {
		logger.Warn("Index update failed for %s (run reindex to recover): %v", m.ID, err)
	}

	if !opts.SkipMirror {
		if err := s.writeMirror(projectPath, m.ProjectID); err != nil {
			logger.Debug("Skipping project mirror for %s: %v", projectPath, err)
		}
	}

	return &ArchiveResult{
		Archived:         true,
		ManifestID:       m.ID,
		Title:            m.Title,
		ConversationPath: convPath,
		PlanCount:        len(resolved),
	}, nil
}

// writeConversation writes the conversation body under a collision-safe
// filename and removes any previous body for the same session
func (s *Store) writeConversation(conv *SavedConversation, when time.Time) (string, error) {
	dir := s.conversationsDir(conv.ProjectSlug)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create conversations directory: %w", err)
	}

	// Re-archive replaces the old body wholesale
	if old, err := s.findConversationFile(conv.ProjectSlug, conv.SessionID); err == nil && old != "" {
		if err := os.Remove(old); err != nil && !os.IsNotExist(err) {
			logger.Warn("Failed to remove superseded conversation %s: %v", old, err)
		}
	}

	name := conversationFilename(dir, when, conv.Title, conv.SessionID)
	path := filepath.Join(dir, name)
	if err := writeJSONAtomic(path, conv); err != nil {
		return "", err
	}
	return path, nil
}

// conversationFilename generates YYYY-MM-DD_HH-MM_<title-slug>_<4-char-id>.json.
// Date-first gives natural chronological sort in a flat directory; the
// short id suffix disambiguates identical-minute saves. A residual
// collision with a different session appends a numeric suffix.
func conversationFilename(dir string, when time.Time, title, sessionID string) string {
	shortID := sessionID
	if len(shortID) > config.ShortIDLength {
		shortID = shortID[:config.ShortIDLength]
	}
	base := fmt.Sprintf("%s_%s_%s",
		when.Format("2006-01-02_15-04"),
		plans.Slugify(title, config.MaxPlanSlugLength),
		shortID)

	name := base + ".json"
	for version := 2; ; version++ {
		if _, err := os.Stat(filepath.Join(dir, name)); os.IsNotExist(err) {
			return name
		}
		name = fmt.Sprintf("%s-%d.json", base, version)
	}
}

// ReadManifest loads an archived manifest by exact session id
func (s *Store) ReadManifest(id string) (*manifest.Manifest, error) {
	data, err := os.ReadFile(s.manifestPath(id))
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", id, err)
	}
	var m manifest.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", id, err)
	}
	return &m, nil
}

// FindManifest resolves a full or prefix manifest id
func (s *Store) FindManifest(partialID string) (*manifest.Manifest, error) {
	if _, err := os.Stat(s.manifestPath(partialID)); err == nil {
		return s.ReadManifest(partialID)
	}

	files, err := os.ReadDir(s.manifestsDir())
	if err != nil {
		return nil, fmt.Errorf("failed to read manifests directory: %w", err)
	}
	var matches []string
	for _, f := range files {
		name := strings.TrimSuffix(f.Name(), ".json")
		if strings.HasPrefix(name, partialID) {
			matches = append(matches, name)
		}
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("manifest not found: %s", partialID)
	}
	if len(matches) > 1 {
		return nil, fmt.Errorf("ambiguous manifest id '%s' matches %d manifests", partialID, len(matches))
	}
	return s.ReadManifest(matches[0])
}

// ReadConversation loads the full conversation body for a session
func (s *Store) ReadConversation(projectSlug, sessionID string) (*SavedConversation, error) {
	path, err := s.findConversationFile(projectSlug, sessionID)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, fmt.Errorf("conversation not found: %s/%s", projectSlug, sessionID)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read conversation: %w", err)
	}
	var conv SavedConversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("failed to parse conversation %s: %w", path, err)
	}
	return &conv, nil
}

// findConversationFile locates the body file for a session id. Filenames
// carry only a short id prefix, so candidates are verified by content.
func (s *Store) findConversationFile(projectSlug, sessionID string) (string, error) {
	dir := s.conversationsDir(projectSlug)
	files, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read conversations directory: %w", err)
	}

	shortID := sessionID
	if len(shortID) > config.ShortIDLength {
		shortID = shortID[:config.ShortIDLength]
	}

	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		if !strings.Contains(f.Name(), "_"+shortID) {
			continue
		}
		path := filepath.Join(dir, f.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var probe struct {
			SessionID string `json:"session_id"`
		}
		if err := json.Unmarshal(data, &probe); err != nil {
			continue
		}
		if probe.SessionID == sessionID {
			return path, nil
		}
	}
	return "", nil
}

// Plans returns the deduplicated plans for one project slug, or for all
// projects when slug is empty
func (s *Store) Plans(projectSlug string) ([]*plans.Plan, error) {
	var slugs []string
	if projectSlug != "" {
		slugs = []string{projectSlug}
	} else {
		dirs, err := os.ReadDir(filepath.Join(s.root, "plans"))
		if os.IsNotExist(err) {
			return nil, nil
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read plans root: %w", err)
		}
		for _, d := range dirs {
			if d.IsDir() {
				slugs = append(slugs, d.Name())
			}
		}
	}

	var all []*plans.Plan
	for _, slug := range slugs {
		registry, err := plans.LoadRegistry(s.plansDir(slug), s.settings.SimilarityThreshold)
		if err != nil {
			return nil, err
		}
		all = append(all, registry.Plans()...)
	}
	return all, nil
}

// loadIndex reads index.json into memory; a missing file yields an empty
// index. The whole index is always read at once so queries see a
// consistent snapshot.
func (s *Store) loadIndex() (*index.Index, error) {
	data, err := os.ReadFile(s.indexPath())
	if os.IsNotExist(err) {
		return index.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	ix := index.New()
	if err := json.Unmarshal(data, ix); err != nil {
		return nil, fmt.Errorf("failed to parse index: %w", err)
	}
	if ix.Keywords == nil {
		ix.Keywords = make(map[string][]index.Posting)
	}
	if ix.Projects == nil {
		ix.Projects = make(map[string]index.ProjectInfo)
	}
	return ix, nil
}

// updateIndex retracts a manifest's old postings and adds the new ones,
// then persists the index atomically
func (s *Store) updateIndex(m *manifest.Manifest) error {
	ix, err := s.loadIndex()
	if err != nil {
		return err
	}
	if ix.Remove(m.ID) {
		// Overwrite: the project counter added below replaces the retracted one
		info := ix.Projects[m.ProjectID]
		if info.ConversationCount > 0 {
			info.ConversationCount--
			ix.Projects[m.ProjectID] = info
		}
	}
	ix.Add(m)
	return writeJSONAtomic(s.indexPath(), ix)
}

// sessionIDFrom prefers the session id recorded in the entries, falling
// back to the transcript filename
func sessionIDFrom(entries []transcript.Entry, transcriptPath string) string {
	for i := range entries {
		if entries[i].SessionID != "" {
			return entries[i].SessionID
		}
	}
	return strings.TrimSuffix(filepath.Base(transcriptPath), filepath.Ext(transcriptPath))
}

// writeJSONAtomic marshals v and writes it with the temp-file + rename
// pattern so a crash mid-write never leaves a half-written file visible
func writeJSONAtomic(path string, v interface{}) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}

	tempFile, err := os.CreateTemp(dir, ".write-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tempPath, 0644); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
