package archive

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jacquesdev/jacques/pkg/index"
	"github.com/jacquesdev/jacques/pkg/logger"
	"github.com/jacquesdev/jacques/pkg/manifest"
)

// Filters narrow a search to a project, date range or technologies.
// ProjectID must be the stable encoded-path id, never the display slug.
type Filters struct {
	ProjectID    string
	Technologies []string
	Since        time.Time
	Until        time.Time
}

// SearchResult pairs a manifest summary with its query score
type SearchResult struct {
	Manifest *manifest.Manifest `json:"manifest"`
	Score    float64            `json:"score"`
}

// SearchResults is one page of results plus the unpaginated total
type SearchResults struct {
	Results  []SearchResult `json:"results"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// Search answers a keyword query against the persisted index. An empty
// query lists all manifests matching the filters, most recent first.
// No matches yields an empty result set, never an error.
func (s *Store) Search(query string, f Filters, page, pageSize int) (*SearchResults, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if page <= 0 {
		page = 1
	}

	var candidates []SearchResult

	if strings.TrimSpace(query) == "" {
		manifests, err := s.allManifests()
		if err != nil {
			return nil, err
		}
		for _, m := range manifests {
			candidates = append(candidates, SearchResult{Manifest: m})
		}
	} else {
		ix, err := s.loadIndex()
		if err != nil {
			return nil, err
		}
		for _, match := range ix.Query(query) {
			m, err := s.ReadManifest(match.ManifestID)
			if err != nil {
				// Index referenced a manifest that no longer exists
				logger.Warn("Stale index entry for %s: %v", match.ManifestID, err)
				continue
			}
			candidates = append(candidates, SearchResult{Manifest: m, Score: match.Score})
		}
	}

	filtered := candidates[:0]
	for _, c := range candidates {
		if matchesFilters(c.Manifest, f) {
			filtered = append(filtered, c)
		}
	}

	// Score descending; ties (and the empty-query listing) break by most
	// recent session end
	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].Score != filtered[j].Score {
			return filtered[i].Score > filtered[j].Score
		}
		return filtered[i].Manifest.EndedAt.After(filtered[j].Manifest.EndedAt)
	})

	total := len(filtered)
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	return &SearchResults{
		Results:  filtered[start:end],
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func matchesFilters(m *manifest.Manifest, f Filters) bool {
	if f.ProjectID != "" && m.ProjectID != f.ProjectID {
		return false
	}
	if !f.Since.IsZero() && m.EndedAt.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && m.StartedAt.After(f.Until) {
		return false
	}
	for _, want := range f.Technologies {
		found := false
		for _, have := range m.Technologies {
			if strings.EqualFold(want, have) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// allManifests loads every archived manifest; unreadable files are
// skipped with a warning
func (s *Store) allManifests() ([]*manifest.Manifest, error) {
	files, err := os.ReadDir(s.manifestsDir())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read manifests directory: %w", err)
	}

	var manifests []*manifest.Manifest
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		m, err := s.ReadManifest(strings.TrimSuffix(f.Name(), ".json"))
		if err != nil {
			logger.Warn("Skipping unreadable manifest %s: %v", f.Name(), err)
			continue
		}
		manifests = append(manifests, m)
	}
	return manifests, nil
}

// Stats summarizes the archive for status views
type Stats struct {
	TotalConversations int   `json:"total_conversations"`
	TotalProjects      int   `json:"total_projects"`
	TotalPlans         int   `json:"total_plans"`
	TotalSizeBytes     int64 `json:"total_size_bytes"`
}

// GetStats computes archive totals by walking the archive root
func (s *Store) GetStats() (*Stats, error) {
	stats := &Stats{}

	manifests, err := s.allManifests()
	if err != nil {
		return nil, err
	}
	stats.TotalConversations = len(manifests)

	projects := make(map[string]bool)
	for _, m := range manifests {
		projects[m.ProjectID] = true
	}
	stats.TotalProjects = len(projects)

	allPlans, err := s.Plans("")
	if err != nil {
		return nil, err
	}
	stats.TotalPlans = len(allPlans)

	err = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			stats.TotalSizeBytes += info.Size()
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to walk archive root: %w", err)
	}

	return stats, nil
}

// Reindex rebuilds index.json from scratch by re-scanning all manifests.
// This is the recovery path for index corruption or missed updates.
func (s *Store) Reindex() (int, error) {
	manifests, err := s.allManifests()
	if err != nil {
		return 0, err
	}

	ix := index.New()
	for _, m := range manifests {
		ix.Add(m)
	}

	if err := writeJSONAtomic(s.indexPath(), ix); err != nil {
		return 0, fmt.Errorf("failed to persist index: %w", err)
	}
	return len(manifests), nil
}
