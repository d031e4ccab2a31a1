package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jacquesdev/jacques/pkg/config"
)

// ProjectMirror is the optional per-project index written to
// <project>/.jacques/index.json so project-local tooling can work
// offline from the global archive. Context entries are user-managed and
// preserved across rewrites.
type ProjectMirror struct {
	Context  []string        `json:"context"`
	Sessions []MirrorSession `json:"sessions"`
	Plans    []MirrorPlan    `json:"plans"`

	UpdatedAt time.Time `json:"updated_at"`
}

// MirrorSession is the mirror's compact view of one archived session
type MirrorSession struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	EndedAt         time.Time `json:"ended_at"`
	DurationMinutes int       `json:"duration_minutes"`
	MessageCount    int       `json:"message_count"`
}

// MirrorPlan is the mirror's compact view of one deduplicated plan
type MirrorPlan struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Filename string   `json:"filename"`
	Sessions []string `json:"sessions"`
}

// writeMirror refreshes the per-project mirror. Best effort: a project
// directory that no longer exists is not an error worth surfacing.
func (s *Store) writeMirror(projectPath, projectID string) error {
	if projectPath == "" {
		return fmt.Errorf("no project path")
	}
	info, err := os.Stat(projectPath)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("project directory unavailable: %s", projectPath)
	}

	mirror := &ProjectMirror{Context: []string{}}

	// Preserve user-managed context entries from an existing mirror
	mirrorPath := filepath.Join(projectPath, config.MirrorDirName, "index.json")
	if data, err := os.ReadFile(mirrorPath); err == nil {
		var existing ProjectMirror
		if err := json.Unmarshal(data, &existing); err == nil {
			mirror.Context = existing.Context
		}
	}

	manifests, err := s.allManifests()
	if err != nil {
		return err
	}
	var slug string
	for _, m := range manifests {
		if m.ProjectID != projectID {
			continue
		}
		slug = m.ProjectSlug
		mirror.Sessions = append(mirror.Sessions, MirrorSession{
			ID:              m.ID,
			Title:           m.Title,
			EndedAt:         m.EndedAt,
			DurationMinutes: m.DurationMinutes,
			MessageCount:    m.MessageCount,
		})
	}
	sort.Slice(mirror.Sessions, func(i, j int) bool {
		return mirror.Sessions[i].EndedAt.After(mirror.Sessions[j].EndedAt)
	})

	if slug != "" {
		projectPlans, err := s.Plans(slug)
		if err != nil {
			return err
		}
		for _, p := range projectPlans {
			mirror.Plans = append(mirror.Plans, MirrorPlan{
				ID:       p.ID,
				Title:    p.Title,
				Filename: p.Filename,
				Sessions: p.Sessions,
			})
		}
	}

	mirror.UpdatedAt = time.Now()
	return writeJSONAtomic(mirrorPath, mirror)
}
