package discovery

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jacquesdev/jacques/pkg/config"
	"github.com/jacquesdev/jacques/pkg/logger"
)

// TranscriptInfo holds metadata about a discovered session transcript
type TranscriptInfo struct {
	SessionID      string
	TranscriptPath string
	ProjectID      string // encoded-path directory name under the projects dir
	ProjectPath    string // decoded, display-oriented path
	ModTime        time.Time
	SizeBytes      int64
}

// ScanAll finds all session transcript files in the Claude projects
// directory. Returns transcripts sorted by modification time (oldest
// first). A missing projects directory yields an empty result, not an
// error.
func ScanAll() ([]TranscriptInfo, error) {
	projectsDir, err := config.GetProjectsDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get projects directory: %w", err)
	}
	return ScanDir(projectsDir)
}

// ScanDir scans an explicit projects directory
func ScanDir(projectsDir string) ([]TranscriptInfo, error) {
	if _, err := os.Stat(projectsDir); os.IsNotExist(err) {
		return nil, nil
	}

	var transcripts []TranscriptInfo

	err := filepath.WalkDir(projectsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("Failed to access path during scan: %s: %v", path, err)
			return nil // Continue walking
		}
		if info := parseTranscriptPath(path, d, projectsDir); info != nil {
			transcripts = append(transcripts, *info)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk projects directory: %w", err)
	}

	sort.Slice(transcripts, func(i, j int) bool {
		return transcripts[i].ModTime.Before(transcripts[j].ModTime)
	})

	return transcripts, nil
}

// FindBySessionID finds a transcript by full or prefix session id
func FindBySessionID(partialID string) (*TranscriptInfo, error) {
	all, err := ScanAll()
	if err != nil {
		return nil, err
	}

	var matches []TranscriptInfo
	for _, t := range all {
		if t.SessionID == partialID || strings.HasPrefix(t.SessionID, partialID) {
			matches = append(matches, t)
		}
	}

	if len(matches) == 0 {
		return nil, fmt.Errorf("session not found: %s", partialID)
	}
	if len(matches) > 1 {
		return nil, fmt.Errorf("ambiguous session ID '%s' matches %d sessions", partialID, len(matches))
	}
	return &matches[0], nil
}

// parseTranscriptPath checks whether a path is a session transcript.
// Valid transcripts live directly under a project directory and are named
// <session-uuid>.jsonl; agent sidechain files (agent-*.jsonl) are skipped.
func parseTranscriptPath(path string, d fs.DirEntry, projectsDir string) *TranscriptInfo {
	if d.IsDir() || !strings.HasSuffix(path, ".jsonl") {
		return nil
	}

	name := strings.TrimSuffix(d.Name(), ".jsonl")
	if _, err := uuid.Parse(name); err != nil {
		return nil
	}

	rel, err := filepath.Rel(projectsDir, path)
	if err != nil {
		return nil
	}
	projectID := filepath.Dir(rel)
	if projectID == "." || strings.Contains(projectID, string(filepath.Separator)) {
		// Transcripts are exactly one level below the projects dir
		return nil
	}

	fileInfo, err := d.Info()
	if err != nil {
		logger.Warn("Failed to stat transcript %s: %v", path, err)
		return nil
	}

	return &TranscriptInfo{
		SessionID:      name,
		TranscriptPath: path,
		ProjectID:      projectID,
		ProjectPath:    DecodeProjectPath(projectID),
		ModTime:        fileInfo.ModTime(),
		SizeBytes:      fileInfo.Size(),
	}
}
