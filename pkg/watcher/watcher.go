package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/jacquesdev/jacques/pkg/archive"
	"github.com/jacquesdev/jacques/pkg/config"
	"github.com/jacquesdev/jacques/pkg/discovery"
	"github.com/jacquesdev/jacques/pkg/logger"
)

// DefaultSettleDelay is how long a transcript must stay quiet before it
// counts as a finished session and gets archived
const DefaultSettleDelay = 2 * time.Minute

// pollInterval is how often quiet transcripts are checked for settling
const pollInterval = 15 * time.Second

// Watcher auto-archives sessions: it watches the Claude projects tree and
// archives a transcript once it has been quiet for the settle delay.
type Watcher struct {
	store       *archive.Store
	settings    *config.Settings
	settleDelay time.Duration

	fw *fsnotify.Watcher

	mu       sync.Mutex
	lastSeen map[string]time.Time // transcript path -> last write
}

// New creates a watcher over the Claude projects directory
func New(store *archive.Store, settings *config.Settings, settleDelay time.Duration) (*Watcher, error) {
	if settleDelay <= 0 {
		settleDelay = DefaultSettleDelay
	}

	projectsDir, err := config.GetProjectsDir()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(projectsDir); err != nil {
		return nil, fmt.Errorf("projects directory unavailable: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fw.Add(projectsDir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", projectsDir, err)
	}

	// Watch existing project directories; new ones are added on create
	dirEntries, err := os.ReadDir(projectsDir)
	if err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to read projects directory: %w", err)
	}
	for _, d := range dirEntries {
		if d.IsDir() {
			if err := fw.Add(filepath.Join(projectsDir, d.Name())); err != nil {
				logger.Warn("Failed to watch project dir %s: %v", d.Name(), err)
			}
		}
	}

	return &Watcher{
		store:       store,
		settings:    settings,
		settleDelay: settleDelay,
		fw:          fw,
		lastSeen:    make(map[string]time.Time),
	}, nil
}

// Run blocks, processing events until the context is cancelled
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fw.Close()

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		case <-ticker.C:
			w.archiveSettled()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// New project directory: start watching it
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.fw.Add(event.Name); err != nil {
				logger.Warn("Failed to watch new project dir %s: %v", event.Name, err)
			}
			return
		}
	}

	if !isSessionTranscript(event.Name) {
		return
	}
	if event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) {
		w.mu.Lock()
		w.lastSeen[event.Name] = time.Now()
		w.mu.Unlock()
	}
}

// archiveSettled archives every tracked transcript that has been quiet
// for the settle delay
func (w *Watcher) archiveSettled() {
	if w.settings.ArchiveFilter == config.FilterNone {
		return
	}

	now := time.Now()
	var settled []string

	w.mu.Lock()
	for path, seen := range w.lastSeen {
		if now.Sub(seen) >= w.settleDelay {
			settled = append(settled, path)
			delete(w.lastSeen, path)
		}
	}
	w.mu.Unlock()

	for _, path := range settled {
		w.archiveOne(path)
	}
}

func (w *Watcher) archiveOne(transcriptPath string) {
	projectID := filepath.Base(filepath.Dir(transcriptPath))
	projectPath := discovery.DecodeProjectPath(projectID)

	result, err := w.store.Archive(transcriptPath, projectPath, archive.ArchiveOptions{
		Force:              true, // sessions may resume; the latest state wins
		AutoArchived:       true,
		RequireSubstantial: w.settings.ArchiveFilter == config.FilterSubstantial,
	})
	if err != nil {
		logger.Error("Auto-archive failed for %s: %v", transcriptPath, err)
		return
	}
	if result.Skipped {
		logger.Debug("Session %s below substantial threshold, not archived", result.ManifestID)
		return
	}
	logger.Info("Auto-archived session %s (%s)", result.ManifestID, result.Title)
}

// isSessionTranscript matches <uuid>.jsonl files, excluding agent
// sidechains
func isSessionTranscript(path string) bool {
	name := filepath.Base(path)
	if !strings.HasSuffix(name, ".jsonl") || strings.HasPrefix(name, "agent-") {
		return false
	}
	_, err := uuid.Parse(strings.TrimSuffix(name, ".jsonl"))
	return err == nil
}
