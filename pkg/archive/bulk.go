package archive

import (
	"github.com/jacquesdev/jacques/pkg/discovery"
	"github.com/jacquesdev/jacques/pkg/logger"
)

// ItemError records one transcript that failed to archive
type ItemError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// BulkResult summarizes a batch archive run. Partial failure is always
// visible: counts plus per-error detail, never a single boolean.
type BulkResult struct {
	Archived int         `json:"archived"`
	Skipped  int         `json:"skipped"`
	Errored  int         `json:"errored"`
	Errors   []ItemError `json:"errors,omitempty"`
}

// ProgressFunc is invoked synchronously after each item. A panicking
// callback aborts only the current item's report, never the batch.
type ProgressFunc func(done, total int, info discovery.TranscriptInfo, err error)

// BulkOptions control a batch archive run
type BulkOptions struct {
	// Force re-archives sessions that are already archived (used after a
	// manifest-extraction logic change)
	Force bool

	// AutoArchived marks resulting manifests as auto-archived
	AutoArchived bool

	// Progress, when set, is called after each item
	Progress ProgressFunc
}

// ArchiveAll drives the pipeline across a set of discovered transcripts,
// sequentially. One transcript's failure is recorded with its path and
// the batch continues; it never aborts on a single item.
func (s *Store) ArchiveAll(transcripts []discovery.TranscriptInfo, opts BulkOptions) *BulkResult {
	result := &BulkResult{}
	total := len(transcripts)
	touched := make(map[string]string) // project path -> encoded id

	for i, info := range transcripts {
		res, err := s.Archive(info.TranscriptPath, info.ProjectPath, ArchiveOptions{
			Force:        opts.Force,
			AutoArchived: opts.AutoArchived,
			SkipMirror:   true, // mirrors are per-project; bulk writes them once at the end
		})

		switch {
		case err != nil:
			result.Errored++
			result.Errors = append(result.Errors, ItemError{
				Path:    info.TranscriptPath,
				Message: err.Error(),
			})
			logger.Error("Bulk archive failed for %s: %v", info.TranscriptPath, err)
		case res.Skipped:
			result.Skipped++
		default:
			result.Archived++
			touched[info.ProjectPath] = discovery.EncodeProjectPath(info.ProjectPath)
		}

		reportProgress(opts.Progress, i+1, total, info, err)
	}

	// One mirror write per project with new archives, best effort
	for path, id := range touched {
		if err := s.writeMirror(path, id); err != nil {
			logger.Debug("Skipping project mirror for %s: %v", path, err)
		}
	}

	return result
}

// reportProgress isolates callback panics from the batch
func reportProgress(progress ProgressFunc, done, total int, info discovery.TranscriptInfo, err error) {
	if progress == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("Progress callback panicked: %v", r)
		}
	}()
	progress(done, total, info, err)
}
