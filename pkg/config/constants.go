package config

// Application constants - centralized values used across packages

// === File Processing ===

const (
	// MaxJSONLLineSize is the maximum size for a single JSONL line (10MB)
	// Default bufio.Scanner buffer is 64KB, but transcript lines with
	// thinking blocks and tool results can exceed 1MB
	MaxJSONLLineSize = 10 * 1024 * 1024
)

// Byte size constants
const (
	KB = 1024
	MB = 1024 * KB
)

// === Manifest bounds ===

// All list fields on a manifest have hard caps so manifest size stays
// bounded regardless of transcript size.
const (
	// MaxUserQuestions is the maximum number of user questions kept per manifest
	MaxUserQuestions = 20

	// MaxQuestionLength is the truncation length for a single user question
	MaxQuestionLength = 200

	// MaxContextSnippets is the maximum number of assistant context snippets
	MaxContextSnippets = 5

	// MaxSnippetLength is the truncation length for a single context snippet
	MaxSnippetLength = 150

	// MaxTitleLength is the truncation length for extracted session titles
	MaxTitleLength = 80

	// MaxFilesModified caps the deduplicated modified-file list
	MaxFilesModified = 50
)

// === Plan detection ===

const (
	// MinPlanLength is the minimum content length for plan detection.
	// Shorter matches after a trigger phrase are casual mentions, not plans.
	MinPlanLength = 100

	// MaxPlanSlugLength is the maximum slug length in generated plan filenames
	MaxPlanSlugLength = 50

	// DefaultSimilarityThreshold is the Jaccard similarity above which two
	// plans with the same normalized title are considered the same plan.
	// Empirically chosen; overridable via settings.
	DefaultSimilarityThreshold = 0.90
)

// === Search index ===

const (
	// MinTokenLength and MaxTokenLength bound keyword lengths in the index
	MinTokenLength = 2
	MaxTokenLength = 50
)

// === ID formats ===

const (
	// UUIDLength is the expected length of UUID strings (with hyphens)
	UUIDLength = 36

	// ShortIDLength is the session-id suffix length in conversation filenames
	ShortIDLength = 4
)

// === File Paths ===

const (
	// JacquesDir is the main jacques state directory (under $HOME)
	JacquesDir = ".jacques"

	// ArchiveSubdir is the archive root within the jacques dir
	ArchiveSubdir = "archive"

	// LogDirName is the log directory within the jacques dir
	LogDirName = ".jacques/logs"

	// LogFileName is the name of the log file
	LogFileName = "jacques.log"

	// ConfigFileName is the user settings file name
	ConfigFileName = "config.json"

	// MirrorDirName is the per-project local mirror directory
	MirrorDirName = ".jacques"

	// ClaudeStateDir is the Claude Code state directory name
	ClaudeStateDir = ".claude"

	// ClaudeProjectsSubdir is the projects subdirectory within Claude state dir
	ClaudeProjectsSubdir = "projects"
)

// === Environment Variables ===

const (
	// ClaudeStateDirEnv overrides the default ~/.claude directory.
	// Useful for testing and non-standard installations.
	ClaudeStateDirEnv = "JACQUES_CLAUDE_DIR"

	// ArchiveDirEnv overrides the default ~/.jacques/archive root
	ArchiveDirEnv = "JACQUES_DIR"
)
