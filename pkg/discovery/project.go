package discovery

import (
	"path/filepath"
	"strings"
)

// Project identity is dual: a stable, reversible encoded-path id used as
// the storage and grouping key, and a human-readable slug (the path's last
// segment) used for display only. Filtering must always match on the id,
// never the slug, so sibling directories sharing a basename cannot collide.

// EncodeProjectPath converts an absolute project path into its stable id.
// Mirrors the Claude Code projects-directory naming: every path separator
// becomes a dash, keeping the leading one ("/Users/x/app" -> "-Users-x-app").
func EncodeProjectPath(path string) string {
	cleaned := filepath.Clean(path)
	cleaned = strings.ReplaceAll(cleaned, "\\", "/")
	return strings.ReplaceAll(cleaned, "/", "-")
}

// DecodeProjectPath reverses EncodeProjectPath. Best effort: dashes that
// were part of the original directory names decode to separators too, so
// the result is for display, not for filesystem access.
func DecodeProjectPath(id string) string {
	return strings.ReplaceAll(id, "-", "/")
}

// ProjectSlug returns the display name for a project path (its basename,
// lowercased).
func ProjectSlug(path string) string {
	base := filepath.Base(filepath.Clean(path))
	if base == "/" || base == "." {
		return "root"
	}
	return strings.ToLower(base)
}

// SlugFromID derives the display slug from an encoded project id
func SlugFromID(id string) string {
	decoded := DecodeProjectPath(id)
	return ProjectSlug(decoded)
}
