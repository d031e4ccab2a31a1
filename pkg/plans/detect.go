package plans

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jacquesdev/jacques/pkg/config"
	"github.com/jacquesdev/jacques/pkg/transcript"
)

// Source describes how a plan reference was detected
type Source string

const (
	// SourceEmbedded marks a plan pasted into a user message
	SourceEmbedded Source = "embedded"

	// SourceWrite marks a plan written to disk via a file-write tool call
	SourceWrite Source = "write"
)

// Reference is a detected, not-yet-deduplicated plan occurrence
type Reference struct {
	Title   string
	Content string
	Source  Source
}

// triggerPhrases mark the start of an embedded plan in a user message.
// Matching is case-insensitive.
var triggerPhrases = []string{
	"implement the following plan:",
	"here is the plan:",
	"here's the plan:",
	"follow this plan:",
}

var (
	headingRegex    = regexp.MustCompile(`(?m)^#{1,6}\s+\S`)
	topHeadingRegex = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	listItemRegex   = regexp.MustCompile(`(?m)^\s*(?:[-*+]|\d+\.)\s+\S`)
)

// ExtractEmbedded scans user messages for trigger phrases followed by
// markdown plan content. Content after the trigger must be at least
// MinPlanLength characters and contain a markdown heading; the gate
// rejects casual mentions of "the plan". A single message may contain
// multiple plans, split at top-level headings.
func ExtractEmbedded(entries []transcript.Entry) []Reference {
	var refs []Reference

	for i := range entries {
		e := &entries[i]
		if e.Kind != transcript.KindUserMessage || e.Text == "" {
			continue
		}

		body, ok := contentAfterTrigger(e.Text)
		if !ok {
			continue
		}
		if len(body) < config.MinPlanLength || !headingRegex.MatchString(body) {
			continue
		}

		for _, section := range splitAtTopHeadings(body) {
			if len(section) < config.MinPlanLength {
				continue
			}
			refs = append(refs, Reference{
				Title:   titleFromContent(section),
				Content: strings.TrimSpace(section),
				Source:  SourceEmbedded,
			})
		}
	}

	return refs
}

// DetectWritten finds plans created through file-write tool calls.
// A write qualifies when its target path contains the plans directory
// segment or matches a *plan*.md naming convention, and the content
// independently passes the markdown-structure check. The second check
// exists to exclude source files that happen to live under a plans folder.
func DetectWritten(entries []transcript.Entry, plansDirSegment string) []Reference {
	var refs []Reference

	for i := range entries {
		e := &entries[i]
		if e.Kind != transcript.KindToolCall || e.ToolName != "Write" {
			continue
		}

		path, _ := e.ToolInput["file_path"].(string)
		content, _ := e.ToolInput["content"].(string)
		if path == "" || content == "" {
			continue
		}
		if !isPlanPath(path, plansDirSegment) {
			continue
		}
		if !looksLikePlan(content) {
			continue
		}

		title := titleFromContent(content)
		if title == "" {
			title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		refs = append(refs, Reference{
			Title:   title,
			Content: strings.TrimSpace(content),
			Source:  SourceWrite,
		})
	}

	return refs
}

// contentAfterTrigger returns the text following the first trigger phrase
func contentAfterTrigger(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, trigger := range triggerPhrases {
		idx := strings.Index(lower, trigger)
		if idx < 0 {
			continue
		}
		return strings.TrimSpace(text[idx+len(trigger):]), true
	}
	return "", false
}

// splitAtTopHeadings splits content at top-level "# " headings so one
// message can yield several plans. Content before the first heading stays
// attached to the first section.
func splitAtTopHeadings(body string) []string {
	locs := topHeadingRegex.FindAllStringIndex(body, -1)
	if len(locs) <= 1 {
		return []string{body}
	}

	var sections []string
	for i, loc := range locs {
		start := loc[0]
		if i == 0 {
			start = 0
		}
		end := len(body)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		sections = append(sections, strings.TrimSpace(body[start:end]))
	}
	return sections
}

// isPlanPath reports whether a written file path designates a plan
func isPlanPath(path, plansDirSegment string) bool {
	normalized := strings.ToLower(filepath.ToSlash(path))
	if plansDirSegment != "" {
		segment := "/" + strings.ToLower(strings.Trim(plansDirSegment, "/")) + "/"
		if strings.Contains(normalized, segment) {
			return true
		}
	}
	base := filepath.Base(normalized)
	return strings.Contains(base, "plan") && strings.HasSuffix(base, ".md")
}

// looksLikePlan checks for minimal markdown structure: a heading plus
// either a list or multiple paragraphs
func looksLikePlan(content string) bool {
	if len(content) < config.MinPlanLength {
		return false
	}
	if !headingRegex.MatchString(content) {
		return false
	}
	if listItemRegex.MatchString(content) {
		return true
	}
	return strings.Count(strings.TrimSpace(content), "\n\n") >= 1
}

// titleFromContent takes the first markdown heading, falling back to the
// first non-empty line
func titleFromContent(content string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			return strings.TrimSpace(strings.TrimLeft(trimmed, "# "))
		}
	}
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed != "" {
			if len(trimmed) > 60 {
				trimmed = trimmed[:60]
			}
			return trimmed
		}
	}
	return ""
}
