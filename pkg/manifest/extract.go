package manifest

import (
	"html"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jacquesdev/jacques/pkg/config"
	"github.com/jacquesdev/jacques/pkg/discovery"
	"github.com/jacquesdev/jacques/pkg/plans"
	"github.com/jacquesdev/jacques/pkg/transcript"
)

var htmlTagRegex = regexp.MustCompile(`<[^>]*>`)

// boilerplatePrefixes are stripped from the start of a user message before
// it is used as a title
var boilerplatePrefixes = []string{
	"please ",
	"can you ",
	"could you ",
	"would you ",
	"i want you to ",
	"i need you to ",
	"hey ",
	"hi ",
	"ok ",
	"okay ",
}

// fileWriteTools are the tool names whose calls count as file modifications
var fileWriteTools = map[string]string{
	"Write":        "file_path",
	"Edit":         "file_path",
	"MultiEdit":    "file_path",
	"NotebookEdit": "notebook_path",
}

// Extract derives a bounded, searchable summary from a parsed entry
// sequence. It never fails on well-formed-but-sparse input; absent fields
// are omitted rather than padded with empty strings that would pollute
// the index.
func Extract(entries []transcript.Entry, projectPath, sourcePath string, planRefs []plans.Reference) *Manifest {
	stats := transcript.Aggregate(entries)

	m := &Manifest{
		ProjectID:       discovery.EncodeProjectPath(projectPath),
		ProjectSlug:     discovery.ProjectSlug(projectPath),
		ProjectPath:     projectPath,
		StartedAt:       stats.StartedAt,
		EndedAt:         stats.EndedAt,
		DurationMinutes: stats.DurationMinutes,
		MessageCount:    stats.MessageCount,
		ToolCallCount:   stats.ToolCallCount,
		SourcePath:      sourcePath,
	}

	var questions, snippets, messageTexts []string
	filesSeen := make(map[string]bool)
	toolsSeen := make(map[string]bool)
	agentsSeen := make(map[string]bool)
	var subagents SubagentSummary

	for i := range entries {
		e := &entries[i]

		if m.ID == "" && e.SessionID != "" {
			m.ID = e.SessionID
		}

		switch e.Kind {
		case transcript.KindUserMessage:
			if text := cleanMessageText(e.Text); text != "" {
				messageTexts = append(messageTexts, text)
				if len(questions) < config.MaxUserQuestions {
					questions = append(questions, truncate(text, config.MaxQuestionLength))
				}
			}
		case transcript.KindAssistantMessage:
			if text := cleanMessageText(e.Text); text != "" {
				messageTexts = append(messageTexts, text)
				if len(snippets) < config.MaxContextSnippets {
					// The first line must be taken before sanitizing:
					// sanitizeTitle collapses newlines away
					line := sanitizeTitle(firstLine(strings.TrimSpace(e.Text)))
					snippets = append(snippets, truncate(line, config.MaxSnippetLength))
				}
			}
		case transcript.KindToolCall:
			if e.ToolName != "" {
				toolsSeen[e.ToolName] = true
			}
			if pathKey, ok := fileWriteTools[e.ToolName]; ok {
				if path, ok := e.ToolInput[pathKey].(string); ok && path != "" {
					filesSeen[path] = true
				}
			}
			if e.ToolName == "Task" {
				subagents.Count++
			}
		case transcript.KindToolResult:
			if e.AgentID != "" && !agentsSeen[e.AgentID] {
				agentsSeen[e.AgentID] = true
				subagents.AgentIDs = append(subagents.AgentIDs, e.AgentID)
			}
			subagents.TotalTokens += e.AgentTokens
		case transcript.KindWebSearch:
			toolsSeen["WebSearch"] = true
		case transcript.KindSkip, transcript.KindAgentProgress, transcript.KindBashProgress,
			transcript.KindMCPProgress, transcript.KindHookProgress,
			transcript.KindSystemEvent, transcript.KindSummary:
		}
	}

	m.UserQuestions = questions
	m.ContextSnippets = snippets
	m.FilesModified = boundedSortedKeys(filesSeen, config.MaxFilesModified)
	m.ToolsUsed = boundedSortedKeys(toolsSeen, 0)
	m.Technologies = DetectTechnologies(messageTexts, m.FilesModified)
	if subagents.Count > 0 || len(subagents.AgentIDs) > 0 {
		m.Subagents = &subagents
	}

	for _, ref := range planRefs {
		m.PlanRefs = append(m.PlanRefs, PlanRef{
			Title:  ref.Title,
			Source: string(ref.Source),
		})
	}

	m.Title = resolveTitle(entries, planRefs, stats)

	return m
}

// resolveTitle picks the session title, first match wins:
//
//  1. an explicit session-summary entry
//  2. the title of the detected plan, when exactly one dominant plan exists
//  3. the first non-trivial user message, boilerplate stripped
//  4. a synthesized "Session <date>" fallback
//
// Upstream summaries are high quality but not always present; the chain
// guarantees the title is never empty.
func resolveTitle(entries []transcript.Entry, planRefs []plans.Reference, stats transcript.Statistics) string {
	for i := range entries {
		if entries[i].Kind == transcript.KindSummary {
			if title := sanitizeTitle(entries[i].Text); title != "" {
				return truncate(title, config.MaxTitleLength)
			}
		}
	}

	if title := dominantPlanTitle(planRefs); title != "" {
		return truncate(title, config.MaxTitleLength)
	}

	for i := range entries {
		if entries[i].Kind != transcript.KindUserMessage {
			continue
		}
		text := cleanMessageText(entries[i].Text)
		if text == "" {
			continue
		}
		return truncate(stripBoilerplate(text), config.MaxTitleLength)
	}

	date := stats.StartedAt
	if date.IsZero() {
		return "Session"
	}
	return "Session " + date.Format("2006-01-02")
}

// dominantPlanTitle returns the plan title when all detected plans share
// one title
func dominantPlanTitle(refs []plans.Reference) string {
	titles := make(map[string]bool)
	var last string
	for _, ref := range refs {
		if ref.Title == "" {
			continue
		}
		titles[plans.NormalizeTitle(ref.Title)] = true
		last = ref.Title
	}
	if len(titles) == 1 {
		return last
	}
	return ""
}

// cleanMessageText sanitizes a message and filters out non-conversational
// content: command output wrappers, slash commands, interruption markers
// and caveat banners.
func cleanMessageText(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return ""
	}

	lower := strings.ToLower(trimmed)
	switch {
	case strings.HasPrefix(trimmed, "<"):
		return ""
	case strings.HasPrefix(trimmed, "/"):
		return ""
	case strings.HasPrefix(trimmed, "[Request interrupted"):
		return ""
	case strings.HasPrefix(lower, "caveat:"):
		return ""
	}

	sanitized := sanitizeTitle(trimmed)
	if len(sanitized) < 10 {
		return ""
	}
	return sanitized
}

// sanitizeTitle removes HTML tags, decodes entities and collapses
// whitespace
func sanitizeTitle(input string) string {
	cleaned := htmlTagRegex.ReplaceAllString(input, "")
	decoded := html.UnescapeString(cleaned)
	return strings.TrimSpace(strings.Join(strings.Fields(decoded), " "))
}

// stripBoilerplate removes leading filler so titles start with substance
func stripBoilerplate(text string) string {
	result := text
	for changed := true; changed; {
		changed = false
		lower := strings.ToLower(result)
		for _, prefix := range boilerplatePrefixes {
			if strings.HasPrefix(lower, prefix) {
				result = strings.TrimSpace(result[len(prefix):])
				changed = true
				break
			}
		}
	}
	if result == "" {
		return text
	}
	return result
}

// truncate cuts s to at most maxLen bytes without splitting a rune, so
// truncated fields stay valid UTF-8
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return strings.TrimSpace(s[:cut])
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}

// boundedSortedKeys returns map keys sorted, capped at max (0 = no cap)
func boundedSortedKeys(set map[string]bool, max int) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if max > 0 && len(keys) > max {
		keys = keys[:max]
	}
	return keys
}
