package manifest

import (
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/jacquesdev/jacques/pkg/config"
	"github.com/jacquesdev/jacques/pkg/plans"
	"github.com/jacquesdev/jacques/pkg/transcript"
)

func entryAt(kind transcript.Kind, minute int) transcript.Entry {
	return transcript.Entry{
		Kind:      kind,
		SessionID: "11111111-2222-3333-4444-555555555555",
		Timestamp: time.Date(2025, 6, 1, 10, minute, 0, 0, time.UTC),
	}
}

func userEntry(minute int, text string) transcript.Entry {
	e := entryAt(transcript.KindUserMessage, minute)
	e.Text = text
	return e
}

func assistantEntry(minute int, text string) transcript.Entry {
	e := entryAt(transcript.KindAssistantMessage, minute)
	e.Text = text
	return e
}

func writeEntry(minute int, path string) transcript.Entry {
	e := entryAt(transcript.KindToolCall, minute)
	e.ToolName = "Write"
	e.ToolInput = map[string]interface{}{"file_path": path, "content": "x"}
	return e
}

func TestExtractBasics(t *testing.T) {
	entries := []transcript.Entry{
		userEntry(0, "Add retry logic to the uploader"),
		assistantEntry(1, "Looking at the uploader now.\nThe retry loop goes here."),
		writeEntry(2, "/repo/uploader.go"),
		userEntry(30, "Also add a backoff cap please"),
	}

	m := Extract(entries, "/Users/dev/myapp", "/tmp/t.jsonl", nil)

	if m.ID != "11111111-2222-3333-4444-555555555555" {
		t.Errorf("ID = %q", m.ID)
	}
	if m.ProjectID != "-Users-dev-myapp" {
		t.Errorf("ProjectID = %q", m.ProjectID)
	}
	if m.ProjectSlug != "myapp" {
		t.Errorf("ProjectSlug = %q", m.ProjectSlug)
	}
	if m.Title != "Add retry logic to the uploader" {
		t.Errorf("Title = %q", m.Title)
	}
	if len(m.UserQuestions) != 2 {
		t.Errorf("UserQuestions = %v", m.UserQuestions)
	}
	if len(m.FilesModified) != 1 || m.FilesModified[0] != "/repo/uploader.go" {
		t.Errorf("FilesModified = %v", m.FilesModified)
	}
	if len(m.ContextSnippets) != 1 || m.ContextSnippets[0] != "Looking at the uploader now." {
		t.Errorf("ContextSnippets = %v", m.ContextSnippets)
	}
	if m.DurationMinutes != 30 {
		t.Errorf("DurationMinutes = %d", m.DurationMinutes)
	}
	if len(m.ToolsUsed) != 1 || m.ToolsUsed[0] != "Write" {
		t.Errorf("ToolsUsed = %v", m.ToolsUsed)
	}
}

func TestExtractBoundedFields(t *testing.T) {
	var entries []transcript.Entry
	for i := 0; i < 40; i++ {
		entries = append(entries, userEntry(i, fmt.Sprintf("Question number %d about something %s", i, strings.Repeat("x", 300))))
		entries = append(entries, writeEntry(i, fmt.Sprintf("/repo/file_%02d.txt", i)))
	}
	for i := 0; i < 10; i++ {
		entries = append(entries, assistantEntry(40+i, strings.Repeat("snippet text ", 30)))
	}

	m := Extract(entries, "/p", "", nil)

	if len(m.UserQuestions) != config.MaxUserQuestions {
		t.Errorf("questions = %d, want %d", len(m.UserQuestions), config.MaxUserQuestions)
	}
	for _, q := range m.UserQuestions {
		if len(q) > config.MaxQuestionLength {
			t.Errorf("question over cap: %d chars", len(q))
		}
	}
	if len(m.ContextSnippets) != config.MaxContextSnippets {
		t.Errorf("snippets = %d, want %d", len(m.ContextSnippets), config.MaxContextSnippets)
	}
	for _, s := range m.ContextSnippets {
		if len(s) > config.MaxSnippetLength {
			t.Errorf("snippet over cap: %d chars", len(s))
		}
	}
	if len(m.FilesModified) != 40 {
		t.Errorf("files = %d, want 40 (cap is %d)", len(m.FilesModified), config.MaxFilesModified)
	}
	if len(m.Title) > config.MaxTitleLength {
		t.Errorf("title over cap: %d chars", len(m.Title))
	}
}

func TestExtractTitleChain(t *testing.T) {
	summary := entryAt(transcript.KindSummary, 0)
	summary.Text = "Uploader retry work"

	tests := []struct {
		name    string
		entries []transcript.Entry
		refs    []plans.Reference
		want    string
	}{
		{
			"summary wins",
			[]transcript.Entry{summary, userEntry(1, "Fix the thing already")},
			[]plans.Reference{{Title: "Some Plan"}},
			"Uploader retry work",
		},
		{
			"dominant plan title",
			[]transcript.Entry{userEntry(1, "implement the following plan: etc")},
			[]plans.Reference{{Title: "Auth Redesign"}, {Title: "auth   redesign"}},
			"auth   redesign",
		},
		{
			"conflicting plan titles fall through",
			[]transcript.Entry{userEntry(1, "Fix the login timeout handling")},
			[]plans.Reference{{Title: "Plan A"}, {Title: "Plan B"}},
			"Fix the login timeout handling",
		},
		{
			"boilerplate stripped",
			[]transcript.Entry{userEntry(1, "Please can you fix the login timeout handling")},
			nil,
			"fix the login timeout handling",
		},
		{
			"date fallback",
			[]transcript.Entry{entryAt(transcript.KindToolResult, 5)},
			nil,
			"Session 2025-06-01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Extract(tt.entries, "/p", "", tt.refs)
			if m.Title != tt.want {
				t.Errorf("Title = %q, want %q", m.Title, tt.want)
			}
		})
	}
}

func TestExtractFiltersNonConversational(t *testing.T) {
	entries := []transcript.Entry{
		userEntry(0, "<command-output>noise</command-output>"),
		userEntry(1, "/compact"),
		userEntry(2, "[Request interrupted by user]"),
		userEntry(3, "Caveat: the messages below were generated"),
		userEntry(4, "short"),
		userEntry(5, "A real question about the code"),
	}

	m := Extract(entries, "/p", "", nil)
	if len(m.UserQuestions) != 1 || m.UserQuestions[0] != "A real question about the code" {
		t.Errorf("UserQuestions = %v", m.UserQuestions)
	}
	if m.Title != "A real question about the code" {
		t.Errorf("Title = %q", m.Title)
	}
}

func TestExtractSubagents(t *testing.T) {
	task := entryAt(transcript.KindToolCall, 0)
	task.ToolName = "Task"
	task.ToolInput = map[string]interface{}{"prompt": "explore"}

	result1 := entryAt(transcript.KindToolResult, 1)
	result1.AgentID = "ag-1"
	result1.AgentTokens = 1000
	result2 := entryAt(transcript.KindToolResult, 2)
	result2.AgentID = "ag-1" // duplicate id, tokens still accumulate
	result2.AgentTokens = 500

	m := Extract([]transcript.Entry{task, result1, result2}, "/p", "", nil)

	if m.Subagents == nil {
		t.Fatal("expected subagent summary")
	}
	if m.Subagents.Count != 1 {
		t.Errorf("Count = %d, want 1", m.Subagents.Count)
	}
	if m.Subagents.TotalTokens != 1500 {
		t.Errorf("TotalTokens = %d, want 1500", m.Subagents.TotalTokens)
	}
	if len(m.Subagents.AgentIDs) != 1 || m.Subagents.AgentIDs[0] != "ag-1" {
		t.Errorf("AgentIDs = %v", m.Subagents.AgentIDs)
	}
}

func TestExtractNoSubagentsOmitted(t *testing.T) {
	m := Extract([]transcript.Entry{userEntry(0, "A question about nothing much")}, "/p", "", nil)
	if m.Subagents != nil {
		t.Errorf("Subagents = %+v, want nil", m.Subagents)
	}
}

func TestDetectTechnologies(t *testing.T) {
	texts := []string{
		"We should move the worker to Kubernetes and cache sessions in Redis.",
		"The postgres migration is done.",
	}
	files := []string{"/repo/cmd/server/main.go", "/repo/web/app.tsx"}

	got := DetectTechnologies(texts, files)
	want := []string{"Go", "Kubernetes", "PostgreSQL", "Redis", "TypeScript"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestDetectTechnologiesNoFalsePositives(t *testing.T) {
	got := DetectTechnologies([]string{"We are going to the swiftest regression"}, nil)
	for _, name := range got {
		if name == "Go" || name == "Swift" {
			t.Errorf("false positive: %v", got)
		}
	}
}

func TestSnippetIsFirstLineOnly(t *testing.T) {
	entries := []transcript.Entry{
		assistantEntry(0, "Here is the summary line.\nFollowed by a much longer body\nacross several lines."),
	}
	m := Extract(entries, "/p", "", nil)
	if len(m.ContextSnippets) != 1 || m.ContextSnippets[0] != "Here is the summary line." {
		t.Errorf("ContextSnippets = %v", m.ContextSnippets)
	}
}

func TestTruncateKeepsValidUTF8(t *testing.T) {
	// 'é' is two bytes and straddles the question cap boundary
	text := strings.Repeat("a", config.MaxQuestionLength-1) + "équipe désormais"

	got := truncate(text, config.MaxQuestionLength)
	if !utf8.ValidString(got) {
		t.Errorf("truncated string is not valid UTF-8: %q", got)
	}
	if len(got) > config.MaxQuestionLength {
		t.Errorf("len = %d, want <= %d", len(got), config.MaxQuestionLength)
	}

	m := Extract([]transcript.Entry{userEntry(0, text)}, "/p", "", nil)
	if len(m.UserQuestions) != 1 {
		t.Fatalf("UserQuestions = %v", m.UserQuestions)
	}
	if !utf8.ValidString(m.UserQuestions[0]) {
		t.Errorf("stored question is not valid UTF-8: %q", m.UserQuestions[0])
	}
	if !utf8.ValidString(m.Title) {
		t.Errorf("stored title is not valid UTF-8: %q", m.Title)
	}
}

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"<b>Fix&nbsp;bug</b>", "Fix bug"},
		{"  spaced    out  ", "spaced out"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := sanitizeTitle(tt.in); got != tt.want {
			t.Errorf("sanitizeTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
