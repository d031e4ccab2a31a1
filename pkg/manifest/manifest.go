package manifest

import "time"

// Manifest is the lightweight searchable summary of one archived session.
// Every list field has a hard cap so the manifest stays small (1-2 KB)
// regardless of source transcript size. Immutable once archived;
// re-archiving supersedes the whole document.
type Manifest struct {
	ID          string `json:"id"`
	ProjectID   string `json:"project_id"`
	ProjectSlug string `json:"project_slug"`
	ProjectPath string `json:"project_path"`
	Title       string `json:"title"`

	StartedAt       time.Time `json:"started_at"`
	EndedAt         time.Time `json:"ended_at"`
	DurationMinutes int       `json:"duration_minutes"`

	UserQuestions   []string  `json:"user_questions,omitempty"`
	FilesModified   []string  `json:"files_modified,omitempty"`
	ToolsUsed       []string  `json:"tools_used,omitempty"`
	Technologies    []string  `json:"technologies,omitempty"`
	PlanRefs        []PlanRef `json:"plan_refs,omitempty"`
	ContextSnippets []string  `json:"context_snippets,omitempty"`

	Subagents *SubagentSummary `json:"subagents,omitempty"`

	MessageCount  int `json:"message_count"`
	ToolCallCount int `json:"tool_call_count"`

	AutoArchived bool   `json:"auto_archived,omitempty"`
	UserLabel    string `json:"user_label,omitempty"`
	SourcePath   string `json:"source_path,omitempty"`
}

// PlanRef records one detected plan occurrence inside a session. Source
// distinguishes how it was found; Filename and PlanID point at the
// deduplicated plan it resolved to and are filled at archive time.
type PlanRef struct {
	Title    string `json:"title"`
	Source   string `json:"source"` // "embedded" | "write"
	PlanID   string `json:"plan_id,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// SubagentSummary aggregates Task-dispatched subagent activity
type SubagentSummary struct {
	Count       int      `json:"count"`
	TotalTokens int64    `json:"total_tokens"`
	AgentIDs    []string `json:"agent_ids,omitempty"`
}
