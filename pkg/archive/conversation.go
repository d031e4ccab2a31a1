package archive

import (
	"time"

	"github.com/jacquesdev/jacques/pkg/transcript"
)

// SavedConversation is the full per-session archive content: session
// metadata, aggregated statistics and the display-ready message sequence.
// Written once at archive time and never partially updated; re-archiving
// replaces the whole file.
type SavedConversation struct {
	SessionID   string    `json:"session_id"`
	ProjectID   string    `json:"project_id"`
	ProjectSlug string    `json:"project_slug"`
	ProjectPath string    `json:"project_path"`
	Title       string    `json:"title"`
	ArchivedAt  time.Time `json:"archived_at"`

	Stats    transcript.Statistics `json:"stats"`
	Messages []Message             `json:"messages"`
}

// Message is one display-ready conversation event derived from a parsed
// entry. Kind uses the entry kind's string form so the file is readable
// by external tools.
type Message struct {
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp,omitempty"`

	Text     string `json:"text,omitempty"`
	Thinking string `json:"thinking,omitempty"`

	ToolName  string                 `json:"tool_name,omitempty"`
	ToolInput map[string]interface{} `json:"tool_input,omitempty"`
	IsError   bool                   `json:"is_error,omitempty"`

	AgentType   string `json:"agent_type,omitempty"`
	Description string `json:"description,omitempty"`

	Query   string   `json:"query,omitempty"`
	Results []string `json:"results,omitempty"`
}

// buildMessages projects parsed entries into display-ready messages,
// dropping skip entries and raw tool results (their content is folded
// into richer entries during parsing).
func buildMessages(entries []transcript.Entry) []Message {
	var messages []Message

	for i := range entries {
		e := &entries[i]
		msg := Message{
			Kind:      e.Kind.String(),
			Timestamp: e.Timestamp,
		}

		switch e.Kind {
		case transcript.KindUserMessage:
			msg.Text = e.Text
		case transcript.KindAssistantMessage:
			msg.Text = e.Text
			msg.Thinking = e.Thinking
		case transcript.KindToolCall:
			msg.ToolName = e.ToolName
			msg.ToolInput = e.ToolInput
		case transcript.KindToolResult:
			msg.Text = e.Text
			msg.IsError = e.IsError
		case transcript.KindAgentProgress, transcript.KindBashProgress,
			transcript.KindMCPProgress, transcript.KindHookProgress:
			msg.Text = e.Text
			msg.AgentType = e.AgentType
			msg.Description = e.Description
		case transcript.KindWebSearch:
			msg.Query = e.Query
			msg.Results = e.Results
		case transcript.KindSystemEvent, transcript.KindSummary:
			msg.Text = e.Text
			msg.Description = e.Description
		case transcript.KindSkip:
			continue
		}

		messages = append(messages, msg)
	}

	return messages
}
