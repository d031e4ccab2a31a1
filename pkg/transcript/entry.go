package transcript

import "time"

// Kind identifies the variant of a parsed transcript entry.
// The switch over Kind is exhaustive everywhere; adding a kind is a
// compile-time-visible change.
type Kind int

const (
	// KindSkip marks a line that could not be parsed or carries no content
	KindSkip Kind = iota
	KindUserMessage
	KindAssistantMessage
	KindToolCall
	KindToolResult
	KindAgentProgress
	KindBashProgress
	KindMCPProgress
	KindWebSearch
	KindHookProgress
	KindSystemEvent
	KindSummary
)

func (k Kind) String() string {
	switch k {
	case KindSkip:
		return "skip"
	case KindUserMessage:
		return "user_message"
	case KindAssistantMessage:
		return "assistant_message"
	case KindToolCall:
		return "tool_call"
	case KindToolResult:
		return "tool_result"
	case KindAgentProgress:
		return "agent_progress"
	case KindBashProgress:
		return "bash_progress"
	case KindMCPProgress:
		return "mcp_progress"
	case KindWebSearch:
		return "web_search"
	case KindHookProgress:
		return "hook_progress"
	case KindSystemEvent:
		return "system_event"
	case KindSummary:
		return "summary"
	default:
		return "unknown"
	}
}

// TokenUsage contains token counts from the API response
type TokenUsage struct {
	InputTokens              int64 `json:"input_tokens"`
	OutputTokens             int64 `json:"output_tokens"`
	CacheCreationInputTokens int64 `json:"cache_creation_input_tokens,omitempty"`
	CacheReadInputTokens     int64 `json:"cache_read_input_tokens,omitempty"`
}

// Entry is one normalized transcript event. Created once per line during
// parsing and immutable thereafter. Which payload fields are set depends
// on Kind.
type Entry struct {
	Kind      Kind
	ID        string
	ParentID  string // weak reference to the logical parent entry, may be empty
	SessionID string
	Timestamp time.Time

	// Text payloads (user/assistant/summary/system)
	Text     string
	Thinking string

	// Assistant metadata
	Model string
	Usage *TokenUsage
	// OutputEstimated is set when the platform reported a degenerate
	// output-token count and the value in Usage is estimated from text
	// length instead. Callers must treat the count as approximate.
	OutputEstimated bool

	// Tool call / result payloads
	ToolName  string
	ToolInput map[string]interface{}
	ToolUseID string
	IsError   bool

	// Agent progress payloads (enriched from the originating Task call)
	AgentID     string
	AgentType   string
	AgentPrompt string
	AgentTokens int64
	Description string

	// Web search payloads
	Query   string
	Results []string
}

// IsMessage reports whether the entry is a user or assistant message
func (e *Entry) IsMessage() bool {
	return e.Kind == KindUserMessage || e.Kind == KindAssistantMessage
}
