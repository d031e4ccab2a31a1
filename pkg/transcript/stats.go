package transcript

import (
	"time"

	"github.com/shopspring/decimal"
)

// Statistics holds aggregate counters for one parsed transcript.
type Statistics struct {
	MessageCount          int `json:"message_count"`
	UserMessageCount      int `json:"user_message_count"`
	AssistantMessageCount int `json:"assistant_message_count"`
	ToolCallCount         int `json:"tool_call_count"`
	ToolResultCount       int `json:"tool_result_count"`
	AgentProgressCount    int `json:"agent_progress_count,omitempty"`
	WebSearchCount        int `json:"web_search_count,omitempty"`
	SkippedCount          int `json:"skipped_count,omitempty"`

	InputTokens         int64 `json:"input_tokens"`
	OutputTokens        int64 `json:"output_tokens"`
	CacheCreationTokens int64 `json:"cache_creation_tokens"`
	CacheReadTokens     int64 `json:"cache_read_tokens"`

	// LastInputTokens is the context size of the final assistant turn
	// (input + cache read + cache creation), a proxy for context usage
	LastInputTokens int64 `json:"last_input_tokens,omitempty"`

	// OutputEstimated is set when any output-token count was estimated
	// from text length rather than reported by the platform
	OutputEstimated bool `json:"output_estimated,omitempty"`

	CostUSD decimal.Decimal `json:"cost_usd"`

	StartedAt       time.Time `json:"started_at"`
	EndedAt         time.Time `json:"ended_at"`
	DurationMinutes int       `json:"duration_minutes"`

	// TurnCount is the number of user messages that started a turn
	TurnCount int `json:"turn_count"`
}

// Aggregate walks the parsed entries once and computes totals.
// Pure fold: no I/O, idempotent.
func Aggregate(entries []Entry) Statistics {
	var stats Statistics

	for i := range entries {
		e := &entries[i]

		if !e.Timestamp.IsZero() {
			if stats.StartedAt.IsZero() || e.Timestamp.Before(stats.StartedAt) {
				stats.StartedAt = e.Timestamp
			}
			if e.Timestamp.After(stats.EndedAt) {
				stats.EndedAt = e.Timestamp
			}
		}

		switch e.Kind {
		case KindUserMessage:
			stats.UserMessageCount++
			stats.MessageCount++
			stats.TurnCount++
		case KindAssistantMessage:
			stats.AssistantMessageCount++
			stats.MessageCount++
			if e.Usage != nil {
				stats.InputTokens += e.Usage.InputTokens
				stats.OutputTokens += e.Usage.OutputTokens
				stats.CacheCreationTokens += e.Usage.CacheCreationInputTokens
				stats.CacheReadTokens += e.Usage.CacheReadInputTokens
				stats.LastInputTokens = e.Usage.InputTokens +
					e.Usage.CacheCreationInputTokens + e.Usage.CacheReadInputTokens
				stats.CostUSD = stats.CostUSD.Add(CostFor(e.Model, e.Usage))
			}
			if e.OutputEstimated {
				stats.OutputEstimated = true
			}
		case KindToolCall:
			stats.ToolCallCount++
		case KindToolResult:
			stats.ToolResultCount++
		case KindAgentProgress, KindBashProgress, KindMCPProgress, KindHookProgress:
			stats.AgentProgressCount++
		case KindWebSearch:
			stats.WebSearchCount++
		case KindSkip:
			stats.SkippedCount++
		case KindSystemEvent, KindSummary:
		}
	}

	if !stats.StartedAt.IsZero() && !stats.EndedAt.IsZero() {
		stats.DurationMinutes = int(stats.EndedAt.Sub(stats.StartedAt).Minutes())
	}

	return stats
}
