package transcript

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func ts(minute int) time.Time {
	return time.Date(2025, 6, 1, 10, minute, 0, 0, time.UTC)
}

func TestAggregateCounts(t *testing.T) {
	entries := []Entry{
		{Kind: KindUserMessage, Timestamp: ts(0)},
		{Kind: KindAssistantMessage, Timestamp: ts(1)},
		{Kind: KindToolCall, Timestamp: ts(1)},
		{Kind: KindToolResult, Timestamp: ts(2)},
		{Kind: KindUserMessage, Timestamp: ts(5)},
		{Kind: KindAssistantMessage, Timestamp: ts(12)},
		{Kind: KindAgentProgress},
		{Kind: KindWebSearch},
		{Kind: KindSkip},
	}

	stats := Aggregate(entries)

	if stats.MessageCount != 4 {
		t.Errorf("MessageCount = %d, want 4", stats.MessageCount)
	}
	if stats.UserMessageCount != 2 || stats.AssistantMessageCount != 2 {
		t.Errorf("message split = %d/%d, want 2/2",
			stats.UserMessageCount, stats.AssistantMessageCount)
	}
	if stats.TurnCount != 2 {
		t.Errorf("TurnCount = %d, want 2", stats.TurnCount)
	}
	if stats.ToolCallCount != 1 || stats.ToolResultCount != 1 {
		t.Errorf("tool counts = %d/%d, want 1/1", stats.ToolCallCount, stats.ToolResultCount)
	}
	if stats.AgentProgressCount != 1 || stats.WebSearchCount != 1 || stats.SkippedCount != 1 {
		t.Errorf("progress/search/skip = %d/%d/%d, want 1/1/1",
			stats.AgentProgressCount, stats.WebSearchCount, stats.SkippedCount)
	}
	if !stats.StartedAt.Equal(ts(0)) || !stats.EndedAt.Equal(ts(12)) {
		t.Errorf("time range = %v..%v", stats.StartedAt, stats.EndedAt)
	}
	if stats.DurationMinutes != 12 {
		t.Errorf("DurationMinutes = %d, want 12", stats.DurationMinutes)
	}
}

func TestAggregateTokensAndCost(t *testing.T) {
	entries := []Entry{
		{Kind: KindAssistantMessage, Model: "claude-sonnet-4-5-20250929", Usage: &TokenUsage{
			InputTokens: 100, OutputTokens: 200, CacheCreationInputTokens: 50, CacheReadInputTokens: 1000,
		}},
		{Kind: KindAssistantMessage, Model: "claude-sonnet-4-5-20250929", Usage: &TokenUsage{
			InputTokens: 10, OutputTokens: 20, CacheReadInputTokens: 2000,
		}},
	}

	stats := Aggregate(entries)

	if stats.InputTokens != 110 || stats.OutputTokens != 220 {
		t.Errorf("token totals = %d/%d, want 110/220", stats.InputTokens, stats.OutputTokens)
	}
	if stats.CacheCreationTokens != 50 || stats.CacheReadTokens != 3000 {
		t.Errorf("cache totals = %d/%d, want 50/3000", stats.CacheCreationTokens, stats.CacheReadTokens)
	}
	// Context proxy is the final turn's full input
	if stats.LastInputTokens != 10+2000 {
		t.Errorf("LastInputTokens = %d, want 2010", stats.LastInputTokens)
	}
	if !stats.CostUSD.GreaterThan(decimal.Zero) {
		t.Errorf("CostUSD = %s, want > 0", stats.CostUSD)
	}
}

func TestAggregateOutputEstimatedPropagates(t *testing.T) {
	entries := []Entry{
		{Kind: KindAssistantMessage, Usage: &TokenUsage{OutputTokens: 50}},
		{Kind: KindAssistantMessage, Usage: &TokenUsage{OutputTokens: 120}, OutputEstimated: true},
	}
	stats := Aggregate(entries)
	if !stats.OutputEstimated {
		t.Error("any estimated entry must flag the aggregate")
	}
}

func TestAggregateEmpty(t *testing.T) {
	stats := Aggregate(nil)
	if stats.MessageCount != 0 || stats.DurationMinutes != 0 {
		t.Errorf("empty aggregate not zero: %+v", stats)
	}
	if !stats.StartedAt.IsZero() {
		t.Error("StartedAt must stay zero with no timestamps")
	}
}

func TestPricingFamilyResolution(t *testing.T) {
	tests := []struct {
		model      string
		wantOutput string
	}{
		{"claude-opus-4-5-20251101", "25"},
		{"claude-opus-4-1-20250805", "75"},
		{"claude-sonnet-4-5-20250929", "15"},
		{"claude-haiku-4-5-20251001", "5"},
		{"some-unknown-model", "15"},
	}
	for _, tt := range tests {
		p := PricingForModel(tt.model)
		if p.Output.String() != tt.wantOutput {
			t.Errorf("PricingForModel(%s).Output = %s, want %s", tt.model, p.Output, tt.wantOutput)
		}
	}
}

func TestCostForNilUsage(t *testing.T) {
	if !CostFor("claude-sonnet-4-5", nil).IsZero() {
		t.Error("nil usage must cost zero")
	}
}
