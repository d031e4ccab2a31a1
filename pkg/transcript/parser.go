package transcript

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jacquesdev/jacques/pkg/config"
)

// rawLine mirrors the wire shape of one JSONL transcript line.
// Fields are parsed on-demand based on line type.
type rawLine struct {
	Type            string          `json:"type"`
	UUID            string          `json:"uuid,omitempty"`
	ParentUUID      *string         `json:"parentUuid"`
	SessionID       string          `json:"sessionId,omitempty"`
	Timestamp       string          `json:"timestamp,omitempty"`
	Subtype         string          `json:"subtype,omitempty"`
	Summary         string          `json:"summary,omitempty"`
	LeafUUID        string          `json:"leafUuid,omitempty"`
	Content         json.RawMessage `json:"content,omitempty"`
	Message         *rawMessage     `json:"message,omitempty"`
	ToolUseResult   json.RawMessage `json:"toolUseResult,omitempty"`
	ParentToolUseID string          `json:"parent_tool_use_id,omitempty"`
}

// rawMessage contains message details for user/assistant lines
type rawMessage struct {
	Role    string          `json:"role,omitempty"`
	Model   string          `json:"model,omitempty"`
	Usage   *TokenUsage     `json:"usage,omitempty"`
	Content json.RawMessage `json:"content,omitempty"` // string or []contentBlock
}

// contentBlock represents one block in a structured message content array
type contentBlock struct {
	Type      string                 `json:"type"`
	Text      string                 `json:"text,omitempty"`
	Thinking  string                 `json:"thinking,omitempty"`
	Name      string                 `json:"name,omitempty"`
	ID        string                 `json:"id,omitempty"`
	Input     map[string]interface{} `json:"input,omitempty"`
	ToolUseID string                 `json:"tool_use_id,omitempty"`
	IsError   bool                   `json:"is_error,omitempty"`
	Content   json.RawMessage        `json:"content,omitempty"`
}

// agentResult carries subagent metadata embedded in tool results
type agentResult struct {
	AgentID     string `json:"agentId,omitempty"`
	TotalTokens int64  `json:"totalTokens,omitempty"`
}

// invocation is the Pass-1 record of a tool call that later progress
// entries reference by id.
type invocation struct {
	name        string
	description string
	prompt      string
	agentType   string
	query       string
}

// Parse converts newline-delimited JSON transcript content into an ordered
// sequence of entries. Malformed lines become KindSkip entries; the only
// error returned is a failure to read the input itself.
//
// Parsing is multi-pass because some lines only become meaningful once
// their parent is known:
//
//  1. scan for tool invocations (Task dispatches, web searches) and build
//     a tool-use-id lookup
//  2. re-walk all lines, enriching progress entries from the Pass-1 lookup
//  3. attach web-search result payloads (which arrive in a separate later
//     line) back onto the matching earlier web_search entry
func Parse(r io.Reader) ([]Entry, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}

	invocations := collectInvocations(lines)
	entries := buildEntries(lines, invocations)
	attachSearchResults(entries)

	return entries, nil
}

// ParseFile parses a transcript file from disk
func ParseFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// readLines splits the input into raw lines, keeping empty-line positions out
func readLines(r io.Reader) ([][]byte, error) {
	scanner := bufio.NewScanner(r)
	// Transcript lines with thinking blocks and tool results can exceed 1MB
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, config.MaxJSONLLineSize)

	var lines [][]byte
	for scanner.Scan() {
		if len(strings.TrimSpace(scanner.Text())) == 0 {
			continue
		}
		line := make([]byte, len(scanner.Bytes()))
		copy(line, scanner.Bytes())
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning transcript: %w", err)
	}
	return lines, nil
}

// collectInvocations is Pass 1: build tool-use-id -> invocation context
func collectInvocations(lines [][]byte) map[string]invocation {
	invocations := make(map[string]invocation)

	for _, data := range lines {
		var line rawLine
		if err := json.Unmarshal(data, &line); err != nil {
			continue
		}
		if line.Type != "assistant" || line.Message == nil {
			continue
		}
		for _, block := range parseBlocks(line.Message.Content) {
			if block.Type != "tool_use" || block.ID == "" {
				continue
			}
			inv := invocation{name: block.Name}
			if desc, ok := block.Input["description"].(string); ok {
				inv.description = desc
			}
			switch block.Name {
			case "Task":
				if prompt, ok := block.Input["prompt"].(string); ok {
					inv.prompt = prompt
				}
				if at, ok := block.Input["subagent_type"].(string); ok {
					inv.agentType = at
				}
			case "WebSearch":
				if q, ok := block.Input["query"].(string); ok {
					inv.query = q
				}
			}
			invocations[block.ID] = inv
		}
	}

	return invocations
}

// buildEntries is Pass 2: convert every line into typed entries, enriching
// progress lines from the invocation lookup
func buildEntries(lines [][]byte, invocations map[string]invocation) []Entry {
	var entries []Entry

	for _, data := range lines {
		var line rawLine
		if err := json.Unmarshal(data, &line); err != nil {
			entries = append(entries, Entry{Kind: KindSkip})
			continue
		}

		base := Entry{
			ID:        line.UUID,
			SessionID: line.SessionID,
			Timestamp: parseTimestamp(line.Timestamp),
		}
		if line.ParentUUID != nil {
			base.ParentID = *line.ParentUUID
		}

		switch line.Type {
		case "user":
			entries = append(entries, parseUserLine(&line, base)...)
		case "assistant":
			entries = append(entries, parseAssistantLine(&line, base)...)
		case "summary":
			e := base
			e.Kind = KindSummary
			e.Text = line.Summary
			if e.ParentID == "" {
				e.ParentID = line.LeafUUID
			}
			entries = append(entries, e)
		case "system":
			e := base
			e.Kind = KindSystemEvent
			e.Text = rawContentText(line.Content)
			e.Description = line.Subtype
			entries = append(entries, e)
		case "progress":
			entries = append(entries, parseProgressLine(&line, base, invocations))
		default:
			entries = append(entries, Entry{Kind: KindSkip})
		}
	}

	return entries
}

// parseUserLine produces a user_message entry for plain text content, or
// tool_result entries when the content carries tool results
func parseUserLine(line *rawLine, base Entry) []Entry {
	if line.Message == nil {
		return []Entry{{Kind: KindSkip}}
	}

	// String content is an ordinary user message
	var text string
	if err := json.Unmarshal(line.Message.Content, &text); err == nil {
		e := base
		e.Kind = KindUserMessage
		e.Text = text
		return []Entry{e}
	}

	var entries []Entry
	var textParts []string
	for _, block := range parseBlocks(line.Message.Content) {
		switch block.Type {
		case "text":
			textParts = append(textParts, block.Text)
		case "tool_result":
			e := base
			e.Kind = KindToolResult
			e.ToolUseID = block.ToolUseID
			e.IsError = block.IsError
			e.Text = rawContentText(block.Content)
			if len(line.ToolUseResult) > 0 {
				var ar agentResult
				if err := json.Unmarshal(line.ToolUseResult, &ar); err == nil {
					e.AgentID = ar.AgentID
					e.AgentTokens = ar.TotalTokens
				}
			}
			entries = append(entries, e)
		}
	}

	if len(textParts) > 0 {
		e := base
		e.Kind = KindUserMessage
		e.Text = strings.Join(textParts, "\n")
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		entries = append(entries, Entry{Kind: KindSkip})
	}
	return entries
}

// parseAssistantLine produces one assistant_message entry plus a tool_call
// entry per tool_use block
func parseAssistantLine(line *rawLine, base Entry) []Entry {
	if line.Message == nil {
		return []Entry{{Kind: KindSkip}}
	}

	var entries []Entry
	var textParts, thinkingParts []string

	blocks := parseBlocks(line.Message.Content)
	for _, block := range blocks {
		switch block.Type {
		case "text":
			textParts = append(textParts, block.Text)
		case "thinking":
			thinkingParts = append(thinkingParts, block.Thinking)
		case "tool_use":
			e := base
			e.Kind = KindToolCall
			e.ToolUseID = block.ID
			e.ToolName = block.Name
			e.ToolInput = block.Input
			entries = append(entries, e)
		}
	}

	msg := base
	msg.Kind = KindAssistantMessage
	msg.Text = strings.Join(textParts, "\n")
	msg.Thinking = strings.Join(thinkingParts, "\n")
	msg.Model = line.Message.Model
	if line.Message.Usage != nil {
		usage := *line.Message.Usage
		// Known upstream artifact: some assistant lines report 0 or 1
		// output tokens for sizable messages. Estimate from text length
		// and flag the result as approximate.
		if usage.OutputTokens <= 1 && len(msg.Text)+len(msg.Thinking) > 200 {
			usage.OutputTokens = int64(EstimateTokens(msg.Text + msg.Thinking))
			msg.OutputEstimated = true
		}
		msg.Usage = &usage
	}

	// The message entry comes first so tool calls follow their message
	return append([]Entry{msg}, entries...)
}

// parseProgressLine enriches a streamed progress line from its originating
// tool invocation, producing a coherent entry that carries the parent's
// type and description instead of a bare id
func parseProgressLine(line *rawLine, base Entry, invocations map[string]invocation) Entry {
	e := base
	e.ToolUseID = line.ParentToolUseID
	e.Text = rawContentText(line.Content)

	inv, ok := invocations[line.ParentToolUseID]
	if !ok {
		if line.Subtype == "hook" {
			e.Kind = KindHookProgress
			return e
		}
		return Entry{Kind: KindSkip}
	}

	e.Description = inv.description
	switch {
	case inv.name == "Task":
		e.Kind = KindAgentProgress
		e.AgentType = inv.agentType
		e.AgentPrompt = inv.prompt
	case inv.name == "WebSearch":
		e.Kind = KindWebSearch
		e.Query = inv.query
	case inv.name == "Bash":
		e.Kind = KindBashProgress
	case strings.HasPrefix(inv.name, "mcp__"):
		e.Kind = KindMCPProgress
	case line.Subtype == "hook":
		e.Kind = KindHookProgress
	default:
		e.Kind = KindAgentProgress
	}
	return e
}

// attachSearchResults is Pass 3: web-search results arrive in a separate,
// later tool_result line than the query. Match on tool-use id by position
// and fold the results into the earlier web_search entry.
func attachSearchResults(entries []Entry) {
	searchByToolUse := make(map[string]int)

	for i := range entries {
		e := &entries[i]
		switch e.Kind {
		case KindToolCall:
			if e.ToolName == "WebSearch" {
				// The call itself becomes the web_search entry
				e.Kind = KindWebSearch
				if q, ok := e.ToolInput["query"].(string); ok {
					e.Query = q
				}
				searchByToolUse[e.ToolUseID] = i
			}
		case KindWebSearch:
			if e.ToolUseID != "" {
				searchByToolUse[e.ToolUseID] = i
			}
		case KindToolResult:
			idx, ok := searchByToolUse[e.ToolUseID]
			if !ok {
				continue
			}
			target := &entries[idx]
			for _, result := range strings.Split(e.Text, "\n") {
				result = strings.TrimSpace(result)
				if result == "" {
					continue
				}
				target.Results = append(target.Results, result)
				if len(target.Results) >= 10 {
					break
				}
			}
			// The result line is folded into the search entry
			entries[i] = Entry{Kind: KindSkip}
		case KindSkip, KindUserMessage, KindAssistantMessage, KindAgentProgress,
			KindBashProgress, KindMCPProgress, KindHookProgress, KindSystemEvent, KindSummary:
		}
	}
}

// parseBlocks decodes a structured content array; a string or malformed
// content yields no blocks
func parseBlocks(content json.RawMessage) []contentBlock {
	if len(content) == 0 {
		return nil
	}
	var blocks []contentBlock
	if err := json.Unmarshal(content, &blocks); err != nil {
		return nil
	}
	return blocks
}

// rawContentText extracts human-readable text from a content payload that
// may be a plain string or an array of text blocks
func rawContentText(content json.RawMessage) string {
	if len(content) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(content, &text); err == nil {
		return text
	}
	var parts []string
	for _, block := range parseBlocks(content) {
		if block.Type == "text" && block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func parseTimestamp(ts string) time.Time {
	if ts == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return time.Time{}
	}
	return t
}
