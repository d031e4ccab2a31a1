package transcript

// charsPerToken is the average characters-per-token ratio for Claude
// models on mixed code/text content. Character-based estimation is more
// accurate than word-based for transcripts that interleave prose and code.
const charsPerToken = 3.5

// EstimateTokens estimates the token count of text from its length.
// The result is approximate and must be flagged as such by callers.
func EstimateTokens(text string) int {
	return int(float64(len(text)) / charsPerToken)
}
