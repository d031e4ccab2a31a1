package index

import (
	"regexp"
	"strings"

	"github.com/jacquesdev/jacques/pkg/config"
)

var (
	nonWordRegex = regexp.MustCompile(`[^\p{L}\p{N}]+`)
	numericRegex = regexp.MustCompile(`^\d+$`)
)

// stopWords are common English words plus domain filler that carries no
// search signal in coding-session transcripts.
var stopWords = map[string]struct{}{}

func init() {
	words := []string{
		// Common English
		"a", "an", "and", "are", "as", "at", "be", "been", "but", "by",
		"can", "could", "did", "do", "does", "for", "from", "had", "has",
		"have", "he", "her", "here", "him", "his", "how", "i", "if", "in",
		"into", "is", "it", "its", "just", "like", "me", "more", "most",
		"my", "no", "not", "now", "of", "on", "one", "only", "or", "other",
		"our", "out", "over", "she", "should", "so", "some", "such", "than",
		"that", "the", "their", "them", "then", "there", "these", "they",
		"this", "those", "to", "up", "was", "we", "were", "what", "when",
		"where", "which", "while", "who", "why", "will", "with", "would",
		"you", "your", "about", "after", "again", "all", "also", "am",
		"any", "because", "before", "being", "between", "both", "each",
		"few", "get", "got", "ok", "okay", "yes", "very", "too", "own",
		"same", "through", "during", "once", "itself",
		// Domain filler
		"create", "make", "use", "using", "used", "add", "added", "new",
		"file", "files", "code", "please", "need", "want", "let", "lets",
		"help", "change", "update", "fix", "work", "working", "run",
		"running", "thing", "things", "way", "see", "look", "check",
	}
	for _, w := range words {
		stopWords[w] = struct{}{}
	}
}

// Tokenize lowercases text, splits on non-word boundaries and drops stop
// words, purely numeric tokens and tokens outside the 2-50 length range.
func Tokenize(text string) []string {
	var tokens []string
	for _, raw := range nonWordRegex.Split(strings.ToLower(text), -1) {
		if !keepToken(raw) {
			continue
		}
		tokens = append(tokens, raw)
	}
	return tokens
}

// TokenizePath splits a path on separators before the regular filtering,
// so a file path contributes its meaningful segments as keywords.
func TokenizePath(path string) []string {
	split := strings.FieldsFunc(strings.ToLower(path), func(r rune) bool {
		return r == '/' || r == '\\' || r == '-' || r == '_' || r == '.'
	})
	var tokens []string
	for _, segment := range split {
		for _, raw := range nonWordRegex.Split(segment, -1) {
			if !keepToken(raw) {
				continue
			}
			tokens = append(tokens, raw)
		}
	}
	return tokens
}

func keepToken(token string) bool {
	if len(token) < config.MinTokenLength || len(token) > config.MaxTokenLength {
		return false
	}
	if _, ok := stopWords[token]; ok {
		return false
	}
	if numericRegex.MatchString(token) {
		return false
	}
	return true
}
