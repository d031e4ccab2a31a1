package plans

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// Deduplication tiers, in order of strictness:
//
//  1. exact SHA-256 of whitespace-normalized content (within a batch and
//     against all previously archived plans)
//  2. fuzzy match, attempted only among plans with the same normalized
//     title AND a content length in the same bucket, using Jaccard
//     similarity over words longer than 3 characters
//
// Exact restatement is common when a plan is echoed back verbatim; the
// fuzzy tier catches lightly-reworded restatements without all-pairs
// comparison against unrelated plans.

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeContent collapses all whitespace runs to single spaces so that
// reflowed copies of the same plan fingerprint identically
func NormalizeContent(content string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(content, " "))
}

// Fingerprint returns the hex SHA-256 of the normalized content
func Fingerprint(content string) string {
	sum := sha256.Sum256([]byte(NormalizeContent(content)))
	return hex.EncodeToString(sum[:])
}

// NormalizeTitle lowercases and collapses a title for candidate grouping
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.Join(strings.Fields(title), " "))
}

// LengthBucket groups content lengths into coarse buckets so fuzzy
// matching only compares plans of comparable size
func LengthBucket(length int) int {
	switch {
	case length <= 500:
		return 0
	case length <= 2000:
		return 1
	default:
		return 2
	}
}

// wordSet returns the set of words longer than 3 characters
func wordSet(normalized string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(normalized)) {
		if len(w) > 3 {
			set[w] = struct{}{}
		}
	}
	return set
}

// Jaccard computes set similarity over words longer than 3 characters.
// Two empty word sets are considered identical.
func Jaccard(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 1.0
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}

	intersection := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}
