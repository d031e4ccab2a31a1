package index

import (
	"sort"
	"time"

	"github.com/jacquesdev/jacques/pkg/manifest"
)

// Field weights reflect evidence strength: a title match is strong
// relevance evidence, a context-snippet match is weak.
const (
	WeightTitle    = 2.0
	WeightQuestion = 1.5
	WeightFile     = 1.0
	WeightTech     = 1.0
	WeightSnippet  = 0.5
)

// Posting is one keyword occurrence in one manifest
type Posting struct {
	ManifestID string  `json:"manifest_id"`
	Score      float64 `json:"score"`
	Field      string  `json:"field"`
}

// ProjectInfo aggregates per-project activity inside the index
type ProjectInfo struct {
	Path              string    `json:"path"`
	ConversationCount int       `json:"conversation_count"`
	LastActivity      time.Time `json:"last_activity"`
}

// Index is the on-disk inverted index over all archived manifests.
// Invariant: every manifest in storage has contributed exactly one set of
// postings; overwriting a manifest retracts its old postings first.
type Index struct {
	Keywords           map[string][]Posting   `json:"keywords"`
	Projects           map[string]ProjectInfo `json:"projects"`
	TotalConversations int                    `json:"total_conversations"`
	TotalKeywords      int                    `json:"total_keywords"`
}

// New returns an empty index
func New() *Index {
	return &Index{
		Keywords: make(map[string][]Posting),
		Projects: make(map[string]ProjectInfo),
	}
}

// weightedToken is used while collecting a manifest's keywords
type weightedToken struct {
	weight float64
	field  string
}

// Add indexes one manifest's fields into weighted postings. Within one
// manifest a token keeps only its highest-weighted occurrence; repetition
// across fields never inflates the score additively.
func (ix *Index) Add(m *manifest.Manifest) {
	best := make(map[string]weightedToken)

	collect := func(tokens []string, weight float64, field string) {
		for _, token := range tokens {
			if existing, ok := best[token]; ok && existing.weight >= weight {
				continue
			}
			best[token] = weightedToken{weight: weight, field: field}
		}
	}

	collect(Tokenize(m.Title), WeightTitle, "title")
	for _, q := range m.UserQuestions {
		collect(Tokenize(q), WeightQuestion, "question")
	}
	for _, f := range m.FilesModified {
		collect(TokenizePath(f), WeightFile, "file")
	}
	for _, t := range m.Technologies {
		collect(Tokenize(t), WeightTech, "technology")
	}
	for _, s := range m.ContextSnippets {
		collect(Tokenize(s), WeightSnippet, "snippet")
	}

	for token, wt := range best {
		ix.Keywords[token] = append(ix.Keywords[token], Posting{
			ManifestID: m.ID,
			Score:      wt.weight,
			Field:      wt.field,
		})
	}

	info := ix.Projects[m.ProjectID]
	info.Path = m.ProjectPath
	info.ConversationCount++
	if m.EndedAt.After(info.LastActivity) {
		info.LastActivity = m.EndedAt
	}
	ix.Projects[m.ProjectID] = info

	ix.TotalConversations++
	ix.TotalKeywords = len(ix.Keywords)
}

// Remove retracts all postings contributed by a manifest. Used before
// re-adding on re-archive so the posting invariant holds.
func (ix *Index) Remove(manifestID string) bool {
	removed := false
	for token, postings := range ix.Keywords {
		kept := postings[:0]
		for _, p := range postings {
			if p.ManifestID == manifestID {
				removed = true
				continue
			}
			kept = append(kept, p)
		}
		if len(kept) == 0 {
			delete(ix.Keywords, token)
		} else {
			ix.Keywords[token] = kept
		}
	}
	if removed && ix.TotalConversations > 0 {
		ix.TotalConversations--
	}
	ix.TotalKeywords = len(ix.Keywords)
	return removed
}

// Match is one query result before manifests are loaded
type Match struct {
	ManifestID string
	Score      float64
}

// Query tokenizes the query text and sums matching-token weights per
// manifest, sorted by score descending. Ties are broken by the caller
// using manifest recency. No matches is an empty slice, not an error.
func (ix *Index) Query(text string) []Match {
	scores := make(map[string]float64)
	for _, token := range Tokenize(text) {
		for _, posting := range ix.Keywords[token] {
			scores[posting.ManifestID] += posting.Score
		}
	}

	matches := make([]Match, 0, len(scores))
	for id, score := range scores {
		matches = append(matches, Match{ManifestID: id, Score: score})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ManifestID < matches[j].ManifestID
	})
	return matches
}
