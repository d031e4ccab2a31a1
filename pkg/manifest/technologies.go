package manifest

import (
	"regexp"
	"sort"
	"strings"
)

// techPattern pairs a display name with its detection regex.
// Patterns run case-insensitively against message text and touched file
// paths; a technology is included once if any pattern matches anywhere.
type techPattern struct {
	name    string
	pattern *regexp.Regexp
}

func tech(name, expr string) techPattern {
	return techPattern{name: name, pattern: regexp.MustCompile(`(?i)` + expr)}
}

// techTable is the fixed detection table: languages, frameworks,
// datastores, infrastructure and build tooling. Short names use word
// boundaries to avoid substring false positives ("go" inside "going").
var techTable = []techPattern{
	// Languages
	tech("Go", `\bgolang\b|\bgo\.mod\b|\.go\b`),
	tech("Python", `\bpython\b|\.py\b`),
	tech("TypeScript", `\btypescript\b|\.tsx?\b`),
	tech("JavaScript", `\bjavascript\b|\.jsx?\b|\bnode\.?js\b`),
	tech("Rust", `\brust\b|\bcargo\b|\.rs\b`),
	tech("Java", `\bjava\b[^s]|\bmaven\b|\bgradle\b`),
	tech("Ruby", `\bruby\b|\.rb\b`),
	tech("PHP", `\bphp\b`),
	tech("C++", `\bc\+\+\b|\.cpp\b|\.cc\b`),
	tech("C#", `\bc#|\bdotnet\b|\.cs\b`),
	tech("Swift", `\bswift\b`),
	tech("Kotlin", `\bkotlin\b|\.kt\b`),
	tech("Shell", `\bbash\b|\bzsh\b|\.sh\b`),
	tech("SQL", `\bsql\b`),
	// Frameworks
	tech("React", `\breact\b`),
	tech("Vue", `\bvue\b`),
	tech("Angular", `\bangular\b`),
	tech("Svelte", `\bsvelte\b`),
	tech("Next.js", `\bnext\.?js\b`),
	tech("Django", `\bdjango\b`),
	tech("Flask", `\bflask\b`),
	tech("FastAPI", `\bfastapi\b`),
	tech("Rails", `\brails\b`),
	tech("Spring", `\bspring\b`),
	tech("Express", `\bexpress\b`),
	// Datastores & brokers
	tech("PostgreSQL", `\bpostgres(?:ql)?\b|\bpgx\b`),
	tech("MySQL", `\bmysql\b`),
	tech("SQLite", `\bsqlite\b`),
	tech("Redis", `\bredis\b`),
	tech("MongoDB", `\bmongo(?:db)?\b`),
	tech("Elasticsearch", `\belasticsearch\b`),
	tech("Kafka", `\bkafka\b`),
	// Infra & tooling
	tech("Docker", `\bdocker\b|\bdockerfile\b`),
	tech("Kubernetes", `\bkubernetes\b|\bk8s\b|\bkubectl\b`),
	tech("Terraform", `\bterraform\b|\.tf\b`),
	tech("AWS", `\baws\b|\bs3\b|\blambda\b`),
	tech("GCP", `\bgcp\b|\bgoogle cloud\b`),
	tech("Azure", `\bazure\b`),
	tech("Nginx", `\bnginx\b`),
	tech("GraphQL", `\bgraphql\b`),
	tech("gRPC", `\bgrpc\b|\.proto\b`),
	tech("Webpack", `\bwebpack\b`),
	tech("Vite", `\bvite\b`),
	tech("Tailwind", `\btailwind\b`),
	tech("Git", `\bgit\b`),
}

// DetectTechnologies matches the fixed pattern table against message text
// and touched file paths, returning a sorted, deduplicated set.
func DetectTechnologies(texts []string, files []string) []string {
	haystack := strings.Join(texts, "\n") + "\n" + strings.Join(files, "\n")

	var found []string
	for _, tp := range techTable {
		if tp.pattern.MatchString(haystack) {
			found = append(found, tp.name)
		}
	}
	sort.Strings(found)
	return found
}
