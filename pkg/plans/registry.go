package plans

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/jacquesdev/jacques/pkg/config"
	"github.com/jacquesdev/jacques/pkg/logger"
)

// Plan is a deduplicated plan document tracked project-wide. The same
// logical plan content, restated across any number of sessions, maps to
// exactly one Plan; Sessions only grows, never shrinks.
type Plan struct {
	ID          string    `yaml:"id" json:"id"`
	Title       string    `yaml:"title" json:"title"`
	CreatedAt   time.Time `yaml:"created" json:"created_at"`
	UpdatedAt   time.Time `yaml:"updated" json:"updated_at"`
	Sessions    []string  `yaml:"sessions" json:"sessions"`
	ContentHash string    `yaml:"content_hash" json:"-"`

	Filename string `yaml:"-" json:"filename"`
	Path     string `yaml:"-" json:"path"`
	Content  string `yaml:"-" json:"-"`
}

// HasSession reports whether the plan already references a session
func (p *Plan) HasSession(sessionID string) bool {
	for _, s := range p.Sessions {
		if s == sessionID {
			return true
		}
	}
	return false
}

// AddSession appends a session id to the plan (append-only union)
func (p *Plan) AddSession(sessionID string) bool {
	if sessionID == "" || p.HasSession(sessionID) {
		return false
	}
	p.Sessions = append(p.Sessions, sessionID)
	return true
}

// Registry tracks all plans under one project's plans directory and
// answers deduplication queries against them.
type Registry struct {
	dir       string
	threshold float64
	plans     []*Plan
	byHash    map[string]*Plan
}

// LoadRegistry reads every plan file in dir (YAML frontmatter + markdown
// body). An unreadable or frontmatter-less file is skipped with a warning;
// a missing directory yields an empty registry.
func LoadRegistry(dir string, threshold float64) (*Registry, error) {
	r := &Registry{
		dir:       dir,
		threshold: threshold,
		byHash:    make(map[string]*Plan),
	}

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read plans directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		plan, err := ReadPlanFile(path)
		if err != nil {
			logger.Warn("Skipping unreadable plan file %s: %v", path, err)
			continue
		}
		r.add(plan)
	}

	return r, nil
}

func (r *Registry) add(p *Plan) {
	r.plans = append(r.plans, p)
	if p.ContentHash != "" {
		r.byHash[p.ContentHash] = p
	}
}

// Plans returns all tracked plans sorted by most recent update
func (r *Registry) Plans() []*Plan {
	out := make([]*Plan, len(r.plans))
	copy(out, r.plans)
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// Resolve maps a detected plan reference to its deduplicated Plan,
// creating a new one only when no tier matches. The returned bool is true
// when the registry changed (new plan or new session link) and the plan
// file needs saving.
func (r *Registry) Resolve(ref Reference, sessionID string, when time.Time) (*Plan, bool) {
	hash := Fingerprint(ref.Content)

	// Tier 1/2: exact hash short-circuit
	if existing, ok := r.byHash[hash]; ok {
		changed := existing.AddSession(sessionID)
		if changed {
			existing.UpdatedAt = when
		}
		return existing, changed
	}

	// Tier 3: fuzzy match among same-title, same-length-bucket candidates
	if r.threshold > 0 {
		normalized := NormalizeContent(ref.Content)
		normTitle := NormalizeTitle(ref.Title)
		bucket := LengthBucket(len(normalized))

		for _, candidate := range r.plans {
			if NormalizeTitle(candidate.Title) != normTitle {
				continue
			}
			candNorm := NormalizeContent(candidate.Content)
			if LengthBucket(len(candNorm)) != bucket {
				continue
			}
			if Jaccard(normalized, candNorm) >= r.threshold {
				changed := candidate.AddSession(sessionID)
				if changed {
					candidate.UpdatedAt = when
				}
				return candidate, changed
			}
		}
	}

	plan := &Plan{
		ID:          uuid.NewString(),
		Title:       ref.Title,
		CreatedAt:   when,
		UpdatedAt:   when,
		Sessions:    []string{sessionID},
		ContentHash: hash,
		Content:     ref.Content,
	}
	plan.Filename = r.nextFilename(when, ref.Title)
	plan.Path = filepath.Join(r.dir, plan.Filename)
	r.add(plan)
	return plan, true
}

// nextFilename generates YYYY-MM-DD_<slug>.md, appending -v2, -v3, ...
// while a different plan already owns the name. Identical content never
// reaches here; it is resolved by the dedup tiers above.
func (r *Registry) nextFilename(when time.Time, title string) string {
	slug := Slugify(title, config.MaxPlanSlugLength)
	base := fmt.Sprintf("%s_%s", when.Format("2006-01-02"), slug)

	name := base + ".md"
	for version := 2; r.filenameTaken(name); version++ {
		name = fmt.Sprintf("%s-v%d.md", base, version)
	}
	return name
}

func (r *Registry) filenameTaken(name string) bool {
	for _, p := range r.plans {
		if p.Filename == name {
			return true
		}
	}
	if _, err := os.Stat(filepath.Join(r.dir, name)); err == nil {
		return true
	}
	return false
}

// Slugify converts a title into a filename-safe slug of at most maxLen
// characters
func Slugify(title string, maxLen int) string {
	var b strings.Builder
	lastDash := true
	for _, ch := range strings.ToLower(title) {
		switch {
		case ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9':
			b.WriteRune(ch)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxLen {
		slug = strings.Trim(slug[:maxLen], "-")
	}
	if slug == "" {
		slug = "untitled"
	}
	return slug
}

// SavePlan writes a plan file (frontmatter + content) atomically
func (r *Registry) SavePlan(p *Plan) error {
	if err := os.MkdirAll(r.dir, 0755); err != nil {
		return fmt.Errorf("failed to create plans directory: %w", err)
	}

	frontmatter, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal plan frontmatter: %w", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(frontmatter)
	b.WriteString("---\n\n")
	b.WriteString(strings.TrimSpace(p.Content))
	b.WriteString("\n")

	path := filepath.Join(r.dir, p.Filename)
	tempFile, err := os.CreateTemp(r.dir, ".plan-*.md.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	if _, err := tempFile.WriteString(b.String()); err != nil {
		tempFile.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write plan: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace plan file: %w", err)
	}

	p.Path = path
	return nil
}

// ReadPlanFile parses a plan file's YAML frontmatter and markdown body
func ReadPlanFile(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	content := string(data)
	if !strings.HasPrefix(content, "---\n") {
		return nil, fmt.Errorf("missing frontmatter")
	}
	rest := content[4:]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return nil, fmt.Errorf("unterminated frontmatter")
	}

	var plan Plan
	if err := yaml.Unmarshal([]byte(rest[:end]), &plan); err != nil {
		return nil, fmt.Errorf("invalid frontmatter: %w", err)
	}

	body := rest[end+4:]
	if idx := strings.Index(body, "\n"); idx >= 0 {
		body = body[idx+1:]
	}
	plan.Content = strings.TrimSpace(body)
	plan.Filename = filepath.Base(path)
	plan.Path = path

	if plan.ContentHash == "" {
		plan.ContentHash = Fingerprint(plan.Content)
	}
	return &plan, nil
}
