package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jacquesdev/jacques/pkg/config"
	"github.com/jacquesdev/jacques/pkg/discovery"
)

const planBody = `# Auth Redesign\n\n## Goals\n\n- Replace session cookies with JWTs\n- Add refresh token rotation\n- Keep the login form unchanged\n\n## Steps\n\n1. Introduce a token service\n2. Migrate the middleware\n3. Delete the session store`

// transcriptJSONL builds a minimal well-formed session transcript
func transcriptJSONL(sessionID, userText string) string {
	lines := []string{
		fmt.Sprintf(`{"type":"user","uuid":"u1","sessionId":"%s","timestamp":"2025-06-01T10:00:00Z","parentUuid":null,"message":{"role":"user","content":"%s"}}`, sessionID, userText),
		fmt.Sprintf(`{"type":"assistant","uuid":"a1","sessionId":"%s","timestamp":"2025-06-01T10:05:00Z","parentUuid":"u1","message":{"role":"assistant","model":"claude-sonnet-4-5","usage":{"input_tokens":100,"output_tokens":60},"content":[{"type":"text","text":"Working on it now, starting with the handler."},{"type":"tool_use","id":"t1","name":"Write","input":{"file_path":"/repo/handler.go","content":"package main"}}]}}`, sessionID),
		fmt.Sprintf(`{"type":"user","uuid":"u2","sessionId":"%s","timestamp":"2025-06-01T10:06:00Z","parentUuid":"a1","message":{"role":"user","content":[{"type":"tool_result","tool_use_id":"t1","content":"ok"}]}}`, sessionID),
		fmt.Sprintf(`{"type":"user","uuid":"u3","sessionId":"%s","timestamp":"2025-06-01T10:30:00Z","parentUuid":"u2","message":{"role":"user","content":"Now also handle the timeout case"}}`, sessionID),
		fmt.Sprintf(`{"type":"assistant","uuid":"a2","sessionId":"%s","timestamp":"2025-06-01T10:31:00Z","parentUuid":"u3","message":{"role":"assistant","usage":{"input_tokens":50,"output_tokens":40},"content":[{"type":"text","text":"Timeout handling is in place as well."}]}}`, sessionID),
	}
	return strings.Join(lines, "\n") + "\n"
}

type testEnv struct {
	store       *Store
	projectPath string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	base := t.TempDir()
	projectPath := filepath.Join(base, "myapp")
	if err := os.MkdirAll(projectPath, 0755); err != nil {
		t.Fatal(err)
	}
	return &testEnv{
		store:       New(filepath.Join(base, "archive"), config.DefaultSettings()),
		projectPath: projectPath,
	}
}

func (env *testEnv) writeTranscript(t *testing.T, sessionID, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), sessionID+".jsonl")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func (env *testEnv) archive(t *testing.T, sessionID, content string, opts ArchiveOptions) *ArchiveResult {
	t.Helper()
	path := env.writeTranscript(t, sessionID, content)
	result, err := env.store.Archive(path, env.projectPath, opts)
	if err != nil {
		t.Fatalf("Archive failed: %v", err)
	}
	return result
}

const sessionA = "aaaa1111-2222-3333-4444-555566667777"
const sessionB = "bbbb1111-2222-3333-4444-555566667777"

func TestArchiveRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	result := env.archive(t, sessionA, transcriptJSONL(sessionA, "Fix the upload handler retry"), ArchiveOptions{})
	if !result.Archived || result.ManifestID != sessionA {
		t.Fatalf("result = %+v", result)
	}

	m, err := env.store.ReadManifest(sessionA)
	if err != nil {
		t.Fatalf("ReadManifest failed: %v", err)
	}
	if m.Title != "Fix the upload handler retry" {
		t.Errorf("Title = %q", m.Title)
	}
	if m.ProjectSlug != "myapp" {
		t.Errorf("ProjectSlug = %q", m.ProjectSlug)
	}
	if m.MessageCount != 4 || m.ToolCallCount != 1 {
		t.Errorf("counts = %d/%d", m.MessageCount, m.ToolCallCount)
	}
	if len(m.FilesModified) != 1 || m.FilesModified[0] != "/repo/handler.go" {
		t.Errorf("FilesModified = %v", m.FilesModified)
	}

	conv, err := env.store.ReadConversation("myapp", sessionA)
	if err != nil {
		t.Fatalf("ReadConversation failed: %v", err)
	}
	if conv.SessionID != sessionA || len(conv.Messages) == 0 {
		t.Errorf("conversation = %+v", conv)
	}
	if conv.Stats.OutputTokens != 100 {
		t.Errorf("OutputTokens = %d, want 100", conv.Stats.OutputTokens)
	}

	name := filepath.Base(result.ConversationPath)
	if !strings.HasPrefix(name, "2025-06-01_10-31_") || !strings.Contains(name, "_aaaa") {
		t.Errorf("conversation filename = %q", name)
	}
}

func TestArchiveSkipsExistingUnlessForced(t *testing.T) {
	env := newTestEnv(t)
	content := transcriptJSONL(sessionA, "Fix the upload handler retry")

	first := env.archive(t, sessionA, content, ArchiveOptions{})
	if !first.Archived {
		t.Fatal("first archive must succeed")
	}

	second := env.archive(t, sessionA, content, ArchiveOptions{})
	if !second.Skipped {
		t.Error("re-archive without force must skip")
	}

	third := env.archive(t, sessionA, content, ArchiveOptions{Force: true, UserLabel: "redo"})
	if !third.Archived {
		t.Error("forced re-archive must proceed")
	}

	m, err := env.store.ReadManifest(sessionA)
	if err != nil {
		t.Fatal(err)
	}
	if m.UserLabel != "redo" {
		t.Errorf("UserLabel = %q, want redo", m.UserLabel)
	}

	// Exactly one conversation body survives the overwrite
	files, err := os.ReadDir(env.store.conversationsDir("myapp"))
	if err != nil {
		t.Fatal(err)
	}
	var bodies int
	for _, f := range files {
		if strings.HasSuffix(f.Name(), ".json") {
			bodies++
		}
	}
	if bodies != 1 {
		t.Errorf("conversation bodies = %d, want 1", bodies)
	}
}

func TestArchiveRequireSubstantial(t *testing.T) {
	env := newTestEnv(t)

	tiny := fmt.Sprintf(`{"type":"user","uuid":"u1","sessionId":"%s","timestamp":"2025-06-01T10:00:00Z","parentUuid":null,"message":{"role":"user","content":"quick question about naming"}}`, sessionA) + "\n"

	result := env.archive(t, sessionA, tiny, ArchiveOptions{RequireSubstantial: true})
	if !result.Skipped {
		t.Error("trivial session must be skipped under the substantial filter")
	}
	if _, err := env.store.ReadManifest(sessionA); err == nil {
		t.Error("skipped session must leave no manifest")
	}

	// A session with a plan is substantial regardless of message count
	withPlan := fmt.Sprintf(`{"type":"user","uuid":"u1","sessionId":"%s","timestamp":"2025-06-01T10:00:00Z","parentUuid":null,"message":{"role":"user","content":"implement the following plan:\n\n%s"}}`, sessionB, planBody) + "\n"
	result = env.archive(t, sessionB, withPlan, ArchiveOptions{RequireSubstantial: true})
	if !result.Archived {
		t.Error("plan-bearing session must be archived under the substantial filter")
	}
}

func TestArchivePlanDedupAcrossSessions(t *testing.T) {
	env := newTestEnv(t)

	withPlan := func(sessionID string) string {
		return fmt.Sprintf(`{"type":"user","uuid":"u1","sessionId":"%s","timestamp":"2025-06-01T10:00:00Z","parentUuid":null,"message":{"role":"user","content":"implement the following plan:\n\n%s"}}`, sessionID, planBody) + "\n" +
			transcriptJSONL(sessionID, "Get started on the auth redesign work")
	}

	first := env.archive(t, sessionA, withPlan(sessionA), ArchiveOptions{})
	if first.PlanCount != 1 {
		t.Fatalf("PlanCount = %d, want 1", first.PlanCount)
	}
	second := env.archive(t, sessionB, withPlan(sessionB), ArchiveOptions{})
	if second.PlanCount != 1 {
		t.Fatalf("PlanCount = %d, want 1", second.PlanCount)
	}

	all, err := env.store.Plans("myapp")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 1 {
		t.Fatalf("plans on disk = %d, want 1 deduplicated plan", len(all))
	}
	plan := all[0]
	if plan.Title != "Auth Redesign" {
		t.Errorf("Title = %q", plan.Title)
	}
	if len(plan.Sessions) != 2 {
		t.Errorf("Sessions = %v, want both sessions", plan.Sessions)
	}

	// Both manifests record the same deduplicated filename
	mA, _ := env.store.ReadManifest(sessionA)
	mB, _ := env.store.ReadManifest(sessionB)
	if len(mA.PlanRefs) != 1 || len(mB.PlanRefs) != 1 {
		t.Fatalf("PlanRefs = %v / %v", mA.PlanRefs, mB.PlanRefs)
	}
	if mA.PlanRefs[0].Filename != mB.PlanRefs[0].Filename {
		t.Errorf("filenames differ: %q vs %q", mA.PlanRefs[0].Filename, mB.PlanRefs[0].Filename)
	}
	if mA.PlanRefs[0].PlanID != mB.PlanRefs[0].PlanID {
		t.Errorf("plan ids differ: %q vs %q", mA.PlanRefs[0].PlanID, mB.PlanRefs[0].PlanID)
	}
}

func TestSearchAfterArchive(t *testing.T) {
	env := newTestEnv(t)
	env.archive(t, sessionA, transcriptJSONL(sessionA, "Fix the websocket reconnect logic"), ArchiveOptions{})
	env.archive(t, sessionB, transcriptJSONL(sessionB, "Database migration for billing"), ArchiveOptions{})

	results, err := env.store.Search("websocket reconnect", Filters{}, 1, 20)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if results.Total != 1 || results.Results[0].Manifest.ID != sessionA {
		t.Fatalf("results = %+v", results)
	}
	if results.Results[0].Score <= 0 {
		t.Error("match must carry a positive score")
	}

	// Empty query lists everything
	listing, err := env.store.Search("", Filters{}, 1, 20)
	if err != nil {
		t.Fatal(err)
	}
	if listing.Total != 2 {
		t.Errorf("listing total = %d, want 2", listing.Total)
	}

	// Project filter uses the encoded id
	filtered, err := env.store.Search("", Filters{ProjectID: discovery.EncodeProjectPath(env.projectPath)}, 1, 20)
	if err != nil {
		t.Fatal(err)
	}
	if filtered.Total != 2 {
		t.Errorf("filtered total = %d, want 2", filtered.Total)
	}
	none, err := env.store.Search("", Filters{ProjectID: "-other-project"}, 1, 20)
	if err != nil {
		t.Fatal(err)
	}
	if none.Total != 0 {
		t.Errorf("mismatched project filter total = %d, want 0", none.Total)
	}
}

func TestSearchPagination(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("%04d1111-2222-3333-4444-555566667777", i)
		env.archive(t, id, transcriptJSONL(id, "Investigate the flaky deployment pipeline"), ArchiveOptions{})
	}

	page1, err := env.store.Search("", Filters{}, 1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if page1.Total != 5 || len(page1.Results) != 2 {
		t.Errorf("page1 = total %d, %d results", page1.Total, len(page1.Results))
	}
	page3, err := env.store.Search("", Filters{}, 3, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(page3.Results) != 1 {
		t.Errorf("page3 results = %d, want 1", len(page3.Results))
	}
	page9, err := env.store.Search("", Filters{}, 9, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(page9.Results) != 0 {
		t.Errorf("out-of-range page results = %d, want 0", len(page9.Results))
	}
}

func TestReindexRecoversDeletedIndex(t *testing.T) {
	env := newTestEnv(t)
	env.archive(t, sessionA, transcriptJSONL(sessionA, "Fix the websocket reconnect logic"), ArchiveOptions{})

	if err := os.Remove(env.store.indexPath()); err != nil {
		t.Fatal(err)
	}

	n, err := env.store.Reindex()
	if err != nil {
		t.Fatalf("Reindex failed: %v", err)
	}
	if n != 1 {
		t.Errorf("reindexed %d, want 1", n)
	}

	results, err := env.store.Search("websocket", Filters{}, 1, 20)
	if err != nil {
		t.Fatal(err)
	}
	if results.Total != 1 {
		t.Errorf("post-reindex total = %d, want 1", results.Total)
	}
}

func TestFindManifestPrefix(t *testing.T) {
	env := newTestEnv(t)
	env.archive(t, sessionA, transcriptJSONL(sessionA, "Fix the upload handler retry"), ArchiveOptions{})
	env.archive(t, sessionB, transcriptJSONL(sessionB, "Database migration for billing"), ArchiveOptions{})

	m, err := env.store.FindManifest("aaaa")
	if err != nil {
		t.Fatalf("prefix lookup failed: %v", err)
	}
	if m.ID != sessionA {
		t.Errorf("ID = %q", m.ID)
	}

	if _, err := env.store.FindManifest("zzzz"); err == nil {
		t.Error("unknown prefix must fail")
	}
	// Shared prefix across both ids
	if _, err := env.store.FindManifest(""); err == nil {
		t.Error("ambiguous prefix must fail")
	}
}

func TestArchiveAllCollectsErrors(t *testing.T) {
	env := newTestEnv(t)

	good := env.writeTranscript(t, sessionA, transcriptJSONL(sessionA, "Fix the upload handler retry"))
	transcripts := []discovery.TranscriptInfo{
		{SessionID: sessionA, TranscriptPath: good, ProjectPath: env.projectPath},
		{SessionID: sessionB, TranscriptPath: "/nonexistent/b.jsonl", ProjectPath: env.projectPath},
	}

	var calls int
	result := env.store.ArchiveAll(transcripts, BulkOptions{
		Progress: func(done, total int, info discovery.TranscriptInfo, err error) {
			calls++
			if total != 2 {
				t.Errorf("total = %d, want 2", total)
			}
		},
	})

	if result.Archived != 1 || result.Errored != 1 {
		t.Errorf("result = %+v", result)
	}
	if len(result.Errors) != 1 || result.Errors[0].Path != "/nonexistent/b.jsonl" {
		t.Errorf("errors = %v", result.Errors)
	}
	if calls != 2 {
		t.Errorf("progress calls = %d, want 2", calls)
	}

	// The good session is fully archived despite the failure
	if _, err := env.store.ReadManifest(sessionA); err != nil {
		t.Errorf("good session missing: %v", err)
	}
}

func TestArchiveAllWritesMirrors(t *testing.T) {
	env := newTestEnv(t)
	good := env.writeTranscript(t, sessionA, transcriptJSONL(sessionA, "Fix the upload handler retry"))

	result := env.store.ArchiveAll([]discovery.TranscriptInfo{
		{SessionID: sessionA, TranscriptPath: good, ProjectPath: env.projectPath},
	}, BulkOptions{})
	if result.Archived != 1 {
		t.Fatalf("result = %+v", result)
	}

	data, err := os.ReadFile(filepath.Join(env.projectPath, config.MirrorDirName, "index.json"))
	if err != nil {
		t.Fatalf("bulk archive must write the project mirror: %v", err)
	}
	if !strings.Contains(string(data), sessionA) {
		t.Error("mirror must list the archived session")
	}
}

func TestMirrorWrittenAndContextPreserved(t *testing.T) {
	env := newTestEnv(t)

	mirrorDir := filepath.Join(env.projectPath, config.MirrorDirName)
	if err := os.MkdirAll(mirrorDir, 0755); err != nil {
		t.Fatal(err)
	}
	seed := `{"context":["keep this note"],"sessions":[],"plans":[]}`
	if err := os.WriteFile(filepath.Join(mirrorDir, "index.json"), []byte(seed), 0644); err != nil {
		t.Fatal(err)
	}

	env.archive(t, sessionA, transcriptJSONL(sessionA, "Fix the upload handler retry"), ArchiveOptions{})

	data, err := os.ReadFile(filepath.Join(mirrorDir, "index.json"))
	if err != nil {
		t.Fatalf("mirror not written: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "keep this note") {
		t.Error("user context entries must survive a mirror rewrite")
	}
	if !strings.Contains(content, sessionA) {
		t.Error("mirror must list the archived session")
	}
}

func TestGetStats(t *testing.T) {
	env := newTestEnv(t)
	env.archive(t, sessionA, transcriptJSONL(sessionA, "Fix the upload handler retry"), ArchiveOptions{})

	stats, err := env.store.GetStats()
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.TotalConversations != 1 || stats.TotalProjects != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.TotalSizeBytes == 0 {
		t.Error("size must be non-zero after archiving")
	}
}
