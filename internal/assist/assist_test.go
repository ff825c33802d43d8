package assist

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/forgetools/forge/command"
	"github.com/forgetools/forge/config"
	"github.com/forgetools/forge/errors"
	"github.com/forgetools/forge/internal/editor"
	"github.com/forgetools/forge/internal/events"
	"github.com/forgetools/forge/internal/llm"
	"github.com/forgetools/forge/internal/project"
	"github.com/forgetools/forge/internal/session"
)

// fakeClient returns canned responses and records the requests it saw.
type fakeClient struct {
	response string
	err      error
	requests []llm.Request
}

func (f *fakeClient) Generate(_ context.Context, req llm.Request) (string, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger.WithField("component", "test")
}

func newTestAssistant(t *testing.T, client llm.Client) (*Assistant, string) {
	t.Helper()

	cfg := &config.Config{Version: "1"}
	cfg.SetDefaults()
	// Spawn a no-op process instead of a real editor.
	cfg.Editor.Command = "true"
	cfg.Editor.DisableNvimAttach = true

	proj := project.New(cfg.Files, testLogger())
	sess := session.New(cfg.Chat.HistoryTurns, false, testLogger())
	hub := events.NewHub(testLogger(), func(*http.Request) bool { return true })
	ed := editor.New(cfg.Editor, &command.RealExecutor{}, testLogger())

	a := New(proj, client, sess, ed, hub, cfg.Sync, testLogger())

	root := t.TempDir()
	if _, err := a.SetRoot(root); err != nil {
		t.Fatalf("SetRoot failed: %v", err)
	}
	return a, root
}

func TestGenerateWritesFile(t *testing.T) {
	client := &fakeClient{response: "package main\n\nfunc main() {}\n"}
	a, root := newTestAssistant(t, client)

	path, err := a.Generate(context.Background(), "cmd/app/main.go", "write a main package", nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if path != "cmd/app/main.go" {
		t.Errorf("Unexpected path %q", path)
	}

	data, err := os.ReadFile(filepath.Join(root, "cmd/app/main.go"))
	if err != nil {
		t.Fatalf("Generated file not written: %v", err)
	}
	if string(data) != client.response {
		t.Errorf("File content mismatch: %q", data)
	}
}

func TestGenerateStripsFences(t *testing.T) {
	client := &fakeClient{response: "```go\npackage main\n```"}
	a, root := newTestAssistant(t, client)

	if _, err := a.Generate(context.Background(), "main.go", "x", nil); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	data, _ := os.ReadFile(filepath.Join(root, "main.go"))
	if strings.Contains(string(data), "```") {
		t.Errorf("Fences not stripped: %q", data)
	}
}

func TestGenerateRejectsTraversal(t *testing.T) {
	a, _ := newTestAssistant(t, &fakeClient{response: "x"})

	_, err := a.Generate(context.Background(), "../escape.txt", "x", nil)
	if !errors.Is(err, errors.ErrCodePathOutsideRoot) {
		t.Errorf("Expected path outside root error, got %v", err)
	}
}

func TestGenerateEmptyResponseFails(t *testing.T) {
	a, _ := newTestAssistant(t, &fakeClient{response: "   \n"})

	_, err := a.Generate(context.Background(), "out.txt", "x", nil)
	if !errors.Is(err, errors.ErrCodeGeneration) {
		t.Errorf("Expected generation error, got %v", err)
	}
}

func TestGenerateIncludesContextFiles(t *testing.T) {
	client := &fakeClient{response: "content"}
	a, root := newTestAssistant(t, client)

	if err := os.WriteFile(filepath.Join(root, "ref.go"), []byte("package ref"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := a.Generate(context.Background(), "out.go", "x", []string{"ref.go"}); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	prompt := client.requests[0].Prompt
	if !strings.Contains(prompt, "-- File: ref.go --") || !strings.Contains(prompt, "package ref") {
		t.Errorf("Context file missing from prompt:\n%s", prompt)
	}
}

func TestModifyConfirmFlow(t *testing.T) {
	client := &fakeClient{response: "x = 2\n"}
	a, root := newTestAssistant(t, client)

	target := filepath.Join(root, "a.py")
	if err := os.WriteFile(target, []byte("x = 1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	unified, err := a.Modify(context.Background(), "a.py", "bump x")
	if err != nil {
		t.Fatalf("Modify failed: %v", err)
	}
	if !strings.Contains(unified, "-x = 1") || !strings.Contains(unified, "+x = 2") {
		t.Errorf("Unexpected diff:\n%s", unified)
	}

	// Disk untouched until confirm.
	data, _ := os.ReadFile(target)
	if string(data) != "x = 1\n" {
		t.Fatalf("File modified before confirm: %q", data)
	}

	if err := a.Confirm("a.py"); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	data, _ = os.ReadFile(target)
	if string(data) != "x = 2\n" {
		t.Errorf("Staged content not applied: %q", data)
	}

	// A second confirm has nothing to apply.
	if err := a.Confirm("a.py"); !errors.Is(err, errors.ErrCodeNoPendingModification) {
		t.Errorf("Expected no pending modification error, got %v", err)
	}
}

func TestModifyCancelLeavesFileAlone(t *testing.T) {
	client := &fakeClient{response: "changed\n"}
	a, root := newTestAssistant(t, client)

	target := filepath.Join(root, "keep.txt")
	if err := os.WriteFile(target, []byte("original\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := a.Modify(context.Background(), "keep.txt", "change it"); err != nil {
		t.Fatalf("Modify failed: %v", err)
	}
	if err := a.Cancel("keep.txt"); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}

	data, _ := os.ReadFile(target)
	if string(data) != "original\n" {
		t.Errorf("Cancel changed the file: %q", data)
	}
	if err := a.Confirm("keep.txt"); !errors.Is(err, errors.ErrCodeNoPendingModification) {
		t.Errorf("Expected no pending modification after cancel, got %v", err)
	}
}

func TestModifyMissingFile(t *testing.T) {
	a, _ := newTestAssistant(t, &fakeClient{response: "x"})

	_, err := a.Modify(context.Background(), "missing.go", "x")
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Expected file not found, got %v", err)
	}
}

func TestSyncBoundsFiles(t *testing.T) {
	client := &fakeClient{response: "A small test project."}
	a, root := newTestAssistant(t, client)
	a.syncCfg.MaxFiles = 2
	a.syncCfg.MaxFileSizeBytes = 10

	for _, name := range []string{"a.go", "b.go", "c.go"} {
		if err := os.WriteFile(filepath.Join(root, name), []byte("package x\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(root, "big.go"), []byte(strings.Repeat("x", 100)), 0644); err != nil {
		t.Fatal(err)
	}

	res, err := a.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if res.FilesAnalyzed != 2 {
		t.Errorf("Expected 2 files analyzed, got %d", res.FilesAnalyzed)
	}
	if res.TotalFiles != 4 {
		t.Errorf("Expected 4 total files, got %d", res.TotalFiles)
	}
	if res.Summary != client.response {
		t.Errorf("Unexpected summary %q", res.Summary)
	}
}

func TestSyncIncludesOversizeNotice(t *testing.T) {
	client := &fakeClient{response: "summary"}
	a, root := newTestAssistant(t, client)
	a.syncCfg.MaxFileSizeBytes = 5

	if err := os.WriteFile(filepath.Join(root, "big.go"), []byte("0123456789"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := a.Sync(context.Background()); err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	prompt := client.requests[0].Prompt
	if !strings.Contains(prompt, "[File too large to include: 10 bytes]") {
		t.Errorf("Oversize notice missing from prompt:\n%s", prompt)
	}
}

func TestChatKeepsHistory(t *testing.T) {
	client := &fakeClient{response: "hello back"}
	a, _ := newTestAssistant(t, client)

	reply, err := a.Chat(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if reply != "hello back" {
		t.Errorf("Unexpected reply %q", reply)
	}

	if _, err := a.Chat(context.Background(), "again"); err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	second := client.requests[1]
	if len(second.History) != 2 {
		t.Fatalf("Expected 2 history messages, got %d", len(second.History))
	}
	if second.History[0].Content != "hello" || second.History[1].Content != "hello back" {
		t.Errorf("History mismatch: %+v", second.History)
	}
}

func TestChatUsesInstructionsPreamble(t *testing.T) {
	client := &fakeClient{response: "ok"}
	a, root := newTestAssistant(t, client)

	forgeDir := filepath.Join(root, ".forge")
	if err := os.WriteFile(filepath.Join(forgeDir, "instructions.md"), []byte("Always answer in haiku."), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := a.Chat(context.Background(), "hi"); err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if client.requests[0].System != "Always answer in haiku." {
		t.Errorf("Instructions preamble not sent: %q", client.requests[0].System)
	}
}

func TestSnapshotReportsPending(t *testing.T) {
	client := &fakeClient{response: "new\n"}
	a, root := newTestAssistant(t, client)

	if err := os.WriteFile(filepath.Join(root, "f.txt"), []byte("old\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Modify(context.Background(), "f.txt", "x"); err != nil {
		t.Fatal(err)
	}

	state := a.Snapshot()
	if state.Root != a.proj.Root() {
		t.Errorf("Root mismatch: %q", state.Root)
	}
	if len(state.PendingPaths) != 1 || state.PendingPaths[0] != "f.txt" {
		t.Errorf("Unexpected pending paths %v", state.PendingPaths)
	}
}

func TestRejectedRootKeepsStateIntact(t *testing.T) {
	client := &fakeClient{response: "hello"}
	a, root := newTestAssistant(t, client)

	if _, err := a.Chat(context.Background(), "hi"); err != nil {
		t.Fatalf("Chat failed: %v", err)
	}

	if _, err := a.SetRoot("/nonexistent/path/for/forge"); !errors.Is(err, errors.ErrCodeInvalidPath) {
		t.Fatalf("Expected INVALID_PATH, got %v", err)
	}

	state := a.Snapshot()
	if state.Root != root {
		t.Errorf("Active root should survive a rejected switch: got %q, want %q", state.Root, root)
	}
	if state.HistoryLength != 2 {
		t.Errorf("Chat history should survive a rejected switch, got %d messages", state.HistoryLength)
	}
}

func TestPendingPathSpellingsShareOneSlot(t *testing.T) {
	client := &fakeClient{response: "new\n"}
	a, root := newTestAssistant(t, client)

	if err := os.WriteFile(filepath.Join(root, "a.py"), []byte("old\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Modify(context.Background(), "./a.py", "x"); err != nil {
		t.Fatal(err)
	}

	if err := a.Confirm("a.py"); err != nil {
		t.Fatalf("Confirm with the clean spelling failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(root, "a.py"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "new\n" {
		t.Errorf("Confirmed content not applied, got %q", data)
	}
}
