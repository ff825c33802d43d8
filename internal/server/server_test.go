package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/forgetools/forge/command"
	"github.com/forgetools/forge/config"
	"github.com/forgetools/forge/internal/assist"
	"github.com/forgetools/forge/internal/editor"
	"github.com/forgetools/forge/internal/events"
	"github.com/forgetools/forge/internal/llm"
	"github.com/forgetools/forge/internal/project"
	"github.com/forgetools/forge/internal/session"
)

type fakeClient struct {
	response string
}

func (f *fakeClient) Generate(context.Context, llm.Request) (string, error) {
	return f.response, nil
}

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger.WithField("component", "test")
}

func newTestServer(t *testing.T, client llm.Client) (*httptest.Server, string) {
	t.Helper()

	cfg := &config.Config{Version: "1"}
	cfg.SetDefaults()
	cfg.Editor.Command = "true"
	cfg.Editor.DisableNvimAttach = true

	logger := testLogger()
	proj := project.New(cfg.Files, logger)
	sess := session.New(cfg.Chat.HistoryTurns, false, logger)
	hub := events.NewHub(logger, func(*http.Request) bool { return true })
	ed := editor.New(cfg.Editor, &command.RealExecutor{}, logger)
	assistant := assist.New(proj, client, sess, ed, hub, cfg.Sync, logger)

	srv := New(cfg.Server, assistant, proj, hub, logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	root := t.TempDir()
	postJSON(t, ts, "/api/set_project_root", map[string]string{"project_root": root}, http.StatusOK)
	return ts, root
}

func postJSON(t *testing.T, ts *httptest.Server, path string, payload interface{}, wantStatus int) map[string]interface{} {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	res, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s failed: %v", path, err)
	}
	defer res.Body.Close()

	var out map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("POST %s: decoding response: %v", path, err)
	}
	if res.StatusCode != wantStatus {
		t.Fatalf("POST %s: expected status %d, got %d (%v)", path, wantStatus, res.StatusCode, out)
	}
	return out
}

func getJSON(t *testing.T, ts *httptest.Server, path string, wantStatus int) map[string]interface{} {
	t.Helper()

	res, err := http.Get(ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	defer res.Body.Close()
	if res.StatusCode != wantStatus {
		t.Fatalf("GET %s: expected status %d, got %d", path, wantStatus, res.StatusCode)
	}

	var out map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("GET %s: decoding response: %v", path, err)
	}
	return out
}

func errorCode(t *testing.T, body map[string]interface{}) string {
	t.Helper()
	errObj, ok := body["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected error body, got %v", body)
	}
	code, _ := errObj["code"].(string)
	return code
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t, &fakeClient{response: "x"})

	res, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Errorf("Expected 200, got %d", res.StatusCode)
	}
}

func TestGenerateEndpoint(t *testing.T) {
	ts, root := newTestServer(t, &fakeClient{response: "package x\n"})

	out := postJSON(t, ts, "/api/generate", map[string]interface{}{
		"filename":     "x/x.go",
		"instructions": "make a package",
	}, http.StatusOK)
	if out["filepath"] != "x/x.go" {
		t.Errorf("Unexpected filepath %v", out["filepath"])
	}

	if _, err := os.Stat(filepath.Join(root, "x/x.go")); err != nil {
		t.Errorf("Generated file missing: %v", err)
	}
}

func TestGenerateMissingFieldIs400(t *testing.T) {
	ts, _ := newTestServer(t, &fakeClient{response: "x"})

	out := postJSON(t, ts, "/api/generate", map[string]string{"filename": "a.go"}, http.StatusBadRequest)
	if code := errorCode(t, out); code != "INVALID_INPUT" {
		t.Errorf("Unexpected code %s", code)
	}
}

func TestGenerateTraversalIs400(t *testing.T) {
	ts, _ := newTestServer(t, &fakeClient{response: "x"})

	out := postJSON(t, ts, "/api/generate", map[string]string{
		"filename":     "../evil.go",
		"instructions": "x",
	}, http.StatusBadRequest)
	if code := errorCode(t, out); code != "PATH_OUTSIDE_ROOT" {
		t.Errorf("Unexpected code %s", code)
	}
}

func TestModifyConfirmOverHTTP(t *testing.T) {
	ts, root := newTestServer(t, &fakeClient{response: "x = 2\n"})

	target := filepath.Join(root, "a.py")
	if err := os.WriteFile(target, []byte("x = 1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	out := postJSON(t, ts, "/api/modify", map[string]string{
		"filepath":     "a.py",
		"instructions": "bump",
	}, http.StatusOK)
	diff, _ := out["diff"].(string)
	if !strings.Contains(diff, "+x = 2") {
		t.Errorf("Unexpected diff %q", diff)
	}

	// Still unmodified on disk.
	if data, _ := os.ReadFile(target); string(data) != "x = 1\n" {
		t.Fatalf("File changed before confirm: %q", data)
	}

	postJSON(t, ts, "/api/confirm_modify", map[string]string{"filepath": "a.py"}, http.StatusOK)
	if data, _ := os.ReadFile(target); string(data) != "x = 2\n" {
		t.Errorf("File not updated after confirm: %q", data)
	}

	// Second confirm conflicts.
	out = postJSON(t, ts, "/api/confirm_modify", map[string]string{"filepath": "a.py"}, http.StatusConflict)
	if code := errorCode(t, out); code != "NO_PENDING_MODIFICATION" {
		t.Errorf("Unexpected code %s", code)
	}
}

func TestModifyMissingFileIs404(t *testing.T) {
	ts, _ := newTestServer(t, &fakeClient{response: "x"})

	out := postJSON(t, ts, "/api/modify", map[string]string{
		"filepath":     "nope.go",
		"instructions": "x",
	}, http.StatusNotFound)
	if code := errorCode(t, out); code != "FILE_NOT_FOUND" {
		t.Errorf("Unexpected code %s", code)
	}
}

func TestFilesAndContent(t *testing.T) {
	ts, root := newTestServer(t, &fakeClient{response: "x"})

	if err := os.WriteFile(filepath.Join(root, "hello.go"), []byte("package hello\n"), 0644); err != nil {
		t.Fatal(err)
	}

	out := getJSON(t, ts, "/api/files", http.StatusOK)
	files, _ := out["files"].([]interface{})
	if len(files) != 1 || files[0] != "hello.go" {
		t.Errorf("Unexpected files %v", files)
	}

	out = getJSON(t, ts, "/api/file_content?filepath=hello.go", http.StatusOK)
	if out["content"] != "package hello\n" {
		t.Errorf("Unexpected content %v", out["content"])
	}
}

func TestUploadFile(t *testing.T) {
	ts, root := newTestServer(t, &fakeClient{response: "x"})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "../notes.txt")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write([]byte("uploaded content"))
	mw.Close()

	res, err := http.Post(ts.URL+"/api/upload_file", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", res.StatusCode)
	}

	var out map[string]string
	json.NewDecoder(res.Body).Decode(&out)
	stored := out["filepath"]
	if strings.Contains(stored, "..") {
		t.Fatalf("Traversal survived sanitization: %q", stored)
	}
	if _, err := os.Stat(filepath.Join(root, filepath.FromSlash(stored))); err != nil {
		t.Errorf("Uploaded file missing at %q: %v", stored, err)
	}
}

func TestStateEndpoint(t *testing.T) {
	ts, root := newTestServer(t, &fakeClient{response: "new\n"})

	out := getJSON(t, ts, "/api/state", http.StatusOK)
	if out["root"] != root {
		t.Errorf("Expected root %q, got %v", root, out["root"])
	}

	if err := os.WriteFile(filepath.Join(root, "s.txt"), []byte("old\n"), 0644); err != nil {
		t.Fatal(err)
	}
	postJSON(t, ts, "/api/modify", map[string]string{"filepath": "s.txt", "instructions": "x"}, http.StatusOK)

	out = getJSON(t, ts, "/api/state", http.StatusOK)
	pending, _ := out["pending_paths"].([]interface{})
	if len(pending) != 1 || pending[0] != "s.txt" {
		t.Errorf("Unexpected pending paths %v", pending)
	}
}

func TestChatEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, &fakeClient{response: "hi there"})

	out := postJSON(t, ts, "/api/chat", map[string]string{"message": "hello"}, http.StatusOK)
	if out["response"] != "hi there" {
		t.Errorf("Unexpected response %v", out["response"])
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts, _ := newTestServer(t, &fakeClient{response: "x"})

	res, err := http.Get(ts.URL + "/api/sync")
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", res.StatusCode)
	}
}

func TestCORSPreflight(t *testing.T) {
	ts, _ := newTestServer(t, &fakeClient{response: "x"})

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/files", nil)
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", res.StatusCode)
	}
	if res.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("Missing CORS header")
	}
}

func TestUIIsServed(t *testing.T) {
	ts, _ := newTestServer(t, &fakeClient{response: "x"})

	res, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", res.StatusCode)
	}
}
