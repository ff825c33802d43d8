package watcher

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/forgetools/forge/config"
	"github.com/forgetools/forge/internal/events"
	"github.com/forgetools/forge/internal/project"
)

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger.WithField("component", "test")
}

func testFilesConfig() config.FilesConfig {
	cfg := &config.Config{Version: "1"}
	cfg.SetDefaults()
	return cfg.Files
}

func setupWatch(t *testing.T) (string, *Watcher, *websocket.Conn, func()) {
	t.Helper()

	root := t.TempDir()

	proj := project.New(testFilesConfig(), testLogger())
	if err := proj.SetRoot(root); err != nil {
		t.Fatalf("SetRoot failed: %v", err)
	}

	hub := events.NewHub(testLogger(), func(*http.Request) bool { return true })
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("Dial failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	w := New(proj, hub, testLogger())
	w.debounce = 50 * time.Millisecond
	if err := w.Watch(root); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	return root, w, conn, func() {
		w.Stop()
		conn.Close()
		srv.Close()
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) events.Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	var evt events.Event
	if err := conn.ReadJSON(&evt); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	return evt
}

func TestWriteTriggersFilesChanged(t *testing.T) {
	root, _, conn, cleanup := setupWatch(t)
	defer cleanup()

	if err := os.WriteFile(filepath.Join(root, "main.go"), []byte("package main\n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	evt := readEvent(t, conn)
	if evt.Type != events.TypeFilesChanged {
		t.Fatalf("Expected %s, got %s", events.TypeFilesChanged, evt.Type)
	}

	payload, ok := evt.Payload.(map[string]interface{})
	if !ok {
		t.Fatalf("Unexpected payload type %T", evt.Payload)
	}
	paths, ok := payload["paths"].([]interface{})
	if !ok || len(paths) == 0 {
		t.Fatalf("Expected non-empty paths, got %v", payload["paths"])
	}
	found := false
	for _, p := range paths {
		if p == "main.go" {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected main.go in changed paths, got %v", paths)
	}
}

func TestRapidWritesCoalesce(t *testing.T) {
	root, _, conn, cleanup := setupWatch(t)
	defer cleanup()

	for i := 0; i < 5; i++ {
		name := filepath.Join(root, "file"+string(rune('a'+i))+".txt")
		if err := os.WriteFile(name, []byte("x"), 0644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}

	evt := readEvent(t, conn)
	if evt.Type != events.TypeFilesChanged {
		t.Fatalf("Expected %s, got %s", events.TypeFilesChanged, evt.Type)
	}

	// A second read should time out rather than deliver a burst of events.
	conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	var extra events.Event
	if err := conn.ReadJSON(&extra); err == nil {
		payload, _ := extra.Payload.(map[string]interface{})
		// One trailing flush is acceptable when writes straddle the debounce
		// window, but it must carry paths rather than repeat empties.
		if paths, ok := payload["paths"].([]interface{}); !ok || len(paths) == 0 {
			t.Errorf("Unexpected empty follow-up event: %+v", extra)
		}
	}
}

func TestIgnoredDirsProduceNoEvents(t *testing.T) {
	root, _, conn, cleanup := setupWatch(t)
	defer cleanup()

	gitDir := filepath.Join(root, ".git")
	if err := os.MkdirAll(gitDir, 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(400 * time.Millisecond))
	var evt events.Event
	if err := conn.ReadJSON(&evt); err == nil {
		t.Errorf("Expected no event for ignored dir, got %+v", evt)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	_, w, _, cleanup := setupWatch(t)
	defer cleanup()

	w.Stop()
	w.Stop()
}
