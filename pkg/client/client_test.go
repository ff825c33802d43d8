package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/forgetools/forge/errors"
)

func stubServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return New(strings.TrimPrefix(ts.URL, "http://"))
}

func TestIsRunning(t *testing.T) {
	c := stubServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		w.Write([]byte("ok"))
	})
	if !c.IsRunning() {
		t.Error("Expected running")
	}

	down := New("127.0.0.1:1")
	if down.IsRunning() {
		t.Error("Expected not running")
	}
}

func TestErrorEnvelopeDecoding(t *testing.T) {
	c := stubServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":{"code":"NO_PENDING_MODIFICATION","message":"no pending modification for path"}}`))
	})

	err := c.Confirm(context.Background(), "a.py")
	if !errors.Is(err, errors.ErrCodeNoPendingModification) {
		t.Errorf("Expected typed error, got %v", err)
	}
}

func TestModifyReturnsDiff(t *testing.T) {
	c := stubServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/modify" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"filepath":"a.py","diff":"--- a/a.py\n+++ b/a.py\n"}`))
	})

	diff, err := c.Modify(context.Background(), "a.py", "change")
	if err != nil {
		t.Fatalf("Modify failed: %v", err)
	}
	if !strings.HasPrefix(diff, "--- a/a.py") {
		t.Errorf("Unexpected diff %q", diff)
	}
}

func TestFileContentEscapesQuery(t *testing.T) {
	var gotQuery string
	c := stubServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("filepath")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"filepath":"dir/a b.py","content":"x"}`))
	})

	if _, err := c.FileContent(context.Background(), "dir/a b.py"); err != nil {
		t.Fatalf("FileContent failed: %v", err)
	}
	if gotQuery != "dir/a b.py" {
		t.Errorf("Query not round-tripped: %q", gotQuery)
	}
}

func TestUpload(t *testing.T) {
	c := stubServer(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("Bad multipart form: %v", err)
		}
		_, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("Missing file field: %v", err)
		}
		if header.Filename != "notes.txt" {
			t.Errorf("Unexpected filename %q", header.Filename)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"filepath":"uploads/notes.txt"}`))
	})

	stored, err := c.Upload(context.Background(), "/tmp/notes.txt", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if stored != "uploads/notes.txt" {
		t.Errorf("Unexpected stored path %q", stored)
	}
}
