package events

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger.WithField("component", "test")
}

func dialHub(t *testing.T, hub *Hub) (*websocket.Conn, func()) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("Dial failed: %v", err)
	}
	return conn, func() {
		conn.Close()
		srv.Close()
	}
}

func TestPublishReachesClient(t *testing.T) {
	hub := NewHub(testLogger(), func(*http.Request) bool { return true })

	conn, cleanup := dialHub(t, hub)
	defer cleanup()

	// Wait for registration
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.ClientCount() != 1 {
		t.Fatal("Client never registered")
	}

	hub.Publish(TypeModificationStaged, map[string]string{"path": "main.go"})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var evt Event
	if err := conn.ReadJSON(&evt); err != nil {
		t.Fatalf("ReadJSON failed: %v", err)
	}
	if evt.Type != TypeModificationStaged {
		t.Errorf("Expected %s, got %s", TypeModificationStaged, evt.Type)
	}
}

func TestClientCountAfterDisconnect(t *testing.T) {
	hub := NewHub(testLogger(), func(*http.Request) bool { return true })

	conn, cleanup := dialHub(t, hub)

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	conn.Close()
	cleanup()

	deadline = time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.ClientCount() != 0 {
		t.Error("Client not removed after disconnect")
	}
}

func TestPublishWithNoClients(t *testing.T) {
	hub := NewHub(testLogger(), func(*http.Request) bool { return true })
	// Must not panic or block
	hub.Publish(TypeFilesChanged, nil)
}
