// Package server exposes the forge daemon over HTTP: the REST API, the
// websocket event stream, and the embedded browser UI.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/forgetools/forge/config"
	"github.com/forgetools/forge/internal/assist"
	"github.com/forgetools/forge/internal/events"
	"github.com/forgetools/forge/internal/project"
	"github.com/forgetools/forge/internal/server/ui"
)

// Server manages the daemon's HTTP server on a local TCP port.
type Server struct {
	logger    *logrus.Entry
	cfg       config.ServerConfig
	assistant *assist.Assistant
	proj      *project.Project
	hub       *events.Hub
	server    *http.Server
	startedAt time.Time
}

// New creates a Server. The assistant, project, and hub must already be
// wired together.
func New(cfg config.ServerConfig, assistant *assist.Assistant, proj *project.Project, hub *events.Hub, logger *logrus.Entry) *Server {
	return &Server{
		logger:    logger,
		cfg:       cfg,
		assistant: assistant,
		proj:      proj,
		hub:       hub,
	}
}

// Handler builds the full route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/api/set_project_root", s.requirePost(s.handleSetProjectRoot))
	mux.HandleFunc("/api/generate", s.requirePost(s.handleGenerate))
	mux.HandleFunc("/api/modify", s.requirePost(s.handleModify))
	mux.HandleFunc("/api/confirm_modify", s.requirePost(s.handleConfirmModify))
	mux.HandleFunc("/api/cancel_modify", s.requirePost(s.handleCancelModify))
	mux.HandleFunc("/api/sync", s.requirePost(s.handleSync))
	mux.HandleFunc("/api/chat", s.requirePost(s.handleChat))
	mux.HandleFunc("/api/upload_file", s.requirePost(s.handleUploadFile))
	mux.HandleFunc("/api/files", s.requireGet(s.handleFiles))
	mux.HandleFunc("/api/file_content", s.requireGet(s.handleFileContent))
	mux.HandleFunc("/api/state", s.requireGet(s.handleState))
	mux.HandleFunc("/api/pending_diff", s.requireGet(s.handlePendingDiff))
	mux.HandleFunc("/api/events", s.hub.ServeWS)
	mux.Handle("/", ui.Handler())

	return s.withRequestLog(s.withCORS(mux))
}

// ListenAndServe starts the daemon on the configured TCP address.
// It blocks until the server stops or fails.
func (s *Server) ListenAndServe() error {
	listener, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.ListenAddr, err)
	}

	s.startedAt = time.Now()
	s.server = &http.Server{
		Handler: h2c.NewHandler(s.Handler(), &http2.Server{}),
	}

	s.logger.WithField("addr", s.cfg.ListenAddr).Info("Daemon listening")
	return s.server.Serve(listener)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
