// Package client is the HTTP client for the forged daemon API, used by
// the CLI commands.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"github.com/forgetools/forge/errors"
)

// Client calls the daemon's REST API over local TCP.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New creates a Client for the daemon at addr (host:port).
func New(addr string) *Client {
	return &Client{
		httpClient: &http.Client{
			Transport: &http.Transport{
				DisableKeepAlives: false,
				MaxIdleConns:      10,
				IdleConnTimeout:   90 * time.Second,
			},
			// Generation calls can take a while; individual requests are
			// bounded by their context instead.
			Timeout: 0,
		},
		baseURL: "http://" + addr,
	}
}

// IsRunning reports whether the daemon answers its health check.
func (c *Client) IsRunning() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// apiError mirrors the daemon's error envelope.
type apiError struct {
	Error struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details map[string]interface{} `json:"details"`
	} `json:"error"`
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var envelope apiError
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Code != "" {
		fe := errors.New(errors.ErrorCode(envelope.Error.Code), envelope.Error.Message)
		fe.Details = envelope.Error.Details
		return fe
	}
	return fmt.Errorf("daemon returned status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach daemon: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// SetProjectRoot activates a project directory on the daemon.
func (c *Client) SetProjectRoot(ctx context.Context, root string) (string, error) {
	var out struct {
		ProjectRoot string `json:"project_root"`
	}
	err := c.post(ctx, "/api/set_project_root", map[string]string{"project_root": root}, &out)
	return out.ProjectRoot, err
}

// Generate asks the daemon to create a new file from instructions.
func (c *Client) Generate(ctx context.Context, filename, instructions string, relevantFiles []string) (string, error) {
	var out struct {
		Filepath string `json:"filepath"`
	}
	payload := map[string]interface{}{
		"filename":     filename,
		"instructions": instructions,
	}
	if len(relevantFiles) > 0 {
		payload["relevant_files"] = relevantFiles
	}
	err := c.post(ctx, "/api/generate", payload, &out)
	return out.Filepath, err
}

// Modify stages a proposed change and returns its unified diff.
func (c *Client) Modify(ctx context.Context, path, instructions string) (string, error) {
	var out struct {
		Diff string `json:"diff"`
	}
	err := c.post(ctx, "/api/modify", map[string]string{
		"filepath":     path,
		"instructions": instructions,
	}, &out)
	return out.Diff, err
}

// Confirm applies the staged change for path.
func (c *Client) Confirm(ctx context.Context, path string) error {
	return c.post(ctx, "/api/confirm_modify", map[string]string{"filepath": path}, nil)
}

// Cancel discards the staged change for path.
func (c *Client) Cancel(ctx context.Context, path string) error {
	return c.post(ctx, "/api/cancel_modify", map[string]string{"filepath": path}, nil)
}

// SyncResult mirrors the daemon's /api/sync response.
type SyncResult struct {
	Summary       string `json:"summary"`
	FilesAnalyzed int    `json:"files_analyzed"`
	TotalFiles    int    `json:"total_files"`
}

// Sync requests a project summary.
func (c *Client) Sync(ctx context.Context) (*SyncResult, error) {
	var out SyncResult
	if err := c.post(ctx, "/api/sync", map[string]string{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Chat sends a message and returns the model's reply.
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	var out struct {
		Response string `json:"response"`
	}
	err := c.post(ctx, "/api/chat", map[string]string{"message": message}, &out)
	return out.Response, err
}

// Files lists tracked project files.
func (c *Client) Files(ctx context.Context) ([]string, error) {
	var out struct {
		Files []string `json:"files"`
	}
	if err := c.get(ctx, "/api/files", &out); err != nil {
		return nil, err
	}
	return out.Files, nil
}

// FileContent returns the content of one project file.
func (c *Client) FileContent(ctx context.Context, path string) (string, error) {
	var out struct {
		Content string `json:"content"`
	}
	err := c.get(ctx, "/api/file_content?filepath="+url.QueryEscape(path), &out)
	return out.Content, err
}

// Upload stores a local file in the project's upload directory and
// returns the stored relative path.
func (c *Client) Upload(ctx context.Context, name string, content io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filepath.Base(name))
	if err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := io.Copy(fw, content); err != nil {
		return "", fmt.Errorf("failed to read upload content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload_file", &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out struct {
		Filepath string `json:"filepath"`
	}
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	return out.Filepath, nil
}

// State mirrors the daemon's /api/state response.
type State struct {
	Root          string   `json:"root"`
	PendingPaths  []string `json:"pending_paths"`
	HistoryLength int      `json:"history_length"`
}

// State returns the daemon's current project root and staged paths.
func (c *Client) State(ctx context.Context) (*State, error) {
	var out State
	if err := c.get(ctx, "/api/state", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PendingDiff returns the staged diff for path.
func (c *Client) PendingDiff(ctx context.Context, path string) (string, error) {
	var out struct {
		Diff string `json:"diff"`
	}
	err := c.get(ctx, "/api/pending_diff?filepath="+url.QueryEscape(path), &out)
	return out.Diff, err
}
