// Package llm wraps the language model backend behind a small interface so
// the rest of the daemon never touches the SDK directly.
package llm

import (
	"context"
	"strings"
)

// Message roles as stored in conversation history.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Message is a single turn of conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request carries everything a generation call needs.
type Request struct {
	// System is an optional instruction prepended to the conversation.
	System string

	// History holds prior turns, oldest first.
	History []Message

	// Prompt is the current user message.
	Prompt string
}

// Client produces model output for a request.
type Client interface {
	// Generate returns the model's text response. Implementations retry
	// transient failures internally.
	Generate(ctx context.Context, req Request) (string, error)
}

// StripCodeFences removes a single wrapping markdown code fence from model
// output. Models frequently wrap whole files in ```lang blocks even when
// asked for raw content.
func StripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return s
	}

	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return s
	}

	// Opening fence may carry a language tag; drop the whole line.
	lines = lines[1:]

	// Drop the closing fence if present.
	last := len(lines) - 1
	if strings.TrimSpace(lines[last]) == "```" {
		lines = lines[:last]
	}

	return strings.Join(lines, "\n")
}
