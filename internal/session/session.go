// Package session holds the daemon's conversational state: chat history
// and modifications staged for confirmation. A staged modification is not
// applied to disk until it is confirmed; cancelling discards it.
package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/forgetools/forge/errors"
	"github.com/forgetools/forge/internal/llm"
)

// PendingModification is a staged change to one file, awaiting confirmation.
type PendingModification struct {
	Path     string    `json:"path"`
	Original string    `json:"original"`
	Proposed string    `json:"proposed"`
	Diff     string    `json:"diff"`
	StagedAt time.Time `json:"staged_at"`
}

// Session is safe for concurrent use by HTTP handlers.
type Session struct {
	mu           sync.RWMutex
	history      []llm.Message
	pending      map[string]*PendingModification
	historyTurns int
	persist      bool
	persistPath  string
	logger       *logrus.Entry
}

// New creates an empty session. historyTurns bounds the prompt window, not
// the stored history.
func New(historyTurns int, persist bool, logger *logrus.Entry) *Session {
	return &Session{
		pending:      make(map[string]*PendingModification),
		historyTurns: historyTurns,
		persist:      persist,
		logger:       logger,
	}
}

// persistedState is the on-disk shape of a session. Only chat history is
// written; staged modifications are transient and never outlive the
// process or a root change.
type persistedState struct {
	History []llm.Message `json:"history"`
}

// SetPersistPath points the session at its state file and loads any
// previously saved history. Called when the project root changes; the
// in-memory history is replaced by whatever the new project has saved,
// and all staged modifications are dropped.
func (s *Session) SetPersistPath(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.persistPath = path
	s.history = nil
	s.pending = make(map[string]*PendingModification)

	if !s.persist || path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.IO(err, "read", path)
	}

	var state persistedState
	if err := json.Unmarshal(data, &state); err != nil {
		// A corrupt session file is not fatal; start fresh.
		s.logger.WithError(err).WithField("path", path).Warn("Discarding unreadable session file")
		return nil
	}

	s.history = state.History
	s.logger.WithField("messages", len(s.history)).Debug("Session restored")
	return nil
}

// save writes the session to disk. Callers must hold the lock.
func (s *Session) save() {
	if !s.persist || s.persistPath == "" {
		return
	}

	state := persistedState{History: s.history}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		s.logger.WithError(err).Warn("Failed to marshal session")
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.persistPath), 0755); err != nil {
		s.logger.WithError(err).Warn("Failed to create session directory")
		return
	}
	if err := os.WriteFile(s.persistPath, data, 0644); err != nil {
		s.logger.WithError(err).Warn("Failed to persist session")
	}
}

// AddExchange appends a user turn and the model's reply to the history.
func (s *Session) AddExchange(userMsg, modelMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append(s.history,
		llm.Message{Role: llm.RoleUser, Content: userMsg},
		llm.Message{Role: llm.RoleModel, Content: modelMsg},
	)
	s.save()
}

// History returns a copy of the full stored history.
func (s *Session) History() []llm.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]llm.Message, len(s.history))
	copy(out, s.history)
	return out
}

// Window returns the most recent turns for inclusion in a prompt, bounded
// by the configured turn count (a turn is a user/model pair).
func (s *Session) Window() []llm.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := s.historyTurns * 2
	if limit <= 0 || len(s.history) <= limit {
		out := make([]llm.Message, len(s.history))
		copy(out, s.history)
		return out
	}

	out := make([]llm.Message, limit)
	copy(out, s.history[len(s.history)-limit:])
	return out
}

// ClearHistory drops all stored conversation turns.
func (s *Session) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = nil
	s.save()
}

// normalizeKey cleans a request path so equivalent spellings of the same
// file ("./a.py", "a.py", "b/../a.py") share one pending slot.
func normalizeKey(path string) string {
	return filepath.ToSlash(filepath.Clean(path))
}

// Stage records a modification awaiting confirmation. Staging a path that
// already has a pending modification replaces it.
func (s *Session) Stage(mod *PendingModification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if mod.StagedAt.IsZero() {
		mod.StagedAt = time.Now()
	}
	mod.Path = normalizeKey(mod.Path)
	s.pending[mod.Path] = mod

	s.logger.WithField("path", mod.Path).Debug("Modification staged")
}

// Pending returns the staged modification for a path, if any.
func (s *Session) Pending(path string) (*PendingModification, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	mod, ok := s.pending[normalizeKey(path)]
	return mod, ok
}

// Take removes and returns the staged modification for a path. It fails
// when nothing is staged for that path.
func (s *Session) Take(path string) (*PendingModification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalizeKey(path)
	mod, ok := s.pending[key]
	if !ok {
		return nil, errors.NoPendingModification(path)
	}
	delete(s.pending, key)
	return mod, nil
}

// PendingList returns all staged modifications sorted by path.
func (s *Session) PendingList() []*PendingModification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*PendingModification, 0, len(s.pending))
	for _, mod := range s.pending {
		out = append(out, mod)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Reset clears history and staged modifications.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = nil
	s.pending = make(map[string]*PendingModification)
	s.save()
}
