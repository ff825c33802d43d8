// Package assist orchestrates the core operations: generating files,
// staging and applying modifications, summarizing the project, and chat.
// It composes project file access, the LLM client, the staging session,
// the editor launcher, and the event hub. Editor launches are best-effort
// side effects and never fail an operation.
package assist

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/forgetools/forge/config"
	"github.com/forgetools/forge/errors"
	"github.com/forgetools/forge/internal/diff"
	"github.com/forgetools/forge/internal/editor"
	"github.com/forgetools/forge/internal/events"
	"github.com/forgetools/forge/internal/llm"
	"github.com/forgetools/forge/internal/project"
	"github.com/forgetools/forge/internal/session"
)

const (
	oversizeNotice   = "[File too large to include: %d bytes]"
	unreadableNotice = "[Error reading file content]"
)

// Assistant owns the daemon's operational state. Safe for concurrent use.
type Assistant struct {
	proj    *project.Project
	client  llm.Client
	sess    *session.Session
	editor  *editor.Launcher
	hub     *events.Hub
	syncCfg config.SyncConfig
	logger  *logrus.Entry

	// onRootChange runs after a new root is accepted. Used to repoint
	// the filesystem watcher.
	onRootChange func(root string)
}

// New wires an Assistant from its collaborators.
func New(proj *project.Project, client llm.Client, sess *session.Session, ed *editor.Launcher, hub *events.Hub, syncCfg config.SyncConfig, logger *logrus.Entry) *Assistant {
	return &Assistant{
		proj:    proj,
		client:  client,
		sess:    sess,
		editor:  ed,
		hub:     hub,
		syncCfg: syncCfg,
		logger:  logger,
	}
}

// OnRootChange registers a callback invoked after SetRoot succeeds.
func (a *Assistant) OnRootChange(fn func(root string)) {
	a.onRootChange = fn
}

// SetRoot validates and activates a project root, repointing session
// persistence at the project's .forge directory.
func (a *Assistant) SetRoot(path string) (string, error) {
	if err := a.proj.SetRoot(path); err != nil {
		return "", err
	}
	root := a.proj.Root()

	dotDir, err := a.proj.DotDir()
	if err != nil {
		return "", err
	}
	if err := a.sess.SetPersistPath(dotDir + "/session.json"); err != nil {
		a.logger.WithError(err).Warn("Failed to restore session state")
	}

	a.hub.Publish(events.TypeRootChanged, map[string]string{"root": root})
	if a.onRootChange != nil {
		a.onRootChange(root)
	}
	return root, nil
}

// Generate asks the model for the full content of a new file and writes
// it under the project root.
func (a *Assistant) Generate(ctx context.Context, filename, instructions string, relevantFiles []string) (string, error) {
	abs, err := a.proj.SafePath(filename)
	if err != nil {
		return "", err
	}

	var files []contextFile
	for _, rel := range relevantFiles {
		content, err := a.proj.Read(rel)
		if err != nil {
			a.logger.WithError(err).WithField("path", rel).Warn("Skipping unreadable context file")
			content = unreadableNotice
		}
		files = append(files, contextFile{Path: rel, Content: content})
	}

	content, err := a.generate(ctx, buildGeneratePrompt(filename, instructions, files))
	if err != nil {
		return "", err
	}

	if err := a.proj.Write(filename, content); err != nil {
		return "", err
	}

	a.hub.Publish(events.TypeFileGenerated, map[string]string{"path": filename})
	a.openEditor(ctx, abs)
	return filename, nil
}

// Modify proposes new content for an existing file and stages it for
// confirmation. The file on disk is untouched until Confirm.
func (a *Assistant) Modify(ctx context.Context, path, instructions string) (string, error) {
	original, err := a.proj.Read(path)
	if err != nil {
		return "", err
	}

	proposed, err := a.generate(ctx, buildModifyPrompt(path, instructions, original))
	if err != nil {
		return "", err
	}

	unified, err := diff.Unified(path, original, proposed)
	if err != nil {
		return "", errors.Generation(err, "failed to compute diff")
	}

	a.sess.Stage(&session.PendingModification{
		Path:     path,
		Original: original,
		Proposed: proposed,
		Diff:     unified,
	})

	stats := diff.Count(unified)
	a.hub.Publish(events.TypeModificationStaged, map[string]interface{}{
		"path":    path,
		"added":   stats.Added,
		"removed": stats.Removed,
	})

	if unified != "" {
		if tmp, err := a.editor.OpenDiff(ctx, path, unified); err != nil {
			a.logger.WithError(err).Warn("Failed to open diff in editor")
			a.hub.Publish(events.TypeEditorError, map[string]string{"path": path, "error": err.Error()})
		} else {
			a.hub.Publish(events.TypeEditorOpened, map[string]string{"path": tmp})
		}
	}

	return unified, nil
}

// Confirm applies the staged modification for path to disk.
func (a *Assistant) Confirm(path string) error {
	mod, err := a.sess.Take(path)
	if err != nil {
		return err
	}

	if err := a.proj.Write(mod.Path, mod.Proposed); err != nil {
		// Keep the proposal so the client can retry.
		a.sess.Stage(mod)
		return err
	}

	a.hub.Publish(events.TypeModificationApplied, map[string]string{"path": path})
	a.logger.WithField("path", path).Info("Modification applied")
	return nil
}

// Cancel discards the staged modification for path.
func (a *Assistant) Cancel(path string) error {
	if _, err := a.sess.Take(path); err != nil {
		return err
	}
	a.hub.Publish(events.TypeModificationDropped, map[string]string{"path": path})
	a.logger.WithField("path", path).Info("Modification discarded")
	return nil
}

// SyncResult reports a project summary and how much of the tree fed it.
type SyncResult struct {
	Summary       string `json:"summary"`
	FilesAnalyzed int    `json:"files_analyzed"`
	TotalFiles    int    `json:"total_files"`
}

// Sync summarizes the project by sending a bounded slice of its files to
// the model. Oversized and unreadable files are included as notices
// rather than failing the operation. No state is mutated.
func (a *Assistant) Sync(ctx context.Context) (*SyncResult, error) {
	infos, err := a.proj.List()
	if err != nil {
		return nil, err
	}
	if len(infos) == 0 {
		return &SyncResult{Summary: "No relevant files found to summarize."}, nil
	}

	var files []contextFile
	analyzed := 0
	for _, info := range infos {
		if analyzed >= a.syncCfg.MaxFiles {
			a.logger.WithField("limit", a.syncCfg.MaxFiles).Warn("Sync file limit reached")
			break
		}
		analyzed++

		if info.Size > a.syncCfg.MaxFileSizeBytes {
			files = append(files, contextFile{
				Path:    info.Path,
				Content: fmt.Sprintf(oversizeNotice, info.Size),
			})
			continue
		}
		content, err := a.proj.Read(info.Path)
		if err != nil {
			a.logger.WithError(err).WithField("path", info.Path).Warn("Could not read file during sync")
			content = unreadableNotice
		}
		files = append(files, contextFile{Path: info.Path, Content: content})
	}

	summary, err := a.generate(ctx, buildSyncPrompt(files))
	if err != nil {
		return nil, err
	}

	return &SyncResult{
		Summary:       summary,
		FilesAnalyzed: analyzed,
		TotalFiles:    len(infos),
	}, nil
}

// Chat sends a message with the windowed conversation history and appends
// the exchange to the session.
func (a *Assistant) Chat(ctx context.Context, message string) (string, error) {
	if !a.proj.RootSet() {
		return "", errors.RootNotSet()
	}

	system, err := a.proj.Instructions()
	if err != nil {
		a.logger.WithError(err).Warn("Could not read instructions file")
		system = ""
	}

	reply, err := a.client.Generate(ctx, llm.Request{
		System:  system,
		History: a.sess.Window(),
		Prompt:  message,
	})
	if err != nil {
		return "", err
	}
	reply = llm.StripCodeFences(reply)
	if strings.TrimSpace(reply) == "" {
		return "", errors.Generation(nil, "model returned an empty response")
	}

	a.sess.AddExchange(message, reply)
	return reply, nil
}

// State is a snapshot of the assistant for /api/state.
type State struct {
	Root          string   `json:"root"`
	PendingPaths  []string `json:"pending_paths"`
	HistoryLength int      `json:"history_length"`
}

// Snapshot returns the current root, staged paths, and history length.
func (a *Assistant) Snapshot() State {
	var paths []string
	for _, mod := range a.sess.PendingList() {
		paths = append(paths, mod.Path)
	}
	sort.Strings(paths)

	return State{
		Root:          a.proj.Root(),
		PendingPaths:  paths,
		HistoryLength: len(a.sess.History()),
	}
}

// PendingDiff returns the staged diff for path without consuming it.
func (a *Assistant) PendingDiff(path string) (string, error) {
	mod, ok := a.sess.Pending(path)
	if !ok {
		return "", errors.NoPendingModification(path)
	}
	return mod.Diff, nil
}

// generate runs one model call with the project instructions preamble and
// normalizes the response.
func (a *Assistant) generate(ctx context.Context, prompt string) (string, error) {
	system, err := a.proj.Instructions()
	if err != nil {
		a.logger.WithError(err).Warn("Could not read instructions file")
		system = ""
	}

	out, err := a.client.Generate(ctx, llm.Request{System: system, Prompt: prompt})
	if err != nil {
		return "", err
	}

	out = llm.StripCodeFences(out)
	if strings.TrimSpace(out) == "" {
		return "", errors.Generation(nil, "model returned empty content")
	}
	return out, nil
}

// openEditor launches the editor on path, reporting failure as an event
// rather than an error.
func (a *Assistant) openEditor(ctx context.Context, path string) {
	if err := a.editor.Open(ctx, path); err != nil {
		a.logger.WithError(err).WithField("path", path).Warn("Editor launch failed")
		a.hub.Publish(events.TypeEditorError, map[string]string{"path": path, "error": err.Error()})
		return
	}
	a.hub.Publish(events.TypeEditorOpened, map[string]string{"path": path})
}
