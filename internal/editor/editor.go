// Package editor opens files in the user's editor. Launching is best
// effort: the daemon reports failures as events rather than failing the
// operation that triggered the launch.
package editor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/neovim/go-client/nvim"
	"github.com/sirupsen/logrus"

	"github.com/forgetools/forge/command"
	"github.com/forgetools/forge/config"
	"github.com/forgetools/forge/errors"
)

// Launcher resolves and launches the user's editor.
type Launcher struct {
	cfg      config.EditorConfig
	executor command.Executor
	logger   *logrus.Entry

	// dial is swappable for tests.
	dial func(addr string) (*nvim.Nvim, error)
}

// New creates a Launcher. The executor is injected so tests can stub
// process creation.
func New(cfg config.EditorConfig, executor command.Executor, logger *logrus.Entry) *Launcher {
	return &Launcher{
		cfg:      cfg,
		executor: executor,
		logger:   logger,
		dial: func(addr string) (*nvim.Nvim, error) {
			return nvim.Dial(addr)
		},
	}
}

// Resolve returns the editor command to use: the configured command first,
// then $EDITOR, then $VISUAL, then nvim.
func (l *Launcher) Resolve() string {
	if l.cfg.Command != "" {
		return l.cfg.Command
	}
	if editor := os.Getenv("EDITOR"); editor != "" {
		return editor
	}
	if visual := os.Getenv("VISUAL"); visual != "" {
		return visual
	}
	return "nvim"
}

// Open opens the given absolute path in the user's editor. When a Neovim
// server is reachable via NVIM_LISTEN_ADDRESS the file is opened there
// instead of spawning a new process.
func (l *Launcher) Open(ctx context.Context, path string) error {
	if !l.cfg.DisableNvimAttach {
		if addr := os.Getenv("NVIM_LISTEN_ADDRESS"); addr != "" {
			if err := l.openInNvim(addr, path); err == nil {
				l.logger.WithField("path", path).Debug("Opened in attached Neovim")
				return nil
			} else {
				l.logger.WithError(err).Debug("Neovim attach failed, spawning editor")
			}
		}
	}

	editor := l.Resolve()
	cmd := l.executor.CommandContext(ctx, editor, path)
	if err := cmd.Start(); err != nil {
		return errors.EditorFailed(err, editor, path)
	}

	// Reap the process; the daemon does not wait for the editor to exit.
	go func() {
		if err := cmd.Wait(); err != nil {
			l.logger.WithError(err).WithField("editor", editor).Debug("Editor exited with error")
		}
	}()

	l.logger.WithFields(logrus.Fields{"editor": editor, "path": path}).Info("Editor launched")
	return nil
}

// OpenDiff writes diff text to a temp file and opens it in the editor.
// It returns the temp file path.
func (l *Launcher) OpenDiff(ctx context.Context, name, diffText string) (string, error) {
	base := strings.ReplaceAll(filepath.Base(name), string(os.PathSeparator), "_")
	f, err := os.CreateTemp("", fmt.Sprintf("forge-%s-*.diff", base))
	if err != nil {
		return "", errors.IO(err, "create", "temp diff")
	}
	if _, err := f.WriteString(diffText); err != nil {
		f.Close()
		return "", errors.IO(err, "write", f.Name())
	}
	if err := f.Close(); err != nil {
		return "", errors.IO(err, "close", f.Name())
	}

	if err := l.Open(ctx, f.Name()); err != nil {
		return f.Name(), err
	}
	return f.Name(), nil
}

// openInNvim attaches to a running Neovim and edits the file there.
func (l *Launcher) openInNvim(addr, path string) error {
	v, err := l.dial(addr)
	if err != nil {
		return err
	}
	defer v.Close()

	return v.Command("edit " + escapePath(path))
}

// escapePath escapes characters that are special in nvim command lines.
func escapePath(path string) string {
	r := strings.NewReplacer(" ", `\ `, "%", `\%`, "#", `\#`)
	return r.Replace(path)
}
