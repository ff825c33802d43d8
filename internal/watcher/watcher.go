// Package watcher tracks filesystem changes under the active project root
// and publishes files_changed events so connected clients can refresh.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/forgetools/forge/internal/events"
	"github.com/forgetools/forge/internal/project"
)

const defaultDebounce = 250 * time.Millisecond

// Watcher watches the project tree recursively. fsnotify does not watch
// directories recursively, so every subdirectory is added individually and
// newly created directories are picked up from create events.
type Watcher struct {
	proj     *project.Project
	hub      *events.Hub
	debounce time.Duration
	logger   *logrus.Entry

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	pending map[string]struct{}
	timer   *time.Timer
	cancel  context.CancelFunc
}

func New(proj *project.Project, hub *events.Hub, logger *logrus.Entry) *Watcher {
	return &Watcher{
		proj:     proj,
		hub:      hub,
		debounce: defaultDebounce,
		logger:   logger,
		pending:  make(map[string]struct{}),
	}
}

// Watch starts watching the given root, replacing any previous watch.
func (w *Watcher) Watch(root string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.stopLocked()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	added := 0
	walkErr := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && project.IgnoredDir(info.Name()) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			w.logger.WithError(err).Debugf("Failed to watch %s", path)
			return nil
		}
		added++
		return nil
	})
	if walkErr != nil {
		fsw.Close()
		return walkErr
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.fsw = fsw
	w.cancel = cancel
	go w.run(ctx, fsw)

	w.logger.WithField("dirs", added).Infof("Watching project root: %s", root)
	return nil
}

// Stop tears down the active watch, if any.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopLocked()
}

func (w *Watcher) stopLocked() {
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	if w.fsw != nil {
		w.fsw.Close()
		w.fsw = nil
	}
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.pending = make(map[string]struct{})
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher) {
	for {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(fsw, event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Errorf("Watcher error: %v", err)
		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, event fsnotify.Event) {
	base := filepath.Base(event.Name)
	if project.IgnoredDir(base) {
		return
	}

	// New directories need their own watch to keep the tree covered.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := fsw.Add(event.Name); err != nil {
				w.logger.WithError(err).Debugf("Failed to watch new dir %s", event.Name)
			}
		}
	}

	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fsw != fsw {
		// A newer watch replaced this one.
		return
	}

	if rel, err := w.relPath(event.Name); err == nil {
		w.pending[rel] = struct{}{}
	}

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]struct{})
	w.timer = nil
	w.mu.Unlock()

	if len(paths) == 0 {
		return
	}

	w.logger.Debugf("Publishing files_changed for %d paths", len(paths))
	w.hub.Publish(events.TypeFilesChanged, map[string]interface{}{
		"paths": paths,
	})
}

func (w *Watcher) relPath(abs string) (string, error) {
	root := w.proj.Root()
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}
