// Package project holds the active project root and performs all file
// access on behalf of the daemon. Every path that reaches the filesystem
// goes through SafePath first.
package project

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/moby/patternmatcher"
	"github.com/sirupsen/logrus"

	"github.com/forgetools/forge/config"
	"github.com/forgetools/forge/errors"
	"github.com/forgetools/forge/util/pathutil"
	"github.com/forgetools/forge/util/sanitize"
)

// alwaysIgnored are directory names skipped during listing regardless of
// the ignore file contents.
var alwaysIgnored = map[string]bool{
	".git":         true,
	".forge":       true,
	"node_modules": true,
	".venv":        true,
	"__pycache__":  true,
	"vendor":       true,
}

// IgnoredDir reports whether a directory name is always excluded from
// listing and watching.
func IgnoredDir(name string) bool {
	return alwaysIgnored[name] || strings.HasPrefix(name, ".")
}

// FileInfo describes a tracked project file.
type FileInfo struct {
	Path    string `json:"path"`
	Size    int64  `json:"size"`
	ModTime int64  `json:"mod_time"`
}

// Project manages the project root directory and file access under it.
type Project struct {
	mu     sync.RWMutex
	root   string
	files  config.FilesConfig
	logger *logrus.Entry
}

// New creates a Project with no root set.
func New(files config.FilesConfig, logger *logrus.Entry) *Project {
	return &Project{
		files:  files,
		logger: logger,
	}
}

// SetRoot validates and sets the active project root. The path must exist
// and be a directory.
func (p *Project) SetRoot(path string) error {
	if strings.TrimSpace(path) == "" {
		return errors.InvalidPath(path, "path is empty")
	}

	abs, err := pathutil.Expand(path)
	if err != nil {
		return errors.InvalidPath(path, err.Error())
	}

	info, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.InvalidPath(path, "directory does not exist")
		}
		return errors.IO(err, "stat", abs)
	}
	if !info.IsDir() {
		return errors.InvalidPath(path, "not a directory")
	}

	p.mu.Lock()
	p.root = abs
	p.mu.Unlock()

	p.logger.WithField("root", abs).Info("Project root set")
	return nil
}

// Root returns the active project root, or an empty string if unset.
func (p *Project) Root() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.root
}

// RootSet reports whether a project root has been configured.
func (p *Project) RootSet() bool {
	return p.Root() != ""
}

// SafePath resolves a relative path against the project root and rejects
// anything that escapes it. Absolute paths and traversal sequences are
// refused before the filesystem is touched.
func (p *Project) SafePath(rel string) (string, error) {
	root := p.Root()
	if root == "" {
		return "", errors.RootNotSet()
	}

	if strings.TrimSpace(rel) == "" {
		return "", errors.InvalidPath(rel, "path is empty")
	}
	if filepath.IsAbs(rel) {
		return "", errors.InvalidPath(rel, "absolute paths are not allowed")
	}

	abs, err := filepath.Abs(filepath.Join(root, rel))
	if err != nil {
		return "", errors.InvalidPath(rel, err.Error())
	}

	if abs != root && !strings.HasPrefix(abs, root+string(os.PathSeparator)) {
		return "", errors.PathOutsideRoot(rel)
	}

	return abs, nil
}

// List walks the project root and returns tracked files, sorted by path.
// Files are filtered by the configured extensions and the ignore file.
func (p *Project) List() ([]FileInfo, error) {
	root := p.Root()
	if root == "" {
		return nil, errors.RootNotSet()
	}

	matcher, err := p.loadIgnoreMatcher(root)
	if err != nil {
		return nil, err
	}

	extSet := make(map[string]bool, len(p.files.Extensions))
	for _, ext := range p.files.Extensions {
		extSet[strings.ToLower(ext)] = true
	}

	var files []FileInfo
	walkErr := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			// Unreadable entries are skipped, not fatal
			p.logger.WithError(err).WithField("path", path).Debug("Skipping unreadable entry")
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil || rel == "." {
			return nil
		}

		if info.IsDir() {
			if IgnoredDir(info.Name()) {
				return filepath.SkipDir
			}
			if matcher != nil {
				if ignored, _ := matcher.MatchesOrParentMatches(rel); ignored {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if !extSet[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		if matcher != nil {
			if ignored, _ := matcher.MatchesOrParentMatches(rel); ignored {
				return nil
			}
		}

		files = append(files, FileInfo{
			Path:    filepath.ToSlash(rel),
			Size:    info.Size(),
			ModTime: info.ModTime().Unix(),
		})
		return nil
	})
	if walkErr != nil {
		return nil, errors.IO(walkErr, "walk", root)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// loadIgnoreMatcher builds a matcher from the project's ignore file.
// A missing ignore file yields a nil matcher.
func (p *Project) loadIgnoreMatcher(root string) (*patternmatcher.PatternMatcher, error) {
	ignorePath := filepath.Join(root, p.files.IgnoreFile)
	data, err := os.ReadFile(ignorePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.IO(err, "read", ignorePath)
	}

	var patterns []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}

	matcher, err := patternmatcher.New(patterns)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, "invalid ignore pattern").
			WithDetail("file", ignorePath)
	}
	return matcher, nil
}

// Read returns the content of a tracked file.
func (p *Project) Read(rel string) (string, error) {
	abs, err := p.SafePath(rel)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.FileNotFound(rel)
		}
		return "", errors.IO(err, "read", rel)
	}
	return string(data), nil
}

// Write replaces the content of a file under the root, creating parent
// directories as needed.
func (p *Project) Write(rel string, content string) error {
	abs, err := p.SafePath(rel)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return errors.IO(err, "mkdir", rel)
	}
	if err := os.WriteFile(abs, []byte(content), 0644); err != nil {
		return errors.IO(err, "write", rel)
	}

	p.logger.WithField("path", rel).Debug("File written")
	return nil
}

// Exists reports whether a file exists under the root.
func (p *Project) Exists(rel string) (bool, error) {
	abs, err := p.SafePath(rel)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(abs); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.IO(err, "stat", rel)
	}
	return true, nil
}

// SaveUpload stores client-supplied file content in the upload directory.
// The stored name is sanitized and returned relative to the root.
func (p *Project) SaveUpload(name string, content []byte) (string, error) {
	root := p.Root()
	if root == "" {
		return "", errors.RootNotSet()
	}

	safeName := sanitize.ForUploadName(name)
	rel := filepath.Join(p.files.UploadDir, safeName)

	abs, err := p.SafePath(rel)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		return "", errors.IO(err, "mkdir", p.files.UploadDir)
	}
	if err := os.WriteFile(abs, content, 0644); err != nil {
		return "", errors.IO(err, "write", rel)
	}

	p.logger.WithFields(logrus.Fields{"name": name, "stored": rel}).Info("Upload saved")
	return filepath.ToSlash(rel), nil
}

// Instructions returns the optional prompt preamble stored in the project.
// A missing file returns an empty string.
func (p *Project) Instructions() (string, error) {
	root := p.Root()
	if root == "" {
		return "", errors.RootNotSet()
	}

	path := filepath.Join(root, p.files.InstructionsFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errors.IO(err, "read", p.files.InstructionsFile)
	}
	return string(data), nil
}

// DotDir returns the project's .forge directory, creating it if needed.
func (p *Project) DotDir() (string, error) {
	root := p.Root()
	if root == "" {
		return "", errors.RootNotSet()
	}
	dir := filepath.Join(root, ".forge")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.IO(err, "mkdir", ".forge")
	}
	return dir, nil
}
