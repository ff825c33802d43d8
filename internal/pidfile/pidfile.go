// Package pidfile tracks the forged process id on disk so the CLI can
// find, health-check, and stop a running daemon.
package pidfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/forgetools/forge/pkg/process"
)

// File is a PID file at a fixed path.
type File struct {
	path string
}

func New(path string) *File {
	return &File{path: path}
}

func (f *File) Path() string {
	return f.path
}

// Acquire records the current process in the file. It fails if another
// live process already holds it; a stale entry from a dead process is
// replaced silently.
func (f *File) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("failed to create pid directory: %w", err)
	}

	if pid, err := f.Read(); err == nil {
		if process.IsProcessAlive(pid) {
			return fmt.Errorf("daemon already running with PID %d", pid)
		}
		_ = os.Remove(f.path)
	}

	if err := os.WriteFile(f.path, []byte(strconv.Itoa(os.Getpid())), 0644); err != nil {
		return fmt.Errorf("failed to write pid file: %w", err)
	}
	return nil
}

// Release removes the file.
func (f *File) Release() error {
	return os.Remove(f.path)
}

// Read returns the recorded PID.
func (f *File) Read() (int, error) {
	content, err := os.ReadFile(f.path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(content)))
}

// IsRunning reports whether the recorded process is alive. A missing
// file means no daemon, not an error.
func (f *File) IsRunning() (bool, int, error) {
	pid, err := f.Read()
	if err != nil {
		if os.IsNotExist(err) {
			return false, 0, nil
		}
		return false, 0, err
	}
	return process.IsProcessAlive(pid), pid, nil
}
