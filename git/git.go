// Package git answers the few repository questions forge needs when
// resolving configuration: whether a directory is inside a repository and
// where that repository's top level is.
package git

import (
	"context"
	"fmt"
	"strings"

	"github.com/forgetools/forge/command"
)

// Root returns the top-level directory of the repository containing dir.
func Root(dir string) (string, error) {
	out, err := run(dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", fmt.Errorf("not inside a git repository: %w", err)
	}
	return out, nil
}

// IsRepo reports whether dir is inside a git work tree.
func IsRepo(dir string) bool {
	out, err := run(dir, "rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

func run(dir string, args ...string) (string, error) {
	cmd, err := command.NewSafeBuilder().Build(context.Background(), "git", args...)
	if err != nil {
		return "", err
	}

	execCmd := cmd.Exec()
	execCmd.Dir = dir
	output, err := execCmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}
