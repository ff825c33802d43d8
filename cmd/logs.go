package cmd

import (
	"fmt"
	"io"
	"io/ioutil"
	stdlog "log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/hpcloud/tail"
	"github.com/spf13/cobra"

	"github.com/forgetools/forge/cli"
	"github.com/forgetools/forge/pkg/paths"
)

// NewLogsCmd creates the `logs` command.
func NewLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Display forge component logs",
		Long: `Print log files written under .forge/logs. Each component (forged,
assist, watcher, ...) writes its own dated file.

Examples:
  # Show all logs from the current project
  forge logs

  # Follow logs as they are written
  forge logs -f

  # Only one component
  forge logs --component forged
`,
		RunE: runLogsE,
	}

	cmd.Flags().BoolP("follow", "f", false, "Follow log output")
	cmd.Flags().String("component", "", "Only show logs for one component")
	cmd.Flags().String("dir", "", "Log directory (default: ./.forge/logs)")

	return cmd
}

func runLogsE(cmd *cobra.Command, args []string) error {
	opts := cli.GetOptions(cmd)
	handler := cli.NewErrorHandler(opts.Verbose)

	follow, _ := cmd.Flags().GetBool("follow")
	component, _ := cmd.Flags().GetString("component")
	dir, _ := cmd.Flags().GetString("dir")

	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return handler.Handle(err)
		}
		dir = filepath.Join(cwd, ".forge", "logs")
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			// Outside a project, fall back to the daemon's own logs.
			dir = paths.DaemonLogDir()
		}
	}

	pattern := "*.log"
	if component != "" {
		pattern = component + "-*.log"
	}
	files, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return handler.Handle(err)
	}
	if len(files) == 0 {
		fmt.Fprintf(os.Stderr, "No log files in %s\n", dir)
		return nil
	}
	sort.Strings(files)

	if !follow {
		for _, path := range files {
			data, err := os.ReadFile(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Cannot read %s: %v\n", path, err)
				continue
			}
			os.Stdout.Write(data)
		}
		return nil
	}

	var wg sync.WaitGroup
	lines := make(chan string, 256)

	for _, path := range files {
		name := componentFromLogName(filepath.Base(path))
		wg.Add(1)
		go func(path, name string) {
			defer wg.Done()

			t, err := tail.TailFile(path, tail.Config{
				Follow:   true,
				ReOpen:   true,
				Location: &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd},
				Logger:   stdlog.New(ioutil.Discard, "", 0),
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "Cannot tail %s: %v\n", path, err)
				return
			}
			for line := range t.Lines {
				if line.Err != nil {
					continue
				}
				lines <- fmt.Sprintf("[%s] %s", name, line.Text)
			}
		}(path, name)
	}

	go func() {
		wg.Wait()
		close(lines)
	}()

	for line := range lines {
		fmt.Println(line)
	}
	return nil
}

// componentFromLogName strips the date suffix from "<component>-<date>.log".
func componentFromLogName(base string) string {
	name := strings.TrimSuffix(base, ".log")
	if i := strings.LastIndex(name, "-"); i > 0 {
		// Dated files look like forged-2026-08-29; cut from the first
		// date segment.
		parts := strings.Split(name, "-")
		if len(parts) >= 4 {
			return strings.Join(parts[:len(parts)-3], "-")
		}
	}
	return name
}
