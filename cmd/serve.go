package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/forgetools/forge/command"
	"github.com/forgetools/forge/internal/assist"
	"github.com/forgetools/forge/internal/editor"
	"github.com/forgetools/forge/internal/events"
	"github.com/forgetools/forge/internal/llm"
	"github.com/forgetools/forge/internal/pidfile"
	"github.com/forgetools/forge/internal/project"
	"github.com/forgetools/forge/internal/server"
	"github.com/forgetools/forge/internal/session"
	"github.com/forgetools/forge/internal/watcher"
	"github.com/forgetools/forge/logging"
	"github.com/forgetools/forge/pkg/client"
	"github.com/forgetools/forge/pkg/paths"
)

// NewServeCmd returns the forged daemon command with subcommands.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Manage the forge daemon",
		Long:  "Run and control forged, the background server behind the API and browser UI.",
	}

	cmd.AddCommand(newServeStartCmd())
	cmd.AddCommand(newServeStopCmd())
	cmd.AddCommand(newServeStatusCmd())

	return cmd
}

func newServeStartCmd() *cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the daemon",
		Long:  "Start forged in foreground mode.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewLogger("forged")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			pidFile := pidfile.New(paths.PidFilePath())
			if err := pidFile.Acquire(); err != nil {
				return fmt.Errorf("failed to start: %w", err)
			}
			defer func() {
				if err := pidFile.Release(); err != nil {
					logger.Errorf("Failed to release pidfile: %v", err)
				}
			}()

			llmClient, err := llm.NewGeminiClient(cmd.Context(), cfg.LLM, logging.NewLogger("llm"))
			if err != nil {
				return err
			}

			proj := project.New(cfg.Files, logging.NewLogger("project"))
			persist := cfg.Chat.Persist == nil || *cfg.Chat.Persist
			sess := session.New(cfg.Chat.HistoryTurns, persist, logging.NewLogger("session"))
			hub := events.NewHub(logging.NewLogger("events"), corsCheck(cfg.Server.CORSOrigins))
			ed := editor.New(cfg.Editor, &command.RealExecutor{}, logging.NewLogger("editor"))

			assistant := assist.New(proj, llmClient, sess, ed, hub, cfg.Sync, logging.NewLogger("assist"))

			fsWatcher := watcher.New(proj, hub, logging.NewLogger("watcher"))
			defer fsWatcher.Stop()
			assistant.OnRootChange(func(root string) {
				if err := fsWatcher.Watch(root); err != nil {
					logger.WithError(err).Warn("Failed to watch project root")
				}
			})

			srv := server.New(cfg.Server, assistant, proj, hub, logger)

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

			go func() {
				<-stop
				logger.Info("Received stop signal")

				shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer shutdownCancel()

				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.Errorf("Server shutdown error: %v", err)
				}

				fsWatcher.Stop()
				_ = pidFile.Release()
				os.Exit(0)
			}()

			logger.WithField("pid", os.Getpid()).Info("Starting daemon")
			if err := srv.ListenAndServe(); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}
	return startCmd
}

// corsCheck builds the websocket origin check from the configured origins.
// An empty list allows any origin; the daemon binds to loopback only.
func corsCheck(origins []string) func(*http.Request) bool {
	if len(origins) == 0 {
		return func(*http.Request) bool { return true }
	}
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed["*"] || allowed[origin]
	}
}

func newServeStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			pidFile := pidfile.New(paths.PidFilePath())

			running, pid, err := pidFile.IsRunning()
			if err != nil {
				return fmt.Errorf("error checking status: %w", err)
			}

			if !running {
				fmt.Println("Daemon is not running")
				return nil
			}

			process, err := os.FindProcess(pid)
			if err != nil {
				return fmt.Errorf("failed to find process %d: %w", pid, err)
			}

			if err := process.Signal(syscall.SIGTERM); err != nil {
				return fmt.Errorf("failed to send stop signal: %w", err)
			}

			fmt.Printf("Sent SIGTERM to process %d\n", pid)
			return nil
		},
	}
}

func newServeStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check daemon status",
		RunE: func(cmd *cobra.Command, args []string) error {
			pidFile := pidfile.New(paths.PidFilePath())
			running, pid, err := pidFile.IsRunning()
			if err != nil {
				return fmt.Errorf("error: %w", err)
			}

			if !running {
				fmt.Println("Stopped")
				os.Exit(1) // Non-zero for stopped state, useful in scripts
			}

			fmt.Printf("Running (PID: %d)\n", pid)

			if cfg, err := loadConfig(cmd); err == nil {
				if client.New(cfg.Server.ListenAddr).IsRunning() {
					fmt.Printf("Listening: %s\n", cfg.Server.ListenAddr)
				} else {
					fmt.Println("Warning: process is alive but not answering health checks")
				}
			}
			return nil
		},
	}
}
