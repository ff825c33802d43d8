package cmd

import (
	"github.com/spf13/cobra"

	"github.com/forgetools/forge/cli"
	"github.com/forgetools/forge/command"
	"github.com/forgetools/forge/internal/editor"
	"github.com/forgetools/forge/logging"
	"github.com/forgetools/forge/util/pathutil"
)

// NewEditCmd creates the `edit` command. It launches the configured
// editor locally, attaching to a running Neovim when one is advertised.
func NewEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <file>",
		Short: "Open a file in the configured editor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.GetOptions(cmd)
			handler := cli.NewErrorHandler(opts.Verbose)

			cfg, err := loadConfig(cmd)
			if err != nil {
				return handler.Handle(err)
			}

			path, err := pathutil.Expand(args[0])
			if err != nil {
				return handler.Handle(err)
			}

			launcher := editor.New(cfg.Editor, &command.RealExecutor{}, logging.NewLogger("editor"))
			if err := launcher.Open(cmd.Context(), path); err != nil {
				return handler.Handle(err)
			}
			return nil
		},
	}
}
