package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/forgetools/forge/cli"
	"github.com/forgetools/forge/logging"
)

// NewStateCmd creates the `state` command.
func NewStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show the daemon's current state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.GetOptions(cmd)
			pretty := logging.NewPrettyLogger()
			handler := cli.NewErrorHandler(opts.Verbose)

			c, _, err := daemonClient(cmd)
			if err != nil {
				return handler.Handle(err)
			}

			state, err := c.State(cmd.Context())
			if err != nil {
				return handler.Handle(err)
			}

			if opts.JSONOutput {
				return json.NewEncoder(os.Stdout).Encode(state)
			}

			if state.Root == "" {
				pretty.Warn("No project root set")
			} else {
				pretty.Field("root", state.Root)
			}
			pretty.Field("history messages", state.HistoryLength)
			if len(state.PendingPaths) == 0 {
				pretty.Field("pending changes", "none")
				return nil
			}
			pretty.Field("pending changes", len(state.PendingPaths))
			for _, p := range state.PendingPaths {
				fmt.Println("  " + p)
			}
			return nil
		},
	}
}
